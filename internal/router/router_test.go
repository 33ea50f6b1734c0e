package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/teamsync/config"
	"github.com/oksasatya/teamsync/internal/application"
	"github.com/oksasatya/teamsync/internal/container"
	"github.com/oksasatya/teamsync/internal/domain/entity"
	"github.com/oksasatya/teamsync/internal/infrastructure/memory"
	handlers "github.com/oksasatya/teamsync/internal/interface/http"
	"github.com/oksasatya/teamsync/internal/interface/middleware"
	"github.com/oksasatya/teamsync/pkg/helpers"
	"github.com/oksasatya/teamsync/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

func testConfig() *config.Config {
	return &config.Config{
		AppName:                   "teamsync-test",
		Env:                       "test",
		JWTSecret:                 "test-secret",
		JWTAudience:               "user",
		JWTAlgorithm:              "HS256",
		JWTExpiresIn:              time.Hour,
		RoleCacheTTL:              time.Minute,
		AuthRateLimit:             100,
		DefaultWorkspaceName:      "My Workspace",
		FrontendGoogleCallbackURL: "http://front.test/google/callback",
		DebugMetricsEnabled:       true,
	}
}

type fakeGoogle struct{}

func (fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.test/auth?state=" + url.QueryEscape(state)
}

func (fakeGoogle) Exchange(_ context.Context, code string) (*application.ProviderIdentity, error) {
	if code != "good" {
		return nil, errors.New("bad code")
	}
	return &application.ProviderIdentity{
		Provider: entity.ProviderGoogle, ProviderID: "g-42", Email: "gina@x.com", DisplayName: "Gina",
	}, nil
}

type server struct {
	engine *gin.Engine
	store  *memory.CredentialStore
}

type option func(*container.Deps)

func withRedis(rdb *redis.Client) option { return func(d *container.Deps) { d.Redis = rdb } }

func withGoogle() option { return func(d *container.Deps) { d.Google = fakeGoogle{} } }

func withAuthRateLimit(n int) option { return func(d *container.Deps) { d.Config.AuthRateLimit = n } }

func withChecks(checks map[string]handlers.Pinger) option {
	return func(d *container.Deps) { d.Checks = checks }
}

func newServer(t *testing.T, opts ...option) *server {
	t.Helper()
	store := memory.NewCredentialStore(memory.WithDefaultRoles())
	deps := container.Deps{
		Config: testConfig(),
		Logger: helpers.NewDiscardLogger(),
		Store:  store,
	}
	for _, o := range opts {
		o(&deps)
	}
	c, err := container.New(deps)
	require.NoError(t, err)

	r := gin.New()
	require.NoError(t, middleware.TrustProxies(r, middleware.ProxyConfig{}))
	r.Use(middleware.RequestIDMiddleware())
	reg := NewRegistry(r)
	reg.Use(middleware.RealIP(), middleware.RequestMeta())
	InitModules(reg, c)
	reg.RegisterAll()
	return &server{engine: r, store: store}
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func (s *server) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "" && w.Code != http.StatusFound {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

type registered struct {
	AccessToken string `json:"access_token"`
	WorkspaceID string `json:"workspace_id"`
	User        struct {
		ID string `json:"id"`
	} `json:"user"`
}

func (s *server) register(t *testing.T, email, password string) registered {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"name": "Tester", "email": email, "password": password})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "user created successfully", env.Message)
	var out registered
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(t, out.AccessToken)
	return out
}

func TestRegisterThenCurrentUser(t *testing.T) {
	s := newServer(t)
	reg := s.register(t, "a@x.com", "secret1")

	w, env := s.do(t, http.MethodGet, "/api/user/current", reg.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		User map[string]any `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "a@x.com", data.User["email"])
	assert.Equal(t, reg.User.ID, data.User["id"])
	assert.Equal(t, reg.WorkspaceID, data.User["current_workspace"])
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRegister_Duplicate(t *testing.T) {
	s := newServer(t)
	s.register(t, "a@x.com", "secret1")

	w, env := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"name": "B", "email": "a@x.com", "password": "secret2"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "user already exists", env.Message)
}

func TestRegister_Validation(t *testing.T) {
	s := newServer(t)
	cases := map[string]gin.H{
		"bad email":      {"name": "A", "email": "not-an-email", "password": "secret1"},
		"short password": {"name": "A", "email": "a@x.com", "password": "12345"},
		"missing name":   {"email": "a@x.com", "password": "secret1"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w, env := s.do(t, http.MethodPost, "/api/auth/register", "", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "invalid payload", env.Message)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestLogin_FailuresAreUniformAndDoNotLockOut(t *testing.T) {
	s := newServer(t)
	s.register(t, "a@x.com", "secret1")

	for i := 0; i < 3; i++ {
		w, env := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@x.com", "password": "wrong"})
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid email or password", env.Message)
	}
	w, env := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "nobody@x.com", "password": "secret1"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid email or password", env.Message)

	w, env = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		AccessToken string         `json:"access_token"`
		User        map[string]any `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data.AccessToken)
	assert.Equal(t, "a@x.com", data.User["email"])

	w, _ = s.do(t, http.MethodGet, "/api/user/current", data.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newServer(t)
	for _, path := range []string{"/api/user/current", "/api/workspace/abc/permissions", "/api/workspace/abc/members"} {
		w, env := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "unauthorized", env.Message)

		w, _ = s.do(t, http.MethodGet, path, "forged.token.value", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestWorkspacePermissionsAndMembers(t *testing.T) {
	s := newServer(t)
	owner := s.register(t, "a@x.com", "secret1")
	other := s.register(t, "b@x.com", "secret1")

	w, env := s.do(t, http.MethodGet, "/api/workspace/"+owner.WorkspaceID+"/permissions", owner.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var perms struct {
		WorkspaceID string              `json:"workspace_id"`
		Permissions []entity.Permission `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &perms))
	assert.Equal(t, owner.WorkspaceID, perms.WorkspaceID)
	assert.ElementsMatch(t, entity.RolePermissions[entity.RoleOwner], perms.Permissions)

	// a non-member resolves to no permissions
	w, env = s.do(t, http.MethodGet, "/api/workspace/"+owner.WorkspaceID+"/permissions", other.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &perms))
	assert.Empty(t, perms.Permissions)

	w, env = s.do(t, http.MethodGet, "/api/workspace/"+owner.WorkspaceID+"/members", owner.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var members struct {
		Members []entity.Member `json:"members"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &members))
	require.Len(t, members.Members, 1)
	assert.Equal(t, owner.User.ID, members.Members[0].UserID)

	w, env = s.do(t, http.MethodGet, "/api/workspace/"+owner.WorkspaceID+"/members", other.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", env.Message)
}

func TestLogout(t *testing.T) {
	s := newServer(t)
	w, env := s.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
}

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("down") }

	s := newServer(t, withChecks(map[string]handlers.Pinger{"postgres": ok}))
	w, env := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"postgres":"up"}`, string(env.Data))

	s = newServer(t, withChecks(map[string]handlers.Pinger{"postgres": ok, "redis": down}))
	w, env = s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"postgres":"up","redis":"down"}`, string(env.Error))
}

func TestDebugVars(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/debug/vars", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "memstats")
}

func TestWithRedis_RoleCacheAndRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := newServer(t, withRedis(rdb))

	s.register(t, "a@x.com", "secret1")
	assert.True(t, mr.Exists("role:OWNER"), "owner role should be cached after provisioning")

	for i := 0; i < 3; i++ {
		w, _ := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@x.com", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestLoginLimitIgnoresForwardedHeaders(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := newServer(t, withRedis(rdb), withAuthRateLimit(3))

	login := func(i int) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@x.com","password":"wrong"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		req.Header.Set("X-Real-IP", "127.0.0.1")
		req.RemoteAddr = "198.51.100.9:40000"
		w := httptest.NewRecorder()
		s.engine.ServeHTTP(w, req)
		return w.Code
	}
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusUnauthorized, login(i))
	}
	assert.Equal(t, http.StatusTooManyRequests, login(99))
	assert.True(t, mr.Exists("rl:path:/api/auth/login:ip:198.51.100.9"))
}

func googleRequest(s *server, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func stateFrom(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	require.Equal(t, http.StatusFound, w.Code)
	u, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func callbackQuery(t *testing.T, w *httptest.ResponseRecorder) url.Values {
	t.Helper()
	require.Equal(t, http.StatusFound, w.Code)
	u, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "front.test", u.Host)
	return u.Query()
}

func TestGoogleSignIn_RedisState(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := newServer(t, withRedis(rdb), withGoogle())

	state := stateFrom(t, googleRequest(s, "/api/auth/google"))
	assert.True(t, mr.Exists("oauth:state:"+state))

	q := callbackQuery(t, googleRequest(s, "/api/auth/google/callback?code=good&state="+url.QueryEscape(state)))
	require.Equal(t, "success", q.Get("status"))
	require.NotEmpty(t, q.Get("access_token"))
	assert.NotEmpty(t, q.Get("current_workspace"))

	w, _ := s.do(t, http.MethodGet, "/api/user/current", q.Get("access_token"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gina@x.com")

	// state is single use
	q = callbackQuery(t, googleRequest(s, "/api/auth/google/callback?code=good&state="+url.QueryEscape(state)))
	assert.Equal(t, "failure", q.Get("status"))
}

func TestGoogleSignIn_CookieStateAndFailures(t *testing.T) {
	s := newServer(t, withGoogle())

	w := googleRequest(s, "/api/auth/google")
	state := stateFrom(t, w)
	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "oauth_state" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	q := callbackQuery(t, googleRequest(s, "/api/auth/google/callback?code=good&state=forged", cookie))
	assert.Equal(t, "failure", q.Get("status"))

	q = callbackQuery(t, googleRequest(s, "/api/auth/google/callback?code=bad&state="+url.QueryEscape(state), cookie))
	assert.Equal(t, "failure", q.Get("status"))

	q = callbackQuery(t, googleRequest(s, "/api/auth/google/callback?code=good&state="+url.QueryEscape(state), cookie))
	assert.Equal(t, "success", q.Get("status"))
}

func TestGoogleRoutesAbsentWhenDisabled(t *testing.T) {
	s := newServer(t)
	w := googleRequest(s, "/api/auth/google")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
