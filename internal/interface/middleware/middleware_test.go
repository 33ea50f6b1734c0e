package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/teamsync/internal/application"
	"github.com/oksasatya/teamsync/internal/infrastructure/memory"
	"github.com/oksasatya/teamsync/pkg/helpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Status    int             `json:"status"`
	RequestID string          `json:"request_id"`
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Error     json.RawMessage `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e), w.Body.String())
	return e
}

func do(r http.Handler, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type fixture struct {
	store *memory.CredentialStore
	svc   *application.AuthService
	authn *application.Authenticator
	authz *application.Authorizer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewCredentialStore(memory.WithDefaultRoles())
	tokens, err := helpers.NewTokenService(helpers.TokenConfig{Secret: "s", Audience: "user", Algorithm: "HS256", TTL: time.Hour})
	require.NoError(t, err)
	return &fixture{
		store: store,
		svc:   application.NewAuthService(store, tokens, nil, nil, nil),
		authn: application.NewAuthenticator(store, tokens, nil),
		authz: application.NewAuthorizer(store),
	}
}

func (f *fixture) register(t *testing.T, email string) *application.RegisterResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), application.RegisterInput{Email: email, Name: "T", Password: "secret1"})
	require.NoError(t, err)
	return res
}
