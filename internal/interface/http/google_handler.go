package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/teamsync/internal/application"
	"github.com/oksasatya/teamsync/internal/interface/middleware"
	"github.com/oksasatya/teamsync/pkg/helpers"
)

const (
	stateTTL        = 10 * time.Minute
	stateCookieName = "oauth_state"
)

func keyOAuthState(s string) string { return "oauth:state:" + s }

// IdentityProvider is an external sign-in provider such as Google.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*application.ProviderIdentity, error)
}

// GoogleHandler drives the redirect-based provider sign-in.
// State lives in Redis when available, otherwise in a short-lived cookie.
type GoogleHandler struct {
	Svc         *application.AuthService
	Provider    IdentityProvider
	RDB         redis.Cmdable
	CallbackURL string // frontend page that receives the token
	Secure      bool
	Logger      *logrus.Logger
}

// Login GET /api/auth/google
func (h *GoogleHandler) Login(c *gin.Context) {
	state, err := newState()
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if h.RDB != nil {
		if err := h.RDB.Set(c.Request.Context(), keyOAuthState(state), "1", stateTTL).Err(); err != nil {
			writeError(c, h.Logger, err)
			return
		}
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(stateCookieName, state, int(stateTTL.Seconds()), "/", "", h.Secure, true)
	}
	c.Redirect(http.StatusFound, h.Provider.AuthCodeURL(state))
}

// Callback GET /api/auth/google/callback
func (h *GoogleHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()
	log := h.Logger.WithField("request_id", c.GetString(middleware.CtxRequestIDKey))

	if !h.checkState(c, c.Query("state")) {
		log.Warn("google callback with unknown state")
		h.redirect(c, url.Values{"status": {"failure"}})
		return
	}
	id, err := h.Provider.Exchange(ctx, c.Query("code"))
	if err != nil {
		log.WithError(err).Warn("google code exchange failed")
		h.redirect(c, url.Values{"status": {"failure"}})
		return
	}
	u, err := h.Svc.LoginOrCreateAccount(ctx, *id)
	if err != nil {
		log.WithError(err).Error("google sign-in failed")
		h.redirect(c, url.Values{"status": {"failure"}})
		return
	}
	tok, err := h.Svc.Login(ctx, u)
	if err != nil {
		log.WithError(err).Error("token issue failed")
		h.redirect(c, url.Values{"status": {"failure"}})
		return
	}
	h.redirect(c, url.Values{
		"status":            {"success"},
		"access_token":      {tok.AccessToken},
		"current_workspace": {u.CurrentWorkspace},
	})
}

func (h *GoogleHandler) checkState(c *gin.Context, state string) bool {
	if state == "" {
		return false
	}
	if h.RDB != nil {
		_, ok, err := helpers.RedisTake(c.Request.Context(), h.RDB, keyOAuthState(state))
		return err == nil && ok
	}
	cookie, err := c.Cookie(stateCookieName)
	c.SetCookie(stateCookieName, "", -1, "/", "", h.Secure, true)
	return err == nil && cookie == state
}

func (h *GoogleHandler) redirect(c *gin.Context, q url.Values) {
	c.Redirect(http.StatusFound, h.CallbackURL+"?"+q.Encode())
}

func newState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
