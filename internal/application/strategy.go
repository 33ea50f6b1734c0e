package application

import (
	"context"
	"errors"
	"strings"

	"github.com/oksasatya/teamsync/internal/domain/entity"
	repo "github.com/oksasatya/teamsync/internal/domain/repository"
	"github.com/oksasatya/teamsync/pkg/helpers"
)

// StrategyKind selects how a route authenticates its caller.
type StrategyKind int

const (
	// StrategyLocal verifies an email and password.
	StrategyLocal StrategyKind = iota + 1
	// StrategyBearer verifies a signed access token.
	StrategyBearer
)

func (k StrategyKind) String() string {
	switch k {
	case StrategyLocal:
		return "local"
	case StrategyBearer:
		return "bearer"
	}
	return "unknown"
}

// Reason explains a rejected authentication attempt.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonInvalidCredentials
	ReasonUnauthorized
)

// Err maps the reason onto the error taxonomy.
func (r Reason) Err() error {
	switch r {
	case ReasonNone:
		return nil
	case ReasonInvalidCredentials:
		return ErrInvalidCredentials
	}
	return ErrUnauthorized
}

// Message is the only text a caller ever sees for a rejection.
func (r Reason) Message() string {
	if err := r.Err(); err != nil {
		return err.Error()
	}
	return ""
}

// Decision is the outcome of a strategy: an authenticated user or a rejection.
type Decision struct {
	User   *entity.User
	Reason Reason
}

func Authenticated(u *entity.User) Decision { return Decision{User: u} }

func Rejected(r Reason) Decision { return Decision{Reason: r} }

// OK reports whether the decision carries an authenticated identity.
func (d Decision) OK() bool { return d.Reason == ReasonNone && d.User != nil }

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// PasswordVerifier compares a plain password with a stored hash.
type PasswordVerifier func(plain, hash string) (bool, error)

// LocalStrategy authenticates an email and password against the credential store.
type LocalStrategy struct {
	Store  repo.CredentialStore
	Verify PasswordVerifier
}

func NewLocalStrategy(store repo.CredentialStore) *LocalStrategy {
	return &LocalStrategy{Store: store, Verify: helpers.VerifyPassword}
}

func (s *LocalStrategy) verify(plain, hash string) (bool, error) {
	if s.Verify == nil {
		return helpers.VerifyPassword(plain, hash)
	}
	return s.Verify(plain, hash)
}

// reject spends one hash comparison so a missing account costs as much as a wrong password.
func (s *LocalStrategy) reject(password string) Decision {
	_, _ = s.verify(password, helpers.DummyPasswordHash())
	return Rejected(ReasonInvalidCredentials)
}

// Authenticate never distinguishes an unknown email from a wrong password.
// The returned error is non-nil only for store failures.
func (s *LocalStrategy) Authenticate(ctx context.Context, email, password string) (Decision, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return Rejected(ReasonInvalidCredentials), nil
	}
	acc, err := s.Store.FindAccountByProvider(ctx, entity.ProviderEmail, email)
	if errors.Is(err, repo.ErrNotFound) {
		return s.reject(password), nil
	}
	if err != nil {
		return Decision{}, storeErr("find account", err)
	}
	u, err := s.Store.FindUserByID(ctx, acc.UserID, true)
	if errors.Is(err, repo.ErrNotFound) {
		return s.reject(password), nil
	}
	if err != nil {
		return Decision{}, storeErr("find user", err)
	}
	if !u.HasPassword() {
		return s.reject(password), nil
	}
	// a malformed stored hash fails closed like a wrong password
	ok, err := s.verify(password, u.PasswordHash)
	if err != nil || !ok {
		return Rejected(ReasonInvalidCredentials), nil
	}
	return Authenticated(u.WithoutPassword()), nil
}

// BearerStrategy authenticates a signed access token.
type BearerStrategy struct {
	Store  repo.CredentialStore
	Tokens TokenVerifier
}

func NewBearerStrategy(store repo.CredentialStore, tokens TokenVerifier) *BearerStrategy {
	return &BearerStrategy{Store: store, Tokens: tokens}
}

// Authenticate rejects invalid tokens and tokens whose user no longer exists.
func (s *BearerStrategy) Authenticate(ctx context.Context, token string) (Decision, error) {
	userID, err := s.Tokens.Verify(token)
	if err != nil {
		return Rejected(ReasonUnauthorized), nil
	}
	u, err := s.Store.FindUserByID(ctx, userID, false)
	if errors.Is(err, repo.ErrNotFound) {
		return Rejected(ReasonUnauthorized), nil
	}
	if err != nil {
		return Decision{}, storeErr("find user", err)
	}
	return Authenticated(u.WithoutPassword()), nil
}

// Credentials carries whatever the selected strategy consumes.
type Credentials struct {
	Email    string
	Password string
	Token    string
}

// Authenticator dispatches to the strategy chosen at route registration
// and records local sign-in attempts.
type Authenticator struct {
	Local  *LocalStrategy
	Bearer *BearerStrategy
	Audit  AuditSink
}

func NewAuthenticator(store repo.CredentialStore, tokens TokenVerifier, audit AuditSink) *Authenticator {
	if audit == nil {
		audit = NopAuditSink{}
	}
	return &Authenticator{
		Local:  NewLocalStrategy(store),
		Bearer: NewBearerStrategy(store, tokens),
		Audit:  audit,
	}
}

func (a *Authenticator) Authenticate(ctx context.Context, kind StrategyKind, creds Credentials) (Decision, error) {
	switch kind {
	case StrategyLocal:
		d, err := a.Local.Authenticate(ctx, creds.Email, creds.Password)
		if err == nil {
			a.recordLocal(ctx, creds.Email, d)
		}
		return d, err
	case StrategyBearer:
		return a.Bearer.Authenticate(ctx, creds.Token)
	}
	return Rejected(ReasonUnauthorized), nil
}

func (a *Authenticator) recordLocal(ctx context.Context, email string, d Decision) {
	ev := NewAuditEvent(ctx, AuditLoginFailure)
	ev.Email = NormalizeEmail(email)
	if d.OK() {
		ev.Action = AuditLoginSuccess
		ev.UserID = d.User.ID
	}
	a.Audit.Record(ctx, ev)
}

// NormalizeEmail lowercases and trims an email address before lookups and writes.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
