package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oksasatya/teamsync/internal/domain/entity"
	repo "github.com/oksasatya/teamsync/internal/domain/repository"
	"github.com/oksasatya/teamsync/internal/infrastructure/memory"
	"github.com/oksasatya/teamsync/pkg/helpers"
)

var errDown = errors.New("connection refused")

// flakyStore fails the named operations with errDown.
type flakyStore struct {
	repo.CredentialStore
	fail map[string]bool
}

func (s *flakyStore) FindAccountByProvider(ctx context.Context, p entity.Provider, id string) (*entity.Account, error) {
	if s.fail["FindAccountByProvider"] {
		return nil, errDown
	}
	return s.CredentialStore.FindAccountByProvider(ctx, p, id)
}

func (s *flakyStore) FindUserByID(ctx context.Context, id string, includePassword bool) (*entity.User, error) {
	if s.fail["FindUserByID"] {
		return nil, errDown
	}
	return s.CredentialStore.FindUserByID(ctx, id, includePassword)
}

func (s *flakyStore) FindUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	if s.fail["FindUserByEmail"] {
		return nil, errDown
	}
	return s.CredentialStore.FindUserByEmail(ctx, email)
}

func (s *flakyStore) FindMembersByWorkspace(ctx context.Context, id string) ([]entity.Member, error) {
	if s.fail["FindMembersByWorkspace"] {
		return nil, errDown
	}
	return s.CredentialStore.FindMembersByWorkspace(ctx, id)
}

func (s *flakyStore) InTx(ctx context.Context, fn func(tx repo.CredentialStore) error) error {
	return s.CredentialStore.InTx(ctx, func(tx repo.CredentialStore) error {
		return fn(&flakyStore{CredentialStore: tx, fail: s.fail})
	})
}

func (s *flakyStore) CreateMember(ctx context.Context, m *entity.Member) error {
	if s.fail["CreateMember"] {
		return errDown
	}
	return s.CredentialStore.CreateMember(ctx, m)
}

type recordingSink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *recordingSink) Record(_ context.Context, ev AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Action
	}
	return out
}

type recordingPublisher struct {
	jobs []any
	err  error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, body any) error {
	p.jobs = append(p.jobs, body)
	return p.err
}

func newTokens(t *testing.T) *helpers.TokenService {
	t.Helper()
	tokens, err := helpers.NewTokenService(helpers.TokenConfig{
		Secret: "test-secret", Audience: "user", Algorithm: "HS256", TTL: time.Hour,
	})
	require.NoError(t, err)
	return tokens
}

type env struct {
	store  *memory.CredentialStore
	tokens *helpers.TokenService
	audit  *recordingSink
	svc    *AuthService
	authn  *Authenticator
	authz  *Authorizer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWith(t, memory.NewCredentialStore(memory.WithDefaultRoles()))
}

func newEnvWith(t *testing.T, store *memory.CredentialStore) *env {
	t.Helper()
	tokens := newTokens(t)
	sink := &recordingSink{}
	return &env{
		store:  store,
		tokens: tokens,
		audit:  sink,
		svc:    NewAuthService(store, tokens, nil, sink, nil),
		authn:  NewAuthenticator(store, tokens, sink),
		authz:  NewAuthorizer(store),
	}
}

func (e *env) register(t *testing.T, email, password string) *RegisterResult {
	t.Helper()
	res, err := e.svc.Register(context.Background(), RegisterInput{Email: email, Name: "Tester", Password: password})
	require.NoError(t, err)
	return res
}
