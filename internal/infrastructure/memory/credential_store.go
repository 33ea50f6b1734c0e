// Package memory is an in-process CredentialStore used for local runs and tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/teamsync/internal/domain/entity"
	"github.com/oksasatya/teamsync/internal/domain/repository"
)

type state struct {
	users        map[string]entity.User
	userByEmail  map[string]string
	accounts     map[accountKey]entity.Account
	workspaces   map[string]entity.Workspace
	roles        map[string]entity.Role
	members      []entity.Member
	memberByPair map[[2]string]struct{}
}

type accountKey struct {
	provider   entity.Provider
	providerID string
}

func newState() *state {
	return &state{
		users:        map[string]entity.User{},
		userByEmail:  map[string]string{},
		accounts:     map[accountKey]entity.Account{},
		workspaces:   map[string]entity.Workspace{},
		roles:        map[string]entity.Role{},
		memberByPair: map[[2]string]struct{}{},
	}
}

func (s *state) clone() *state {
	return &state{
		users:        maps.Clone(s.users),
		userByEmail:  maps.Clone(s.userByEmail),
		accounts:     maps.Clone(s.accounts),
		workspaces:   maps.Clone(s.workspaces),
		roles:        maps.Clone(s.roles),
		members:      slices.Clone(s.members),
		memberByPair: maps.Clone(s.memberByPair),
	}
}

// CredentialStore keeps everything in maps guarded by one mutex.
// Transactions run against a copy that replaces the live state on success.
type CredentialStore struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
	now  func() time.Time
}

type Option func(*CredentialStore)

// WithDefaultRoles seeds OWNER, ADMIN and MEMBER.
func WithDefaultRoles() Option {
	return func(s *CredentialStore) {
		for _, r := range entity.DefaultRoles() {
			_ = s.UpsertRole(context.Background(), &r)
		}
	}
}

func NewCredentialStore(opts ...Option) *CredentialStore {
	s := &CredentialStore{mu: &sync.Mutex{}, st: newState(), now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(s)
	}
	return s
}

// lock is a no-op inside a transaction; InTx already holds the mutex.
func (s *CredentialStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *CredentialStore) FindUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.lock()()
	id, ok := s.st.userByEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := s.st.users[id]
	u.PasswordHash = ""
	return &u, nil
}

func (s *CredentialStore) FindUserByID(ctx context.Context, id string, includePassword bool) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.lock()()
	u, ok := s.st.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !includePassword {
		u.PasswordHash = ""
	}
	return &u, nil
}

func (s *CredentialStore) CreateUser(ctx context.Context, u *entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.lock()()
	if _, ok := s.st.userByEmail[u.Email]; ok {
		return repository.ErrConflict
	}
	now := s.now()
	u.ID, u.CreatedAt, u.UpdatedAt = uuid.NewString(), now, now
	s.st.users[u.ID] = *u
	s.st.userByEmail[u.Email] = u.ID
	return nil
}

func (s *CredentialStore) UpdateUserCurrentWorkspace(ctx context.Context, userID, workspaceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.lock()()
	u, ok := s.st.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.st.workspaces[workspaceID]; !ok {
		return repository.ErrNotFound
	}
	u.CurrentWorkspace, u.UpdatedAt = workspaceID, s.now()
	s.st.users[userID] = u
	return nil
}

func (s *CredentialStore) FindAccountByProvider(ctx context.Context, provider entity.Provider, providerID string) (*entity.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.lock()()
	a, ok := s.st.accounts[accountKey{provider, providerID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (s *CredentialStore) CreateAccount(ctx context.Context, a *entity.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.lock()()
	key := accountKey{a.Provider, a.ProviderID}
	if _, ok := s.st.accounts[key]; ok {
		return repository.ErrConflict
	}
	if _, ok := s.st.users[a.UserID]; !ok {
		return repository.ErrNotFound
	}
	a.ID, a.CreatedAt = uuid.NewString(), s.now()
	s.st.accounts[key] = *a
	return nil
}

func (s *CredentialStore) CreateWorkspace(ctx context.Context, w *entity.Workspace) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.lock()()
	now := s.now()
	w.ID, w.CreatedAt, w.UpdatedAt = uuid.NewString(), now, now
	s.st.workspaces[w.ID] = *w
	return nil
}

func (s *CredentialStore) FindRoleByName(ctx context.Context, name string) (*entity.Role, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.lock()()
	r, ok := s.st.roles[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r.Permissions = slices.Clone(r.Permissions)
	return &r, nil
}

// UpsertRole inserts or replaces a role by name.
func (s *CredentialStore) UpsertRole(ctx context.Context, r *entity.Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.lock()()
	now := s.now()
	if old, ok := s.st.roles[r.Name]; ok {
		r.ID, r.CreatedAt = old.ID, old.CreatedAt
	} else {
		r.ID, r.CreatedAt = uuid.NewString(), now
	}
	r.UpdatedAt = now
	cp := *r
	cp.Permissions = slices.Clone(r.Permissions)
	s.st.roles[r.Name] = cp
	return nil
}

func (s *CredentialStore) CreateMember(ctx context.Context, m *entity.Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.lock()()
	pair := [2]string{m.UserID, m.WorkspaceID}
	if _, ok := s.st.memberByPair[pair]; ok {
		return repository.ErrConflict
	}
	if _, ok := s.st.workspaces[m.WorkspaceID]; !ok {
		return repository.ErrNotFound
	}
	m.ID = uuid.NewString()
	if m.JoinedAt.IsZero() {
		m.JoinedAt = s.now()
	}
	s.st.members = append(s.st.members, *m)
	s.st.memberByPair[pair] = struct{}{}
	return nil
}

func (s *CredentialStore) FindMembersByWorkspace(ctx context.Context, workspaceID string) ([]entity.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.lock()()
	out := make([]entity.Member, 0)
	for _, m := range s.st.members {
		if m.WorkspaceID != workspaceID {
			continue
		}
		// roles are read-only at runtime, so the current definition wins
		if r, ok := s.st.roles[m.Role.Name]; ok {
			m.Role = r
		}
		m.Role.Permissions = slices.Clone(m.Role.Permissions)
		out = append(out, m)
	}
	return out, nil
}

// InTx applies fn's writes all at once, or not at all when fn fails.
func (s *CredentialStore) InTx(ctx context.Context, fn func(tx repository.CredentialStore) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &CredentialStore{mu: s.mu, st: s.st.clone(), inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

var _ repository.CredentialStore = (*CredentialStore)(nil)
