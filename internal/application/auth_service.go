package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/teamsync/internal/domain/entity"
	repo "github.com/oksasatya/teamsync/internal/domain/repository"
	"github.com/oksasatya/teamsync/pkg/helpers"
	"github.com/oksasatya/teamsync/pkg/mailer"
)

const DefaultWorkspaceName = "My Workspace"

// JobPublisher enqueues background jobs, such as emails.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// AuthService registers users, provisions their first workspace and issues tokens.
type AuthService struct {
	Store         repo.CredentialStore
	Tokens        *helpers.TokenService
	Logger        *logrus.Logger
	Audit         AuditSink
	Mail          JobPublisher // optional
	WorkspaceName string
}

func NewAuthService(store repo.CredentialStore, tokens *helpers.TokenService, logger *logrus.Logger, audit AuditSink, mail JobPublisher) *AuthService {
	if logger == nil {
		logger = helpers.NewDiscardLogger()
	}
	if audit == nil {
		audit = NopAuditSink{}
	}
	return &AuthService{
		Store:         store,
		Tokens:        tokens,
		Logger:        logger,
		Audit:         audit,
		Mail:          mail,
		WorkspaceName: DefaultWorkspaceName,
	}
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

type RegisterResult struct {
	User        *entity.User
	WorkspaceID string
	AccessToken string
	ExpiresAt   time.Time
}

// TokenResult is what a successful sign-in returns to the client.
type TokenResult struct {
	User        *entity.User
	AccessToken string
	ExpiresAt   time.Time
}

// ProviderIdentity is an identity asserted by an external provider.
type ProviderIdentity struct {
	Provider    entity.Provider
	ProviderID  string
	DisplayName string
	Picture     string
	Email       string
}

// Register creates a user with an EMAIL account, a default workspace and an
// OWNER membership, all in one store transaction, then issues an access token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	email := NormalizeEmail(in.Email)
	_, err := s.Store.FindUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrConflict
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, s.fail("register", storeErr("find user", err))
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, s.fail("register", err)
	}
	u := &entity.User{Email: email, Name: strings.TrimSpace(in.Name), PasswordHash: hash}

	var ws *entity.Workspace
	err = s.Store.InTx(ctx, func(tx repo.CredentialStore) error {
		var perr error
		ws, perr = s.provision(ctx, tx, u, entity.ProviderEmail, email)
		return perr
	})
	if err != nil {
		return nil, s.fail("register", err)
	}

	token, exp, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return nil, s.fail("register", err)
	}

	ev := NewAuditEvent(ctx, AuditRegister)
	ev.UserID, ev.Email, ev.Provider = u.ID, u.Email, string(entity.ProviderEmail)
	s.Audit.Record(ctx, ev)
	s.sendWelcome(ctx, u, ws)

	return &RegisterResult{User: u.WithoutPassword(), WorkspaceID: ws.ID, AccessToken: token, ExpiresAt: exp}, nil
}

// LoginOrCreateAccount signs in a provider identity, provisioning a new user
// and workspace on first sight and linking new providers to an existing email.
func (s *AuthService) LoginOrCreateAccount(ctx context.Context, in ProviderIdentity) (*entity.User, error) {
	email := NormalizeEmail(in.Email)
	if !in.Provider.Valid() || in.ProviderID == "" || email == "" {
		return nil, ErrInvalidProvider
	}

	u, err := s.Store.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		if lerr := s.linkAccount(ctx, u, in); lerr != nil {
			return nil, s.fail("provider login", lerr)
		}
	case errors.Is(err, repo.ErrNotFound):
		name := strings.TrimSpace(in.DisplayName)
		if name == "" {
			name = email
		}
		u = &entity.User{Email: email, Name: name, ProfilePicture: in.Picture}
		err = s.Store.InTx(ctx, func(tx repo.CredentialStore) error {
			_, perr := s.provision(ctx, tx, u, in.Provider, in.ProviderID)
			return perr
		})
		if err != nil {
			return nil, s.fail("provider login", err)
		}
	default:
		return nil, s.fail("provider login", storeErr("find user", err))
	}

	ev := NewAuditEvent(ctx, AuditProviderLogin)
	ev.UserID, ev.Email, ev.Provider = u.ID, u.Email, string(in.Provider)
	s.Audit.Record(ctx, ev)
	return u.WithoutPassword(), nil
}

func (s *AuthService) linkAccount(ctx context.Context, u *entity.User, in ProviderIdentity) error {
	acc, err := s.Store.FindAccountByProvider(ctx, in.Provider, in.ProviderID)
	if err == nil {
		if acc.UserID != u.ID {
			return ErrConflict
		}
		return nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return storeErr("find account", err)
	}
	return storeErr("create account", s.Store.CreateAccount(ctx, &entity.Account{
		UserID:     u.ID,
		Provider:   in.Provider,
		ProviderID: in.ProviderID,
	}))
}

// provision runs the multi-step creation inside tx. The caller owns the transaction.
func (s *AuthService) provision(ctx context.Context, tx repo.CredentialStore, u *entity.User, provider entity.Provider, providerID string) (*entity.Workspace, error) {
	if err := tx.CreateUser(ctx, u); err != nil {
		return nil, storeErr("create user", err)
	}
	if err := tx.CreateAccount(ctx, &entity.Account{UserID: u.ID, Provider: provider, ProviderID: providerID}); err != nil {
		return nil, storeErr("create account", err)
	}
	ws := &entity.Workspace{
		Name:        s.workspaceName(),
		Description: "Workspace created for " + u.Name,
		OwnerID:     u.ID,
		InviteCode:  NewInviteCode(),
	}
	if err := tx.CreateWorkspace(ctx, ws); err != nil {
		return nil, storeErr("create workspace", err)
	}
	role, err := tx.FindRoleByName(ctx, entity.RoleOwner)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRoleNotSeeded
	}
	if err != nil {
		return nil, storeErr("find role", err)
	}
	m := &entity.Member{UserID: u.ID, WorkspaceID: ws.ID, Role: *role, JoinedAt: time.Now().UTC()}
	if err := tx.CreateMember(ctx, m); err != nil {
		return nil, storeErr("create member", err)
	}
	if err := tx.UpdateUserCurrentWorkspace(ctx, u.ID, ws.ID); err != nil {
		return nil, storeErr("update user", err)
	}
	u.CurrentWorkspace = ws.ID
	return ws, nil
}

// Login issues an access token for a user the local strategy already authenticated.
func (s *AuthService) Login(ctx context.Context, u *entity.User) (*TokenResult, error) {
	if u == nil || u.ID == "" {
		return nil, ErrUnauthorized
	}
	token, exp, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return nil, s.fail("login", err)
	}
	return &TokenResult{User: u.WithoutPassword(), AccessToken: token, ExpiresAt: exp}, nil
}

// CurrentUser reloads the user without its password hash.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Store.FindUserByID(ctx, userID, false)
	if err != nil {
		return nil, storeErr("find user", err)
	}
	return u.WithoutPassword(), nil
}

func (s *AuthService) sendWelcome(ctx context.Context, u *entity.User, ws *entity.Workspace) {
	if s.Mail == nil {
		return
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: mailer.TemplateWelcome,
		Data: map[string]any{
			"Name":          u.Name,
			"Email":         u.Email,
			"WorkspaceName": ws.Name,
		},
	}
	if err := s.Mail.PublishJSON(ctx, job); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("failed to publish welcome email")
	}
}

func (s *AuthService) fail(op string, err error) error {
	switch {
	case errors.Is(err, ErrRoleNotSeeded):
		s.Logger.WithError(err).WithField("op", op).Error("built-in roles missing; run the seed command")
	case errors.Is(err, ErrStoreFailure):
		s.Logger.WithError(err).WithField("op", op).Error("credential store failure")
	}
	return err
}

func (s *AuthService) workspaceName() string {
	if s.WorkspaceName == "" {
		return DefaultWorkspaceName
	}
	return s.WorkspaceName
}

// NewInviteCode returns a short random code for joining a workspace.
func NewInviteCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
