package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/oksasatya/teamsync/config"
	"github.com/oksasatya/teamsync/internal/application"
	"github.com/oksasatya/teamsync/internal/domain/entity"
	pginfra "github.com/oksasatya/teamsync/internal/infrastructure/postgres"
	"github.com/oksasatya/teamsync/pkg/helpers"
)

// seed upserts the built-in roles. With SEED_DEMO_EMAIL and SEED_DEMO_PASSWORD set
// it also registers a demo user through the normal provisioning path.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, pginfra.PoolConfig{
		DSN:             cfg.PostgresDSN(),
		AppName:         cfg.AppName,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLife,
	})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	store := pginfra.NewCredentialStore(pool)

	for _, r := range entity.DefaultRoles() {
		if err := store.UpsertRole(ctx, &r); err != nil {
			log.Fatalf("failed to upsert role %s: %v", r.Name, err)
		}
		logger.WithField("role", r.Name).WithField("id", r.ID).Infof("role ensured with %d permissions", len(r.Permissions))
	}

	email, password := os.Getenv("SEED_DEMO_EMAIL"), os.Getenv("SEED_DEMO_PASSWORD")
	if email == "" || password == "" {
		return
	}
	tokens, err := helpers.NewTokenService(cfg.Token())
	if err != nil {
		log.Fatalf("token config: %v", err)
	}
	svc := application.NewAuthService(store, tokens, logger, nil, nil)
	res, err := svc.Register(ctx, application.RegisterInput{Email: email, Name: "Demo User", Password: password})
	switch {
	case errors.Is(err, application.ErrConflict):
		logger.WithField("email", email).Info("demo user already exists")
	case err != nil:
		log.Fatalf("failed to seed demo user: %v", err)
	default:
		logger.WithFields(map[string]any{"user_id": res.User.ID, "workspace_id": res.WorkspaceID}).Info("demo user seeded")
	}
}
