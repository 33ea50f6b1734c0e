package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/teamsync/config"
	"github.com/oksasatya/teamsync/internal/application"
	"github.com/oksasatya/teamsync/internal/container"
	"github.com/oksasatya/teamsync/internal/domain/repository"
	"github.com/oksasatya/teamsync/internal/infrastructure/audit"
	"github.com/oksasatya/teamsync/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/teamsync/internal/infrastructure/postgres"
	"github.com/oksasatya/teamsync/internal/infrastructure/sso"
	handlers "github.com/oksasatya/teamsync/internal/interface/http"
	"github.com/oksasatya/teamsync/internal/interface/middleware"
	"github.com/oksasatya/teamsync/internal/router"
	"github.com/oksasatya/teamsync/pkg/helpers"
	"github.com/oksasatya/teamsync/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()
	checks := map[string]handlers.Pinger{}

	// Credential store
	var store repository.CredentialStore
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("using in-memory credential store; data is lost on restart")
		store = memory.NewCredentialStore(memory.WithDefaultRoles())
	default:
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
		if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		store = pginfra.NewCredentialStore(pool)
		checks["postgres"] = pool.Ping
	}

	// Redis: rate limits, role cache, OAuth state. Optional.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		c, err := helpers.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable; rate limiting and role cache disabled")
		} else {
			rdb = c
			defer func() { _ = rdb.Close() }()
			checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		}
	}

	// Audit sinks; the ES sink indexes in the background and flushes on shutdown
	auditCtx, stopAudit := context.WithCancel(context.Background())
	defer stopAudit()
	var background sync.WaitGroup
	sinks := audit.Multi{audit.CounterSink{}, audit.LogSink{Logger: logger}}
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Warn("elasticsearch client init failed; audit indexing disabled")
		} else {
			if err := helpers.EnsureAuditIndex(ctx, es, cfg.ESAuthEventsIndex); err != nil {
				logger.WithError(err).Warn("audit index check failed")
			}
			esSink := audit.NewESSink(es, cfg.ESAuthEventsIndex, logger, audit.DefaultQueueSize)
			sinks = append(sinks, esSink)
			background.Add(1)
			go func() {
				defer background.Done()
				esSink.Run(auditCtx)
			}()
		}
	}

	// Welcome email jobs
	var mail application.JobPublisher
	if cfg.MailSendEnabled {
		q, err := helpers.NewRabbitQueue(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; welcome emails disabled")
		} else {
			defer q.Close()
			mail = q
			checks["rabbitmq"] = q.Ping
		}
	}

	// Google sign-in
	var google handlers.IdentityProvider
	if cfg.GoogleEnabled() {
		p, err := sso.NewGoogleProvider(ctx, sso.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleCallbackURL,
		})
		if err != nil {
			logger.WithError(err).Warn("google sign-in disabled")
		} else {
			google = p
		}
	}

	c, err := container.New(container.Deps{
		Config: cfg,
		Logger: logger,
		Store:  store,
		Redis:  rdb,
		Audit:  sinks,
		Mail:   mail,
		Google: google,
		Checks: checks,
	})
	if err != nil {
		log.Fatalf("failed to build services: %v", err)
	}

	// Gin engine and global middleware
	r := gin.New()
	if err := middleware.TrustProxies(r, middleware.ProxyConfig{
		TrustedProxies: cfg.TrustedProxyList(),
		Platform:       cfg.TrustedPlatform,
	}); err != nil {
		log.Fatalf("invalid proxy config: %v", err)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled || cfg.Env == "development" {
		r.Use(gin.Logger())
	}

	reg := router.NewRegistry(r)
	reg.Use(middleware.RealIP(), middleware.RequestMeta())
	router.InitModules(reg, c)
	reg.RegisterAll()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	}
	stopAudit()
	background.Wait()
	logger.Info("server exited properly")
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
