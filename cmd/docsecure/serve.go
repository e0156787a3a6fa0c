package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/docsecure/docsecure/internal/app"
	"github.com/docsecure/docsecure/internal/config"
	"github.com/docsecure/docsecure/internal/http/handler"
	"github.com/docsecure/docsecure/internal/http/middleware"
	"github.com/docsecure/docsecure/internal/http/router"
	"github.com/docsecure/docsecure/internal/observability"
	"github.com/docsecure/docsecure/internal/repository"
	"github.com/docsecure/docsecure/internal/security"
	"github.com/docsecure/docsecure/internal/service"
	"github.com/docsecure/docsecure/internal/storage"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	logger, loggerProvider, err := observability.InitLogging(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	runtime, err := observability.InitRuntime(ctx, cfg, logger, loggerProvider)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	db, err := repository.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("database ready", "driver", cfg.DatabaseDriver)

	blobs, err := storage.OpenBucket(ctx, cfg.UploadBucketURL)
	if err != nil {
		return fmt.Errorf("open upload bucket: %w", err)
	}
	logger.Info("upload bucket ready", "url", cfg.UploadBucketURL)

	// Redis backs revocation and rate limiting when configured; a single
	// process falls back to the in-memory implementations.
	var revocation service.RevocationStore = service.NewInMemoryRevocationStore()
	var rateLimitBackend middleware.Limiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		revocation = service.NewRedisRevocationStore(client, "revoked_token")
		rateLimitBackend = middleware.NewRedisWindowLimiter(client)
		logger.Info("redis connected", "addr", cfg.RedisAddr)
	}

	jwtMgr := security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSecret)
	hasher := security.NewPasswordHasher(cfg.BcryptCost)
	tokens := service.NewTokenService(jwtMgr, revocation, cfg.AccessTokenTTL)

	userRepo := repository.NewUserRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	linkRepo := repository.NewShareLinkRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	audit := service.NewAuditService(auditRepo, cfg.AdminAuditWindowMaxDays)
	guard := service.NewGuard(tokens, userRepo)
	auth := service.NewAuthService(userRepo, hasher, tokens, audit)
	docs := service.NewDocumentService(docRepo, blobs, audit, guard, cfg)
	links := service.NewShareLinkService(linkRepo, docRepo, blobs, audit, guard)

	mux := router.NewRouter(router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(auth),
		UserHandler:      handler.NewUserHandler(auth),
		DocumentHandler:  handler.NewDocumentHandler(docs, cfg),
		ShareLinkHandler: handler.NewShareLinkHandler(links),
		AuditHandler:     handler.NewAuditHandler(audit),
		Guard:            guard,
		RateLimitBackend: rateLimitBackend,
		APIRateLimitRPM:  cfg.APIRateLimitRPM,
		AuthRateLimitRPM: cfg.AuthRateLimitRPM,
		MaxBodySize:      cfg.MaxUploadSize + (1 << 20),
		EnableOTelHTTP:   cfg.OTELEnabled,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	return app.New(cfg, logger, server, blobs, runtime).Run(ctx)
}
