package service

import (
	"context"
	"testing"
	"time"

	"github.com/docsecure/docsecure/internal/config"
	"github.com/docsecure/docsecure/internal/repository"
	"github.com/docsecure/docsecure/internal/security"
	"github.com/docsecure/docsecure/internal/storage"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type harness struct {
	db        *gorm.DB
	cfg       *config.Config
	blobs     storage.BlobStore
	jwtMgr    *security.JWTManager
	tokens    *TokenService
	guard     *Guard
	auth      *AuthService
	docs      *DocumentService
	links     *ShareLinkService
	audit     *AuditService
	auditRepo repository.AuditRepository
	userRepo  repository.UserRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	blobs, err := storage.OpenBucket(context.Background(), "mem://")
	if err != nil {
		t.Fatalf("open mem bucket: %v", err)
	}
	t.Cleanup(func() { _ = blobs.Close() })

	cfg := &config.Config{
		MaxUploadSize:           1 << 20,
		AllowedExtensions:       []string{"pdf", "txt", "png"},
		AdminAuditWindowMaxDays: 30,
	}

	jwtMgr := security.NewJWTManager("docsecure", "docsecure-api", "abcdefghijklmnopqrstuvwxyz123456")
	hasher := security.NewPasswordHasher(4)
	tokens := NewTokenService(jwtMgr, NewInMemoryRevocationStore(), 30*time.Minute)

	userRepo := repository.NewUserRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	linkRepo := repository.NewShareLinkRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	audit := NewAuditService(auditRepo, cfg.AdminAuditWindowMaxDays)
	guard := NewGuard(tokens, userRepo)
	auth := NewAuthService(userRepo, hasher, tokens, audit)
	docs := NewDocumentService(docRepo, blobs, audit, guard, cfg)
	links := NewShareLinkService(linkRepo, docRepo, blobs, audit, guard)

	return &harness{
		db:        db,
		cfg:       cfg,
		blobs:     blobs,
		jwtMgr:    jwtMgr,
		tokens:    tokens,
		guard:     guard,
		auth:      auth,
		docs:      docs,
		links:     links,
		audit:     audit,
		auditRepo: auditRepo,
		userRepo:  userRepo,
	}
}

var testMeta = ClientMeta{IP: "127.0.0.1", UserAgent: "test-agent"}
