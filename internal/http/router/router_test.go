package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/docsecure/docsecure/internal/config"
	"github.com/docsecure/docsecure/internal/http/handler"
	"github.com/docsecure/docsecure/internal/repository"
	"github.com/docsecure/docsecure/internal/security"
	"github.com/docsecure/docsecure/internal/service"
	"github.com/docsecure/docsecure/internal/storage"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
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
		t.Fatalf("open bucket: %v", err)
	}
	t.Cleanup(func() { _ = blobs.Close() })

	cfg := &config.Config{
		MaxUploadSize:           1 << 20,
		AllowedExtensions:       []string{"pdf", "txt", "png"},
		AdminAuditWindowMaxDays: 30,
	}
	jwtMgr := security.NewJWTManager("docsecure", "docsecure-api", "abcdefghijklmnopqrstuvwxyz123456")
	hasher := security.NewPasswordHasher(4)
	tokens := service.NewTokenService(jwtMgr, service.NewInMemoryRevocationStore(), 30*time.Minute)

	userRepo := repository.NewUserRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	linkRepo := repository.NewShareLinkRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	audit := service.NewAuditService(auditRepo, cfg.AdminAuditWindowMaxDays)
	guard := service.NewGuard(tokens, userRepo)
	auth := service.NewAuthService(userRepo, hasher, tokens, audit)
	docs := service.NewDocumentService(docRepo, blobs, audit, guard, cfg)
	links := service.NewShareLinkService(linkRepo, docRepo, blobs, audit, guard)

	mux := NewRouter(Dependencies{
		AuthHandler:      handler.NewAuthHandler(auth),
		UserHandler:      handler.NewUserHandler(auth),
		DocumentHandler:  handler.NewDocumentHandler(docs, cfg),
		ShareLinkHandler: handler.NewShareLinkHandler(links),
		AuditHandler:     handler.NewAuditHandler(audit),
		Guard:            guard,
		APIRateLimitRPM:  1000,
		AuthRateLimitRPM: 1000,
		MaxBodySize:      2 << 20,
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func getAuthed(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeData(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !env.Success {
		t.Fatalf("request failed: %s", env.Data)
	}
	if dst != nil {
		if err := json.Unmarshal(env.Data, dst); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
}

func registerAndLogin(t *testing.T, srv *httptest.Server, email, username string) string {
	t.Helper()
	resp := postJSON(t, srv.URL+"/api/v1/auth/register", "", map[string]string{
		"email": email, "username": username, "password": "Passw0rd!",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/v1/auth/login", "", map[string]string{
		"identifier": email, "password": "Passw0rd!",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: %d", resp.StatusCode)
	}
	var login struct {
		AccessToken string `json:"access_token"`
	}
	decodeData(t, resp, &login)
	if login.AccessToken == "" {
		t.Fatal("empty access token")
	}
	return login.AccessToken
}

func uploadViaAPI(t *testing.T, srv *httptest.Server, token, filename, content string) uint {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	hdr.Set("Content-Type", "text/plain")
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := io.WriteString(part, content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.WriteField("description", "via api"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/documents/", &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("upload: %d %s", resp.StatusCode, body)
	}
	var doc struct {
		ID uint `json:"id"`
	}
	decodeData(t, resp, &doc)
	return doc.ID
}

func TestRegisterLoginAndMe(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "a@x.com", "a")

	resp := getAuthed(t, srv.URL+"/api/v1/users/me", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: %d", resp.StatusCode)
	}
	var me struct {
		Email   string `json:"email"`
		IsAdmin bool   `json:"is_admin"`
	}
	decodeData(t, resp, &me)
	if me.Email != "a@x.com" {
		t.Fatalf("wrong user: %+v", me)
	}
	if !me.IsAdmin {
		t.Fatal("first registered user should be admin")
	}
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{
		"/api/v1/users/me",
		"/api/v1/documents/",
		"/api/v1/share-links/",
		"/api/v1/audit/",
	} {
		resp := getAuthed(t, srv.URL+path, "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "a@x.com", "a")

	resp := postJSON(t, srv.URL+"/api/v1/auth/logout", token, map[string]string{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = getAuthed(t, srv.URL+"/api/v1/users/me", token)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestDocumentUploadDownloadRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "a@x.com", "a")
	docID := uploadViaAPI(t, srv, token, "notes.txt", "the payload")

	resp := getAuthed(t, srv.URL+fmt.Sprintf("/api/v1/documents/%d/download", docID), token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download: %d", resp.StatusCode)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "the payload" {
		t.Fatalf("unexpected body %q", body)
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "notes.txt") {
		t.Fatalf("disposition should carry the original name: %q", resp.Header.Get("Content-Disposition"))
	}
}

func TestDocumentIsolationBetweenUsers(t *testing.T) {
	srv := newTestServer(t)
	ownerToken := registerAndLogin(t, srv, "a@x.com", "a")
	otherToken := registerAndLogin(t, srv, "b@x.com", "b")
	docID := uploadViaAPI(t, srv, ownerToken, "secret.txt", "private")

	resp := getAuthed(t, srv.URL+fmt.Sprintf("/api/v1/documents/%d", docID), otherToken)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign document, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSharedDownloadWithoutAuth(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "a@x.com", "a")
	docID := uploadViaAPI(t, srv, token, "shared.txt", "open sesame")

	resp := postJSON(t, srv.URL+"/api/v1/share-links/", token, map[string]any{
		"document_id": docID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create link: %d", resp.StatusCode)
	}
	var link struct {
		Token string `json:"token"`
	}
	decodeData(t, resp, &link)

	// No Authorization header: the capability token is the credential.
	resp = getAuthed(t, srv.URL+"/api/v1/shared/"+link.Token+"/download", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("shared download: %d", resp.StatusCode)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "open sesame" {
		t.Fatalf("unexpected body %q", body)
	}

	resp = getAuthed(t, srv.URL+"/api/v1/shared/bogus-token/download", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown token, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAuditSummaryRequiresAdmin(t *testing.T) {
	srv := newTestServer(t)
	adminToken := registerAndLogin(t, srv, "a@x.com", "a")
	memberToken := registerAndLogin(t, srv, "b@x.com", "b")

	resp := getAuthed(t, srv.URL+"/api/v1/audit/summary", memberToken)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for member, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = getAuthed(t, srv.URL+"/api/v1/audit/summary?days=7", adminToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary: %d", resp.StatusCode)
	}
	var summary struct {
		TotalEvents int64 `json:"total_events"`
	}
	decodeData(t, resp, &summary)
	if summary.TotalEvents == 0 {
		t.Fatal("summary should count registration and login events")
	}
}
