package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Config drives one load generation run against a running API instance.
type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64
}

type Result struct {
	TotalRequests int64
	Failures      int64
	StatusClasses map[string]int64
}

type session struct {
	baseURL string
	client  *http.Client
	token   string
	docID   uint
}

// Run drives authenticated traffic against the API: a register/login
// handshake first, then a mix of document and share-link requests at the
// configured rate.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("loadgen: base URL is required")
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	profile := normalizeProfile(cfg.Profile)

	s := &session{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	if err := s.prepare(ctx, rng); err != nil {
		return nil, err
	}

	result := &Result{StatusClasses: make(map[string]int64)}
	var mu sync.Mutex
	var total, failures int64

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()
	work := make(chan int, cfg.Concurrency)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func(workerSeed int64) {
			defer wg.Done()
			wrng := rand.New(rand.NewSource(workerSeed))
			for range work {
				status, err := s.fire(ctx, profile, wrng)
				atomic.AddInt64(&total, 1)
				if err != nil || status >= http.StatusInternalServerError {
					atomic.AddInt64(&failures, 1)
				}
				if err == nil {
					class := classifyStatusClass(status)
					mu.Lock()
					result.StatusClasses[class]++
					mu.Unlock()
				}
			}
		}(cfg.Seed + int64(i))
	}

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			select {
			case work <- 1:
			default:
			}
		}
	}
	close(work)
	wg.Wait()

	result.TotalRequests = atomic.LoadInt64(&total)
	result.Failures = atomic.LoadInt64(&failures)
	return result, nil
}

// prepare registers a disposable account and uploads one document so the
// traffic profiles have something to read.
func (s *session) prepare(ctx context.Context, rng *rand.Rand) error {
	suffix := fmt.Sprintf("%08x", rng.Uint32())
	email := fmt.Sprintf("loadgen-%s@example.com", suffix)
	username := "loadgen-" + suffix

	if status, _, err := s.postJSON(ctx, "/api/v1/auth/register", "", map[string]string{
		"email": email, "username": username, "password": "Loadgen-" + suffix,
	}); err != nil {
		return fmt.Errorf("loadgen register: %w", err)
	} else if status != http.StatusCreated {
		return fmt.Errorf("loadgen register: unexpected status %d", status)
	}

	status, body, err := s.postJSON(ctx, "/api/v1/auth/login", "", map[string]string{
		"identifier": email, "password": "Loadgen-" + suffix,
	})
	if err != nil {
		return fmt.Errorf("loadgen login: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("loadgen login: unexpected status %d", status)
	}
	var login struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &login); err != nil {
		return fmt.Errorf("loadgen login: decode: %w", err)
	}
	s.token = login.Data.AccessToken

	docID, err := s.upload(ctx)
	if err != nil {
		return fmt.Errorf("loadgen upload: %w", err)
	}
	s.docID = docID
	return nil
}

func (s *session) fire(ctx context.Context, profile string, rng *rand.Rand) (int, error) {
	switch profile {
	case "auth":
		return s.get(ctx, "/api/v1/users/me", s.token)
	case "documents":
		if rng.Intn(2) == 0 {
			return s.get(ctx, "/api/v1/documents/", s.token)
		}
		return s.get(ctx, fmt.Sprintf("/api/v1/documents/%d", s.docID), s.token)
	default: // mixed
		switch rng.Intn(4) {
		case 0:
			return s.get(ctx, "/api/v1/users/me", s.token)
		case 1:
			return s.get(ctx, "/api/v1/documents/", s.token)
		case 2:
			return s.get(ctx, fmt.Sprintf("/api/v1/documents/%d", s.docID), s.token)
		default:
			return s.get(ctx, "/health/live", "")
		}
	}
}

func (s *session) get(ctx context.Context, path, token string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode, nil
}

func (s *session) postJSON(ctx context.Context, path, token string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, data, nil
}

func (s *session) upload(ctx context.Context) (uint, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="loadgen.txt"`)
	hdr.Set("Content-Type", "text/plain")
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return 0, err
	}
	if _, err := io.WriteString(part, "loadgen sample document"); err != nil {
		return 0, err
	}
	mw.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v1/documents/", &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token)
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var created struct {
		Data struct {
			ID uint `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return 0, err
	}
	return created.Data.ID, nil
}

func normalizeProfile(profile string) string {
	profile = strings.ToLower(strings.TrimSpace(profile))
	switch profile {
	case "auth", "documents", "mixed":
		return profile
	default:
		return "mixed"
	}
}

func classifyStatusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	default:
		return "other"
	}
}
