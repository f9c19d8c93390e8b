package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/ttj/internal/model"
	"github.com/verte-zerg/ttj/internal/store"
)

type fakeVerifier struct {
	certs map[string]model.Certificate
	err   error
	codes []string
}

func (f *fakeVerifier) Verify(_ context.Context, code string) (*model.Certificate, error) {
	f.codes = append(f.codes, code)
	if f.err != nil {
		return nil, f.err
	}
	cert, ok := f.certs[code]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &cert, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestServer(v Verifier, opts Options) *Server {
	return New(v, quietLogger(), opts)
}

func doGet(t *testing.T, h http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestVerifyFound(t *testing.T) {
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	v := &fakeVerifier{certs: map[string]model.Certificate{
		"TTJ-ABC123": {
			Code:            "TTJ-ABC123",
			UserID:          "u1",
			UserName:        "ada",
			NetWPM:          42,
			Accuracy:        97.5,
			DurationSeconds: 60,
			IssuedAt:        issued,
		},
	}}
	srv := newTestServer(v, Options{})

	rec := doGet(t, srv.Handler(), "/api/verify/TTJ-ABC123", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body verifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := body.Certificate
	if got.Code != "TTJ-ABC123" || got.UserName != "ada" || got.NetWPM != 42 || got.Accuracy != 97.5 || got.DurationSeconds != 60 {
		t.Fatalf("unexpected certificate %+v", got)
	}
	if !got.IssuedAt.Equal(issued) {
		t.Fatalf("issued_at = %v, want %v", got.IssuedAt, issued)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected X-Request-Id header")
	}
}

func TestVerifyNotFound(t *testing.T) {
	srv := newTestServer(&fakeVerifier{}, Options{})

	rec := doGet(t, srv.Handler(), "/api/verify/TTJ-NOPE00", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "Certificate not found" {
		t.Fatalf("error = %q", body["error"])
	}
}

func TestVerifyStorageError(t *testing.T) {
	srv := newTestServer(&fakeVerifier{err: errors.New("disk on fire")}, Options{})

	rec := doGet(t, srv.Handler(), "/api/verify/TTJ-ABC123", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestRequestIDPreserved(t *testing.T) {
	srv := newTestServer(&fakeVerifier{}, Options{})

	rec := doGet(t, srv.Handler(), "/healthz", map[string]string{"X-Request-Id": "req-7"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-Request-Id"); got != "req-7" {
		t.Fatalf("X-Request-Id = %q, want req-7", got)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(&fakeVerifier{}, Options{Rate: 0.001, Burst: 2})

	for i := 0; i < 2; i++ {
		rec := doGet(t, srv.Handler(), "/api/verify/X", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("request %d: status = %d, want 404", i, rec.Code)
		}
	}
	rec := doGet(t, srv.Handler(), "/api/verify/X", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}

	rec = doGet(t, srv.Handler(), "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz should not be limited, got %d", rec.Code)
	}
}

func TestCORSAllowedOrigin(t *testing.T) {
	srv := newTestServer(&fakeVerifier{}, Options{AllowedOrigins: []string{"https://example.org"}})

	rec := doGet(t, srv.Handler(), "/api/verify/X", map[string]string{"Origin": "https://example.org"})
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.org" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestCORSAnyOriginByDefault(t *testing.T) {
	srv := newTestServer(&fakeVerifier{}, Options{})

	rec := doGet(t, srv.Handler(), "/healthz", map[string]string{"Origin": "https://elsewhere.test"})
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestLimiterPrune(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	set := newLimiterSet(1, 1)
	set.now = func() time.Time { return now }

	set.get("a")
	now = now.Add(time.Minute)
	set.get("b")
	now = now.Add(30 * time.Second)

	if removed := set.prune(time.Minute); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, ok := set.entries["b"]; !ok {
		t.Fatalf("recent entry should survive")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	srv := newTestServer(&fakeVerifier{}, Options{Addr: "127.0.0.1:0", Rate: 1, Burst: 1})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
