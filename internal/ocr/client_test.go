package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"trade-autopsy/internal/store"
)

func TestExtractTextSendsImageAndKey(t *testing.T) {
	var gotAuth string
	var gotReq extractRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(extractResponse{Text: "EURUSD buy 0.50 1.1050 -25.00"})
	}))
	defer srv.Close()

	c := NewClient(WithEndpoint(srv.URL), WithAPIKey("secret"), WithRateLimit(100))
	text, err := c.ExtractText(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png")
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}

	if text != "EURUSD buy 0.50 1.1050 -25.00" {
		t.Errorf("Expected recognized text, got %q", text)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Expected bearer auth header, got %q", gotAuth)
	}
	if gotReq.MimeType != "image/png" {
		t.Errorf("Expected mime type image/png, got %q", gotReq.MimeType)
	}
	raw, _ := base64.StdEncoding.DecodeString(gotReq.Image)
	if string(raw) != "\x89PNG" {
		t.Errorf("Expected image bytes to round-trip, got %q", raw)
	}
}

func TestExtractTextRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(extractResponse{Text: "ok"})
	}))
	defer srv.Close()

	c := NewClient(WithEndpoint(srv.URL), WithRateLimit(100), WithMaxRetry(10*time.Second))
	text, err := c.ExtractText(context.Background(), []byte("img"), "image/png")
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	if text != "ok" {
		t.Errorf("Expected text after retry, got %q", text)
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Errorf("Expected 2 attempts, got %d", n)
	}
}

func TestExtractTextDoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "bad image", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(WithEndpoint(srv.URL), WithRateLimit(100))
	_, err := c.ExtractText(context.Background(), []byte("img"), "image/png")
	if err == nil {
		t.Fatal("Expected error for 400 response")
	}

	var serr *StatusError
	if !errors.As(err, &serr) || serr.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected StatusError 400, got %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("Expected a single attempt, got %d", n)
	}
}

func TestExtractTextWithoutEndpoint(t *testing.T) {
	c := NewClient()
	if _, err := c.ExtractText(context.Background(), []byte("img"), "image/png"); !errors.Is(err, ErrNoEndpoint) {
		t.Errorf("Expected ErrNoEndpoint, got %v", err)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := store.Default()
	cfg.OCR.Endpoint = "http://ocr.local/extract"

	c := New(cfg, func(key string) string {
		if key == "OCR_API_KEY" {
			return "k"
		}
		return ""
	})

	if c.endpoint != "http://ocr.local/extract" {
		t.Errorf("Expected endpoint from config, got %q", c.endpoint)
	}
	if c.headers["Authorization"] != "Bearer k" {
		t.Errorf("Expected key from env, got %q", c.headers["Authorization"])
	}
	if c.httpClient.Timeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", c.httpClient.Timeout)
	}
}
