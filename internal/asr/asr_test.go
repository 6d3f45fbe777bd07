package asr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/Sebstrdigital/dua-talk/internal/config"
)

func writeTempWav(t *testing.T) string {
	t.Helper()
	tmp, err := os.CreateTemp(t.TempDir(), "asr-test-*.wav")
	if err != nil {
		t.Fatalf("CreateTemp failed: %v", err)
	}
	if _, err := tmp.Write([]byte("RIFFfake")); err != nil {
		t.Fatalf("write temp file failed: %v", err)
	}
	if err := tmp.Close(); err != nil {
		t.Fatalf("close temp file failed: %v", err)
	}
	return tmp.Name()
}

func TestTranscribeSuccess(t *testing.T) {
	var gotAuth, gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		gotModel = r.FormValue("model")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"hello world"}`))
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.APIEndpoint = server.URL
	cfg.Token = "secret"
	cfg.STTModel = "base.en"

	client := New(cfg, &http.Client{Timeout: time.Second}, nil)
	text, err := client.Transcribe(context.Background(), writeTempWav(t))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("expected transcript, got %q", text)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("expected bearer token, got %q", gotAuth)
	}
	if gotModel != "base.en" {
		t.Fatalf("expected model field, got %q", gotModel)
	}
}

func TestTranscribeRetryExhausted(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("fail"))
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.APIEndpoint = server.URL
	cfg.MaxRetry = 2
	cfg.RetryBaseDelay = 0

	client := New(cfg, &http.Client{Timeout: time.Second}, nil)
	_, err := client.Transcribe(context.Background(), writeTempWav(t))
	if err == nil {
		t.Fatal("expected error")
	}

	var re *RetryExhaustedError
	if !errors.As(err, &re) {
		t.Fatalf("expected RetryExhaustedError, got %T: %v", err, err)
	}
	if re.Attempts != cfg.MaxRetry {
		t.Fatalf("expected attempts %d, got %d", cfg.MaxRetry, re.Attempts)
	}
	if hits != cfg.MaxRetry {
		t.Fatalf("expected %d upload attempts, got %d", cfg.MaxRetry, hits)
	}
}

func TestTranscribeRecoversAfterFailure(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"text":"second try"}`))
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.APIEndpoint = server.URL
	cfg.MaxRetry = 3
	cfg.RetryBaseDelay = 0

	client := New(cfg, &http.Client{Timeout: time.Second}, nil)
	text, err := client.Transcribe(context.Background(), writeTempWav(t))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "second try" {
		t.Fatalf("expected retry to recover, got %q", text)
	}
}

func TestWarmup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.APIEndpoint = server.URL
	client := New(cfg, &http.Client{Timeout: time.Second}, nil)
	if err := client.Warmup(context.Background()); err != nil {
		t.Fatalf("Warmup failed: %v", err)
	}

	cfg.APIEndpoint = "http://127.0.0.1:1/nothing"
	down := New(cfg, &http.Client{Timeout: 200 * time.Millisecond}, nil)
	if err := down.Warmup(context.Background()); err == nil {
		t.Fatal("expected warmup failure for unreachable endpoint")
	}
}
