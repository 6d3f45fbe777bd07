package cleanup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || !strings.Contains(req.Messages[0].Content, "filler words") {
			t.Errorf("expected instruction in user message, got %+v", req.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"` + content + `"},"finish_reason":"stop"}]}`))
	}))
}

func TestClean(t *testing.T) {
	server := completionServer(t, "So I was thinking we should ship it.")
	defer server.Close()

	c := New(server.URL, "gemma3", nil)
	out, err := c.Clean(context.Background(), "so um I was thinking like we should ship it")
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if out != "So I was thinking we should ship it." {
		t.Fatalf("unexpected cleaned text: %q", out)
	}
}

func TestCleanEmptyCompletionIsError(t *testing.T) {
	server := completionServer(t, "  ")
	defer server.Close()

	c := New(server.URL, "gemma3", nil)
	if _, err := c.Clean(context.Background(), "anything"); err == nil {
		t.Fatal("expected error for whitespace-only completion")
	}
}

func TestCleanServerDownIsError(t *testing.T) {
	c := New("http://127.0.0.1:1/v1", "gemma3", nil)
	if _, err := c.Clean(context.Background(), "anything"); err == nil {
		t.Fatal("expected error when endpoint is unreachable")
	}
}
