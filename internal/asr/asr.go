// Package asr uploads captured audio to a speech-to-text HTTP endpoint
// and extracts the transcript from the JSON response.
package asr

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/Sebstrdigital/dua-talk/internal/config"
	"github.com/Sebstrdigital/dua-talk/internal/jsonpath"
)

// Engine turns a captured recording into text.
type Engine interface {
	// Transcribe uploads the WAV file at wavPath and returns the transcript.
	Transcribe(ctx context.Context, wavPath string) (string, error)
	// Warmup verifies the engine is reachable before the first dictation.
	Warmup(ctx context.Context) error
}

// RetryExhaustedError is returned when every upload attempt failed.
type RetryExhaustedError struct {
	Attempts     int
	MaxRetry     int
	LastResponse []byte
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("upload failed after %d attempts (max %d)", e.Attempts, e.MaxRetry)
}

// Client is the HTTP Engine. Failed uploads are retried with exponential
// backoff up to MaxRetry attempts.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	log        *zap.SugaredLogger
}

// New creates a Client. A nil httpClient gets a per-request default.
func New(cfg config.Config, httpClient *http.Client, log *zap.SugaredLogger) *Client {
	return &Client{cfg: cfg, httpClient: httpClient, log: log}
}

// NewHTTPClient builds the shared transport honoring the HTTP/2 and TLS
// verification settings.
func NewHTTPClient(cfg config.Config) *http.Client {
	tr := &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if !cfg.VerifySSL {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if cfg.EnableHTTP2 {
		_ = http2.ConfigureTransport(tr)
	}
	return &http.Client{
		Transport: tr,
		Timeout:   time.Duration(cfg.RequestTimeout) * time.Second,
	}
}

// Warmup checks that the endpoint answers at all. Any HTTP status counts
// as reachable, only transport errors do not.
func (c *Client) Warmup(ctx context.Context) error {
	if c.cfg.APIEndpoint == "" {
		return fmt.Errorf("API endpoint is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.cfg.APIEndpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return fmt.Errorf("endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if c.log != nil {
		c.log.Debugw("warmup done", "endpoint", c.cfg.APIEndpoint, "status", resp.StatusCode)
	}
	return nil
}

// Transcribe uploads the WAV file and returns the extracted transcript.
func (c *Client) Transcribe(ctx context.Context, wavPath string) (string, error) {
	if c.cfg.APIEndpoint == "" {
		return "", fmt.Errorf("API endpoint is empty")
	}

	delay := c.cfg.RetryBaseDelay
	var lastResp []byte

	for attempt := 1; ; attempt++ {
		ok, res, err := c.doUpload(ctx, wavPath)
		lastResp = res
		if ok {
			return jsonpath.Text(res, c.cfg.TextPath), nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if c.log != nil {
			c.log.Warnw("upload attempt failed", "attempt", attempt, "error", err)
		}
		if attempt >= c.cfg.MaxRetry {
			return "", &RetryExhaustedError{Attempts: attempt, MaxRetry: c.cfg.MaxRetry, LastResponse: lastResp}
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(delay * float64(time.Second))):
		}
		delay *= 2
	}
}

func (c *Client) doUpload(ctx context.Context, wavPath string) (bool, []byte, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return false, nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return false, nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return false, nil, fmt.Errorf("copy recording: %w", err)
	}
	if c.cfg.STTModel != "" {
		_ = writer.WriteField("model", c.cfg.STTModel)
	}
	if c.cfg.Language != "" {
		_ = writer.WriteField("language", c.cfg.Language)
	}
	if c.cfg.Prompt != "" {
		_ = writer.WriteField("prompt", c.cfg.Prompt)
	}
	_ = writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIEndpoint, body)
	if err != nil {
		return false, nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	req.Header.Set("User-Agent", "dua-talk/1.0")

	start := time.Now()
	resp, err := c.client().Do(req)
	if err != nil {
		return false, nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if c.log != nil {
		c.log.Debugw("upload finished", "status", resp.StatusCode, "duration", time.Since(start))
	}
	if resp.StatusCode != http.StatusOK {
		return false, respBody, fmt.Errorf("status %d", resp.StatusCode)
	}
	return true, respBody, nil
}

func (c *Client) client() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: time.Duration(c.cfg.RequestTimeout) * time.Second}
}
