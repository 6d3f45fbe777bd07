// Package cleanup sends a raw transcript through a local LLM to strip
// filler words and fix punctuation. Callers treat any failure as
// non-fatal and keep the raw transcript.
package cleanup

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

const instruction = "Clean up this dictation. Remove filler words (um, uh, like, you know), " +
	"fix punctuation and capitalization. Output ONLY the cleaned text, nothing else:"

// Cleaner rewrites a transcript. An error means the caller should fall
// back to the input unchanged.
type Cleaner interface {
	Clean(ctx context.Context, transcript string) (string, error)
}

// Client talks to an OpenAI-compatible chat endpoint, typically Ollama
// serving /v1 on localhost.
type Client struct {
	client *openai.Client
	model  string
	log    *zap.SugaredLogger
}

// New builds a Client against baseURL using model.
func New(baseURL, model string, log *zap.SugaredLogger) *Client {
	c := openai.NewClient(
		option.WithBaseURL(baseURL),
		// Ollama ignores the key but the SDK requires one.
		option.WithAPIKey("ollama"),
	)
	return &Client{client: &c, model: model, log: log}
}

// Clean asks the model to rewrite the transcript. An empty or
// whitespace-only completion is reported as an error.
func (c *Client) Clean(ctx context.Context, transcript string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(instruction + "\n\n" + transcript),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in completion")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("empty completion")
	}
	if c.log != nil {
		c.log.Debugw("cleanup done", "model", c.model, "in_len", len(transcript), "out_len", len(out))
	}
	return out, nil
}
