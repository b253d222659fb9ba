// Package llm talks to an OpenAI-compatible chat-completions endpoint and
// extracts strict JSON from model replies.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Config selects the provider endpoint and models.
type Config struct {
	BaseURL       string
	APIKey        string
	Model         string
	FallbackModel string
	Timeout       time.Duration
}

// Client is a minimal chat-completions client. One request per Chat call;
// the fallback model is tried once when the primary fails.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

// NewClient creates a client with the configured request timeout.
func NewClient(cfg Config, log *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Chat sends the messages and returns the first choice's content. The
// fallback model, when configured, is tried after a primary-model failure.
func (c *Client) Chat(ctx context.Context, messages []Message, temperature float64) (string, error) {
	models := []string{c.cfg.Model}
	if c.cfg.FallbackModel != "" && c.cfg.FallbackModel != c.cfg.Model {
		models = append(models, c.cfg.FallbackModel)
	}

	var lastErr error
	for _, model := range models {
		content, err := c.chat(ctx, messages, temperature, model)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		c.log.Warn("chat completion failed", "model", model, "error", err)
	}
	return "", lastErr
}

func (c *Client) chat(ctx context.Context, messages []Message, temperature float64, model string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   4096,
	})
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("reading chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if cr.Error != nil {
		return "", fmt.Errorf("chat endpoint error (%s): %s", cr.Error.Type, cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}
	return cr.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
