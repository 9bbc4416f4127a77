package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNotConfigured is returned when no API key is set. Callers decide whether
// that is a server fault (grounded Q&A) or a fallback trigger (recommendations).
var ErrNotConfigured = errors.New("openai: api key not configured")

// Config holds connection parameters for an OpenAI-compatible
// chat-completions endpoint.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Client is a minimal HTTP client for the chat-completions API.
type Client struct {
	httpClient *http.Client
	cfg        Config
}

// NewClient constructs a new client with sane defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cfg:        cfg,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// ChatCompletion sends the messages and returns the first choice's content.
// One outbound call per invocation, no streaming, no retry.
func (c *Client) ChatCompletion(ctx context.Context, req ChatRequest) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	payload := chatCompletionPayload{
		Model:       c.cfg.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		// Provider bodies stay in server logs; callers surface generic errors.
		log.Error().Int("status", resp.StatusCode).Str("body", string(respBody)).Msg("chat completion failed")
		return "", fmt.Errorf("openai: unexpected status %d", resp.StatusCode)
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", errors.New("openai: empty choices in response")
	}

	return result.Choices[0].Message.Content, nil
}
