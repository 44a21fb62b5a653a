// Package llm talks to an OpenAI-compatible chat completions API: one
// streaming path for the room relay and one single-shot JSON-mode path
// for structured generation.
package llm

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

	"github.com/rs/zerolog"
)

const defaultSystemPrompt = "You are a cooking assistant in a shared recipe chat room. " +
	"Answer questions about recipes, ingredients and techniques. Keep answers short and practical."

// Non-2xx error bodies are truncated to this many bytes.
const maxErrorBody = 4096

// Config holds the upstream completion API settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	// Timeout bounds non-streaming requests. Streaming requests are
	// bounded by the caller's context only.
	Timeout time.Duration
	// SystemPrompt overrides the default chat instruction when set.
	SystemPrompt string
}

// Client calls the completion API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *zerolog.Logger
}

// New builds a Client. BaseURL is the API root, e.g.
// "https://api.openai.com/v1".
func New(cfg Config, logger *zerolog.Logger) *Client {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		log:        logger,
	}
}

// UpstreamError is a non-2xx or bodyless response from the completion API.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("completion api: status %d", e.Status)
	}
	return fmt.Sprintf("completion api: status %d: %s", e.Status, body)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Stream         bool            `json:"stream,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletion struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// StreamChat starts a streaming completion for one user message. The
// returned stream yields text fragments until io.EOF; the caller closes it.
func (c *Client) StreamChat(ctx context.Context, userText string) (*Stream, error) {
	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: c.cfg.SystemPrompt},
			{Role: "user", Content: userText},
		},
		Stream: true,
	}
	resp, err := c.post(ctx, req, true)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Str("model", c.cfg.Model).Msg("completion stream opened")
	return NewStream(resp.Body), nil
}

// CompleteJSON runs a single-shot completion in JSON mode and returns the
// raw message content.
func (c *Client) CompleteJSON(ctx context.Context, system, userText string) ([]byte, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: userText},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	resp, err := c.post(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var completion chatCompletion
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("completion api: response has no choices")
	}
	return []byte(completion.Choices[0].Message.Content), nil
}

func (c *Client) post(ctx context.Context, req chatRequest, stream bool) (*http.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post chat completions: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}
	if resp.Body == nil {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: "empty response body"}
	}
	return resp, nil
}
