// Package llm is the single boundary to the external completion service.
// Everything above it depends on the Completer interface, never on the wire
// format.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/finassist-platform/finassist/internal/metrics"
)

// UpstreamError marks any failure of the external model service: transport
// errors, non-2xx statuses, and unusable response bodies all collapse into
// it so callers can map the whole class to one outcome.
type UpstreamError struct {
	Status int
	Reason string
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream model error: status %d: %s", e.Status, e.Reason)
	}
	return "upstream model error: " + e.Reason
}

// Message is one turn of a chat exchange in the provider's wire shape.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is a successful model response with the token count the
// provider billed for it.
type Completion struct {
	Text       string
	TokenCount int
}

// Completer produces one chat completion. Implementations must return
// *UpstreamError for every provider-side failure.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (*Completion, error)
}

// Config holds the provider endpoint settings.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client speaks the OpenAI-compatible chat completions API over HTTP.
type Client struct {
	httpClient *http.Client
	cfg        Config
}

func NewClient(cfg Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
	}
}

type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Complete(ctx context.Context, messages []Message) (*Completion, error) {
	comp, err := c.complete(ctx, messages)
	if err != nil {
		metrics.LLMCallsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.LLMCallsTotal.WithLabelValues("ok").Inc()
	return comp, nil
}

func (c *Client) complete(ctx context.Context, messages []Message) (*Completion, error) {
	body, err := json.Marshal(chatRequest{
		Model:     c.cfg.Model,
		Messages:  messages,
		MaxTokens: c.cfg.MaxTokens,
	})
	if err != nil {
		return nil, &UpstreamError{Reason: "encoding request: " + err.Error()}
	}

	url := c.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &UpstreamError{Reason: "building request: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &UpstreamError{Status: resp.StatusCode, Reason: "reading response: " + err.Error()}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &UpstreamError{Status: resp.StatusCode, Reason: "decoding response: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reason := "request rejected"
		if parsed.Error != nil {
			reason = parsed.Error.Message
		}
		return nil, &UpstreamError{Status: resp.StatusCode, Reason: reason}
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, &UpstreamError{Status: resp.StatusCode, Reason: "empty completion"}
	}

	return &Completion{
		Text:       parsed.Choices[0].Message.Content,
		TokenCount: parsed.Usage.TotalTokens,
	}, nil
}
