// Package gemini implements the llm interfaces on top of the Google
// Gemini API: streamGenerateContent over SSE for text turns and the
// BidiGenerateContent websocket for live voice.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"interview-backend/internal/llm"
)

const (
	// DefaultBaseURL is the default Gemini API endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// Client implements llm.Client and llm.LiveDialer using the Gemini API.
type Client struct {
	apiKey     string
	model      string
	liveModel  string
	baseURL    string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL sets the base URL for API requests.
// Default: https://generativelanguage.googleapis.com/v1beta
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets the HTTP client for API requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient constructs a new Gemini client.
func NewClient(apiKey, model, liveModel string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("GEMINI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	c := &Client{
		apiKey:    apiKey,
		model:     model,
		liveModel: liveModel,
		baseURL:   DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		dialer: websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GenerateStream sends the contents to streamGenerateContent and returns
// the SSE response as a chunk stream.
func (c *Client) GenerateStream(ctx context.Context, contents []llm.Content) (llm.Stream, error) {
	req := buildRequest(contents)
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, parseError(resp)
	}
	return newTextStream(resp.Body), nil
}

var (
	_ llm.Client     = (*Client)(nil)
	_ llm.LiveDialer = (*Client)(nil)
)
