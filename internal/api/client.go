// Package api implements the chat completion client.
package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	"github.com/diogo/minigpt/internal/config"
)

// HTTPDoer is the transport the client sends requests through.
// tls_client.HttpClient satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Completer issues a single-turn completion for text using credential.
type Completer interface {
	Complete(ctx context.Context, credential, text string) (string, error)
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	httpClient  HTTPDoer
	endpoint    string
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	logger      *slog.Logger
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithModel sets the model identifier sent with every request
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithEndpoint overrides the completions URL
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithMaxTokens sets the response length cap
func WithMaxTokens(n int) ClientOption {
	return func(c *Client) {
		c.maxTokens = n
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float64) ClientOption {
	return func(c *Client) {
		c.temperature = t
	}
}

// WithTimeout bounds a single request. Zero means no limit beyond the transport's own.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the transport (used by tests)
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithLogger sets the logger for request diagnostics
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// FromConfig returns the options matching cfg.
func FromConfig(cfg config.Config) []ClientOption {
	return []ClientOption{
		WithModel(cfg.Model),
		WithEndpoint(cfg.Endpoint),
		WithMaxTokens(cfg.MaxTokens),
		WithTemperature(cfg.Temperature),
		WithTimeout(cfg.Timeout()),
	}
}

// NewClient creates a new completion Client
func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		endpoint:    config.DefaultEndpoint,
		model:       config.DefaultModel,
		maxTokens:   1000,
		temperature: 0.7,
		timeout:     120 * time.Second,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		httpClient, err := newTLSClient(client.timeout)
		if err != nil {
			return nil, err
		}
		client.httpClient = httpClient
	}

	return client, nil
}

func newTLSClient(timeout time.Duration) (tls_client.HttpClient, error) {
	options := []tls_client.HttpClientOption{
		tls_client.WithClientProfile(profiles.Chrome_120),
	}
	if timeout > 0 {
		options = append(options, tls_client.WithTimeoutSeconds(int(timeout.Seconds())))
	}

	httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return httpClient, nil
}

// Model returns the configured model identifier
func (c *Client) Model() string {
	return c.model
}

// Endpoint returns the configured completions URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// MaxTokens returns the configured response length cap
func (c *Client) MaxTokens() int {
	return c.maxTokens
}

// Temperature returns the configured sampling temperature
func (c *Client) Temperature() float64 {
	return c.temperature
}
