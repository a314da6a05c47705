package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/minigpt/internal/errors"
)

const (
	// maxErrorBody limits how much of a failed response is read
	maxErrorBody = 4 << 10
	// maxResponseBody limits how much of a successful response is read
	maxResponseBody = 8 << 20

	contentPath = "choices.0.message.content"
)

// ChatMessage is one entry of the request's messages array.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the JSON body posted to the endpoint.
type CompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

// NewCompletionRequest builds a single-turn request carrying only text.
func NewCompletionRequest(model, text string, maxTokens int, temperature float64) CompletionRequest {
	return CompletionRequest{
		Model:       model,
		Messages:    []ChatMessage{{Role: "user", Content: text}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

// Complete sends text with the client's configured model.
func (c *Client) Complete(ctx context.Context, credential, text string) (string, error) {
	return c.CompleteModel(ctx, credential, c.model, text)
}

// CompleteModel sends text as a single user message to model and returns the
// first choice's content. Non-2xx responses return an *errors.APIError whose
// message is the server's error.message when present.
func (c *Client) CompleteModel(ctx context.Context, credential, model, text string) (string, error) {
	return c.Do(ctx, credential, NewCompletionRequest(model, text, c.maxTokens, c.temperature))
}

// Do posts payload and decodes the response.
func (c *Client) Do(ctx context.Context, credential string, payload CompletionRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("completion request failed", "model", payload.Model, "error", err)
		return "", apierrors.NewNetworkError("chat completion", c.endpoint, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	c.logger.Debug("completion response",
		"model", payload.Model,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", parseErrorResponse(resp, c.endpoint, errorBody)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", apierrors.NewNetworkError("read completion response", c.endpoint, err)
	}

	return parseCompletion(data)
}

// parseCompletion extracts the first choice's message content.
func parseCompletion(data []byte) (string, error) {
	if !gjson.ValidBytes(data) {
		return "", apierrors.NewParseError("response body is not valid JSON", "")
	}

	content := gjson.GetBytes(data, contentPath)
	if content.Type != gjson.String {
		return "", apierrors.NewParseError("no completion content", contentPath)
	}
	return content.String(), nil
}

// parseErrorResponse converts a non-2xx response into an APIError.
func parseErrorResponse(resp *http.Response, endpoint string, body []byte) error {
	status := statusText(resp)
	message := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, status)

	if gjson.ValidBytes(body) {
		if m := gjson.GetBytes(body, "error.message"); m.Type == gjson.String && m.String() != "" {
			message = m.String()
		}
	}

	return apierrors.NewAPIErrorWithBody(resp.StatusCode, status, endpoint, message, string(body))
}

// statusText returns the reason phrase of resp, e.g. "Internal Server Error".
func statusText(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
