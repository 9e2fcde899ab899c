package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Client wraps an OpenAI-compatible API client. A client created without an
// API key is recognized as unconfigured: callers skip network I/O entirely
// and serve their fallback content.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client. An empty apiKey yields an unconfigured
// client.
func New(baseURL, apiKey, modelName string) *Client {
	if strings.TrimSpace(apiKey) == "" {
		return &Client{}
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Configured reports whether an API credential is present.
func (c *Client) Configured() bool {
	return c != nil && c.api != nil
}

// Complete sends a single-prompt completion request and returns the raw
// text of the first choice.
func (c *Client) Complete(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	if !c.Configured() {
		return "", errors.New("LLM client is not configured")
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("LLM returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// isRateLimited reports whether err corresponds to an HTTP 429 from the
// endpoint. Rate-limit failures back off exponentially; everything else
// backs off linearly.
func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}

// extractObject returns the substring between the first '{' and the last
// '}' in raw. The model is asked for strict JSON but often wraps it in
// prose or code fences, so the contract is: take the first top-level object
// found anywhere in the reply.
func extractObject(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return "", errors.New("no JSON object in response")
	}
	return raw[start : end+1], nil
}
