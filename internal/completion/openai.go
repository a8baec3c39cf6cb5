package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/domain"
	"github.com/containerd/errdefs"
)

// DefaultOpenAIURL is the chat completions endpoint.
const DefaultOpenAIURL = "https://api.openai.com/v1/chat/completions"

// OpenAIClient is a minimal OpenAI chat completions client.
type OpenAIClient struct {
	apiKey     string
	url        string
	httpClient *http.Client
}

// NewOpenAIClient creates an OpenAI client.
func NewOpenAIClient(apiKey, url string, timeout time.Duration) *OpenAIClient {
	if url == "" {
		url = DefaultOpenAIURL
	}
	return &OpenAIClient{
		apiKey: apiKey,
		url:    url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the messages to the chat completions endpoint.
func (c *OpenAIClient) Complete(ctx context.Context, messages []domain.Turn, model string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("openai: %w", ErrNotConfigured)
	}

	reqBody := chatRequest{Model: model, Messages: make([]chatMessage, len(messages))}
	for i, m := range messages {
		reqBody.Messages[i] = chatMessage{Role: string(m.Role), Content: m.Content}
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal openai request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed reading openai response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("openai rejected credentials status=%d: %w", resp.StatusCode, errdefs.ErrUnauthenticated)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", fmt.Errorf("openai non-success status=%d body=%s: %w", resp.StatusCode, truncate(string(body), 400), errdefs.ErrUnavailable)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse openai response: %s", truncate(string(body), 400))
	}
	if len(parsed.Choices) == 0 {
		return "", ErrEmptyReply
	}
	content := parsed.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyReply
	}
	return content, nil
}
