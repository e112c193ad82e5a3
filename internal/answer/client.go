package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Completion is the completion service's reply to one question.
type Completion struct {
	Text        string
	TotalTokens int
}

// Completer is the completion service as the ask path sees it.
type Completer interface {
	Complete(ctx context.Context, req PromptRequest) (Completion, error)
}

// CompletionError carries a readable upstream failure back to the session.
type CompletionError struct {
	Status int
	Detail string
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion service error (status %d): %s", e.Status, truncate(e.Detail, 200))
}

// ClientConfig configures the Groq client.
type ClientConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// GroqClient calls Groq's OpenAI-compatible chat completions API.
type GroqClient struct {
	cfg        ClientConfig
	httpClient *http.Client
}

func NewGroqClient(cfg ClientConfig) *GroqClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &GroqClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Model reports the configured model name for status endpoints.
func (c *GroqClient) Model() string { return c.cfg.Model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one chat completion request: system contract, windowed
// history, then the citation prompt.
func (c *GroqClient) Complete(ctx context.Context, req PromptRequest) (Completion, error) {
	messages := make([]chatMessage, 0, len(req.History)+2)
	messages = append(messages, chatMessage{Role: "system", Content: req.System})
	for _, t := range req.History {
		messages = append(messages, chatMessage{Role: string(t.Role), Content: t.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return Completion{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Completion{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Completion{}, &CompletionError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Completion{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Completion{}, &CompletionError{Status: resp.StatusCode, Detail: string(respBody)}
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return Completion{}, fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return Completion{}, &CompletionError{Status: resp.StatusCode, Detail: fmt.Sprintf("%s: %s", apiResp.Error.Type, apiResp.Error.Message)}
	}
	if len(apiResp.Choices) == 0 {
		return Completion{}, &CompletionError{Status: resp.StatusCode, Detail: "empty choices in response"}
	}

	return Completion{
		Text:        apiResp.Choices[0].Message.Content,
		TotalTokens: apiResp.Usage.TotalTokens,
	}, nil
}

// Close releases resources.
func (c *GroqClient) Close() {
	c.httpClient.CloseIdleConnections()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
