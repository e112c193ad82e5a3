package extract

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

// CloudClient calls a hosted OCR service over HTTP.
type CloudClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewCloudClient(baseURL, apiKey string, timeout time.Duration) *CloudClient {
	return &CloudClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *CloudClient) Name() string { return "cloud" }

type recognizeResponse struct {
	Text  string `json:"text"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Recognize submits one page image and returns the recognized text. Rate
// limits and server errors are retried with backoff up to MaxRetries; the
// caller sees a single call per page.
func (c *CloudClient) Recognize(ctx context.Context, image []byte) (string, error) {
	var text string
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		text, lastErr = c.recognizeOnce(ctx, image)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return text, lastErr
}

func (c *CloudClient) recognizeOnce(ctx context.Context, image []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/recognize", bytes.NewReader(image))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ocr api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ocr api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp recognizeResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("ocr error: %s: %s", apiResp.Error.Code, apiResp.Error.Message)
	}
	return apiResp.Text, nil
}

// Close releases resources.
func (c *CloudClient) Close() {
	c.httpClient.CloseIdleConnections()
}
