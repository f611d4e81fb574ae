package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// RemoteEngine delegates analysis to an external fingerprint service over HTTP
type RemoteEngine struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewRemoteEngine creates a new remote engine client
func NewRemoteEngine(baseURL, apiKey string, timeout time.Duration) *RemoteEngine {
	return &RemoteEngine{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// AnalyzeRequest is the body sent to the remote engine
type AnalyzeRequest struct {
	Files []File `json:"files"`
}

// AnalyzeResponse is the body returned by the remote engine
type AnalyzeResponse struct {
	Matches []Match `json:"matches"`
}

// AnalyzeError represents an error response from the remote engine
type AnalyzeError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *RemoteEngine) Analyze(ctx context.Context, files []File) ([]Match, error) {
	url := fmt.Sprintf("%s/api/v1/analyze", c.baseURL)

	reqBody, err := json.Marshal(AnalyzeRequest{Files: files})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("x-api-key", c.apiKey)
	}

	log.Trace().Int("files", len(files)).Str("url", url).Msg("Sending files to remote engine")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusBadRequest ||
		resp.StatusCode == http.StatusUnsupportedMediaType ||
		resp.StatusCode == http.StatusUnprocessableEntity {
		var errResp AnalyzeError
		if err := json.Unmarshal(body, &errResp); err != nil {
			return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("API error: %s - %s", errResp.Error, errResp.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var analyzeResp AnalyzeResponse
	if err := json.Unmarshal(body, &analyzeResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return analyzeResp.Matches, nil
}
