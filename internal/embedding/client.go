// Package embedding talks to the persistent embedding server and ranks
// sections by cosine similarity against its vectors.
//
// The server keeps the embedding model resident and exposes a small
// HTTP API: GET /health for readiness and POST /encode to embed a
// query. The client assumes a long-lived server, not a process spawned
// per request: it checks readiness once and fails fast afterwards.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is an HTTP client for the embedding server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	timeout    time.Duration
}

// NewClient creates a Client for the embedding server at baseURL
// (e.g. "http://127.0.0.1:8765").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		maxRetries: 3,
		timeout:    30 * time.Second,
	}
}

type healthResponse struct {
	Status    string `json:"status"`
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
}

type encodeRequest struct {
	Query string `json:"query"`
}

type encodeResponse struct {
	Embedding []float64 `json:"embedding"`
	Model     string    `json:"model"`
	Dimension int       `json:"dimension"`
	Error     string    `json:"error"`
}

// Ready checks the server's health endpoint. The model must be loaded
// before the first encode call; a 503 here means the server is still
// starting up (or was started without a model).
func (c *Client) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("embedding: health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("embedding: server unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("embedding: decode health: %w", err)
	}
	if resp.StatusCode != http.StatusOK || health.Status != "ready" {
		return fmt.Errorf("embedding: server not ready (status %d)", resp.StatusCode)
	}
	return nil
}

// Encode embeds a query string, retrying transient failures with a
// linear backoff.
func (c *Client) Encode(ctx context.Context, query string) ([]float64, error) {
	var vector []float64
	var err error

	for retries := 0; retries <= c.maxRetries; retries++ {
		if retries > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(retries) * time.Second):
			}
		}

		vector, err = c.encode(ctx, query)
		if err == nil {
			return vector, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("embedding: encode failed after %d retries: %w", c.maxRetries, err)
}

func (c *Client) encode(ctx context.Context, query string) ([]float64, error) {
	body, err := json.Marshal(encodeRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("embedding: marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/encode", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedding: encode request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding: encode call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embedding: read response: %w", err)
	}

	var out encodeResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("embedding: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != "" {
			return nil, fmt.Errorf("embedding: server error: %s", out.Error)
		}
		return nil, fmt.Errorf("embedding: server returned status %d", resp.StatusCode)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("embedding: server returned empty vector")
	}
	return out.Embedding, nil
}
