package countstore

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

// DefaultTimeout bounds each request when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// HTTPClient talks to a remote count service over JSON/HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client targeting the given base URL (e.g. "http://127.0.0.1:3001").
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchCounts sends POST /get_task_counts.
func (c *HTTPClient) FetchCounts(ctx context.Context, email, game string) (map[string]int, error) {
	var out FetchResponse
	if err := c.post(ctx, "/get_task_counts", FetchRequest{Email: email, Game: game}, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("%w: %s", ErrRejected, out.Message)
	}
	return ToMap(out.Counts), nil
}

// UpdateCount sends POST /update_task_count.
func (c *HTTPClient) UpdateCount(ctx context.Context, email, game, task string, count int) error {
	body := UpdateRequest{Email: email, Game: game, TaskName: task, Count: &count}
	var out UpdateResponse
	if err := c.post(ctx, "/update_task_count", body, &out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("%w: %s", ErrRejected, out.Message)
	}
	return nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var env UpdateResponse
		if resp.StatusCode < 500 && json.Unmarshal(respBody, &env) == nil && !env.Success && env.Message != "" {
			return fmt.Errorf("%w: %s", ErrRejected, env.Message)
		}
		return fmt.Errorf("POST %s: %d %s", path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
