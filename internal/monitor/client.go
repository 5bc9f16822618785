// Package monitor implements the console session monitor.
package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Snapshot mirrors the /get_counts response.
type Snapshot struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	Counts   map[string]int `json:"counts"`
	Task     string         `json:"task_name"`
	Count    int            `json:"count"`
	MaxCount int            `json:"max_count"`
	State    string         `json:"state"`
	Angle    float64        `json:"angle"`
	Correct  bool           `json:"correct"`
}

// Client talks to a running formcheck server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Counts fetches GET /get_counts. A 400 "No active session" is not an error:
// the returned snapshot has Success false.
func (c *Client) Counts(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get_counts", nil)
	if err != nil {
		return Snapshot{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Snapshot{}, err
	}
	defer resp.Body.Close()

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode /get_counts (%d): %w", resp.StatusCode, err)
	}
	return snap, nil
}

// Stop sends POST /stop_counting.
func (c *Client) Stop(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/stop_counting", bytes.NewReader(nil))
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("stop_counting: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// EventsURL derives the websocket URL of /api/events from the base URL.
func (c *Client) EventsURL() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "ws://127.0.0.1:5000/api/events"
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s/api/events", scheme, u.Host)
}
