// Package main provides a desktop notification hook for formcheck.
// It announces completed and failed sessions, and optionally every repetition.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Request represents the input from the hook executor.
type Request struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Config  json.RawMessage `json:"config"`
}

// Response represents the output to the hook executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type payload struct {
	Task     string `json:"task_name"`
	Count    int    `json:"count"`
	MaxCount int    `json:"max_count"`
	Reason   string `json:"reason"`
	Error    string `json:"error"`
}

type config struct {
	EveryRep bool `json:"every_rep"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	var cfg config
	if len(req.Config) > 0 {
		_ = json.Unmarshal(req.Config, &cfg)
	}
	var p payload
	if err := json.Unmarshal(req.Payload, &p); err != nil {
		writeResponse(fmt.Errorf("failed to decode payload: %w", err))
		return
	}

	title, body, ok := message(req.Event, p, cfg)
	if !ok {
		writeResponse(nil)
		return
	}
	writeResponse(notify(title, body))
}

// message returns the notification for an event, or false when none is shown.
func message(event string, p payload, cfg config) (string, string, bool) {
	switch event {
	case "count_changed":
		if !cfg.EveryRep {
			return "", "", false
		}
		return p.Task, fmt.Sprintf("%d of %d", p.Count, p.MaxCount), true
	case "session_ended":
		switch p.Reason {
		case "completed":
			return p.Task + " complete", fmt.Sprintf("All %d reps done", p.Count), true
		case "failed":
			return p.Task + " stopped", "Counting failed: " + p.Error, true
		}
	}
	return "", "", false
}

func notify(title, body string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", body, title)
		cmd = exec.Command("osascript", "-e", script)
	default:
		cmd = exec.Command("notify-send", title, body)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
