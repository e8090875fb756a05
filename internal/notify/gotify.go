// Package notify pushes end-of-run messages to a Gotify server.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Message priorities used by the CLI.
const (
	PriorityNormal = 5
	PriorityHigh   = 8
)

// Gotify sends messages to one server. A nil *Gotify sends nothing.
type Gotify struct {
	url   string
	token string
	http  *http.Client
}

// NewGotify returns a notifier, or nil when serverURL or token is empty.
// transport may be nil.
func NewGotify(serverURL, token string, transport http.RoundTripper) *Gotify {
	if serverURL == "" || token == "" {
		return nil
	}
	return &Gotify{
		url:   strings.TrimRight(serverURL, "/") + "/message",
		token: token,
		http:  &http.Client{Timeout: 5 * time.Second, Transport: transport},
	}
}

// Send posts title and message with the given priority.
func (g *Gotify) Send(ctx context.Context, title, message string, priority int) error {
	if g == nil {
		return nil
	}
	body, err := json.Marshal(map[string]any{
		"title":    title,
		"message":  message,
		"priority": priority,
	})
	if err != nil {
		return fmt.Errorf("gotify: marshal failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gotify: create request failed: %w", err)
	}
	req.Header.Set("X-Gotify-Token", g.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("gotify: send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gotify: server returned %d", resp.StatusCode)
	}
	return nil
}
