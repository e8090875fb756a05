package api

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RequestLogEntry is one JSON line in the request log.
type RequestLogEntry struct {
	Timestamp     string `json:"ts"`
	Event         string `json:"event"` // request, retry, rate_limit_wait, circuit_opened, circuit_closed, circuit_rejected
	Host          string `json:"host,omitempty"`
	URL           string `json:"url,omitempty"`
	StatusCode    int    `json:"status_code,omitempty"` // 0 = transport error
	DurationMS    int64  `json:"duration_ms,omitempty"`
	Attempt       int    `json:"attempt,omitempty"`
	RateLimitedMS int64  `json:"rate_limited_ms,omitempty"`
	CircuitState  string `json:"circuit_state,omitempty"`
	Error         string `json:"error,omitempty"`
}

// RequestLog appends JSON lines describing every outbound request.
// A nil *RequestLog is valid and discards everything.
type RequestLog struct {
	mu  sync.Mutex
	enc *json.Encoder
	c   io.Closer
}

// OpenRequestLog opens (or creates) path for appending.
func OpenRequestLog(path string) (*RequestLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("request log: mkdir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("request log: open %s: %w", path, err)
	}
	return &RequestLog{enc: json.NewEncoder(f), c: f}, nil
}

// NewRequestLog writes entries to w.
func NewRequestLog(w io.Writer) *RequestLog {
	return &RequestLog{enc: json.NewEncoder(w)}
}

// Close releases the underlying file, if any.
func (l *RequestLog) Close() error {
	if l == nil || l.c == nil {
		return nil
	}
	return l.c.Close()
}

// write failures are ignored; logging must never abort a download.
func (l *RequestLog) write(e RequestLogEntry) {
	if l == nil {
		return
	}
	e.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.enc.Encode(e)
}

func (l *RequestLog) request(host, url string, status int, d time.Duration, attempt int, state string, err error) {
	e := RequestLogEntry{
		Event:        "request",
		Host:         host,
		URL:          url,
		StatusCode:   status,
		DurationMS:   d.Milliseconds(),
		Attempt:      attempt,
		CircuitState: state,
	}
	if attempt > 0 {
		e.Event = "retry"
	}
	if err != nil {
		e.Error = err.Error()
	}
	l.write(e)
}

func (l *RequestLog) rateLimitWait(host string, waited time.Duration) {
	l.write(RequestLogEntry{Event: "rate_limit_wait", Host: host, RateLimitedMS: waited.Milliseconds()})
}

func (l *RequestLog) circuitChange(event, host string, from, to circuitState) {
	l.write(RequestLogEntry{
		Event:        event,
		Host:         host,
		CircuitState: to.String(),
		Error:        fmt.Sprintf("state transition: %s -> %s", from, to),
	})
}

func (l *RequestLog) circuitRejected(host string) {
	l.write(RequestLogEntry{
		Event:        "circuit_rejected",
		Host:         host,
		CircuitState: circuitOpen.String(),
		Error:        ErrCircuitOpen.Error(),
	})
}
