// Package testutil provides shared test helpers used across internal packages.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jmagar/rift-cli/internal/logger"
)

// WriteScript writes an executable shell script with body to dir/name and
// returns its path.
func WriteScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := []byte("#!/bin/sh\n" + body + "\n")
	if err := os.WriteFile(path, content, 0755); err != nil {
		t.Fatalf("failed to write executable %s: %v", path, err)
	}
	return path
}

// WriteFile creates parent directories and writes data to path.
func WriteFile(t *testing.T, path string, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadFile returns the content of path or fails the test.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// Site is an httptest server serving fixed bodies by path. Unknown paths 404.
// Hits counts requests per path.
type Site struct {
	*httptest.Server

	mu     sync.Mutex
	bodies map[string]string
	hits   map[string]int
}

// NewSite starts a Site that is closed when the test ends.
func NewSite(t *testing.T, bodies map[string]string) *Site {
	t.Helper()
	s := &Site{bodies: bodies, hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		body, ok := s.bodies[r.URL.Path]
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

// Set adds or replaces the body served at path.
func (s *Site) Set(path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[path] = body
}

// Hits returns how many requests path received.
func (s *Site) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// Entry is one message captured by RecordingLogger.
type Entry struct {
	Level  string
	Msg    string
	Fields map[string]any
}

// RecordingLogger is a logger.Logger that keeps every entry in memory.
type RecordingLogger struct {
	mu      *sync.Mutex
	entries *[]Entry
	name    string
}

// NewRecordingLogger returns an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{mu: &sync.Mutex{}, entries: &[]Entry{}}
}

func (l *RecordingLogger) record(level, msg string, fields []logger.Field) {
	e := Entry{Level: level, Msg: msg, Fields: make(map[string]any, len(fields)+1)}
	if l.name != "" {
		e.Fields["component"] = l.name
	}
	for _, f := range fields {
		e.Fields[f.Key] = f.Value
	}
	l.mu.Lock()
	*l.entries = append(*l.entries, e)
	l.mu.Unlock()
}

func (l *RecordingLogger) Debug(_ context.Context, msg string, fields ...logger.Field) {
	l.record("DEBUG", msg, fields)
}

func (l *RecordingLogger) Info(_ context.Context, msg string, fields ...logger.Field) {
	l.record("INFO", msg, fields)
}

func (l *RecordingLogger) Warn(_ context.Context, msg string, fields ...logger.Field) {
	l.record("WARN", msg, fields)
}

func (l *RecordingLogger) Error(_ context.Context, msg string, fields ...logger.Field) {
	l.record("ERROR", msg, fields)
}

// Named shares the entry list with the parent.
func (l *RecordingLogger) Named(name string) logger.Logger {
	return &RecordingLogger{mu: l.mu, entries: l.entries, name: name}
}

// Entries returns a copy of everything logged so far.
func (l *RecordingLogger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), (*l.entries)...)
}

// Count returns how many entries at level contain substr in their message or
// any field value.
func (l *RecordingLogger) Count(level, substr string) int {
	n := 0
	for _, e := range l.Entries() {
		if e.Level != level {
			continue
		}
		if strings.Contains(e.Msg, substr) {
			n++
			continue
		}
		for _, v := range e.Fields {
			if strings.Contains(fmt.Sprint(v), substr) {
				n++
				break
			}
		}
	}
	return n
}
