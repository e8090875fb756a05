package resolve

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
)

// fakeFetcher serves canned bodies by URL and records every request.
type fakeFetcher struct {
	bodies   map[string]string
	failOnce map[string]bool
	requests []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{bodies: make(map[string]string), failOnce: make(map[string]bool)}
}

func (f *fakeFetcher) GetText(_ context.Context, rawURL string) (string, error) {
	f.requests = append(f.requests, rawURL)
	if f.failOnce[rawURL] {
		delete(f.failOnce, rawURL)
		return "", fmt.Errorf("GET %s: 503 Service Unavailable", rawURL)
	}
	body, ok := f.bodies[rawURL]
	if !ok {
		return "", fmt.Errorf("GET %s: 404 Not Found", rawURL)
	}
	return body, nil
}

func (f *fakeFetcher) GetJSON(ctx context.Context, rawURL string) (gjson.Result, error) {
	body, err := f.GetText(ctx, rawURL)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.Parse(body), nil
}

func (f *fakeFetcher) count(rawURL string) int {
	n := 0
	for _, r := range f.requests {
		if r == rawURL {
			n++
		}
	}
	return n
}
