// Package api is the single HTTP gateway for the backend, the embed pages and the CDNs.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

// UserAgent mirrors the League client's embedded browser closely enough for the CDNs.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) RiotClient/90.0 Chrome/108.0 Safari/537.36"

// ErrInvalidJSON is returned by GetJSON when the body does not parse.
var ErrInvalidJSON = errors.New("response is not valid JSON")

// StatusError reports a non-success HTTP status.
type StatusError struct {
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// IsNotFound reports whether err is an HTTP 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Options configures a Client. Zero values get sane defaults.
type Options struct {
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
	MaxRetries int
	Transport  http.RoundTripper
	Log        *RequestLog
}

// Client wraps http.Client with rate limiting, per-host circuit breaking and retries.
// All methods are safe for concurrent use.
type Client struct {
	http       *http.Client
	limiter    *rateLimiter
	breakers   *breakerSet
	log        *RequestLog
	maxRetries int
}

// New builds a Client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 8
	}
	if opts.Burst <= 0 {
		opts.Burst = 16
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	} else if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	return &Client{
		http:       &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		limiter:    newRateLimiter(opts.RatePerSec, opts.Burst),
		breakers:   newBreakerSet(5, 60*time.Second),
		log:        opts.Log,
		maxRetries: opts.MaxRetries,
	}
}

// get is the single gateway for every outbound request.
//
// It enforces, in order: rate limiting, the per-host circuit breaker, the
// request itself, and retries with exponential backoff on 429/5xx (Retry-After
// respected). Non-2xx responses that are not retried come back as *StatusError.
// Caller closes the returned body.
func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	host := hostOf(rawURL)
	backoff := 500 * time.Millisecond

	for attempt := 0; ; attempt++ {
		waited, err := c.limiter.Wait(ctx)
		if err != nil {
			return nil, fmt.Errorf("rate limiter cancelled for %s: %w", host, err)
		}
		if waited > time.Millisecond {
			c.log.rateLimitWait(host, waited)
		}

		cb := c.breakers.get(host)
		state, allowed := cb.Allow()
		if !allowed {
			c.log.circuitRejected(host)
			return nil, fmt.Errorf("%w (host: %s)", ErrCircuitOpen, host)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", UserAgent)

		start := time.Now()
		resp, err := c.http.Do(req)
		elapsed := time.Since(start)
		if err != nil {
			// Transport failures do not count against the host.
			c.log.request(host, rawURL, 0, elapsed, attempt, state.String(), err)
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
			if prev := cb.RecordSuccess(); prev != circuitClosed {
				c.log.circuitChange("circuit_closed", host, prev, circuitClosed)
			}
			c.log.request(host, rawURL, resp.StatusCode, elapsed, attempt, circuitClosed.String(), nil)
			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				resp.Body.Close()
				return nil, &StatusError{URL: rawURL, Code: resp.StatusCode, Status: resp.Status}
			}
			return resp, nil
		}

		resp.Body.Close()
		newState := cb.RecordFailure()
		if newState == circuitOpen && state != circuitOpen {
			c.log.circuitChange("circuit_opened", host, state, newState)
		}
		statusErr := &StatusError{URL: rawURL, Code: resp.StatusCode, Status: resp.Status}
		c.log.request(host, rawURL, resp.StatusCode, elapsed, attempt, newState.String(), statusErr)

		if attempt >= c.maxRetries {
			return nil, fmt.Errorf("after %d attempts: %w", attempt+1, statusErr)
		}
		wait := backoff
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, e := strconv.Atoi(ra); e == nil {
				wait = time.Duration(secs) * time.Second
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		backoff = min(backoff*2, 30*time.Second)
	}
}

// GetBytes fetches rawURL and returns the whole body.
func (c *Client) GetBytes(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	return data, nil
}

// GetText fetches rawURL as a string.
func (c *Client) GetText(ctx context.Context, rawURL string) (string, error) {
	data, err := c.GetBytes(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GetJSON fetches rawURL and returns the parsed document root.
func (c *Client) GetJSON(ctx context.Context, rawURL string) (gjson.Result, error) {
	data, err := c.GetBytes(ctx, rawURL)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("%s: %w", rawURL, ErrInvalidJSON)
	}
	return gjson.ParseBytes(data), nil
}

// Download streams rawURL into dest and returns the number of bytes written.
// The body goes to a sibling ".part" file first so an interrupted transfer never
// leaves a file that later runs would mistake for a finished download.
func (c *Client) Download(ctx context.Context, rawURL, dest string) (int64, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}
	part := dest + ".part"
	f, err := os.OpenFile(part, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(part)
		return n, fmt.Errorf("write %s: %w", dest, err)
	}
	if err := os.Rename(part, dest); err != nil {
		os.Remove(part)
		return n, err
	}
	return n, nil
}
