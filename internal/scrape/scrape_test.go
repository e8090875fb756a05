package scrape

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmagar/rift-cli/internal/api"
	"github.com/jmagar/rift-cli/internal/download"
	"github.com/jmagar/rift-cli/internal/testutil"
)

const distBase = "https://assetcdn.rgpub.io/public/live/bundle-offload/evt/abc"

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func httpResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// fakeWeb serves bodies keyed by full URL and counts requests.
type fakeWeb struct {
	mu     sync.Mutex
	bodies map[string]string
	hits   map[string]int
}

func newFakeWeb(bodies map[string]string) *fakeWeb {
	return &fakeWeb{bodies: bodies, hits: make(map[string]int)}
}

func (w *fakeWeb) client() *api.Client {
	return api.New(api.Options{
		RatePerSec: 1000,
		Burst:      1000,
		MaxRetries: -1,
		Timeout:    5 * time.Second,
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			w.mu.Lock()
			defer w.mu.Unlock()
			u := req.URL.String()
			w.hits[u]++
			body, ok := w.bodies[u]
			if !ok {
				return httpResponse(http.StatusNotFound, ""), nil
			}
			return httpResponse(http.StatusOK, body), nil
		}),
	})
}

func (w *fakeWeb) total() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, c := range w.hits {
		n += c
	}
	return n
}

func (w *fakeWeb) count(u string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hits[u]
}

func newTestScraper(w *fakeWeb) *Scraper {
	c := w.client()
	return NewScraper(c, download.NewFetcher(c, nil, nil), DefaultMainFileRules(), nil, nil)
}

func TestNormalizeAssetName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"image.4f9a2b1.png", "image.png"},
		{"image-immortalized.png", "image-immortalized.png"},
		{"https://cdn.example/a/bg.0123456789abcdef.webm?x=1", "bg.webm"},
		{"icon.abc12.svg", "icon.abc12.svg"},
		{"double.aaaaaa.bbbbbb.png", "double.png"},
		{"noext", "noext"},
	}
	for _, tt := range tests {
		got := NormalizeAssetName(tt.in)
		if got != tt.want {
			t.Errorf("NormalizeAssetName(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if again := NormalizeAssetName(got); again != got {
			t.Errorf("NormalizeAssetName not idempotent for %q: %q then %q", tt.in, got, again)
		}
	}
}

func TestMainFileRules(t *testing.T) {
	rules := DefaultMainFileRules()
	tests := []struct {
		name string
		want bool
	}{
		{"app", true},
		{"app.css", true},
		{"app.5f3a9c.js", true},
		{"686-0123abcd.js", true},
		{"44939c99c1f6ea56.css", true},
		{"vendor.abc123.js", false},
		{"application.js", false},
		{"686-xyz.js", false},
	}
	for _, tt := range tests {
		if got := rules.Allows(tt.name); got != tt.want {
			t.Errorf("Allows(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestExtractors(t *testing.T) {
	html := `<script src="` + distBase + `/app.1a2b3c.js"></script>
<link href="` + distBase + `/app.1a2b3c.css" rel="stylesheet">
<script src="` + distBase + `/app.1a2b3c.js"></script>`
	if got := FindDistURLs(html); !reflect.DeepEqual(got, []string{distBase + "/app.1a2b3c.js", distBase + "/app.1a2b3c.css"}) {
		t.Fatalf("FindDistURLs = %v", got)
	}
	if got := FindDistURLs(`"` + distBase + `/app.1234abcd.json"`); len(got) != 0 {
		t.Fatalf("FindDistURLs matched a .json file: %v", got)
	}

	css := `.a{background:url(https://cdn.example/x/_next/static/media/bg.abc123.png)}
.b{background:url("https://cdn.example/y/font.woff2")}
.c{background-image:url('https://cdn.example/y/hero.webp')}
.d{background:url(https://cdn.example/x/_next/static/media/bg.abc123.png)}`
	wantCSS := []string{"https://cdn.example/x/_next/static/media/bg.abc123.png", "https://cdn.example/y/hero.webp"}
	if got := ExtractCSSAssetURLs(css); !reflect.DeepEqual(got, wantCSS) {
		t.Fatalf("ExtractCSSAssetURLs = %v, want %v", got, wantCSS)
	}

	js := `e.p+"/static/img/a.png";n="/vendor/logo.svg";o="/fe/skip.png";l="static/img/a.png";m=".png"`
	wantJS := []string{"/static/img/a.png", "/commons/logo.svg", "static/img/a.png"}
	if got := ExtractJSAssetPaths(js); !reflect.DeepEqual(got, wantJS) {
		t.Fatalf("ExtractJSAssetPaths = %v, want %v", got, wantJS)
	}

	svgs := ExtractInlineSVGs(`x='<svg viewBox="0 0 1 1"><path d="M0"/></svg>';y='<svg>"+r+"</svg>'`)
	if len(svgs) != 1 || !strings.HasPrefix(svgs[0], `<svg viewBox`) {
		t.Fatalf("ExtractInlineSVGs = %v", svgs)
	}
}

func TestSessionClaimAndReset(t *testing.T) {
	s := NewSession()
	if !s.Claim("a.png") || s.Claim("a.png") {
		t.Fatalf("Claim should succeed once per name")
	}
	s.Reset()
	if s.Len() != 0 || !s.Claim("a.png") {
		t.Fatalf("Reset should forget claimed names")
	}
}

func TestScrapeEndToEnd(t *testing.T) {
	embed := "https://embed.rgpub.io/evt/en-us/"
	js := `var a="/static/img/a.b2c3d4e5.png";`
	w := newFakeWeb(map[string]string{
		embed:                                   `<script src="` + distBase + `/app.9f8e7d.js"></script>`,
		distBase + "/app.9f8e7d.js":             js,
		distBase + "/static/img/a.b2c3d4e5.png": "PNG",
	})
	dir := t.TempDir()
	sess := NewSession()

	if err := newTestScraper(w).Scrape(context.Background(), embed, dir, sess); err != nil {
		t.Fatalf("Scrape returned error: %v", err)
	}
	if w.total() != 3 {
		t.Fatalf("expected page + dist + one asset requests, got %v", w.hits)
	}
	if got := testutil.ReadFile(t, filepath.Join(dir, "static", "img", "a.b2c3d4e5.png")); got != "PNG" {
		t.Fatalf("asset content = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "app.9f8e7d.js")); err != nil {
		t.Fatalf("dist file missing: %v", err)
	}
	files := testutil.ReadFile(t, filepath.Join(dir, "files.txt"))
	if files != "app.9f8e7d.js\nstatic/img/a.b2c3d4e5.png\n" {
		t.Fatalf("files.txt = %q", files)
	}
	if sess.Len() != 0 {
		t.Fatalf("session must be cleared after a scrape")
	}
}

func TestScrapeDedupesNormalizedNames(t *testing.T) {
	embed := "https://embed.rgpub.io/dup/en-us/"
	js := `a="/img/a.b2c3d4e5.png";b="/img/a.0f0f0f0f.png";`
	w := newFakeWeb(map[string]string{
		embed:                            distBase + "/app.123456.js",
		distBase + "/app.123456.js":      js,
		distBase + "/img/a.b2c3d4e5.png": "1",
		distBase + "/img/a.0f0f0f0f.png": "2",
	})
	if err := newTestScraper(w).Scrape(context.Background(), embed, t.TempDir(), NewSession()); err != nil {
		t.Fatalf("Scrape returned error: %v", err)
	}
	if w.count(distBase+"/img/a.b2c3d4e5.png")+w.count(distBase+"/img/a.0f0f0f0f.png") != 1 {
		t.Fatalf("expected exactly one download attempt for a.png, got %v", w.hits)
	}
}

func TestScrapeCSSMirrorsDirectories(t *testing.T) {
	embed := "https://embed.rgpub.io/css/en-us/"
	asset := distBase + "/_next/static/media/bg.abc123.png"
	w := newFakeWeb(map[string]string{
		embed:                        distBase + "/app.fedcba.css",
		distBase + "/app.fedcba.css": `body{background:url(` + asset + `)}`,
		asset:                        "BG",
	})
	dir := t.TempDir()
	if err := newTestScraper(w).Scrape(context.Background(), embed, dir, NewSession()); err != nil {
		t.Fatalf("Scrape returned error: %v", err)
	}
	if got := testutil.ReadFile(t, filepath.Join(dir, "media", "bg.abc123.png")); got != "BG" {
		t.Fatalf("mirrored asset content = %q", got)
	}
}

func TestScrapeSavesInlineSVGs(t *testing.T) {
	embed := "https://embed.rgpub.io/svg/en-us/"
	js := `x='<svg viewBox="0 0 2 2"><circle r="1"/></svg>';y='<svg>"+r+"</svg>';`
	w := newFakeWeb(map[string]string{
		embed:                       distBase + "/app.aaaaaa.js",
		distBase + "/app.aaaaaa.js": js,
	})
	dir := t.TempDir()
	if err := newTestScraper(w).Scrape(context.Background(), embed, dir, NewSession()); err != nil {
		t.Fatalf("Scrape returned error: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "svg"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one saved svg, got %v (err %v)", entries, err)
	}
	if name := entries[0].Name(); len(name) != 36 || !strings.HasSuffix(name, ".svg") {
		t.Fatalf("svg should be named by md5, got %q", name)
	}
	if !strings.Contains(testutil.ReadFile(t, filepath.Join(dir, "files.txt")), "svg/"+entries[0].Name()) {
		t.Fatalf("files.txt should list the svg")
	}
}

func TestScrapeUnknownDistFile(t *testing.T) {
	embed := "https://embed.rgpub.io/bad/en-us/"
	w := newFakeWeb(map[string]string{
		embed: `<script src="` + distBase + `/vendor.abc123.js"></script>`,
	})
	dir := t.TempDir()
	err := newTestScraper(w).Scrape(context.Background(), embed, dir, NewSession())
	if !errors.Is(err, ErrUnknownDistFile) {
		t.Fatalf("expected ErrUnknownDistFile, got %v", err)
	}
	if w.total() != 1 {
		t.Fatalf("nothing but the page should be requested, got %v", w.hits)
	}
}

func TestScrapeSkipsUnknownSiblingDistFile(t *testing.T) {
	embed := "https://embed.rgpub.io/mixed/en-us/"
	w := newFakeWeb(map[string]string{
		embed:                       `<script src="` + distBase + `/app.111111.js"></script><script src="` + distBase + `/vendor.abc123.js"></script>`,
		distBase + "/app.111111.js": `a="/i/y.png"`,
		distBase + "/i/y.png":       "Y",
	})
	dir := t.TempDir()
	if err := newTestScraper(w).Scrape(context.Background(), embed, dir, NewSession()); err != nil {
		t.Fatalf("Scrape returned error: %v", err)
	}
	if w.count(distBase+"/vendor.abc123.js") != 0 {
		t.Fatalf("unknown dist file must not be fetched, got %v", w.hits)
	}
	if got := testutil.ReadFile(t, filepath.Join(dir, "i", "y.png")); got != "Y" {
		t.Fatalf("y.png = %q", got)
	}
}

func TestScrapeRerunIsIdempotent(t *testing.T) {
	embed := "https://embed.rgpub.io/again/en-us/"
	w := newFakeWeb(map[string]string{
		embed:                       distBase + "/app.bbbbbb.js",
		distBase + "/app.bbbbbb.js": `a="/i/x.png"`,
		distBase + "/i/x.png":       "X",
	})
	dir := t.TempDir()
	s := newTestScraper(w)
	for i := 0; i < 2; i++ {
		if err := s.Scrape(context.Background(), embed, dir, NewSession()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if w.count(distBase+"/i/x.png") != 1 || w.count(distBase+"/app.bbbbbb.js") != 1 {
		t.Fatalf("second run must not re-download, got %v", w.hits)
	}
	if got := testutil.ReadFile(t, filepath.Join(dir, "files.txt")); got != "app.bbbbbb.js\ni/x.png\n" {
		t.Fatalf("files.txt = %q", got)
	}
}
