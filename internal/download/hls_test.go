package download

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmagar/rift-cli/internal/testutil"
)

const masterPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360
low/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2400000,RESOLUTION=1280x720
high/index.m3u8
`

const mediaPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:4
#EXT-X-MEDIA-SEQUENCE:0
#EXTINF:4.000,
seg0.ts
#EXTINF:4.000,
seg1.ts
#EXT-X-ENDLIST
`

func TestIsHLS(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://cdn.example/video/intro.m3u8", true},
		{"https://cdn.example/video/INTRO.M3U8?token=1", true},
		{"https://cdn.example/video/intro.mp4", false},
		{"https://cdn.example/m3u8/", false},
	}
	for _, tt := range tests {
		if got := IsHLS(tt.url); got != tt.want {
			t.Errorf("IsHLS(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestFetchHLSPicksHighestBandwidth(t *testing.T) {
	cdn := &fakeCDN{bodies: map[string]string{
		"/v/intro.m3u8":      masterPlaylist,
		"/v/high/index.m3u8": mediaPlaylist,
		"/v/high/seg0.ts":    "AAAA",
		"/v/high/seg1.ts":    "BBBBBB",
		"/v/low/index.m3u8":  mediaPlaylist,
	}}
	dir := t.TempDir()
	f := NewFetcher(cdn.client(), nil, nil)

	res, err := f.FetchHLS(context.Background(), "https://cdn.example/v/intro.m3u8", dir)
	if err != nil {
		t.Fatalf("FetchHLS returned error: %v", err)
	}
	if cdn.count("/v/low/index.m3u8") != 0 {
		t.Fatalf("low-bandwidth variant should not be requested")
	}
	if res.Bytes != 10 {
		t.Fatalf("Bytes = %d, want 10", res.Bytes)
	}
	outDir := filepath.Join(dir, "intro")
	if got := testutil.ReadFile(t, filepath.Join(outDir, "seg1.ts")); got != "BBBBBB" {
		t.Fatalf("seg1.ts = %q", got)
	}
	local := testutil.ReadFile(t, filepath.Join(outDir, "intro.m3u8"))
	if !strings.Contains(local, "seg0.ts") || strings.Contains(local, "high/") {
		t.Fatalf("local playlist should reference local segments:\n%s", local)
	}

	again, err := f.FetchHLS(context.Background(), "https://cdn.example/v/intro.m3u8", dir)
	if err != nil || !again.Skipped {
		t.Fatalf("second run should skip: res=%+v err=%v", again, err)
	}
	if cdn.count("/v/high/seg0.ts") != 1 {
		t.Fatalf("segments must be downloaded once")
	}
}

func TestFetchHLSMediaPlaylistDirect(t *testing.T) {
	cdn := &fakeCDN{bodies: map[string]string{
		"/clip.m3u8": mediaPlaylist,
		"/seg0.ts":   "x",
		"/seg1.ts":   "y",
	}}
	dir := t.TempDir()
	f := NewFetcher(cdn.client(), nil, nil)

	if _, err := f.FetchHLS(context.Background(), "https://cdn.example/clip.m3u8", dir); err != nil {
		t.Fatalf("FetchHLS returned error: %v", err)
	}
	if got := testutil.ReadFile(t, filepath.Join(dir, "clip", "seg0.ts")); got != "x" {
		t.Fatalf("seg0.ts = %q", got)
	}
}

func TestFetchHLSRejectsEncryptedStream(t *testing.T) {
	encrypted := strings.Replace(mediaPlaylist, "#EXT-X-MEDIA-SEQUENCE:0\n",
		"#EXT-X-MEDIA-SEQUENCE:0\n#EXT-X-KEY:METHOD=AES-128,URI=\"key.bin\"\n", 1)
	cdn := &fakeCDN{bodies: map[string]string{"/locked.m3u8": encrypted}}
	f := NewFetcher(cdn.client(), nil, nil)

	_, err := f.FetchHLS(context.Background(), "https://cdn.example/locked.m3u8", t.TempDir())
	if !errors.Is(err, ErrEncryptedStream) {
		t.Fatalf("expected ErrEncryptedStream, got %v", err)
	}
}
