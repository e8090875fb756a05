package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grafov/m3u8"
	"github.com/jmagar/rift-cli/internal/api"
	"github.com/jmagar/rift-cli/internal/helpers"
	"github.com/jmagar/rift-cli/internal/logger"
)

var (
	// ErrEncryptedStream is returned for HLS media playlists with a non-NONE key.
	ErrEncryptedStream = errors.New("encrypted HLS stream not supported")
	// ErrEmptyPlaylist is returned when a master playlist has no variants.
	ErrEmptyPlaylist = errors.New("playlist has no variants")
)

// IsHLS reports whether rawURL points at an HLS playlist.
func IsHLS(rawURL string) bool {
	return strings.EqualFold(filepath.Ext(api.FileName(rawURL)), ".m3u8")
}

// FetchHLS mirrors an HLS stream into dir/<playlist stem>/. For a master
// playlist the highest-bandwidth variant is chosen. Segments already on disk
// are skipped and a local playlist pointing at them is written alongside.
func (f *Fetcher) FetchHLS(ctx context.Context, playlistURL, dir string) (Result, error) {
	stem := helpers.Sanitise(api.Stem(playlistURL))
	if stem == "" {
		return Result{}, fmt.Errorf("%w: %s", ErrNoFileName, playlistURL)
	}
	outDir := filepath.Join(dir, stem)
	local := filepath.Join(outDir, stem+".m3u8")
	if ok, _ := helpers.FileExists(local); ok {
		f.log.Debug(ctx, "stream already mirrored", logger.String("path", local))
		return Result{Path: local, Skipped: true}, nil
	}

	media, mediaURL, err := f.mediaPlaylist(ctx, playlistURL)
	if err != nil {
		if api.IsNotFound(err) {
			f.log.Warn(ctx, "playlist not found", logger.String("url", playlistURL))
		}
		return Result{}, err
	}
	if encrypted(media.Key) {
		return Result{}, fmt.Errorf("%s: %w", playlistURL, ErrEncryptedStream)
	}

	var total int64
	if media.Map != nil && media.Map.URI != "" {
		name, n, err := f.fetchSegment(ctx, mediaURL, media.Map.URI, outDir)
		if err != nil {
			return Result{}, err
		}
		media.Map.URI = name
		total += n
	}
	count := 0
	for _, seg := range media.Segments {
		if seg == nil {
			break
		}
		if encrypted(seg.Key) {
			return Result{}, fmt.Errorf("%s: %w", playlistURL, ErrEncryptedStream)
		}
		name, n, err := f.fetchSegment(ctx, mediaURL, seg.URI, outDir)
		if err != nil {
			return Result{}, err
		}
		seg.URI = name
		total += n
		count++
	}

	media.ResetCache()
	if _, err := f.WriteFile(ctx, local, media.Encode().Bytes()); err != nil {
		return Result{}, err
	}
	f.log.Info(ctx, "stream mirrored",
		logger.String("playlist", stem),
		logger.Int("segments", count))
	return Result{Path: local, Bytes: total}, nil
}

// mediaPlaylist loads playlistURL and, when it is a master playlist, follows
// the variant with the highest bandwidth. The returned URL is the one the
// media playlist was served from.
func (f *Fetcher) mediaPlaylist(ctx context.Context, playlistURL string) (*m3u8.MediaPlaylist, string, error) {
	pl, err := f.decode(ctx, playlistURL)
	if err != nil {
		return nil, "", err
	}
	switch p := pl.(type) {
	case *m3u8.MediaPlaylist:
		return p, playlistURL, nil
	case *m3u8.MasterPlaylist:
		variants := make([]*m3u8.Variant, 0, len(p.Variants))
		for _, v := range p.Variants {
			if v != nil && v.URI != "" {
				variants = append(variants, v)
			}
		}
		if len(variants) == 0 {
			return nil, "", fmt.Errorf("%s: %w", playlistURL, ErrEmptyPlaylist)
		}
		sort.SliceStable(variants, func(i, j int) bool {
			return variants[i].Bandwidth > variants[j].Bandwidth
		})
		variantURL, err := resolveRef(playlistURL, variants[0].URI)
		if err != nil {
			return nil, "", err
		}
		f.log.Debug(ctx, "selected variant",
			logger.String("url", variantURL),
			logger.Any("bandwidth", variants[0].Bandwidth))
		pl, err := f.decode(ctx, variantURL)
		if err != nil {
			return nil, "", err
		}
		media, ok := pl.(*m3u8.MediaPlaylist)
		if !ok {
			return nil, "", fmt.Errorf("%s: variant is not a media playlist", variantURL)
		}
		return media, variantURL, nil
	default:
		return nil, "", fmt.Errorf("%s: unsupported playlist type", playlistURL)
	}
}

func (f *Fetcher) decode(ctx context.Context, rawURL string) (m3u8.Playlist, error) {
	body, err := f.client.GetBytes(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	pl, _, err := m3u8.DecodeFrom(bytes.NewReader(body), true)
	if err != nil {
		return nil, fmt.Errorf("parse playlist %s: %w", rawURL, err)
	}
	return pl, nil
}

func (f *Fetcher) fetchSegment(ctx context.Context, mediaURL, ref, outDir string) (string, int64, error) {
	segURL, err := resolveRef(mediaURL, ref)
	if err != nil {
		return "", 0, err
	}
	name := helpers.Sanitise(api.FileName(segURL))
	if name == "" {
		return "", 0, fmt.Errorf("%w: %s", ErrNoFileName, segURL)
	}
	res, err := f.FetchTo(ctx, segURL, filepath.Join(outDir, name))
	if err != nil {
		return "", 0, err
	}
	return name, res.Bytes, nil
}

func encrypted(k *m3u8.Key) bool {
	return k != nil && k.Method != "" && k.Method != "NONE"
}

func resolveRef(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", base, err)
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}
