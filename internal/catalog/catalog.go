// Package catalog turns file paths and URLs into playable tracks.
//
// Local files are tagged with their metadata and stream properties; remote
// URLs get a title from the URL path and leave the rest to the decoder.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/llehouerou/wavelane/internal/playback"
	"github.com/llehouerou/wavelane/internal/source"
)

// hiResRate is the highest sample rate still considered CD-class.
const hiResRate = 48000

// Catalog resolves track references.
type Catalog struct {
	logger  *log.Logger
	workers int
	artDir  string
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the catalog logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Catalog) { c.logger = l }
}

// WithWorkers bounds how many files ResolveAll reads at once.
func WithWorkers(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithArtDir sets where embedded cover art is extracted to. Empty disables
// extraction; folder images are still found.
func WithArtDir(dir string) Option {
	return func(c *Catalog) { c.artDir = dir }
}

func New(opts ...Option) *Catalog {
	c := &Catalog{
		logger:  log.Default(),
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TrackID returns the stable identifier for a track location.
func TrackID(location string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(location)).String()
}

// Resolve builds a track for ref, which may be a path, file:// URL or
// http(s):// URL.
func (c *Catalog) Resolve(ctx context.Context, ref string) (playback.Track, error) {
	if err := ctx.Err(); err != nil {
		return playback.Track{}, err
	}
	u, err := url.Parse(ref)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return remoteTrack(u), nil
	}

	p := ref
	if err == nil && u.Scheme == "file" {
		p = u.Path
	}
	p, err = filepath.Abs(p)
	if err != nil {
		return playback.Track{}, fmt.Errorf("resolve %s: %w", ref, err)
	}
	return c.localTrack(p)
}

// ResolveAll resolves refs concurrently and returns the tracks in input
// order. Refs that fail are left out and their errors joined.
func (c *Catalog) ResolveAll(ctx context.Context, refs []string) ([]playback.Track, error) {
	type result struct {
		track playback.Track
		err   error
	}
	results := make([]result, len(refs))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(c.workers, len(refs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				t, err := c.Resolve(ctx, refs[i])
				results[i] = result{track: t, err: err}
			}
		}()
	}

feed:
	for i := range refs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tracks := make([]playback.Track, 0, len(refs))
	var errs []error
	for i, r := range results {
		if r.err != nil {
			c.logger.Warn("skipping track", "ref", refs[i], "err", r.err)
			errs = append(errs, r.err)
			continue
		}
		tracks = append(tracks, r.track)
	}
	return tracks, errors.Join(errs...)
}

func (c *Catalog) localTrack(p string) (playback.Track, error) {
	info, err := readAudioInfo(p)
	if err != nil {
		return playback.Track{}, fmt.Errorf("read %s: %w", p, err)
	}

	t := playback.Track{
		ID:         TrackID("file://" + p),
		Title:      strings.TrimSuffix(filepath.Base(p), filepath.Ext(p)),
		AudioURL:   p,
		Duration:   info.Duration,
		Format:     info.Codec,
		HiRes:      info.SampleRate > hiResRate || info.BitDepth > 16,
		Downloaded: true,
	}

	if tg, err := readTags(p); err != nil {
		c.logger.Debug("no tags", "path", p, "err", err)
	} else {
		if tg.Title != "" {
			t.Title = tg.Title
		}
		t.Artist = tg.Artist
		t.Album = tg.Album
	}

	t.ArtworkURL = c.artworkURL(p)
	return t, nil
}

func remoteTrack(u *url.URL) playback.Track {
	base := path.Base(u.Path)
	ext := path.Ext(base)
	title := strings.TrimSuffix(base, ext)
	if title == "" || title == "." || title == "/" {
		title = u.Host
	}
	return playback.Track{
		ID:       TrackID(u.String()),
		Title:    title,
		AudioURL: u.String(),
		Format:   codecForExt(ext),
	}
}

func codecForExt(ext string) source.Codec {
	switch strings.ToLower(ext) {
	case extMP3:
		return source.CodecMP3
	case extFLAC:
		return source.CodecFLAC
	case extWAV:
		return source.CodecWAV
	case extM4A, extMP4:
		return source.CodecAAC
	}
	return ""
}
