package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// MaxFetchSize caps the size of a remote source held in memory.
const MaxFetchSize = 1 << 30

// ErrTooLarge is returned when a remote source exceeds MaxFetchSize.
var ErrTooLarge = errors.New("source too large")

// Loader opens track URLs: local paths, file:// URLs and http(s):// URLs.
// Remote sources are downloaded into memory so they stay seekable.
type Loader struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *log.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHTTPClient replaces the client used for remote sources.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *Loader) { l.client = c }
}

// WithFetchRate limits how many remote fetches may start per second.
func WithFetchRate(perSecond float64) LoaderOption {
	return func(l *Loader) { l.limiter = rate.NewLimiter(rate.Limit(perSecond), 1) }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader returns a Loader. By default remote fetches use a client with a
// one minute timeout and are limited to two per second.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		client:  &http.Client{Timeout: time.Minute},
		limiter: rate.NewLimiter(2, 1),
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open resolves and decodes the audio at rawURL. Cancelling ctx aborts the
// fetch; the returned error then wraps ctx.Err().
func (l *Loader) Open(ctx context.Context, rawURL string) (*Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		r   io.ReadSeekCloser
		err error
	)
	switch {
	case strings.HasPrefix(rawURL, "http://"), strings.HasPrefix(rawURL, "https://"):
		r, err = l.fetch(ctx, rawURL)
	default:
		r, err = openFile(rawURL)
	}
	if err != nil {
		return nil, err
	}

	src, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rawURL, err)
	}
	l.logger.Debug("source opened", "url", rawURL, "codec", src.Codec,
		"rate", src.Format.SampleRate, "samples", src.Streamer.Len())
	return src, nil
}

func openFile(rawURL string) (io.ReadSeekCloser, error) {
	path := rawURL
	if strings.HasPrefix(rawURL, "file://") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", rawURL, err)
		}
		path = u.Path
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (l *Loader) fetch(ctx context.Context, rawURL string) (io.ReadSeekCloser, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", rawURL, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxFetchSize+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	if len(data) > MaxFetchSize {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, ErrTooLarge)
	}
	l.logger.Debug("source fetched", "url", rawURL, "bytes", len(data))
	return memFile{bytes.NewReader(data)}, nil
}

// memFile is an in-memory io.ReadSeekCloser.
type memFile struct{ *bytes.Reader }

func (memFile) Close() error { return nil }
