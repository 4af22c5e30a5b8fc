package manifest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const (
	defaultFetchTimeout  = 15 * time.Second
	defaultFetchMaxBytes = 8 << 20
)

var (
	ErrUpstreamStatus    = errors.New("upstream returned non-success status")
	ErrTooLarge          = errors.New("upstream body exceeds size limit")
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
	ErrLocalFile         = errors.New("local file access not allowed")
)

// Fetcher reads playlists and subtitle files over HTTP(S), and from file://
// URLs below the configured root when one is set. Concurrent fetches of the
// same URL share one request, so callers must treat the returned bytes as
// read-only.
type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
	fileRoot string
	group    singleflight.Group
}

type FetcherOption func(*Fetcher)

func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

func WithMaxBytes(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithFileRoot allows file:// URLs that point inside dir. Without it every
// file:// URL is rejected with ErrLocalFile.
func WithFileRoot(dir string) FetcherOption {
	return func(f *Fetcher) {
		f.fileRoot = CleanFileRoot(dir)
	}
}

func NewFetcher(timeout time.Duration, opts ...FetcherOption) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	f := &Fetcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		timeout:  timeout,
		maxBytes: defaultFetchMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := checkURL(rawURL, f.fileRoot)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "file" {
		return f.readFile(u)
	}

	// The shared request must outlive any single caller, so it runs on a
	// detached context bounded by the fetch timeout.
	key := u.String()
	ch := f.group.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
		defer cancel()
		return f.get(fetchCtx, key)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// ValidateURL reports whether rawURL can be fetched: http(s) with a host, or
// file:// inside fileRoot. An empty fileRoot rejects every file:// URL.
func ValidateURL(rawURL, fileRoot string) error {
	_, err := checkURL(rawURL, CleanFileRoot(fileRoot))
	return err
}

// CleanFileRoot returns dir as a clean absolute path, or "" when dir is
// empty or cannot be made absolute.
func CleanFileRoot(dir string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return ""
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	return filepath.Clean(abs)
}

func checkURL(rawURL, fileRoot string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	u.Scheme = strings.ToLower(u.Scheme)

	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return nil, fmt.Errorf("%w: missing host", ErrUnsupportedScheme)
		}
		return u, nil
	case "file":
		if fileRoot == "" {
			return nil, ErrLocalFile
		}
		if !withinRoot(fileRoot, filePath(u)) {
			return nil, fmt.Errorf("%w: %s is outside %s", ErrLocalFile, filePath(u), fileRoot)
		}
		return u, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

func filePath(u *url.URL) string {
	if u.Path != "" {
		return u.Path
	}
	return u.Opaque
}

func withinRoot(root, path string) bool {
	if path == "" || !filepath.IsAbs(path) {
		return false
	}
	rel, err := filepath.Rel(root, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}
	return f.readCapped(resp.Body)
}

// readFile re-checks the root after resolving symlinks so a link inside the
// root cannot point outside it.
func (f *Fetcher) readFile(u *url.URL) ([]byte, error) {
	path, err := filepath.EvalSymlinks(filePath(u))
	if err != nil {
		return nil, err
	}
	root, err := filepath.EvalSymlinks(f.fileRoot)
	if err != nil {
		return nil, err
	}
	if !withinRoot(root, path) {
		return nil, fmt.Errorf("%w: %s is outside %s", ErrLocalFile, path, root)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return f.readCapped(file)
}

func (f *Fetcher) readCapped(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > f.maxBytes {
		return nil, ErrTooLarge
	}
	return body, nil
}
