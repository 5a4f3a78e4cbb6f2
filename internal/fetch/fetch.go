// Package fetch downloads dataset files into a flat local cache directory.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/mnist/internal/envconfig"
)

// DefaultBaseURL is the canonical MNIST distribution host.
const DefaultBaseURL = envconfig.DefaultBaseURL

// Fetch failure kinds.
var (
	ErrDownloadFailed   = errors.New("download failed")
	ErrCacheWriteFailed = errors.New("cache write failed")
)

// Config configures a Fetcher.
type Config struct {
	BaseURL  string       // Directory URL file names are resolved against; a trailing "/" is added if missing
	CacheDir string       // Cache directory; empty means os.TempDir()
	Client   *http.Client // HTTP client; nil means http.DefaultClient
}

// Fetcher resolves dataset file names to local paths, downloading files
// that are not cached yet.
type Fetcher struct {
	baseURL  string
	cacheDir string
	client   *http.Client
}

// New creates a Fetcher, filling unset fields with defaults.
func New(cfg Config) *Fetcher {
	f := &Fetcher{
		baseURL:  cfg.BaseURL,
		cacheDir: cfg.CacheDir,
		client:   cfg.Client,
	}
	if f.baseURL == "" {
		f.baseURL = DefaultBaseURL
	}
	f.baseURL = dirURL(f.baseURL)
	if f.cacheDir == "" {
		f.cacheDir = os.TempDir()
	}
	if f.client == nil {
		f.client = http.DefaultClient
	}
	return f
}

// FromEnv creates a Fetcher configured from the environment.
func FromEnv() *Fetcher {
	return New(Config{
		BaseURL:  envconfig.BaseURL(),
		CacheDir: envconfig.CacheDir(),
	})
}

// dirURL makes the path of u end in "/" so that resolving a file name
// appends to it instead of replacing its last element. Unparsable values
// are returned unchanged and fail later in URL.
func dirURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || strings.HasSuffix(parsed.Path, "/") {
		return u
	}
	parsed.Path += "/"
	return parsed.String()
}

// BaseURL returns the URL file names are resolved against.
func (f *Fetcher) BaseURL() string {
	return f.baseURL
}

// CacheDir returns the cache directory.
func (f *Fetcher) CacheDir() string {
	return f.cacheDir
}

// Path returns the cache location for name, whether or not it exists.
func (f *Fetcher) Path(name string) string {
	return filepath.Join(f.cacheDir, name)
}

// URL resolves name against the base URL.
func (f *Fetcher) URL(name string) (string, error) {
	base, err := url.Parse(f.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", f.baseURL, err)
	}
	ref, err := url.Parse(name)
	if err != nil {
		return "", fmt.Errorf("parse file name %q: %w", name, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// Fetch returns the local path of name. Unless force is set, a file already
// present in the cache directory is returned without network access.
// Otherwise the file is downloaded once, replacing any cached copy.
func (f *Fetcher) Fetch(ctx context.Context, name string, force bool) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	path := f.Path(name)
	if !force {
		if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
			slog.Debug("cache hit", "file", name, "path", path)
			return path, nil
		}
	}

	u, err := f.URL(name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	slog.Info("downloading", "url", u, "path", path)

	if err := f.download(ctx, u, path); err != nil {
		return "", err
	}
	return path, nil
}

// FetchAll fetches several files concurrently and returns their paths in
// the order of names. The first failure cancels the remaining downloads.
func (f *Fetcher) FetchAll(ctx context.Context, names []string, force bool) ([]string, error) {
	paths := make([]string, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			path, err := f.Fetch(ctx, name, force)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func (f *Fetcher) download(ctx context.Context, u, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: GET %s: %s", ErrDownloadFailed, u, resp.Status)
	}

	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrCacheWriteFailed, err)
	}

	tmp, err := os.CreateTemp(f.cacheDir, filepath.Base(path)+".*.partial")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCacheWriteFailed, err)
	}
	defer func() {
		_ = os.Remove(tmp.Name()) // No-op after a successful rename.
	}()

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		_ = tmp.Close()
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return fmt.Errorf("%w: %w", ErrCacheWriteFailed, err)
		}
		return fmt.Errorf("%w: read body: %w", ErrDownloadFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrCacheWriteFailed, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %w", ErrCacheWriteFailed, err)
	}

	slog.Debug("downloaded", "url", u, "bytes", n)
	return nil
}
