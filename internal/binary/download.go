package binary

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudmanic/skyclerk-install/internal/logging"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 5 * time.Minute
	// DefaultRetries is the default number of download retries
	DefaultRetries = 3
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "skyclerk-install/dev"
	// LatestVersion disables download cache reuse.
	LatestVersion = "latest"
)

// DownloaderConfig configures a Downloader.
type DownloaderConfig struct {
	// CacheDir holds downloaded artifacts, one subdirectory per version.
	CacheDir string
	// Version of the formula. Cached files are reused unless it is "latest".
	Version   string
	Retries   int
	Timeout   time.Duration
	UserAgent string
	// Progress receives a progress bar when non-nil.
	Progress io.Writer
	Logger   logging.Logger
}

// Downloader is the default Host: HTTP downloads with retry logic and caching.
type Downloader struct {
	client      *http.Client
	cacheDir    string
	version     string
	userAgent   string
	retries     int
	backoffBase time.Duration
	progress    io.Writer
	logger      logging.Logger
}

var _ Host = (*Downloader)(nil)

// NewDownloader creates a new downloader
func NewDownloader(cfg DownloaderConfig) *Downloader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Version == "" {
		cfg.Version = LatestVersion
	}

	return &Downloader{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// GitHub release downloads redirect once or twice
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		cacheDir:    cfg.CacheDir,
		version:     cfg.Version,
		userAgent:   cfg.UserAgent,
		retries:     cfg.Retries,
		backoffBase: time.Second,
		progress:    cfg.Progress,
		logger:      logging.OrNop(cfg.Logger),
	}
}

// Fetch downloads url into the cache and returns the cached path.
func (d *Downloader) Fetch(ctx context.Context, rawURL string) (string, error) {
	cachePath, err := d.cachePath(rawURL)
	if err != nil {
		return "", err
	}

	if d.version != LatestVersion && fileExists(cachePath) {
		d.logger.Debug("using cached artifact", "url", rawURL, "path", cachePath)
		return cachePath, nil
	}

	if err := d.DownloadToFile(ctx, rawURL, cachePath); err != nil {
		return "", err
	}

	return cachePath, nil
}

// cachePath returns cache/{version}/{urlhash}/{filename}. The hash keeps
// same-named assets from different hosts apart.
func (d *Downloader) cachePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	filename := path.Base(u.Path)
	if filename == "" || filename == "." || filename == "/" {
		return "", fmt.Errorf("url %q has no file name", rawURL)
	}

	sum := sha256.Sum256([]byte(rawURL))
	return filepath.Join(d.cacheDir, sanitizeSegment(d.version), hex.EncodeToString(sum[:6]), filename), nil
}

// statusError is returned for non-200 responses.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.code)
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests || se.code == http.StatusRequestTimeout
	}
	return true
}

// DownloadToFile downloads a URL to a specific file path
func (d *Downloader) DownloadToFile(ctx context.Context, rawURL, destPath string) error {
	var lastErr error

	for attempt := 0; attempt <= d.retries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := d.backoffBase * time.Duration(1<<uint(attempt-1))
			d.logger.Debug("retrying download", "url", rawURL, "attempt", attempt, "backoff", backoff.String())
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := d.downloadOnce(ctx, rawURL, destPath)
		if err == nil {
			return nil
		}

		lastErr = err
		d.logger.Warn("download attempt failed", "url", rawURL, "attempt", attempt+1, "err", err)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !retryable(err) {
			return fmt.Errorf("download %s: %w", rawURL, err)
		}
	}

	return fmt.Errorf("download failed after %d retries: %w", d.retries, lastErr)
}

// downloadOnce performs a single download attempt
func (d *Downloader) downloadOnce(ctx context.Context, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)
	if tok := TokenFromEnv(); tok != "" && isGitHubHost(req.URL.Host) {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode}
	}

	destDir := filepath.Dir(destPath)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	var dst io.Writer = tmpFile
	bar := newProgressBar(d.progress, resp.ContentLength, filepath.Base(destPath))
	if bar != nil {
		dst = io.MultiWriter(tmpFile, bar)
	}

	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return fmt.Errorf("copy response body: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		return fmt.Errorf("short body: got %d of %d bytes", n, resp.ContentLength)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	d.logger.Debug("downloaded artifact", "url", rawURL, "bytes", n, "path", destPath)
	return nil
}

// TokenFromEnv returns a GitHub token for authenticated release downloads.
func TokenFromEnv() string {
	if tok := strings.TrimSpace(os.Getenv("SKYCLERK_INSTALL_GITHUB_TOKEN")); tok != "" {
		return tok
	}
	return strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
}

func isGitHubHost(host string) bool {
	host = strings.ToLower(host)
	return host == "github.com" || host == "api.github.com"
}

// sanitizeSegment makes a version string safe to use as a directory name.
func sanitizeSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}

// fileExists checks if a file exists and is not empty
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
