// Package rcloneconf downloads the rclone configuration a transfer runs with.
package rcloneconf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxConfigBytes bounds the downloaded configuration size.
const maxConfigBytes = 4 << 20

var (
	ErrUnsupportedScheme = errors.New("unsupported config url scheme")
	ErrS3Disabled        = errors.New("s3 config source is not configured")
	ErrInvalidS3URL      = errors.New("invalid s3 url")
	ErrConfigTooLarge    = errors.New("rclone configuration too large")
)

// StatusError reports a non-2xx answer from the configuration server.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("config download from %s returned status %d", e.URL, e.StatusCode)
}

// ObjectGetter reads an object from an S3 bucket.
type ObjectGetter interface {
	GetObject(ctx context.Context, bucket string, key string) ([]byte, error)
}

// Fetcher resolves http(s):// and s3:// configuration URLs.
type Fetcher struct {
	httpClient *http.Client
	objects    ObjectGetter
}

// NewFetcher returns a Fetcher. objects may be nil, in which case s3:// URLs
// fail with ErrS3Disabled.
func NewFetcher(httpClient *http.Client, objects ObjectGetter) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{httpClient: httpClient, objects: objects}
}

// Fetch returns the configuration text found at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse config url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return f.fetchHTTP(ctx, u.String())
	case "s3":
		bucket, key, err := ParseS3URL(rawURL)
		if err != nil {
			return nil, err
		}
		if f.objects == nil {
			return nil, ErrS3Disabled
		}
		data, err := f.objects.GetObject(ctx, bucket, key)
		if err != nil {
			return nil, fmt.Errorf("fetch config from s3: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build config request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxConfigBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read config body: %w", err)
	}
	if len(data) > maxConfigBytes {
		return nil, ErrConfigTooLarge
	}
	return data, nil
}

// ParseS3URL splits s3://bucket/key/path into its bucket and key.
func ParseS3URL(rawURL string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidS3URL, err)
	}
	if !strings.EqualFold(u.Scheme, "s3") {
		return "", "", fmt.Errorf("%w: scheme %q", ErrInvalidS3URL, u.Scheme)
	}

	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q needs a bucket and a key", ErrInvalidS3URL, rawURL)
	}
	return bucket, key, nil
}
