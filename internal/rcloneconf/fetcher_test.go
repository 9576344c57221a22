package rcloneconf

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	data   []byte
	err    error
	bucket string
	key    string
}

func (f *fakeObjects) GetObject(_ context.Context, bucket string, key string) ([]byte, error) {
	f.bucket, f.key = bucket, key
	return f.data, f.err
}

func TestFetch_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte("[gdrive]\ntype = drive\n"))
	}))
	defer srv.Close()

	data, err := NewFetcher(srv.Client(), nil).Fetch(context.Background(), srv.URL+"/rclone.conf")
	require.NoError(t, err)
	assert.Equal(t, "[gdrive]\ntype = drive\n", string(data))
}

func TestFetch_HTTPNonSuccess(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusMovedPermanently} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if code == http.StatusMovedPermanently {
				// no Location header, so the client hands the 301 back unchanged
				w.WriteHeader(code)
				return
			}
			http.Error(w, "nope", code)
		}))

		_, err := NewFetcher(srv.Client(), nil).Fetch(context.Background(), srv.URL)
		srv.Close()

		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr), "status %d: %v", code, err)
		assert.Equal(t, code, statusErr.StatusCode)
	}
}

func TestFetch_HTTPTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := NewFetcher(nil, nil).Fetch(context.Background(), addr)
	assert.Error(t, err)
}

func TestFetch_HTTPTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", maxConfigBytes+1)))
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.Client(), nil).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrConfigTooLarge)
}

func TestFetch_S3(t *testing.T) {
	objects := &fakeObjects{data: []byte("[s3]\n")}

	data, err := NewFetcher(nil, objects).Fetch(context.Background(), "s3://configs/teams/a/rclone.conf")
	require.NoError(t, err)
	assert.Equal(t, "[s3]\n", string(data))
	assert.Equal(t, "configs", objects.bucket)
	assert.Equal(t, "teams/a/rclone.conf", objects.key)
}

func TestFetch_S3Error(t *testing.T) {
	objects := &fakeObjects{err: errors.New("no such key")}

	_, err := NewFetcher(nil, objects).Fetch(context.Background(), "s3://configs/rclone.conf")
	assert.ErrorContains(t, err, "no such key")
}

func TestFetch_S3Disabled(t *testing.T) {
	_, err := NewFetcher(nil, nil).Fetch(context.Background(), "s3://configs/rclone.conf")
	assert.ErrorIs(t, err, ErrS3Disabled)
}

func TestFetch_UnsupportedScheme(t *testing.T) {
	_, err := NewFetcher(nil, nil).Fetch(context.Background(), "ftp://example.com/rclone.conf")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := ParseS3URL("s3://my-bucket/path/to/rclone.conf")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "path/to/rclone.conf", key)

	for _, bad := range []string{"s3://bucket-only", "s3:///key-only", "https://bucket/key", "s3://bucket/"} {
		_, _, err := ParseS3URL(bad)
		assert.ErrorIs(t, err, ErrInvalidS3URL, bad)
	}
}
