package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mahirjain10/copyurl-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitStatusMessage(t *testing.T) {
	msg := InitStatusMessage(InitStatusData("job-1", types.PROCESSING, "10%", 0, ""))

	body, err := SerializeJSON(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pattern":"status","data":{"jobId":"job-1","status":"PROCESSING","line":"10%","exitCode":0}}`, string(body))
}

func TestDecodeJSONBody(t *testing.T) {
	var req types.CopyURLRequest
	err := DecodeJSONBody(strings.NewReader(`{"source_url":"https://a/b","destination":"remote:x"}`), &req)
	require.NoError(t, err)
	assert.Equal(t, "https://a/b", req.SourceURL)
	assert.Equal(t, "remote:x", req.Destination)

	err = DecodeJSONBody(strings.NewReader(`{not json`), &req)
	assert.ErrorContains(t, err, "failed to parse JSON")
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusBadRequest, types.ErrorResponse{Error: "bad"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got types.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "bad", got.Error)
}

func TestJobConfigPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "configs")

	p, err := JobConfigPath(dir, "abc")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "rclone-abc.conf"), p)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRemoveJobConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "rclone-abc.conf")
	require.NoError(t, os.WriteFile(p, []byte("[remote]\n"), 0o600))

	require.NoError(t, RemoveJobConfig(p))
	_, err := os.Stat(p)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, RemoveJobConfig(p), "second removal is a no-op")
	assert.NoError(t, RemoveJobConfig(""))
}
