package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iris-site/pkg/services"
)

func withMedia(t *testing.T) func(*Server) {
	dir := t.TempDir()
	return func(s *Server) {
		s.Media = services.NewLocalMediaStore(dir, "/media")
		s.MediaDir = dir
		s.MediaRoute = "/media"
		s.MaxUpload = 1 << 10
	}
}

func multipartBody(t *testing.T, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadListDeleteMedia(t *testing.T) {
	h := newHarness(t, fstest.MapFS{}, withMedia(t))
	h.login(linus)

	body, ct := multipartBody(t, "chassis v2.stl", []byte("solid chassis"))
	w := h.do(http.MethodPost, "/api/media", body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var file services.MediaFile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &file))
	assert.Contains(t, file.ID, "chassis_v2_")
	assert.Equal(t, "/media/"+file.ID, file.URL)

	served := h.get(file.URL)
	assert.Equal(t, http.StatusOK, served.Code)
	assert.Equal(t, "solid chassis", served.Body.String())

	w = h.get("/api/media")
	require.Equal(t, http.StatusOK, w.Code)
	var listed []services.MediaFile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, file.ID, listed[0].ID)

	w = h.sendJSON(http.MethodDelete, "/api/media", `{"id":"`+file.ID+`"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	_, err := os.Stat(filepath.Join(h.server.MediaDir, file.ID))
	assert.True(t, os.IsNotExist(err))
}

func TestUploadMediaRejects(t *testing.T) {
	h := newHarness(t, fstest.MapFS{}, withMedia(t))
	h.login(linus)

	body, ct := multipartBody(t, "huge.bin", bytes.Repeat([]byte("x"), 2<<10))
	assert.Equal(t, http.StatusRequestEntityTooLarge, h.do(http.MethodPost, "/api/media", body, ct).Code)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/media", bytes.NewBufferString("nope"), "text/plain").Code)
}

func TestDeleteMediaIsBestEffort(t *testing.T) {
	h := newHarness(t, fstest.MapFS{}, withMedia(t))
	h.login(linus)

	w := h.sendJSON(http.MethodDelete, "/api/media", `{"id":"../../etc/passwd"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"deleted"}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, h.sendJSON(http.MethodDelete, "/api/media", `{}`).Code)
}
