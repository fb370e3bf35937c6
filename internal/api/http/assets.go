package http

import (
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/learnloop/learnloop-lms/internal/storage"
)

// POST /assets/{courseID}: multipart upload, field "file". Gated separately
// from the read routes; records store the returned key as an opaque string.
func UploadAssetHandler(bs storage.BlobStore, signTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		courseID := chi.URLParam(req, "courseID")
		f, hdr, err := req.FormFile("file")
		if err != nil {
			writeFail(w, http.StatusBadRequest, "file required")
			return
		}
		defer f.Close()

		name := path.Base(hdr.Filename)
		if name == "" || name == "." || name == "/" {
			name = "upload.bin"
		}
		key := "courses/" + courseID + "/" + uuid.NewString() + "-" + name
		if _, err := bs.Put(key, f); err != nil {
			writeErr(w, err)
			return
		}
		url, err := bs.SignedURL(key, signTTL)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"key": key, "url": url})
	}
}

// GET /assets/signed-url?key=...: time-limited read URL
func SignedURLHandler(bs storage.BlobStore, signTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		key := req.URL.Query().Get("key")
		if key == "" {
			writeFail(w, http.StatusBadRequest, "missing parameter: key")
			return
		}
		url, err := bs.SignedURL(key, signTTL)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"url": url})
	}
}

// GET /assets/*: stream the blob at whatever follows /assets/
func ServeAssetHandler(bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(req, "*"), "/")
		rc, err := bs.Get(key)
		if err != nil {
			writeFail(w, http.StatusNotFound, "not found")
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
	}
}
