package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnloop/learnloop-lms/internal/course"
	"github.com/learnloop/learnloop-lms/internal/storage"
)

// GET /course-materials?courseId=...
// Returns the reconstructed section tree for one course.
func CourseTreeHandler(svc *course.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tree, err := svc.CourseTree(r.Context(), r.URL.Query().Get("courseId"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"sections": tree})
	}
}

// POST /materials
// Creates or replaces one polymorphic material record. The parent named by
// the record must already exist.
func PutMaterialHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m course.Material
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			writeFail(w, http.StatusBadRequest, "bad json")
			return
		}
		saved, err := store.PutMaterial(r.Context(), m)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"material": saved})
	}
}

// GET /materials/{materialID}
func GetMaterialHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := store.GetMaterial(r.Context(), chi.URLParam(r, "materialID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, map[string]any{"material": m})
	}
}

// DELETE /materials/{materialID}
// Cascades to children in one transaction; referenced blobs are removed
// best-effort afterwards.
func DeleteMaterialHandler(store course.Store, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "materialID")
		blobKeys, err := store.DeleteMaterial(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		for _, key := range blobKeys {
			if err := bs.Delete(key); err != nil {
				log.Printf("api: blob cleanup %s failed: %v", key, err)
			}
		}
		writeOK(w, map[string]any{"deleted": id})
	}
}
