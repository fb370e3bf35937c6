package course

import "context"

// Store is the durable home of course_materials rows.
type Store interface {
	// ListCourseMaterials returns every record reachable from courseID: rows
	// carrying the course id plus child rows linked only through their parent
	// chain (a subsection row may carry sectionId and no courseId). Ordering
	// is stable across calls (primary-key order).
	ListCourseMaterials(ctx context.Context, courseID string) ([]Material, error)

	GetMaterial(ctx context.Context, id string) (Material, error)

	// PutMaterial inserts or replaces a record. Writes are rejected with
	// ErrParentMissing when the declared parent does not exist.
	PutMaterial(ctx context.Context, m Material) (Material, error)

	// DeleteMaterial removes a record and cascades to its children (and, for
	// quizzes, their questions) atomically. Returns the blob keys of removed
	// pdf/video rows so the caller can clean up blob storage.
	DeleteMaterial(ctx context.Context, id string) ([]string, error)
}
