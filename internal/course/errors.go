package course

import "errors"

// Shared error taxonomy for the content/progress/quiz pipeline. Handlers map
// these onto HTTP statuses; everything else wraps with %w.
var (
	ErrMissingParameter = errors.New("missing parameter")
	ErrNotFound         = errors.New("not found")
	ErrParentMissing    = errors.New("parent record not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)
