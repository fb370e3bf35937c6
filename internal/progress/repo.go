package progress

import "context"

type Store interface {
	// MarkComplete upserts a completion row; re-marking is idempotent.
	MarkComplete(ctx context.Context, rec Record) error

	CountCompleted(ctx context.Context, email, courseID string) (int, error)

	UpsertSummary(ctx context.Context, s Summary) error
}
