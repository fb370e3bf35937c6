package activity

import (
	"context"
	"database/sql"
	"time"
)

const (
	TypeAttemptSubmitted  = "AttemptSubmitted"
	TypeMaterialCompleted = "MaterialCompleted"
)

type Event struct {
	Offset    int64
	Type      string
	Key       string // natural key: attemptID, or email|materialID
	DataJSON  string
	CreatedAt int64
}

// Recorder is the append-only activity feed. Writers treat it as best-effort:
// a failed append must never fail the operation that produced the event.
type Recorder interface {
	Append(ctx context.Context, e Event) error
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}
