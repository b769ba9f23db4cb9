package postgres

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

type ProcessingRun struct {
	ID           uuid.UUID
	DocumentName string
	MimeType     string
	ObjectKey    *string
	Status       RunStatus
	ResultStatus *string
	TripleCount  int32
	OntologyID   *string
	Result       []byte
	ErrorMessage *string
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

