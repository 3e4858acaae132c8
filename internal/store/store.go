package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contact-mapper/internal/model"
)

// ErrNotFound is returned when a run ID has no row.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store records mapping runs.
type Store interface {
	CreateRun(ctx context.Context, seedPath, outputPath string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, result []model.FirmContacts) error
	FailRun(ctx context.Context, runID string, cause error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
