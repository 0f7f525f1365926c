package ports

import (
	"context"

	"github.com/loathers/cagebot/internal/domain/sewer"
)

// SavedState is the durable runtime state written on every cage
// confirm/clear. ValidAtTurn keys the snapshot to the lifetime turn counter
// so a reload can reject stale records.
type SavedState struct {
	ValidAtTurn int             `json:"validAtTurn"`
	MaxDrunk    int             `json:"maxDrunk"`
	CageTask    *sewer.CageTask `json:"cageTask,omitempty"`
}

type TaskStore interface {
	Load(ctx context.Context) (SavedState, error)
	Save(ctx context.Context, state SavedState) error
}
