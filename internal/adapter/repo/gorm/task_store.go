// Package gormrepo persists the runtime state in Postgres, for operators
// who run the bot on hosts without a stable disk.
package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/loathers/cagebot/internal/app/ports"
	"github.com/loathers/cagebot/internal/domain/sewer"
)

func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// runtimeState is the single-row table backing the state file semantics.
type runtimeState struct {
	StateKey    string `gorm:"primaryKey;column:state_key"`
	ValidAtTurn int    `gorm:"column:valid_at_turn"`
	MaxDrunk    int    `gorm:"column:max_drunk"`
	CageTask    []byte `gorm:"column:cage_task"`
	UpdatedAt   time.Time
}

func (runtimeState) TableName() string { return "runtime_state" }

type TaskStore struct {
	db *gorm.DB
}

func NewTaskStore(db *gorm.DB) TaskStore {
	return TaskStore{db: db}
}

// EnsureSchema creates the backing table when missing.
func (s TaskStore) EnsureSchema(ctx context.Context) error {
	createSQL := `
CREATE TABLE IF NOT EXISTS runtime_state (
  state_key TEXT PRIMARY KEY,
  valid_at_turn INTEGER NOT NULL,
  max_drunk INTEGER NOT NULL,
  cage_task JSONB,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`
	if err := s.db.WithContext(ctx).Exec(createSQL).Error; err != nil {
		return fmt.Errorf("create runtime_state: %w", err)
	}
	return nil
}

func (s TaskStore) Load(ctx context.Context) (ports.SavedState, error) {
	var row runtimeState
	err := s.db.WithContext(ctx).
		Where(&runtimeState{StateKey: "global"}).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.SavedState{}, ports.ErrNotFound
		}
		return ports.SavedState{}, err
	}

	state := ports.SavedState{
		ValidAtTurn: row.ValidAtTurn,
		MaxDrunk:    row.MaxDrunk,
	}
	if len(row.CageTask) > 0 {
		var task sewer.CageTask
		if err := sonic.Unmarshal(row.CageTask, &task); err != nil {
			return ports.SavedState{}, fmt.Errorf("decode cage task: %w", err)
		}
		state.CageTask = &task
	}
	return state, nil
}

func (s TaskStore) Save(ctx context.Context, state ports.SavedState) error {
	row := runtimeState{
		StateKey:    "global",
		ValidAtTurn: state.ValidAtTurn,
		MaxDrunk:    state.MaxDrunk,
		UpdatedAt:   time.Now(),
	}
	if state.CageTask != nil {
		raw, err := sonic.Marshal(state.CageTask)
		if err != nil {
			return fmt.Errorf("encode cage task: %w", err)
		}
		row.CageTask = raw
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"valid_at_turn", "max_drunk", "cage_task", "updated_at"}),
	}).Create(&row).Error
}
