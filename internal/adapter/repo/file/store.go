// Package file persists the runtime state as a single JSON document on
// disk, the default when no database is configured.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/loathers/cagebot/internal/app/ports"
)

type Store struct {
	path string
}

func NewStore(path string) Store {
	return Store{path: path}
}

func (s Store) Load(_ context.Context) (ports.SavedState, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ports.SavedState{}, ports.ErrNotFound
		}
		return ports.SavedState{}, fmt.Errorf("read state file: %w", err)
	}

	var state ports.SavedState
	if err := sonic.Unmarshal(raw, &state); err != nil {
		return ports.SavedState{}, fmt.Errorf("decode state file: %w", err)
	}
	return state, nil
}

func (s Store) Save(_ context.Context, state ports.SavedState) error {
	raw, err := sonic.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}
