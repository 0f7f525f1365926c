package file

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/loathers/cagebot/internal/app/ports"
	"github.com/loathers/cagebot/internal/domain/sewer"
)

func TestLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "state.json"))

	_, err := store.Load(context.Background())
	if !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveThenLoad(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "data", "state.json"))

	saved := ports.SavedState{
		ValidAtTurn: 5123,
		MaxDrunk:    19,
		CageTask: &sewer.CageTask{
			Requester:    sewer.Player{ID: "2", Name: "friend"},
			Clan:         sewer.Clan{ID: "9", Name: "The Hogs"},
			StartedAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			APIResponses: true,
		},
	}
	if err := store.Save(context.Background(), saved); err != nil {
		t.Fatalf("save error: %v", err)
	}

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if loaded.ValidAtTurn != saved.ValidAtTurn || loaded.MaxDrunk != saved.MaxDrunk {
		t.Fatalf("counters did not survive the roundtrip: %+v", loaded)
	}
	if loaded.CageTask == nil || loaded.CageTask.Clan.Name != "The Hogs" {
		t.Fatalf("task did not survive the roundtrip: %+v", loaded.CageTask)
	}
	if !loaded.CageTask.StartedAt.Equal(saved.CageTask.StartedAt) {
		t.Fatalf("timestamp drifted: %v", loaded.CageTask.StartedAt)
	}
}

func TestSaveOverwrites(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "state.json"))

	if err := store.Save(context.Background(), ports.SavedState{ValidAtTurn: 1}); err != nil {
		t.Fatalf("save error: %v", err)
	}
	if err := store.Save(context.Background(), ports.SavedState{ValidAtTurn: 2}); err != nil {
		t.Fatalf("save error: %v", err)
	}

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if loaded.ValidAtTurn != 2 {
		t.Fatalf("expected the later snapshot, got turn %d", loaded.ValidAtTurn)
	}
	if loaded.CageTask != nil {
		t.Fatalf("expected no task in the later snapshot")
	}
}
