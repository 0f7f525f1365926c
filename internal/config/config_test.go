package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRequiresCredentials(t *testing.T) {
	t.Setenv("KOL_USER", "")
	t.Setenv("KOL_PASS", "")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected an error without credentials")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("KOL_USER", "bot")
	t.Setenv("KOL_PASS", "hunter2")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.MaintainAdventures != 80 {
		t.Fatalf("expected default adventure floor 80, got %d", cfg.MaintainAdventures)
	}
	if cfg.OpenEverythingWhileAdventuresAbove != 80 {
		t.Fatalf("expected default open threshold 80, got %d", cfg.OpenEverythingWhileAdventuresAbove)
	}
	if cfg.StateFile != "./data/runtime_state.json" {
		t.Fatalf("unexpected default state file %q", cfg.StateFile)
	}
	if cfg.OpenEverything || cfg.MaintainEffects {
		t.Fatalf("feature toggles must default off")
	}
}

func TestLoadReadsYAMLFile(t *testing.T) {
	t.Setenv("KOL_USER", "bot")
	t.Setenv("KOL_PASS", "hunter2")

	path := filepath.Join(t.TempDir(), "cagebot.yaml")
	body := []byte("maintainAdventures: 120\nopenEverything: true\nwhiteboardMessageCaged: \"${name} is caged\"\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.MaintainAdventures != 120 {
		t.Fatalf("expected file value 120, got %d", cfg.MaintainAdventures)
	}
	if !cfg.OpenEverything {
		t.Fatalf("expected openEverything from file")
	}
	if cfg.WhiteboardMessageCaged != "${name} is caged" {
		t.Fatalf("unexpected whiteboard template %q", cfg.WhiteboardMessageCaged)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("KOL_USER", "bot")
	t.Setenv("KOL_PASS", "hunter2")
	t.Setenv("MAINTAIN_ADVENTURES", "150")
	t.Setenv("OPEN_EVERYTHING", "true")

	path := filepath.Join(t.TempDir(), "cagebot.yaml")
	if err := os.WriteFile(path, []byte("maintainAdventures: 120\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.MaintainAdventures != 150 {
		t.Fatalf("expected env override 150, got %d", cfg.MaintainAdventures)
	}
	if !cfg.OpenEverything {
		t.Fatalf("expected env toggle applied")
	}
}

func TestMissingFileIsNotAnError(t *testing.T) {
	t.Setenv("KOL_USER", "bot")
	t.Setenv("KOL_PASS", "hunter2")

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatalf("missing file must fall back to defaults, got %v", err)
	}
}
