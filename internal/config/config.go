// Package config resolves settings from an optional YAML file overridden
// by environment variables, producing one immutable struct at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// MaintainAdventures is the adventure floor the diet engine defends.
	MaintainAdventures int `yaml:"maintainAdventures"`

	// OpenEverything escapes confirmed cages to keep opening grates and
	// valves while the budget allows it.
	OpenEverything                     bool `yaml:"openEverything"`
	OpenEverythingWhileAdventuresAbove int  `yaml:"openEverythingWhileAdventuresAbove"`

	// MaintainEffects tightens the turn-reconcile cadence.
	MaintainEffects bool `yaml:"maintainEffects"`

	WhiteboardMessageCaged   string `yaml:"whiteboardMessageCaged"`
	WhiteboardMessageUncaged string `yaml:"whiteboardMessageUncaged"`

	// StateFile backs the runtime state unless DatabaseDSN is set.
	StateFile   string `yaml:"stateFile"`
	DatabaseDSN string `yaml:"databaseDSN"`

	// OpsAddr serves the read-only operator endpoint when non-empty.
	OpsAddr string `yaml:"opsAddr"`
}

func defaults() Config {
	return Config{
		MaintainAdventures:                 80,
		OpenEverythingWhileAdventuresAbove: 80,
		StateFile:                          "./data/runtime_state.json",
	}
}

// Load reads the YAML file at path when it exists, then applies
// environment overrides. A missing file is not an error; missing
// credentials are.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.Username == "" || cfg.Password == "" {
		return Config{}, errors.New("KOL_USER and KOL_PASS are required")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	stringEnv("KOL_USER", &cfg.Username)
	stringEnv("KOL_PASS", &cfg.Password)
	intEnv("MAINTAIN_ADVENTURES", &cfg.MaintainAdventures)
	boolEnv("OPEN_EVERYTHING", &cfg.OpenEverything)
	intEnv("ONLY_OPEN_WHEN_ADVS_ABOVE", &cfg.OpenEverythingWhileAdventuresAbove)
	boolEnv("MAINTAIN_EFFECTS", &cfg.MaintainEffects)
	stringEnv("WHITEBOARD_CAGED", &cfg.WhiteboardMessageCaged)
	stringEnv("WHITEBOARD_UNCAGED", &cfg.WhiteboardMessageUncaged)
	stringEnv("CAGEBOT_STATE_FILE", &cfg.StateFile)
	stringEnv("CAGEBOT_DB_DSN", &cfg.DatabaseDSN)
	stringEnv("CAGEBOT_OPS_ADDR", &cfg.OpsAddr)
}

func stringEnv(key string, out *string) {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		*out = value
	}
}

func intEnv(key string, out *int) {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*out = parsed
		}
	}
}

func boolEnv(key string, out *bool) {
	if value, ok := os.LookupEnv(key); ok {
		*out = value == "true"
	}
}
