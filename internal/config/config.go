package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// MaxProblemsLimit bounds MaxNumberOfProblems from above.
	MaxProblemsLimit = 10000

	// Section is the client settings section read on configuration changes.
	Section = "leaf"
	// LegacySection is accepted when Section is absent.
	LegacySection = "languageServerExample"
)

type Config struct {
	MaxNumberOfProblems int           `json:"maxNumberOfProblems" koanf:"max_number_of_problems"`
	ProgramCacheSize    int           `json:"programCacheSize" koanf:"program_cache_size"`
	ShutdownDelay       time.Duration `json:"-" koanf:"shutdown_delay"`
	DiagnosticSource    string        `json:"diagnosticSource" koanf:"diagnostic_source"`
	LanguageID          string        `json:"languageId" koanf:"language_id"`
}

var defaultConfig = Config{
	MaxNumberOfProblems: 1000,
	ProgramCacheSize:    0,
	ShutdownDelay:       time.Second,
	DiagnosticSource:    "Language Information Engine",
	LanguageID:          "leaf",
}

func Default() Config {
	return defaultConfig
}

// LoadFile overlays a TOML file onto the defaults.
func LoadFile(path string) (Config, error) {
	cfg := defaultConfig

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return cfg.clamp(), nil
}

// Load overlays client settings onto base. v is either the settings
// section itself or an object holding it under Section or LegacySection;
// only fields present in v overwrite.
func Load(base Config, v any) (Config, error) {
	cfg := base
	if v == nil {
		return cfg.clamp(), nil
	}

	if m, ok := v.(map[string]any); ok {
		if section, ok := m[Section]; ok {
			v = section
		} else if section, ok := m[LegacySection]; ok {
			v = section
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return Config{}, fmt.Errorf("failed to marshal source: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal into Config: %w", err)
	}

	return cfg.clamp(), nil
}

func (c Config) clamp() Config {
	switch {
	case c.MaxNumberOfProblems < 0:
		c.MaxNumberOfProblems = 0
	case c.MaxNumberOfProblems > MaxProblemsLimit:
		c.MaxNumberOfProblems = MaxProblemsLimit
	}
	if c.ProgramCacheSize < 0 {
		c.ProgramCacheSize = 0
	}
	if c.ShutdownDelay < 0 {
		c.ShutdownDelay = 0
	}
	return c
}
