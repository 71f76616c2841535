package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// reservedNames cannot be catalog entries: directory references and the
// directory medium's format marker
var reservedNames = map[string]struct{}{
	".":         {},
	"..":        {},
	".picframe": {},
}

// Validate checks configuration correctness.
// It performs declarative validation only and does not mutate cfg.
func Validate(cfg *Config) error {
	// ---- catalog ----

	if len(cfg.Catalog.Names) == 0 {
		return fmt.Errorf("catalog: at least one name required")
	}
	// Names are checked as Normalize will leave them
	seen := make(map[string]int, len(cfg.Catalog.Names))
	for i, raw := range cfg.Catalog.Names {
		name := strings.TrimSpace(raw)
		if name == "" {
			return fmt.Errorf("catalog: name %d is empty", i)
		}
		if strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("catalog: name %q must not contain a path separator", name)
		}
		if _, reserved := reservedNames[name]; reserved {
			return fmt.Errorf("catalog: name %q is reserved", name)
		}
		if prev, exists := seen[name]; exists {
			return fmt.Errorf("catalog: name %q used at %d and %d", name, prev, i)
		}
		seen[name] = i
	}
	if cfg.Catalog.MaxObjectBytes <= 0 {
		return fmt.Errorf("catalog: max_object_bytes must be > 0")
	}

	// ---- carousel ----

	if cfg.Carousel.TouchTimeoutMs <= 0 {
		return fmt.Errorf("carousel: touch_timeout_ms must be > 0")
	}

	// ---- power ----

	if cfg.Power.DisplayOnSeconds == 0 {
		return fmt.Errorf("power: display_on_seconds must be > 0")
	}
	if cfg.Power.TickMs <= 0 {
		return fmt.Errorf("power: tick_ms must be > 0")
	}

	// ---- storage ----

	switch strings.ToLower(cfg.Storage.Medium) {
	case MediumMemory:
	case MediumDir, MediumBadger:
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage: medium %q requires a path", cfg.Storage.Medium)
		}
	default:
		return fmt.Errorf("storage: unknown medium %q", cfg.Storage.Medium)
	}

	// ---- sensor link ----

	if cfg.SensorLink.Device != "" && cfg.SensorLink.Baud <= 0 {
		return fmt.Errorf("sensorlink: baud must be > 0")
	}

	// ---- log ----

	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	return nil
}
