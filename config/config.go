// Package config holds the picframe runtime configuration.
package config

import "time"

type Config struct {
	Catalog    CatalogConfig    `yaml:"catalog"`
	Carousel   CarouselConfig   `yaml:"carousel"`
	Power      PowerConfig      `yaml:"power"`
	Storage    StorageConfig    `yaml:"storage"`
	SensorLink SensorLinkConfig `yaml:"sensorlink"`
	Log        LogConfig        `yaml:"log"`
}

// ---- CATALOG ----

type CatalogConfig struct {
	Names          []string `yaml:"names"`
	MaxObjectBytes int      `yaml:"max_object_bytes"`
}

// ---- CAROUSEL ----

// Label position fields are pointers so an explicit 0 is kept
type CarouselConfig struct {
	TouchTimeoutMs int    `yaml:"touch_timeout_ms"`
	LabelX         *int16 `yaml:"label_x"`
	LabelY         *int16 `yaml:"label_y"`
}

const (
	defaultLabelX int16 = 10
	defaultLabelY int16 = 20
)

// TouchTimeout returns the touch wait as a duration
func (c CarouselConfig) TouchTimeout() time.Duration {
	return time.Duration(c.TouchTimeoutMs) * time.Millisecond
}

// Label returns the index label position, defaulting unset coordinates
func (c CarouselConfig) Label() (x, y int16) {
	x, y = defaultLabelX, defaultLabelY
	if c.LabelX != nil {
		x = *c.LabelX
	}
	if c.LabelY != nil {
		y = *c.LabelY
	}
	return x, y
}

// ---- POWER ----

type PowerConfig struct {
	DisplayOnSeconds uint32 `yaml:"display_on_seconds"` // countdown maximum
	TickMs           int    `yaml:"tick_ms"`
}

// Tick returns the monitor period as a duration
func (p PowerConfig) Tick() time.Duration {
	return time.Duration(p.TickMs) * time.Millisecond
}

// ---- STORAGE ----

const (
	MediumDir    = "dir"
	MediumBadger = "badger"
	MediumMemory = "memory"
)

type StorageConfig struct {
	Medium        string `yaml:"medium"`
	Path          string `yaml:"path"`
	MinimumFreeMB uint64 `yaml:"minimum_free_mb"`
}

// ---- SENSOR LINK ----

type SensorLinkConfig struct {
	Device string `yaml:"device"` // empty disables the link
	Baud   int    `yaml:"baud"`
}

// ---- LOG ----

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the stock configuration: five 320x240 bitmaps, a ten
// second touch wait and a thirty second display-on window.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills zero values
func applyDefaults(cfg *Config) {
	if len(cfg.Catalog.Names) == 0 {
		cfg.Catalog.Names = []string{"img0.bmp", "img1.bmp", "img2.bmp", "img3.bmp", "img4.bmp"}
	}
	if cfg.Catalog.MaxObjectBytes == 0 {
		cfg.Catalog.MaxObjectBytes = 307254
	}
	if cfg.Carousel.TouchTimeoutMs == 0 {
		cfg.Carousel.TouchTimeoutMs = 10000
	}
	if cfg.Carousel.LabelX == nil {
		x := defaultLabelX
		cfg.Carousel.LabelX = &x
	}
	if cfg.Carousel.LabelY == nil {
		y := defaultLabelY
		cfg.Carousel.LabelY = &y
	}
	if cfg.Power.DisplayOnSeconds == 0 {
		cfg.Power.DisplayOnSeconds = 30
	}
	if cfg.Power.TickMs == 0 {
		cfg.Power.TickMs = 1000
	}
	if cfg.Storage.Medium == "" {
		cfg.Storage.Medium = MediumMemory
	}
	if cfg.SensorLink.Baud == 0 {
		cfg.SensorLink.Baud = 115200
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
