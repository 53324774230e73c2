package sticker

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

// Config holds program settings read from STICKER_* environment variables.
// Command line flags override individual fields after LoadConfig.
type Config struct {
	Title         string  `env:"STICKER_TITLE" envDefault:"StickerSmash"`
	Width         int     `env:"STICKER_WIDTH" envDefault:"390"`
	Height        int     `env:"STICKER_HEIGHT" envDefault:"780"`
	StickerSize   float64 `env:"STICKER_SIZE" envDefault:"40"`
	ExportDir     string  `env:"STICKER_EXPORT_DIR" envDefault:"exports"`
	ScreenshotDir string  `env:"STICKER_SCREENSHOT_DIR" envDefault:"screenshots"`
	DropDir       string  `env:"STICKER_DROP_DIR"`
	Debug         bool    `env:"STICKER_DEBUG"`
	ShowFPS       bool    `env:"STICKER_SHOW_FPS"`
	LogLevel      string  `env:"STICKER_LOG_LEVEL" envDefault:"info"`
	LogJSON       bool    `env:"STICKER_LOG_JSON"`
}

// LoadConfig parses the environment into a Config and validates it.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the program cannot start with.
func (c Config) Validate() error {
	minW, minH := c.Layout().MinScreen()
	if float64(c.Width) < minW || float64(c.Height) < minH {
		return fmt.Errorf("config: window %dx%d is smaller than %.0fx%.0f", c.Width, c.Height, minW, minH)
	}
	if c.StickerSize <= 0 {
		return fmt.Errorf("config: sticker size must be positive, got %v", c.StickerSize)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Layout returns the screen layout for the configured window size.
func (c Config) Layout() Layout {
	return NewLayout(float64(c.Width), float64(c.Height))
}

// NewLogger builds the program logger. Debug mode forces debug level.
func NewLogger(c Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if c.LogJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if c.Debug && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	return log
}
