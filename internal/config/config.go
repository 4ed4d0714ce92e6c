// Package config loads booth configuration from BOOTH_* environment
// variables. Every knob has a default that yields a working development
// booth with the simulated camera and no external services.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"photobooth/internal/domain/artifact"
	"photobooth/internal/domain/capture"
	"photobooth/internal/domain/filter"
)

// Config carries every runtime setting of the booth process.
type Config struct {
	DBPath   string `env:"BOOTH_DB_PATH" envDefault:"photobooth.db"`
	WorkDir  string `env:"BOOTH_WORK_DIR" envDefault:"work"`
	HTTPAddr string `env:"BOOTH_HTTP_ADDR" envDefault:":8080"`
	CSRFKey  string `env:"BOOTH_CSRF_KEY"`

	OperatorPINHash string `env:"BOOTH_OPERATOR_PIN_HASH"`

	EventRef     string `env:"BOOTH_EVENT_REF" envDefault:"dev-event"`
	TemplatePath string `env:"BOOTH_TEMPLATE_PATH" envDefault:"template.json"`
	WelcomeText  string `env:"BOOTH_WELCOME_TEXT" envDefault:"# Welcome! Step in and touch start."`

	CountdownSeconds int           `env:"BOOTH_COUNTDOWN_SECONDS" envDefault:"3"`
	CaptureTimeout   time.Duration `env:"BOOTH_CAPTURE_TIMEOUT" envDefault:"45s"`
	RetryBase        time.Duration `env:"BOOTH_RETRY_BASE" envDefault:"200ms"`
	RetryCap         time.Duration `env:"BOOTH_RETRY_CAP" envDefault:"2s"`
	RetryMax         int           `env:"BOOTH_RETRY_MAX" envDefault:"8"`
	PhotographerMode bool          `env:"BOOTH_PHOTOGRAPHER_MODE" envDefault:"false"`

	RetakeEnabled bool `env:"BOOTH_RETAKE_ENABLED" envDefault:"true"`
	RetakeMulti   bool `env:"BOOTH_RETAKE_MULTI" envDefault:"false"`
	ReviewSeconds int  `env:"BOOTH_REVIEW_SECONDS" envDefault:"20"`

	FilterMode    string `env:"BOOTH_FILTER_MODE" envDefault:"off"`
	FilterSeconds int    `env:"BOOTH_FILTER_SECONDS" envDefault:"15"`
	FilterAuto    string `env:"BOOTH_FILTER_AUTO" envDefault:""`

	DuplicateStrip   bool   `env:"BOOTH_DUPLICATE_STRIP" envDefault:"true"`
	PrintOrientation string `env:"BOOTH_PRINT_ORIENTATION" envDefault:"portrait"`
	PrinterName      string `env:"BOOTH_PRINTER_NAME"`
	PrintEnabled     bool   `env:"BOOTH_PRINT_ENABLED" envDefault:"false"`

	AutoClearSeconds int `env:"BOOTH_AUTOCLEAR_SECONDS" envDefault:"60"`

	ResendAPIKey string `env:"BOOTH_RESEND_API_KEY"`
	ShareFrom    string `env:"BOOTH_SHARE_FROM" envDefault:"Photo Booth <noreply@localhost>"`
	ShareTo      string `env:"BOOTH_SHARE_TO"`

	UploadURL    string `env:"BOOTH_UPLOAD_URL"`
	UploadAPIKey string `env:"BOOTH_UPLOAD_API_KEY"`
}

// Load reads the configuration from the environment.
// POST: Returns a validated Config or an error naming the bad variable
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.CountdownSeconds < 1 {
		return fmt.Errorf("BOOTH_COUNTDOWN_SECONDS must be at least 1, got %d", c.CountdownSeconds)
	}
	if c.RetryMax < 1 {
		return fmt.Errorf("BOOTH_RETRY_MAX must be at least 1, got %d", c.RetryMax)
	}
	if _, err := filter.ParseMode(c.FilterMode); err != nil {
		return fmt.Errorf("BOOTH_FILTER_MODE: %w", err)
	}
	if _, err := c.FilterWeights(); err != nil {
		return fmt.Errorf("BOOTH_FILTER_AUTO: %w", err)
	}
	switch artifact.Orientation(c.PrintOrientation) {
	case artifact.OrientationPortrait, artifact.OrientationLandscape:
	default:
		return fmt.Errorf("BOOTH_PRINT_ORIENTATION must be portrait or landscape, got %q", c.PrintOrientation)
	}
	return nil
}

// Mode returns the parsed filter mode.
// PRE: Config has passed validation
func (c Config) Mode() filter.Mode {
	m, _ := filter.ParseMode(c.FilterMode)
	return m
}

// FilterWeights returns the parsed auto-mode weight list.
func (c Config) FilterWeights() ([]filter.Weighted, error) {
	return filter.ParseWeightedList(c.FilterAuto)
}

// Orientation returns the strip duplication orientation.
// PRE: Config has passed validation
func (c Config) Orientation() artifact.Orientation {
	return artifact.Orientation(c.PrintOrientation)
}

// ReviewTimeout returns the retake review window duration.
func (c Config) ReviewTimeout() time.Duration {
	return time.Duration(c.ReviewSeconds) * time.Second
}

// FilterTimeout returns the interactive filter window duration.
func (c Config) FilterTimeout() time.Duration {
	return time.Duration(c.FilterSeconds) * time.Second
}

// AutoClear returns how long a finished session stays on screen.
func (c Config) AutoClear() time.Duration {
	return time.Duration(c.AutoClearSeconds) * time.Second
}

// RetryPolicy returns the busy-retry bounds for the camera trigger.
// PRE: Config has passed validation
func (c Config) RetryPolicy() capture.RetryPolicy {
	return capture.RetryPolicy{
		BaseDelay:   c.RetryBase,
		MaxDelay:    c.RetryCap,
		MaxAttempts: c.RetryMax,
	}
}
