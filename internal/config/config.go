// Package config loads and validates service configuration from the
// environment and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// Port is the address the HTTP server listens on (e.g. :8080).
	Port string `mapstructure:"PORT"`
	// DBPath is the sqlite database file path.
	DBPath string `mapstructure:"DB_PATH"`
	// JWTSecret signs and verifies API bearer tokens (HS256). Empty
	// disables authentication.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// NotifyWebhookURL, when set, delivers clock-in/out notifications via
	// HTTP POST; empty means notifications are only logged.
	NotifyWebhookURL string `mapstructure:"NOTIFY_WEBHOOK_URL"`
	// RateLimitPerMinute caps requests per client IP per minute.
	RateLimitPerMinute int `mapstructure:"RATE_LIMIT_PER_MINUTE"`

	// CooldownSeconds is the debounce window: transitions for a site
	// arriving within this many seconds of the previously accepted one
	// are ignored.
	CooldownSeconds int `mapstructure:"COOLDOWN_SECONDS"`
	// HighConfidenceAccuracyMeters is the accuracy below which a position
	// sample counts as high confidence.
	HighConfidenceAccuracyMeters float64 `mapstructure:"HIGH_CONFIDENCE_ACCURACY_METERS"`
	// VerificationOffsetsMinutes is the comma-separated re-check schedule
	// after an exit transition (minutes after the exit, ascending).
	VerificationOffsetsMinutes string `mapstructure:"VERIFICATION_OFFSETS_MINUTES"`
	// MinimumSessionMinutes is the floor below which a completed session
	// is flagged and excluded from hour totals.
	MinimumSessionMinutes int `mapstructure:"MINIMUM_SESSION_MINUTES"`
	// ExitDistanceMarginMeters widens the site radius when deciding
	// whether a verification sample is out of range, absorbing GPS
	// wobble at the fence line.
	ExitDistanceMarginMeters float64 `mapstructure:"EXIT_DISTANCE_MARGIN_METERS"`
	// PoorAccuracyCutoffMeters rejects transitions whose reported
	// accuracy is worse than this outright (ignore_reason poor_accuracy).
	PoorAccuracyCutoffMeters float64 `mapstructure:"POOR_ACCURACY_CUTOFF_METERS"`
	// PositionMaxAgeSeconds bounds how old a device-reported position may
	// be and still answer a verification fetch.
	PositionMaxAgeSeconds int `mapstructure:"POSITION_MAX_AGE_SECONDS"`
	// RecoveryGraceSeconds extends the verification window during restart
	// reconciliation before a stale pending exit is closed by default.
	RecoveryGraceSeconds int `mapstructure:"RECOVERY_GRACE_SECONDS"`

	// SiteRadiusMinMeters / SiteRadiusMaxMeters bound configurable site
	// geofence radii.
	SiteRadiusMinMeters float64 `mapstructure:"SITE_RADIUS_MIN_METERS"`
	SiteRadiusMaxMeters float64 `mapstructure:"SITE_RADIUS_MAX_METERS"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Missing .env is ignored (e.g. in CI); env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("PORT", ":8080")
	v.SetDefault("DB_PATH", "./data/tracking.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("NOTIFY_WEBHOOK_URL", "")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 240)
	v.SetDefault("COOLDOWN_SECONDS", 10)
	v.SetDefault("HIGH_CONFIDENCE_ACCURACY_METERS", 50)
	v.SetDefault("VERIFICATION_OFFSETS_MINUTES", "1,3,5")
	v.SetDefault("MINIMUM_SESSION_MINUTES", 5)
	v.SetDefault("EXIT_DISTANCE_MARGIN_METERS", 25)
	v.SetDefault("POOR_ACCURACY_CUTOFF_METERS", 200)
	v.SetDefault("POSITION_MAX_AGE_SECONDS", 120)
	v.SetDefault("RECOVERY_GRACE_SECONDS", 60)
	v.SetDefault("SITE_RADIUS_MIN_METERS", 50)
	v.SetDefault("SITE_RADIUS_MAX_METERS", 1000)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Port == "" {
		return nil, errors.New("config: PORT must be set")
	}
	if cfg.CooldownSeconds <= 0 {
		return nil, errors.New("config: COOLDOWN_SECONDS must be positive")
	}
	if cfg.HighConfidenceAccuracyMeters <= 0 {
		return nil, errors.New("config: HIGH_CONFIDENCE_ACCURACY_METERS must be positive")
	}
	if cfg.MinimumSessionMinutes < 0 {
		return nil, errors.New("config: MINIMUM_SESSION_MINUTES must not be negative")
	}
	if cfg.SiteRadiusMinMeters <= 0 || cfg.SiteRadiusMaxMeters <= cfg.SiteRadiusMinMeters {
		return nil, errors.New("config: site radius bounds must satisfy 0 < min < max")
	}
	if _, err := cfg.VerificationOffsets(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Cooldown returns the debounce window as a duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// MinimumSessionDuration returns the minimum-session floor as a duration.
func (c *Config) MinimumSessionDuration() time.Duration {
	return time.Duration(c.MinimumSessionMinutes) * time.Minute
}

// PositionMaxAge returns the position freshness bound as a duration.
func (c *Config) PositionMaxAge() time.Duration {
	return time.Duration(c.PositionMaxAgeSeconds) * time.Second
}

// RecoveryGrace returns the restart reconciliation grace as a duration.
func (c *Config) RecoveryGrace() time.Duration {
	return time.Duration(c.RecoveryGraceSeconds) * time.Second
}

// VerificationOffsets parses VerificationOffsetsMinutes into an ascending
// list of durations after the triggering exit. An empty list is invalid:
// a pending exit must always have at least one check before the
// exit-by-default rule applies.
func (c *Config) VerificationOffsets() ([]time.Duration, error) {
	parts := strings.Split(c.VerificationOffsetsMinutes, ",")
	offsets := make([]time.Duration, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s == "" {
			continue
		}
		minutes, err := strconv.ParseFloat(s, 64)
		if err != nil || minutes <= 0 {
			return nil, fmt.Errorf("config: invalid verification offset %q", s)
		}
		offsets = append(offsets, time.Duration(minutes*float64(time.Minute)))
	}
	if len(offsets) == 0 {
		return nil, errors.New("config: VERIFICATION_OFFSETS_MINUTES must list at least one offset")
	}
	if !sort.SliceIsSorted(offsets, func(i, j int) bool { return offsets[i] < offsets[j] }) {
		return nil, errors.New("config: VERIFICATION_OFFSETS_MINUTES must be ascending")
	}
	return offsets, nil
}
