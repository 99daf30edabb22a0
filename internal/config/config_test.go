package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != ":8080" {
		t.Errorf("port: want :8080, got %s", cfg.Port)
	}
	if cfg.Cooldown() != 10*time.Second {
		t.Errorf("cooldown: want 10s, got %s", cfg.Cooldown())
	}
	if cfg.MinimumSessionDuration() != 5*time.Minute {
		t.Errorf("minimum session: want 5m, got %s", cfg.MinimumSessionDuration())
	}
	if cfg.PositionMaxAge() != 2*time.Minute {
		t.Errorf("position max age: want 2m, got %s", cfg.PositionMaxAge())
	}
	if cfg.HighConfidenceAccuracyMeters != 50 {
		t.Errorf("high confidence accuracy: want 50, got %v", cfg.HighConfidenceAccuracyMeters)
	}
	if cfg.JWTSecret != "" {
		t.Error("authentication should be off by default")
	}

	offsets, err := cfg.VerificationOffsets()
	if err != nil {
		t.Fatalf("VerificationOffsets: %v", err)
	}
	want := []time.Duration{time.Minute, 3 * time.Minute, 5 * time.Minute}
	if len(offsets) != len(want) {
		t.Fatalf("offsets: want %v, got %v", want, offsets)
	}
	for i := range want {
		if offsets[i] != want[i] {
			t.Errorf("offset %d: want %s, got %s", i, want[i], offsets[i])
		}
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", ":9999")
	t.Setenv("COOLDOWN_SECONDS", "30")
	t.Setenv("VERIFICATION_OFFSETS_MINUTES", "2,4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != ":9999" {
		t.Errorf("port: want :9999, got %s", cfg.Port)
	}
	if cfg.Cooldown() != 30*time.Second {
		t.Errorf("cooldown: want 30s, got %s", cfg.Cooldown())
	}

	offsets, err := cfg.VerificationOffsets()
	if err != nil {
		t.Fatalf("VerificationOffsets: %v", err)
	}
	if len(offsets) != 2 || offsets[0] != 2*time.Minute || offsets[1] != 4*time.Minute {
		t.Errorf("offsets: want [2m 4m], got %v", offsets)
	}
}

func TestLoad_RejectsDescendingOffsets(t *testing.T) {
	t.Setenv("VERIFICATION_OFFSETS_MINUTES", "5,1,3")

	if _, err := Load(); err == nil {
		t.Error("descending offsets must be rejected")
	}
}

func TestLoad_RejectsEmptyOffsets(t *testing.T) {
	t.Setenv("VERIFICATION_OFFSETS_MINUTES", " ")

	if _, err := Load(); err == nil {
		t.Error("an empty offset list must be rejected")
	}
}

func TestLoad_RejectsBadRadiusBounds(t *testing.T) {
	t.Setenv("SITE_RADIUS_MAX_METERS", "10")

	if _, err := Load(); err == nil {
		t.Error("max radius below min radius must be rejected")
	}
}

func TestVerificationOffsets_Parsing(t *testing.T) {
	cfg := &Config{VerificationOffsetsMinutes: " 0.5, 1 ,2 "}

	offsets, err := cfg.VerificationOffsets()
	if err != nil {
		t.Fatalf("VerificationOffsets: %v", err)
	}
	want := []time.Duration{30 * time.Second, time.Minute, 2 * time.Minute}
	for i := range want {
		if offsets[i] != want[i] {
			t.Errorf("offset %d: want %s, got %s", i, want[i], offsets[i])
		}
	}

	cfg = &Config{VerificationOffsetsMinutes: "1,abc"}
	if _, err := cfg.VerificationOffsets(); err == nil {
		t.Error("non-numeric offsets must be rejected")
	}

	cfg = &Config{VerificationOffsetsMinutes: "0,1"}
	if _, err := cfg.VerificationOffsets(); err == nil {
		t.Error("zero offsets must be rejected")
	}
}
