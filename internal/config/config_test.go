package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.HTTPPort != "8081" {
		t.Fatalf("expected default port 8081, got %s", cfg.HTTPPort)
	}
	if cfg.AccessTTL != 15*time.Minute {
		t.Fatalf("expected default access ttl, got %s", cfg.AccessTTL)
	}
	if cfg.RateLimitPerMin != 120 {
		t.Fatalf("expected default rate limit, got %d", cfg.RateLimitPerMin)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("ACCESS_TTL", "5m")
	t.Setenv("FACE_SKIP", "false")
	t.Setenv("RATE_LIMIT_PER_MIN", "30")

	cfg := Load()
	if cfg.HTTPPort != "9000" {
		t.Fatalf("expected port override, got %s", cfg.HTTPPort)
	}
	if cfg.AccessTTL != 5*time.Minute {
		t.Fatalf("expected ttl override, got %s", cfg.AccessTTL)
	}
	if cfg.FaceSkip {
		t.Fatalf("expected FACE_SKIP=false to apply")
	}
	if cfg.RateLimitPerMin != 30 {
		t.Fatalf("expected rate limit override, got %d", cfg.RateLimitPerMin)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("ACCESS_TTL", "soon")
	t.Setenv("RATE_LIMIT_PER_MIN", "lots")
	t.Setenv("FACE_SKIP", "maybe")

	cfg := Load()
	if cfg.AccessTTL != 15*time.Minute {
		t.Fatalf("invalid duration should fall back, got %s", cfg.AccessTTL)
	}
	if cfg.RateLimitPerMin != 120 {
		t.Fatalf("invalid int should fall back, got %d", cfg.RateLimitPerMin)
	}
	if !cfg.FaceSkip {
		t.Fatalf("invalid bool should fall back to default true")
	}
}
