package config

import (
	"testing"
	"time"
)

func TestReadPipelineConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := readPipelineConfig()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Interval != 300*time.Second {
			t.Errorf("expected Interval=300s, got %v", cfg.Interval)
		}
		if cfg.LockTTL != 1800*time.Second {
			t.Errorf("expected LockTTL=1800s, got %v", cfg.LockTTL)
		}
		if !cfg.DecayEnabled {
			t.Error("expected DecayEnabled=true by default")
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("PIPELINE_INTERVAL_SECONDS", "60")
		t.Setenv("PIPELINE_LOCK_TTL_SECONDS", "120")
		t.Setenv("PIPELINE_DECAY_ENABLED", "false")
		cfg, err := readPipelineConfig()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Interval != 60*time.Second {
			t.Errorf("expected Interval=60s, got %v", cfg.Interval)
		}
		if cfg.LockTTL != 120*time.Second {
			t.Errorf("expected LockTTL=120s, got %v", cfg.LockTTL)
		}
		if cfg.DecayEnabled {
			t.Error("expected DecayEnabled=false")
		}
	})

	t.Run("invalid interval", func(t *testing.T) {
		t.Setenv("PIPELINE_INTERVAL_SECONDS", "0")
		_, err := readPipelineConfig()
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("invalid lock ttl", func(t *testing.T) {
		t.Setenv("PIPELINE_LOCK_TTL_SECONDS", "-5")
		_, err := readPipelineConfig()
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}

func TestReadPostgresConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := readPostgresConfig()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Host != "localhost" {
			t.Errorf("expected Host=localhost, got %q", cfg.Host)
		}
		if cfg.Port != 5432 {
			t.Errorf("expected Port=5432, got %d", cfg.Port)
		}
		if cfg.Name != "otr" || cfg.User != "otr" {
			t.Errorf("expected Name/User=otr, got %q/%q", cfg.Name, cfg.User)
		}
		if cfg.SSLMode != "disable" {
			t.Errorf("expected SSLMode=disable, got %q", cfg.SSLMode)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("DB_HOST", "db.internal")
		t.Setenv("DB_PORT", "15432")
		t.Setenv("DB_SOCKET_PATH", "/var/run/postgresql")
		cfg, err := readPostgresConfig()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Host != "db.internal" {
			t.Errorf("expected Host=db.internal, got %q", cfg.Host)
		}
		if cfg.Port != 15432 {
			t.Errorf("expected Port=15432, got %d", cfg.Port)
		}
		if cfg.SocketPath != "/var/run/postgresql" {
			t.Errorf("expected SocketPath=/var/run/postgresql, got %q", cfg.SocketPath)
		}
	})

	t.Run("invalid port", func(t *testing.T) {
		t.Setenv("DB_PORT", "not-a-number")
		_, err := readPostgresConfig()
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}

func TestReadLeaderboardConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := readLeaderboardConfig()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.CacheTTL != 60*time.Second {
			t.Errorf("expected CacheTTL=60s, got %v", cfg.CacheTTL)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		t.Setenv("LEADERBOARD_CACHE_TTL_SECONDS", "0")
		cfg, err := readLeaderboardConfig()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.CacheTTL != 0 {
			t.Errorf("expected CacheTTL=0, got %v", cfg.CacheTTL)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Setenv("LEADERBOARD_CACHE_TTL_SECONDS", "-1")
		_, err := readLeaderboardConfig()
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}

func TestLoadFromEnv(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 40288 {
		t.Errorf("expected Server.Port=40288, got %d", cfg.Server.Port)
	}
	if cfg.Rating.TuningPath != "" {
		t.Errorf("expected empty TuningPath, got %q", cfg.Rating.TuningPath)
	}
}
