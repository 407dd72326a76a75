package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kasupel/server/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "ARCHIVE_DATABASE_URL", "TIMER_CHECK_INTERVAL", "LOCK_TTL", "DEFAULT_TIME_CONTROL", "RATE_LIMIT_PER_MINUTE", "CORS_ORIGINS"} {
		t.Setenv(k, "")
	}
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.TimerCheckInterval != time.Minute || cfg.LockTTL != 10*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("expected CORS to default to *, got %v", cfg.CORSOrigins)
	}
	if cfg.DefaultTimeControl != "rapid" {
		t.Fatalf("expected rapid, got %q", cfg.DefaultTimeControl)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://games")
	t.Setenv("ARCHIVE_DATABASE_URL", "")
	t.Setenv("TIMER_CHECK_INTERVAL", "0")
	t.Setenv("LOCK_TTL", "3s")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "120")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ArchiveDatabaseURL != "postgres://games" {
		t.Fatalf("expected archive to default to DATABASE_URL, got %q", cfg.ArchiveDatabaseURL)
	}
	if cfg.TimerCheckInterval != 0 || cfg.LockTTL != 3*time.Second {
		t.Fatalf("unexpected durations %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected CORS origins %v", cfg.CORSOrigins)
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Fatalf("expected rate limit 120, got %d", cfg.RateLimitPerMinute)
	}

	t.Setenv("RATE_LIMIT_PER_MINUTE", "-1")
	if _, err := config.Load(); err == nil {
		t.Fatal("expected a negative rate limit to fail")
	}
	t.Setenv("RATE_LIMIT_PER_MINUTE", "")

	t.Setenv("TIMER_CHECK_INTERVAL", "soon")
	if _, err := config.Load(); err == nil {
		t.Fatal("expected a bad duration to fail")
	}
}

func TestEmbeddedTimeControls(t *testing.T) {
	tc, err := config.LoadTimeControls("")
	if err != nil {
		t.Fatalf("LoadTimeControls: %v", err)
	}
	c, err := tc.Lookup("Rapid")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if c.Main != 10*time.Minute || c.Increment != 5*time.Second {
		t.Fatalf("unexpected rapid control %+v", c)
	}
	if _, err := tc.Lookup("hyperbullet"); !errors.Is(err, config.ErrUnknownTimeControl) {
		t.Fatalf("expected ErrUnknownTimeControl, got %v", err)
	}
}

func TestTimeControlsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tc.yaml")
	body := "time_controls:\n  - name: rapid\n    main: 15m\n    increment: 10s\n  - name: armageddon\n    main: 4m\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	tc, err := config.LoadTimeControls(path)
	if err != nil {
		t.Fatalf("LoadTimeControls: %v", err)
	}
	c, err := tc.Lookup("rapid")
	if err != nil || c.Main != 15*time.Minute || c.Increment != 10*time.Second {
		t.Fatalf("expected overridden rapid, got %+v (%v)", c, err)
	}
	all := tc.All()
	if all[len(all)-1].Name != "armageddon" {
		t.Fatalf("expected new preset appended, got %+v", all)
	}
}

func TestTimeControlsRejectInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tc.yaml")
	if err := os.WriteFile(path, []byte("time_controls:\n  - name: broken\n    main: -1m\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := config.LoadTimeControls(path); err == nil {
		t.Fatal("expected a negative main time to fail")
	}
}
