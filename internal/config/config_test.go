package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBBackend != DatabaseSQLite {
		t.Fatalf("unexpected default db backend: %q", cfg.DBBackend)
	}
	if cfg.RotationInterval != 30*time.Minute {
		t.Fatalf("unexpected default rotation interval: %v", cfg.RotationInterval)
	}
	if cfg.BusBackendName != BusMemory {
		t.Fatalf("unexpected default bus backend: %q", cfg.BusBackendName)
	}
}

func TestLoadReadsCriticalEnvKeys(t *testing.T) {
	t.Setenv("SQUONK_DB_BACKEND", "postgres")
	t.Setenv("SQUONK_DB_DSN", "host=localhost user=test dbname=test sslmode=disable")
	t.Setenv("SQUONK_MEDIA_ROOT", "/srv/tracks")
	t.Setenv("SQUONK_ROTATION_INTERVAL_MINUTES", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBBackend != DatabasePostgres {
		t.Fatalf("unexpected db backend: %q", cfg.DBBackend)
	}
	if cfg.MediaRoot != "/srv/tracks" {
		t.Fatalf("unexpected media root: %q", cfg.MediaRoot)
	}
	if cfg.RotationInterval != 5*time.Minute {
		t.Fatalf("unexpected rotation interval: %v", cfg.RotationInterval)
	}
}

func TestLoadRejectsUnknownBackends(t *testing.T) {
	t.Setenv("SQUONK_DB_BACKEND", "mongodb")
	if _, err := Load(); err == nil {
		t.Fatal("expected load to fail for unknown database backend")
	}

	t.Setenv("SQUONK_DB_BACKEND", "sqlite")
	t.Setenv("SQUONK_BUS_BACKEND", "kafka")
	if _, err := Load(); err == nil {
		t.Fatal("expected load to fail for unknown bus backend")
	}
}

func TestLoadRejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("SQUONK_ROTATION_INTERVAL_MINUTES", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected load to fail for zero rotation interval")
	}
}
