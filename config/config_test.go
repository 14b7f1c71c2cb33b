package config

import "testing"

func TestDSNFromComponents(t *testing.T) {
	db := DatabaseConfig{
		Host: "db", Port: "5433", User: "app", Password: "pw",
		DBName: "castpoll", SSLMode: "require",
	}
	want := "postgres://app:pw@db:5433/castpoll?sslmode=require"
	if got := db.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestDSNPrefersURL(t *testing.T) {
	db := DatabaseConfig{URL: "postgres://localhost:5432/other", Host: "ignored"}
	if got := db.DSN(); got != "postgres://localhost:5432/other" {
		t.Errorf("DSN() = %q, want the URL as-is", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port == "" {
		t.Error("server port default missing")
	}
	if cfg.Cache.TTLSeconds <= 0 {
		t.Errorf("cache TTL = %d, want a positive default", cfg.Cache.TTLSeconds)
	}
	if cfg.Worker.SweepIntervalSeconds <= 0 {
		t.Errorf("sweep interval = %d, want a positive default", cfg.Worker.SweepIntervalSeconds)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("CACHE_TTL_SEC", "120")
	t.Setenv("SWEEP_INTERVAL_SEC", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "9999" {
		t.Errorf("port = %q, want 9999", cfg.Server.Port)
	}
	if cfg.Cache.TTLSeconds != 120 {
		t.Errorf("cache TTL = %d, want 120", cfg.Cache.TTLSeconds)
	}
	if cfg.Worker.SweepIntervalSeconds != 5 {
		t.Errorf("sweep interval = %d, want 5", cfg.Worker.SweepIntervalSeconds)
	}
}
