package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.HTTPAddress != "0.0.0.0:5000" {
		t.Fatalf("unexpected http address: %s", cfg.HTTPAddress)
	}
	if cfg.DatabasePath != "erp.db" {
		t.Fatalf("unexpected database path: %s", cfg.DatabasePath)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
	if cfg.FallbackCapacity != 87 {
		t.Fatalf("unexpected fallback capacity: %v", cfg.FallbackCapacity)
	}
	if cfg.MachineCacheTTL != time.Minute {
		t.Fatalf("unexpected cache ttl: %v", cfg.MachineCacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	configViper := NewViper()
	configViper.Set("http.address", "127.0.0.1:8080")
	configViper.Set("production.fallback_capacity", 120.0)
	configViper.Set("machines.cache_ttl_seconds", 5)

	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddress != "127.0.0.1:8080" {
		t.Fatalf("override not applied: %s", cfg.HTTPAddress)
	}
	if cfg.FallbackCapacity != 120 {
		t.Fatalf("override not applied: %v", cfg.FallbackCapacity)
	}
	if cfg.MachineCacheTTL != 5*time.Second {
		t.Fatalf("override not applied: %v", cfg.MachineCacheTTL)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value any
	}{
		{name: "empty database path", key: "database.path", value: "  "},
		{name: "zero fallback capacity", key: "production.fallback_capacity", value: 0.0},
		{name: "negative cache ttl", key: "machines.cache_ttl_seconds", value: -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			configViper := NewViper()
			configViper.Set(tc.key, tc.value)
			if _, err := Load(configViper); err == nil {
				t.Fatalf("expected validation error for %s", tc.key)
			}
		})
	}
}
