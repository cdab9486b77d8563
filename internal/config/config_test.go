package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// empty values fall through to the defaults
	for _, key := range []string{
		"HOST", "PORT", "STORE_BACKEND", "REDIS_ADDR", "REDIS_DB",
		"CASSANDRA_KEYSPACE", "SESSION_TTL_SECONDS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.StoreBackend != "memory" {
		t.Errorf("expected default backend memory, got %q", cfg.StoreBackend)
	}
	if cfg.Address() != "0.0.0.0:8080" {
		t.Errorf("expected default address 0.0.0.0:8080, got %q", cfg.Address())
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("expected default TTL 24h, got %s", cfg.SessionTTL)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("unexpected default Redis addr %q", cfg.Redis.Addr)
	}
	if cfg.Cassandra.Keyspace != "cooksync" {
		t.Errorf("unexpected default keyspace %q", cfg.Cassandra.Keyspace)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad redis db", key: "REDIS_DB", value: "not-a-number"},
		{name: "bad session ttl", key: "SESSION_TTL_SECONDS", value: "soon"},
		{name: "bad cassandra timeout", key: "CASSANDRA_TIMEOUT_SECONDS", value: "5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Error("expected error for invalid value")
			}
		})
	}
}
