package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.App.IsDev() {
		t.Fatalf("expected dev env by default, got %q", cfg.App.Env)
	}
	if cfg.Store.NormalizedDriver() != StoreDriverMemory {
		t.Fatalf("expected memory store default, got %q", cfg.Store.Driver)
	}
	if cfg.Store.Namespace != "teahouse" {
		t.Fatalf("unexpected namespace %q", cfg.Store.Namespace)
	}
}

func TestLoadRejectsUnknownStoreDriver(t *testing.T) {
	t.Setenv("TEAHOUSE_STORE_DRIVER", "mongodb")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown store driver")
	}
}

func TestStoreDriverIsCaseInsensitive(t *testing.T) {
	t.Setenv("TEAHOUSE_STORE_DRIVER", " SQL ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.NormalizedDriver() != StoreDriverSQL {
		t.Fatalf("expected sql driver, got %q", cfg.Store.NormalizedDriver())
	}
}

func TestDBDriverHelpers(t *testing.T) {
	t.Parallel()

	if (DBConfig{Driver: "Postgres"}).IsPostgres() != true {
		t.Fatal("postgres driver should be detected case-insensitively")
	}
	if (DBConfig{Driver: "sqlite"}).IsPostgres() {
		t.Fatal("sqlite driver misdetected as postgres")
	}
}

func TestRedisConfigured(t *testing.T) {
	t.Parallel()

	if (RedisConfig{}).Configured() {
		t.Fatal("empty redis config should not report configured")
	}
	if !(RedisConfig{Address: "localhost:6379"}).Configured() {
		t.Fatal("address should mark redis configured")
	}
}
