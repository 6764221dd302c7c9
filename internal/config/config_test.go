package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "STORE_DRIVER", "REDIS_ADDR", "KAFKA_BROKERS", "CACHE_TTL", "TOKEN_TTL", "SEED_CATALOG", "JWT_SECRET"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.StoreDriver != DriverMemory {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.RedisAddr != "" || len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("cache and events should be off by default")
	}
	if cfg.TokenTTL != 24*time.Hour || !cfg.SeedCatalog {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("SEED_CATALOG", "false")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreDriver != DriverPostgres || cfg.CacheTTL != 30*time.Second || cfg.SeedCatalog {
		t.Fatalf("overrides not applied %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("brokers %v", cfg.KafkaBrokers)
	}
	if cfg.JWTSecret != "s3cret" || cfg.JWTSecretGenerated {
		t.Fatalf("jwt secret %q generated=%v", cfg.JWTSecret, cfg.JWTSecretGenerated)
	}
}

func TestLoad_JWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_DRIVER", "postgres")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for postgres without JWT_SECRET")
	}

	t.Setenv("STORE_DRIVER", "memory")
	a, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !a.JWTSecretGenerated || len(a.JWTSecret) != 64 {
		t.Fatalf("expected generated secret, got %q generated=%v", a.JWTSecret, a.JWTSecretGenerated)
	}
	if a.JWTSecret == b.JWTSecret {
		t.Fatalf("generated secrets must differ between loads")
	}
	if a.JWTSecret == "dev-secret-change-me" {
		t.Fatalf("fell back to a fixed secret")
	}
}

func TestLoad_Malformed(t *testing.T) {
	t.Setenv("TOKEN_TTL", "forever")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for bad duration")
	}
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("STORE_DRIVER", "mongo")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
