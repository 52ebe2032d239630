package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP:    HTTPConfig{Port: 8080},
		Catalog: CatalogConfig{DSN: "postgres://localhost:5432/shopmatch"},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
		Embedding: EmbeddingConfig{APIKey: "test-key", Dimensions: 1536},
		Index:     IndexConfig{Backend: "redis"},
		Recommend: RecommendConfig{DefaultK: 5, MaxK: 50},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingCatalogDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.DSN = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing catalog dsn")
	}
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing redis addrs")
	}
}

func TestValidate_MemoryBackendNeedsNoAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Index.Backend = "memory"
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error for memory backend: %v", err)
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Index.Backend = "cassandra"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}

	expected := `index.backend must be "redis" or "memory", got "cassandra"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_MissingDimensionsForRedis(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Dimensions = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing dimensions with redis backend")
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.APIKey = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing embedding api key")
	}
}

func TestValidate_KLimitsInverted(t *testing.T) {
	cfg := validConfig()
	cfg.Recommend.DefaultK = 20
	cfg.Recommend.MaxK = 10

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for max_k below default_k")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Index.Backend != "redis" {
		t.Errorf("expected Backend='redis', got %q", cfg.Index.Backend)
	}
	if cfg.Index.KeyPrefix != "shopmatch:products:" {
		t.Errorf("expected KeyPrefix='shopmatch:products:', got %q", cfg.Index.KeyPrefix)
	}
	if cfg.Index.HNSWM != 32 {
		t.Errorf("expected HNSWM=32, got %d", cfg.Index.HNSWM)
	}
	if cfg.Index.HNSWEFConstruct != 400 {
		t.Errorf("expected HNSWEFConstruct=400, got %d", cfg.Index.HNSWEFConstruct)
	}
	if cfg.Recommend.DefaultK != 5 {
		t.Errorf("expected DefaultK=5, got %d", cfg.Recommend.DefaultK)
	}
	if cfg.Recommend.MaxK != 50 {
		t.Errorf("expected MaxK=50, got %d", cfg.Recommend.MaxK)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("expected default embedding model, got %q", cfg.Embedding.Model)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database:  DatabaseConfig{ReadinessTimeout: 15},
		Index:     IndexConfig{Backend: "memory", KeyPrefix: "custom:", HNSWM: 16, HNSWEFConstruct: 200},
		Recommend: RecommendConfig{DefaultK: 10, MaxK: 20},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Index.Backend != "memory" {
		t.Errorf("expected Backend='memory', got %q", cfg.Index.Backend)
	}
	if cfg.Index.HNSWM != 16 {
		t.Errorf("expected HNSWM=16, got %d", cfg.Index.HNSWM)
	}
	if cfg.Index.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Index.KeyPrefix)
	}
	if cfg.Recommend.DefaultK != 10 {
		t.Errorf("expected DefaultK=10, got %d", cfg.Recommend.DefaultK)
	}
}

func TestMustLoad_PanicsOnMissingConfig(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for a missing config file")
		}
	}()
	MustLoad("nosuchenv")
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SHOPMATCH_TEST_KEY", "secret")

	in := []byte("api_key: ${SHOPMATCH_TEST_KEY}\nmodel: ${SHOPMATCH_TEST_MODEL:-fallback-model}")
	out := string(expandEnvVars(in))

	want := "api_key: secret\nmodel: fallback-model"
	if out != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", out, want)
	}
}
