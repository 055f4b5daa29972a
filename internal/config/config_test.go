package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORTFOLIO_SECURITY_JWTACCESSSECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.Storage.Bucket != "media" {
		t.Errorf("expected bucket media, got %q", cfg.Storage.Bucket)
	}
	if cfg.Reconcile.Enabled {
		t.Error("reconcile must be disabled by default")
	}
	if cfg.Reconcile.GracePeriod != 72*time.Hour {
		t.Errorf("unexpected grace period %v", cfg.Reconcile.GracePeriod)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORTFOLIO_SECURITY_JWTACCESSSECRET", "test-secret")
	t.Setenv("PORTFOLIO_HTTP_PORT", "9191")
	t.Setenv("PORTFOLIO_STORAGE_DRIVER", "s3")
	t.Setenv("PORTFOLIO_SECURITY_JWTACCESSTTL", "5m")
	t.Setenv("PORTFOLIO_ALLOWCORSORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 9191 {
		t.Errorf("expected port override, got %d", cfg.HTTP.Port)
	}
	if cfg.Storage.Driver != "s3" {
		t.Errorf("expected s3 driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Security.JWTAccessTTL != 5*time.Minute {
		t.Errorf("expected 5m ttl, got %v", cfg.Security.JWTAccessTTL)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.AllowCORSOrigins, want) {
		t.Errorf("expected origins %v, got %v", want, cfg.AllowCORSOrigins)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("PORTFOLIO_SECURITY_JWTACCESSSECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without jwt secret")
	}
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := AppConfig{
		Security: SecurityConfig{JWTAccessSecret: "x"},
		Storage:  StorageConfig{Driver: "ftp"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unknown driver to fail")
	}
}

func TestValidateRecordsDriver(t *testing.T) {
	cfg := AppConfig{
		Security: SecurityConfig{JWTAccessSecret: "x"},
		Storage:  StorageConfig{Driver: "minio"},
		Records:  RecordsConfig{Driver: "mongo"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected mongo driver without uri to fail")
	}
	cfg.Mongo.URI = "mongodb://127.0.0.1:27017"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Records.Driver = "sqlite"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unknown records driver to fail")
	}
}

func TestLoadRecordsDefaults(t *testing.T) {
	t.Setenv("PORTFOLIO_SECURITY_JWTACCESSSECRET", "test-secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Records.Driver != "postgres" || cfg.Mongo.Database != "portfolio" || cfg.Mongo.Timeout != 10*time.Second {
		t.Errorf("unexpected records defaults %+v %+v", cfg.Records, cfg.Mongo)
	}
}
