package config

import (
	"os"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	// t.Setenv registers the restore; the unset makes LookupEnv miss so the
	// defaults kick in.
	for _, key := range []string{
		"SERVER_PORT", "DB_HOST", "DB_PORT", "JWT_SECRET",
		"ACCESS_TOKEN_EXPIRE_MINUTES", "AUDIT_LOG_DIR",
		"STORAGE_BACKEND", "UPLOAD_DIR", "AUDIT_PUBLISHER",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := LoadConfig()

	if cfg.ServerPort != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.ServerPort)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Errorf("unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.Auth.TokenExpireMinutes != 30 {
		t.Errorf("expected 30 minute token lifetime, got %d", cfg.Auth.TokenExpireMinutes)
	}
	if cfg.Storage.Backend != "local" {
		t.Errorf("expected local storage default, got %q", cfg.Storage.Backend)
	}
	if cfg.AuditPublisher != "" {
		t.Errorf("expected audit publisher disabled by default, got %q", cfg.AuditPublisher)
	}
	if cfg.AuditLogDir != "../audit-logs" {
		t.Errorf("unexpected audit log dir default: %q", cfg.AuditLogDir)
	}
}

func TestLoadConfigReadsEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9001")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "120")
	t.Setenv("STORAGE_BACKEND", "minio")
	t.Setenv("AUDIT_PUBLISHER", "rabbitmq")

	cfg := LoadConfig()

	if cfg.ServerPort != 9001 {
		t.Errorf("expected port 9001, got %d", cfg.ServerPort)
	}
	if !cfg.Database.UseSSL {
		t.Errorf("expected SSL enabled")
	}
	if cfg.Auth.TokenExpireMinutes != 120 {
		t.Errorf("expected 120 minute token lifetime, got %d", cfg.Auth.TokenExpireMinutes)
	}
	if cfg.Storage.Backend != "minio" {
		t.Errorf("expected minio backend, got %q", cfg.Storage.Backend)
	}
	if cfg.AuditPublisher != "rabbitmq" {
		t.Errorf("expected rabbitmq publisher, got %q", cfg.AuditPublisher)
	}
}

func TestGetEnvIntMalformedFallsBackToDefault(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "abc")

	cfg := LoadConfig()
	if cfg.Auth.TokenExpireMinutes != 30 {
		t.Fatalf("malformed value should fall back to 30, got %d", cfg.Auth.TokenExpireMinutes)
	}

	t.Setenv("COUNT", "not-a-number")
	if got := getEnvInt("COUNT", 7); got != 7 {
		t.Fatalf("expected default 7, got %d", got)
	}
	t.Setenv("COUNT", "12")
	if got := getEnvInt("COUNT", 7); got != 12 {
		t.Fatalf("expected parsed 12, got %d", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("FLAG_TRUE", "true")
	t.Setenv("FLAG_ONE", "1")
	t.Setenv("FLAG_FALSE", "false")

	if !getEnvBool("FLAG_TRUE", false) || !getEnvBool("FLAG_ONE", false) {
		t.Errorf("true values not recognized")
	}
	if getEnvBool("FLAG_FALSE", true) {
		t.Errorf("false value not recognized")
	}
	if !getEnvBool("FLAG_UNSET", true) {
		t.Errorf("default not honored for unset variable")
	}
}
