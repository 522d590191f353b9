package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	// Create a temporary config file
	configContent := `
server:
  port: 9090
engine:
  base_url: "https://engine.test/api/v1"
  timeout_seconds: 30
  result_poll_seconds: 2
  video_poll_seconds: 4
upload:
  max_size_mb: 20
minio:
  endpoint: "localhost:9000"
  access_key: "minioadmin"
  secret_key: "minioadmin"
  bucket: "test-bucket"
  use_ssl: false
  expire_days: 14
redis:
  addr: "localhost:6379"
  history_ttl_seconds: 120
auth:
  jwt_secret: "test-secret"
  token_expire_hours: 48
log:
  level: "debug"
  format: "json"
store:
  max_documents: 50
users:
  - username: "testuser"
    password_hash: "$2a$10$abcdefghijklmnopqrstuv"
    tenant: "testtenant"
`
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(configContent); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()

	// Test loading config
	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify values
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Engine.BaseURL != "https://engine.test/api/v1" {
		t.Errorf("Expected engine base URL, got %s", cfg.Engine.BaseURL)
	}
	if cfg.Engine.ResultPollSeconds != 2 {
		t.Errorf("Expected result_poll_seconds 2, got %d", cfg.Engine.ResultPollSeconds)
	}
	if cfg.Upload.MaxSizeMB != 20 {
		t.Errorf("Expected max_size_mb 20, got %d", cfg.Upload.MaxSizeMB)
	}
	if cfg.Minio.Endpoint != "localhost:9000" {
		t.Errorf("Expected endpoint localhost:9000, got %s", cfg.Minio.Endpoint)
	}
	if !cfg.Minio.Enabled() {
		t.Error("Expected minio to be enabled")
	}
	if cfg.Minio.ExpireDays != 14 {
		t.Errorf("Expected expire_days 14, got %d", cfg.Minio.ExpireDays)
	}
	if !cfg.Redis.Enabled() {
		t.Error("Expected redis to be enabled")
	}
	if cfg.Redis.HistoryTTLSeconds != 120 {
		t.Errorf("Expected history_ttl_seconds 120, got %d", cfg.Redis.HistoryTTLSeconds)
	}
	if cfg.Auth.TokenExpireHours != 48 {
		t.Errorf("Expected token_expire_hours 48, got %d", cfg.Auth.TokenExpireHours)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Expected log format json, got %s", cfg.Log.Format)
	}
	if cfg.Store.MaxDocuments != 50 {
		t.Errorf("Expected max_documents 50, got %d", cfg.Store.MaxDocuments)
	}
	if len(cfg.Users) != 1 {
		t.Errorf("Expected 1 user, got %d", len(cfg.Users))
	}
	if cfg.Users[0].Username != "testuser" {
		t.Errorf("Expected username testuser, got %s", cfg.Users[0].Username)
	}
}

func TestLoadDefaults(t *testing.T) {
	// Create minimal config to test defaults
	configContent := `
auth:
  jwt_secret: "secret"
`
	tmpFile, err := os.CreateTemp("", "config-defaults-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(configContent); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify defaults
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Engine.BaseURL != "http://localhost:8000/api/v1" {
		t.Errorf("Expected default engine base URL, got %s", cfg.Engine.BaseURL)
	}
	if cfg.Engine.ResultPollSeconds != 3 {
		t.Errorf("Expected default result_poll_seconds 3, got %d", cfg.Engine.ResultPollSeconds)
	}
	if cfg.Engine.VideoPollSeconds != 5 {
		t.Errorf("Expected default video_poll_seconds 5, got %d", cfg.Engine.VideoPollSeconds)
	}
	if cfg.Upload.MaxSizeMB != 10 {
		t.Errorf("Expected default max_size_mb 10, got %d", cfg.Upload.MaxSizeMB)
	}
	if cfg.Minio.Enabled() {
		t.Error("Expected minio to be disabled without an endpoint")
	}
	if cfg.Redis.Enabled() {
		t.Error("Expected redis to be disabled without an addr")
	}
	if cfg.Auth.TokenExpireHours != 24 {
		t.Errorf("Expected default token_expire_hours 24, got %d", cfg.Auth.TokenExpireHours)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Expected default log format text, got %s", cfg.Log.Format)
	}
	if cfg.Store.MaxDocuments != 100 {
		t.Errorf("Expected default max_documents 100, got %d", cfg.Store.MaxDocuments)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	configContent := `
engine:
  base_url: "https://engine.test/api/v1"
auth:
  jwt_secret: "from-file"
`
	tmpFile, err := os.CreateTemp("", "config-env-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(configContent); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()

	t.Setenv("ENGINE_BASE_URL", "https://override.test/api/v1")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Engine.BaseURL != "https://override.test/api/v1" {
		t.Errorf("Expected env override for engine base URL, got %s", cfg.Engine.BaseURL)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Errorf("Expected env override for jwt_secret, got %s", cfg.Auth.JWTSecret)
	}
}

func TestLoadNonExistent(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "config-invalid-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString("invalid: yaml: content:"); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()

	_, err = Load(tmpFile.Name())
	if err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestFindUser(t *testing.T) {
	cfg := &Config{
		Users: []User{
			{Username: "user1", PasswordHash: "hash1", Tenant: "tenant1"},
			{Username: "user2", PasswordHash: "hash2", Tenant: "tenant2"},
		},
	}

	// Test finding existing user
	user := cfg.FindUser("user1")
	if user == nil {
		t.Fatal("Expected to find user1")
	}
	if user.Tenant != "tenant1" {
		t.Errorf("Expected tenant tenant1, got %s", user.Tenant)
	}

	// Test finding non-existent user
	user = cfg.FindUser("nonexistent")
	if user != nil {
		t.Error("Expected nil for non-existent user")
	}
}
