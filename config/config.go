package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Engine EngineConfig `yaml:"engine"`
	Upload UploadConfig `yaml:"upload"`
	Minio  MinioConfig  `yaml:"minio"`
	Redis  RedisConfig  `yaml:"redis"`
	Store  StoreConfig  `yaml:"store"`
	Auth   AuthConfig   `yaml:"auth"`
	Log    LogConfig    `yaml:"log"`
	Users  []User       `yaml:"users"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

// EngineConfig points at the remote analysis engine. All OCR, risk
// classification, negotiation and chat happen there; this service only
// synchronizes and normalizes its output.
type EngineConfig struct {
	BaseURL              string `yaml:"base_url"`
	TimeoutSeconds       int    `yaml:"timeout_seconds"`
	ResultPollSeconds    int    `yaml:"result_poll_seconds"`
	VideoPollSeconds     int    `yaml:"video_poll_seconds"`
	ResultPollMaxRetries int    `yaml:"result_poll_max_retries"`
	VideoPollMaxRetries  int    `yaml:"video_poll_max_retries"`
}

type UploadConfig struct {
	MaxSizeMB int `yaml:"max_size_mb"`
}

type MinioConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

// Enabled reports whether a document archive was configured. The archive is
// optional; without it uploads and redline exports are simply not retained.
func (c *MinioConfig) Enabled() bool {
	return c.Endpoint != ""
}

type RedisConfig struct {
	Addr              string `yaml:"addr"`
	Password          string `yaml:"password"`
	DB                int    `yaml:"db"`
	HistoryTTLSeconds int    `yaml:"history_ttl_seconds"`
}

// Enabled reports whether the chat history cache was configured.
func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type StoreConfig struct {
	MaxDocuments int `yaml:"max_documents"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type User struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"` // bcrypt
	Tenant       string `yaml:"tenant"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Env overrides for secrets
	if v := os.Getenv("ENGINE_BASE_URL"); v != "" {
		cfg.Engine.BaseURL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.Minio.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.Minio.SecretKey = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Engine.BaseURL == "" {
		c.Engine.BaseURL = "http://localhost:8000/api/v1"
	}
	if c.Engine.TimeoutSeconds == 0 {
		c.Engine.TimeoutSeconds = 60
	}
	if c.Engine.ResultPollSeconds == 0 {
		c.Engine.ResultPollSeconds = 3
	}
	if c.Engine.VideoPollSeconds == 0 {
		c.Engine.VideoPollSeconds = 5
	}
	if c.Engine.ResultPollMaxRetries == 0 {
		c.Engine.ResultPollMaxRetries = 100
	}
	if c.Engine.VideoPollMaxRetries == 0 {
		c.Engine.VideoPollMaxRetries = 120
	}
	if c.Upload.MaxSizeMB == 0 {
		c.Upload.MaxSizeMB = 10
	}
	if c.Minio.ExpireDays == 0 {
		c.Minio.ExpireDays = 7
	}
	if c.Redis.HistoryTTLSeconds == 0 {
		c.Redis.HistoryTTLSeconds = 60
	}
	if c.Store.MaxDocuments == 0 {
		c.Store.MaxDocuments = 100
	}
	if c.Auth.TokenExpireHours == 0 {
		c.Auth.TokenExpireHours = 24
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
