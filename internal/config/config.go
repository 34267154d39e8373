package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all service configuration. Values come from defaults, then
// an optional YAML file named by CONFIG_FILE, then environment variables.
type Config struct {
	Port        string   `yaml:"port"`
	DatabaseURL string   `yaml:"database_url"`
	CORSOrigins []string `yaml:"cors_origins"`

	MongoURI string `yaml:"mongo_uri"`
	MongoDB  string `yaml:"mongo_db"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`

	MinioEndpoint  string `yaml:"minio_endpoint"`
	MinioAccessKey string `yaml:"minio_access_key"`
	MinioSecretKey string `yaml:"minio_secret_key"`
	MinioBucket    string `yaml:"minio_bucket"`
	MinioUseSSL    bool   `yaml:"minio_use_ssl"`

	AI AIConfig `yaml:"ai"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// AIConfig configures the summary generator.
type AIConfig struct {
	Provider string        `yaml:"provider"` // openai, gemini
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

const (
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultGeminiModel   = "gemini-2.0-flash"
)

// Defaults returns the development configuration.
func Defaults() *Config {
	return &Config{
		Port:        "5000",
		CORSOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		MongoURI:    "mongodb://localhost:27017",
		MongoDB:     "travel_journal",
		RedisAddr:   "localhost:6379",

		MinioEndpoint: "localhost:9000",
		MinioBucket:   "journal-covers",

		AI: AIConfig{
			Provider: "openai",
			Model:    defaultOpenAIModel,
			BaseURL:  defaultOpenAIBaseURL,
			Timeout:  30 * time.Second,
		},

		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load builds the configuration. A missing .env or CONFIG_FILE is not an
// error; a malformed one is.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = postgresURLFromParts()
	}
	if cfg.AI.Provider == "gemini" {
		if cfg.AI.Model == defaultOpenAIModel {
			cfg.AI.Model = defaultGeminiModel
		}
		if cfg.AI.BaseURL == defaultOpenAIBaseURL {
			cfg.AI.BaseURL = ""
		}
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Port = getenv("PORT", c.Port)
	c.DatabaseURL = getenv("DATABASE_URL", c.DatabaseURL)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}

	c.MongoURI = getenv("MONGO_URI", c.MongoURI)
	c.MongoDB = getenv("MONGO_DB", c.MongoDB)
	c.RedisAddr = getenv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getenv("REDIS_PASSWORD", c.RedisPassword)

	// An explicitly empty MINIO_ENDPOINT disables cover storage.
	if v, ok := os.LookupEnv("MINIO_ENDPOINT"); ok {
		c.MinioEndpoint = strings.TrimSpace(v)
	}
	c.MinioAccessKey = getenv("MINIO_ACCESS_KEY", c.MinioAccessKey)
	c.MinioSecretKey = getenv("MINIO_SECRET_KEY", c.MinioSecretKey)
	c.MinioBucket = getenv("MINIO_BUCKET", c.MinioBucket)
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		c.MinioUseSSL = parseBool(v)
	}

	c.AI.Provider = strings.ToLower(getenv("AI_PROVIDER", c.AI.Provider))
	c.AI.APIKey = getenv("AI_API_KEY", getenv("OPENAI_API_KEY", c.AI.APIKey))
	c.AI.Model = getenv("AI_MODEL", c.AI.Model)
	c.AI.BaseURL = getenv("AI_BASE_URL", c.AI.BaseURL)
	if v := os.Getenv("AI_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("AI_TIMEOUT: %w", err)
		}
		c.AI.Timeout = d
	}

	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getenv("LOG_FORMAT", c.LogFormat)
	return nil
}

// postgresURLFromParts assembles a DSN from the libpq-style PG* variables.
// SSL is required when PGSSL is truthy or in production.
func postgresURLFromParts() string {
	port, err := strconv.Atoi(getenv("PGPORT", "5432"))
	if err != nil {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(getenv("PGUSER", "postgres"), getenv("PGPASSWORD", "postgres")),
		Host:   fmt.Sprintf("%s:%d", getenv("PGHOST", "127.0.0.1"), port),
		Path:   "/" + getenv("PGDATABASE", "travel_journal"),
	}
	sslmode := "disable"
	if parseBool(os.Getenv("PGSSL")) || os.Getenv("APP_ENV") == "production" {
		sslmode = "require"
	}
	u.RawQuery = "sslmode=" + sslmode
	return u.String()
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
