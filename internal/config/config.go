package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Server ServerConfig
	Model  ModelConfig
	DB     DBConfig
	Auth   AuthConfig
	Log    LogConfig
}

type ServerConfig struct {
	Port            string        `validate:"required,numeric"`
	ReadTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	IdleTimeout     time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	MaxUploadBytes  int64         `validate:"gt=0"`
}

// ModelConfig describes the remote chat-completion service. APIKey may be
// empty at boot; the analysis endpoint reports it as a configuration error.
type ModelConfig struct {
	APIKey      string
	BaseURL     string        `validate:"required,url"`
	Model       string        `validate:"required"`
	TestModel   string        `validate:"required"`
	Timeout     time.Duration `validate:"gt=0"`
	MaxTokens   int           `validate:"gt=0,lte=4096"`
	Temperature float64       `validate:"gte=0,lte=2"`
}

// DBConfig is optional. An empty DSN disables analysis history.
type DBConfig struct {
	DSN string
}

type AuthConfig struct {
	JWTSecret string
}

type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

func (c DBConfig) Enabled() bool {
	return c.DSN != ""
}

func (c AuthConfig) Enabled() bool {
	return c.JWTSecret != ""
}

func LoadConfig() (*Config, error) {
	maxUpload, err := getInt64("MAX_UPLOAD_BYTES", 10<<20)
	if err != nil {
		return nil, err
	}
	maxTokens, err := getInt("MODEL_MAX_TOKENS", 500)
	if err != nil {
		return nil, err
	}
	temperature, err := getFloat("MODEL_TEMPERATURE", 0.1)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:     getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			MaxUploadBytes:  maxUpload,
		},
		Model: ModelConfig{
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o"),
			TestModel:   getEnv("OPENAI_TEST_MODEL", "gpt-3.5-turbo"),
			Timeout:     getDuration("MODEL_TIMEOUT", 30*time.Second),
			MaxTokens:   maxTokens,
			Temperature: temperature,
		},
		DB: DBConfig{
			DSN: os.Getenv("HISTORY_DSN"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, cfg.Validate()
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	// the model call must finish before the server gives up on the response
	if c.Model.Timeout >= c.Server.WriteTimeout {
		return fmt.Errorf("invalid configuration: MODEL_TIMEOUT (%v) must be below HTTP_WRITE_TIMEOUT (%v)",
			c.Model.Timeout, c.Server.WriteTimeout)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}

func getInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return f, nil
}
