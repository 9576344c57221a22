package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	godotenv "github.com/joho/godotenv"
)

const (
	DefaultPort           = 5000
	DefaultRcloneBinary   = "rclone"
	DefaultFetchTimeout   = 30 * time.Second
	DefaultStatusExchange = "copyurl"
	DefaultRoutingKey     = "status"
)

type Config struct {
	// RcloneConfigURL may be empty; the copy handler rejects requests until it is set.
	RcloneConfigURL    string
	Port               int
	RcloneBinary       string
	RcloneConfigDir    string
	ConfigFetchTimeout time.Duration
	JobRetention       time.Duration

	RabbitMqURL        string
	RabbitMqExchange   string
	RabbitMqRoutingKey string

	AwsS3Endpoint string

	LogLevel  string
	LogFormat string
}

func NewConfig(configURL string, port int) *Config {
	return &Config{
		RcloneConfigURL:    configURL,
		Port:               port,
		RcloneBinary:       DefaultRcloneBinary,
		RcloneConfigDir:    filepath.Join(os.TempDir(), "copyurl"),
		ConfigFetchTimeout: DefaultFetchTimeout,
		RabbitMqExchange:   DefaultStatusExchange,
		RabbitMqRoutingKey: DefaultRoutingKey,
		LogLevel:           "info",
		LogFormat:          "json",
	}
}

// InitializeEnvs loads envFile when given, otherwise the APP_ENV specific
// dotenv file, and then reads the process environment. Missing dotenv files
// are not an error.
func InitializeEnvs(envFile string) (*Config, error) {
	if err := loadDotenv(envFile); err != nil {
		return nil, err
	}

	cfg := NewConfig(os.Getenv("RCLONE_CONFIG_URL"), getEnvAsInt("PORT", DefaultPort))
	cfg.RcloneBinary = getEnv("RCLONE_BINARY", cfg.RcloneBinary)
	cfg.RcloneConfigDir = getEnv("RCLONE_CONFIG_DIR", cfg.RcloneConfigDir)
	cfg.ConfigFetchTimeout = getEnvAsDuration("CONFIG_FETCH_TIMEOUT", cfg.ConfigFetchTimeout)
	cfg.JobRetention = getEnvAsDuration("JOB_RETENTION", 0)
	cfg.RabbitMqURL = os.Getenv("RABBITMQ_URL")
	cfg.RabbitMqExchange = getEnv("RABBITMQ_EXCHANGE", cfg.RabbitMqExchange)
	cfg.RabbitMqRoutingKey = getEnv("RABBITMQ_ROUTING_KEY", cfg.RabbitMqRoutingKey)
	cfg.AwsS3Endpoint = os.Getenv("AWS_S3_ENDPOINT")
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.RcloneBinary == "" {
		return nil, fmt.Errorf("RCLONE_BINARY must not be empty")
	}
	return cfg, nil
}

func loadDotenv(envFile string) error {
	if envFile != "" {
		return loadOptional(envFile)
	}

	switch appEnv := os.Getenv("APP_ENV"); appEnv {
	case "docker":
		return loadOptional(".env.docker")
	case "dev", "":
		if ok, err := tryLoad(".env.dev"); ok || err != nil {
			return err
		}
		return loadOptional(".env")
	default:
		if ok, err := tryLoad(".env." + appEnv); ok || err != nil {
			return err
		}
		return loadOptional(".env")
	}
}

func loadOptional(path string) error {
	_, err := tryLoad(path)
	return err
}

// tryLoad reports whether path existed and was loaded.
func tryLoad(path string) (bool, error) {
	err := godotenv.Load(path)
	if err == nil {
		slog.Debug("loaded env file", "path", path)
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to load %s: %w", path, err)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		slog.Warn("ignoring invalid integer env var", "key", key, "value", valueStr)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil || value < 0 {
		slog.Warn("ignoring invalid duration env var", "key", key, "value", valueStr)
		return defaultValue
	}
	return value
}
