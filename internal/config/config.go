package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/doctorai-app/backend/internal/logger"
)

// Provider names accepted in AI_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	Port    string
	AI      AIConfig
	Mongo   MongoConfig
	Storage StorageConfig
	Logger  LoggerConfig
}

type AIConfig struct {
	Provider     string
	OpenAIAPIKey string
	GeminiAPIKey string
}

type MongoConfig struct {
	URI      string
	Database string
}

// StorageConfig points at an S3-compatible object store. Empty endpoint
// means images are stored inline in the record instead.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func (c StorageConfig) Enabled() bool {
	return c.Endpoint != ""
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string
	Format     string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.LevelDebug
	case "info":
		return logger.LevelInfo
	case "warn", "warning":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

func Load() (*Config, error) {
	openAIKey := os.Getenv("OPENAI_API_KEY")
	if openAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	return &Config{
		Port: getEnvOrDefault("PORT", "8080"),
		AI: AIConfig{
			Provider:     strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderOpenAI)),
			OpenAIAPIKey: openAIKey,
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Mongo: MongoConfig{
			URI:      os.Getenv("MONGODB_URI"),
			Database: getEnvOrDefault("MONGODB_DB", "doctor_ai"),
		},
		Storage: StorageConfig{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Bucket:    getEnvOrDefault("S3_BUCKET", "medical-images"),
			UseSSL:    strings.EqualFold(getEnvOrDefault("S3_USE_SSL", "true"), "true"),
		},
		Logger: LoggerConfig{
			Level:      parseLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "stdout"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}, nil
}
