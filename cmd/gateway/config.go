package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig holds all configuration for the gateway, loaded from the
// environment (connection strings, credentials) and config.yaml (server
// metadata and tunables).
type AppConfig struct {
	Port           string
	DatabaseURL    string
	RedisAddr      string
	PromptStoreURL string
	RegistryURL    string

	LLMProvider     string // "bedrock" or "gemini"
	BedrockRegion   string
	BedrockModelID  string
	AWSAccessKeyID  string
	AWSSecretKey    string
	AWSSessionToken string
	GeminiAPIKey    string
	GeminiModelID   string

	Server ServerConfig
	LLM    LLMConfig
	Fanout FanoutConfig
}

// ServerConfig is the MCP identity reported by initialize and /health.
type ServerConfig struct {
	Name            string `yaml:"name"`
	Version         string `yaml:"version"`
	ProtocolVersion string `yaml:"protocol_version"`
}

// LLMConfig carries the generation tunables. TimeoutSeconds 0 disables the
// per-call deadline (the transport default still applies).
type LLMConfig struct {
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// FanoutConfig bounds the per-item analysis loop of the cash-inflow tool.
type FanoutConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type yamlConfig struct {
	Server ServerConfig `yaml:"server"`
	LLM    LLMConfig    `yaml:"llm"`
	Fanout FanoutConfig `yaml:"fanout"`
}

// LoadConfig loads configuration from a .env file (local development only),
// environment variables, and config.yaml.
func LoadConfig() (*AppConfig, error) {
	// In containers (GIN_MODE=release) configuration arrives as plain
	// environment variables; the .env file is a local convenience.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("WARNING: No .env file found for local development.")
		}
	}

	cfg := &AppConfig{
		Port:            getEnv("PORT", "8004"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		PromptStoreURL:  os.Getenv("PROMPT_STORE_URL"),
		RegistryURL:     os.Getenv("REGISTRY_URL"),
		LLMProvider:     getEnv("LLM_PROVIDER", "bedrock"),
		BedrockRegion:   getEnv("AWS_REGION", "us-east-1"),
		BedrockModelID:  os.Getenv("BEDROCK_MODEL_ID"),
		AWSAccessKeyID:  os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AWSSessionToken: os.Getenv("AWS_SESSION_TOKEN"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModelID:   getEnv("GEMINI_MODEL_ID", "gemini-1.5-pro"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	configFile, err := os.ReadFile("config.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(configFile, &yc); err != nil {
		return nil, fmt.Errorf("failed to parse config.yaml: %w", err)
	}
	cfg.Server = yc.Server
	cfg.LLM = yc.LLM
	cfg.Fanout = yc.Fanout

	// Environment overrides for the tunables, mainly for operations.
	if v, err := strconv.Atoi(os.Getenv("LLM_TIMEOUT_SECONDS")); err == nil {
		cfg.LLM.TimeoutSeconds = v
	}
	if v, err := strconv.Atoi(os.Getenv("FANOUT_CONCURRENCY")); err == nil {
		cfg.Fanout.Concurrency = v
	}

	if cfg.Server.Name == "" {
		cfg.Server.Name = "CRM-MCP"
	}
	if cfg.Fanout.Concurrency < 1 {
		cfg.Fanout.Concurrency = 1
	}
	return cfg, nil
}

// LLMTimeout returns the per-call deadline, zero when disabled.
func (c *AppConfig) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
