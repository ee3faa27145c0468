package config

import (
	"os"
	"strconv"
	"time"

	"github.com/vchirila/billchat/internal/common"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Extract  ExtractConfig
	Assemble AssembleConfig
	Chat     ChatConfig
	LLM      LLMConfig
	Ingest   IngestConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr string
	Mode string // "debug" | "release"
}

// StoreConfig holds bill store and customer directory paths
type StoreConfig struct {
	DataDir       string
	DirectoryPath string
}

// ExtractConfig holds extraction configuration
type ExtractConfig struct {
	Pdftotext string // binary name or absolute path
	RulesPath string // optional JSON rule table; empty = built-in rules
}

// AssembleConfig holds context assembly configuration
type AssembleConfig struct {
	MaxContextChars int
	OversizePolicy  string // "reject" | "truncate"
}

// ChatConfig holds conversation configuration
type ChatConfig struct {
	MaxQuestions int // per session; 0 = unlimited
}

// LLMConfig holds completion backend configuration
type LLMConfig struct {
	Provider    string // "openai" | "local"
	Model       string
	APIKey      string
	BaseURL     string // local provider endpoint
	Temperature float32
	Timeout     time.Duration
	MaxRetries  int
	RPS         float64
	Burst       int
}

// IngestConfig holds the optional drop-directory watcher configuration
type IngestConfig struct {
	WatchDir    string // empty = watcher disabled
	Debounce    time.Duration
	InitialScan bool
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: getEnv("HTTP_ADDR", ":8080"),
			Mode: getEnv("GIN_MODE", "release"),
		},
		Store: StoreConfig{
			DataDir:       getEnv("DATA_DIR", "./data/user_data"),
			DirectoryPath: getEnv("CUSTOMER_DIRECTORY", "./data/customers.json"),
		},
		Extract: ExtractConfig{
			Pdftotext: getEnv("PDFTOTEXT_BIN", "pdftotext"),
			RulesPath: getEnv("EXTRACT_RULES", ""),
		},
		Assemble: AssembleConfig{
			MaxContextChars: getEnvAsInt("MAX_CONTEXT_CHARS", 5550),
			OversizePolicy:  getEnv("OVERSIZE_POLICY", "reject"),
		},
		Chat: ChatConfig{
			MaxQuestions: getEnvAsInt("MAX_QUESTIONS", 0),
		},
		LLM: LLMConfig{
			Provider:    getEnv("LLM_PROVIDER", "openai"),
			Model:       getEnv("LLM_MODEL", ""),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("LLM_BASE_URL", "http://127.0.0.1:11434"),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
			MaxRetries:  getEnvAsInt("LLM_MAX_RETRIES", 3),
			RPS:         getEnvAsFloat64("LLM_RPS", 3),
			Burst:       getEnvAsInt("LLM_BURST", 5),
		},
		Ingest: IngestConfig{
			WatchDir:    getEnv("INGEST_WATCH_DIR", ""),
			Debounce:    getEnvAsDuration("INGEST_DEBOUNCE", 500*time.Millisecond),
			InitialScan: getEnvAsBool("INGEST_INITIAL_SCAN", false),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Store.DataDir == "" {
		return common.NewAppError("CONFIG_ERROR", "DATA_DIR is required", common.ErrInvalidInput)
	}
	switch c.Assemble.OversizePolicy {
	case "reject", "truncate":
	default:
		return common.NewAppError("CONFIG_ERROR", "OVERSIZE_POLICY must be reject or truncate", common.ErrInvalidInput)
	}
	if c.Assemble.MaxContextChars <= 0 {
		return common.NewAppError("CONFIG_ERROR", "MAX_CONTEXT_CHARS must be positive", common.ErrInvalidInput)
	}
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.APIKey == "" {
			return common.NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required for the openai provider", common.ErrInvalidInput)
		}
	case "local":
		if c.LLM.BaseURL == "" {
			return common.NewAppError("CONFIG_ERROR", "LLM_BASE_URL is required for the local provider", common.ErrInvalidInput)
		}
	default:
		return common.NewAppError("CONFIG_ERROR", "LLM_PROVIDER must be openai or local", common.ErrInvalidInput)
	}
	return nil
}
