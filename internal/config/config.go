package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Ai       AIConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	OtelEnabled        bool
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JwtSecret    string
	CookieName   string
	CookieSecure bool
	SessionTTL   time.Duration
}

type AIConfig struct {
	LLMProvider     string // "ollama" or "huggingface"
	LLMModel        string // e.g. "llama3", "qwen2.5"
	OllamaBaseURL   string
	HuggingFaceKey  string
	MaxContextChars int

	// Circuit breaker around the provider
	BreakerMinRequests      uint32
	BreakerFailureThreshold float64
	BreakerOpenTimeout      time.Duration
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	env := getEnv("GO_ENV", "development")

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        env,
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/feed.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JwtSecret:    getEnv("JWT_SECRET", "default_secret"),
			CookieName:   getEnv("SESSION_COOKIE_NAME", "ws_session"),
			CookieSecure: getEnvAsBool("SESSION_COOKIE_SECURE", env == "production"),
			SessionTTL:   time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		},
		Ai: AIConfig{
			LLMProvider:             getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:                getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL:           getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			HuggingFaceKey:          getEnv("HUGGINGFACE_API_KEY", ""),
			MaxContextChars:         getEnvAsInt("AI_MAX_CONTEXT_CHARS", 4000),
			BreakerMinRequests:      uint32(getEnvAsInt("AI_BREAKER_MIN_REQUESTS", 5)),
			BreakerFailureThreshold: getEnvAsFloat("AI_BREAKER_FAILURE_RATIO", 0.6),
			BreakerOpenTimeout:      time.Duration(getEnvAsInt("AI_BREAKER_TIMEOUT_SECONDS", 30)) * time.Second,
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
