package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string
	LogMode  string

	// Conversation store
	DBPath string

	// Auth
	JWTSecret    string
	AuthRequired bool

	// Live-session backend
	SessionBackend string // "memory" or "redis"
	SessionTTLSecs int
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	// Adapter strategy
	AdapterType    string
	PrimaryModel   string
	FallbackModels []string
	MaxTokens      int

	// Providers
	AnthropicAPIKey   string
	OllamaBaseURL     string
	OpenRouterBaseURL string
	OpenRouterAPIKey  string
	OpenRouterSiteURL string
	OpenRouterAppName string

	WelcomeMessage string
}

func Load() Config {
	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "data/conversations.db"
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-change-me"
	}

	sessionBackend := os.Getenv("SESSION_BACKEND")
	if sessionBackend == "" {
		sessionBackend = "memory"
	}

	sessionTTL := 86400
	if v := os.Getenv("SESSION_TTL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			sessionTTL = n
		}
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	adapterType := os.Getenv("ADAPTER_TYPE")
	if adapterType == "" {
		adapterType = "anthropic"
	}

	primaryModel := os.Getenv("PRIMARY_MODEL")
	if primaryModel == "" {
		primaryModel = "claude-sonnet-4-20250514"
	}

	var fallbacks []string
	if v := os.Getenv("FALLBACK_MODELS"); v != "" {
		for _, m := range strings.Split(v, ",") {
			if m = strings.TrimSpace(m); m != "" {
				fallbacks = append(fallbacks, m)
			}
		}
	} else {
		fallbacks = []string{
			"claude-3-7-sonnet-20250219",
			"claude-3-5-sonnet-20241022",
			"claude-3-5-haiku-20241022",
		}
	}

	maxTokens := 4096
	if v := os.Getenv("MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxTokens = n
		}
	}

	ollamaBaseURL := os.Getenv("OLLAMA_BASE_URL")
	if ollamaBaseURL == "" {
		ollamaBaseURL = "http://localhost:11434"
	}

	openRouterBaseURL := os.Getenv("OPENROUTER_BASE_URL")
	if openRouterBaseURL == "" {
		openRouterBaseURL = "https://openrouter.ai/api/v1"
	}

	welcome := os.Getenv("WELCOME_MESSAGE")
	if welcome == "" {
		welcome = "Hello! I am your assistant. Choose a world to get started."
	}

	return Config{
		HTTPAddr: httpAddr,
		LogMode:  os.Getenv("LOG_MODE"),

		DBPath: dbPath,

		JWTSecret:    secret,
		AuthRequired: os.Getenv("AUTH_REQUIRED") == "true",

		SessionBackend: sessionBackend,
		SessionTTLSecs: sessionTTL,
		RedisAddr:      redisAddr,
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        redisDB,

		AdapterType:    adapterType,
		PrimaryModel:   primaryModel,
		FallbackModels: fallbacks,
		MaxTokens:      maxTokens,

		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		OllamaBaseURL:     ollamaBaseURL,
		OpenRouterBaseURL: openRouterBaseURL,
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterSiteURL: os.Getenv("OPENROUTER_SITE_URL"),
		OpenRouterAppName: os.Getenv("OPENROUTER_APP_NAME"),

		WelcomeMessage: welcome,
	}
}
