package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultGeminiModel     = "gemini-2.5-flash"
	DefaultTemperature     = 0.8
	DefaultRequestTimeout  = 90 * time.Second
	DefaultPort            = 8080
	DefaultSessionCapacity = 1024
)

// Config holds the configuration for the application.
type Config struct {
	GeminiAPIKey   string
	GeminiModel    string
	Temperature    float32
	RequestTimeout time.Duration

	// Web Config
	Port                   int
	SessionSecret          string
	SessionSecretGenerated bool
	SessionCapacity        int
	// SecureCookies marks the session cookie Secure. Only enable it behind HTTPS.
	SecureCookies bool

	RulesetPath   string
	MetricsDBPath string
	// AdminSecret signs the bearer tokens for /admin routes; empty disables them.
	AdminSecret string

	// Telegram Config
	TelegramBotToken   string
	TelegramWebhookURL string
	// TelegramAPIEndpoint overrides the Bot API URL format, e.g. for a local Bot API server.
	TelegramAPIEndpoint    string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64

	LogLevel  string
	LogFormat string
}

// Load reads a .env file when present and then builds the Config from the
// environment. Variables already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return NewFromEnv()
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		geminiAPIKey = os.Getenv("API_KEY")
	}
	if geminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	cfg := &Config{
		GeminiAPIKey:        geminiAPIKey,
		GeminiModel:         envOr("GEMINI_MODEL", DefaultGeminiModel),
		Temperature:         DefaultTemperature,
		RequestTimeout:      DefaultRequestTimeout,
		Port:                DefaultPort,
		SessionSecret:       os.Getenv("SESSION_SECRET"),
		SessionCapacity:     DefaultSessionCapacity,
		RulesetPath:         os.Getenv("RULESET_PATH"),
		MetricsDBPath:       os.Getenv("METRICS_DB_PATH"),
		AdminSecret:         os.Getenv("ADMIN_SECRET"),
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:  os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramAPIEndpoint: os.Getenv("TELEGRAM_API_ENDPOINT"),
		LogLevel:            envOr("LOG_LEVEL", "info"),
		LogFormat:           envOr("LOG_FORMAT", "json"),
	}

	if v := os.Getenv("GEMINI_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 32)
		if err != nil || t < 0 || t > 2 {
			return nil, fmt.Errorf("invalid GEMINI_TEMPERATURE %q: must be a number between 0 and 2", v)
		}
		cfg.Temperature = float32(t)
	}

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid REQUEST_TIMEOUT %q: must be a duration like 90s", v)
		}
		cfg.RequestTimeout = d
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Port = port
	}

	if v := os.Getenv("SECURE_COOKIES"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SECURE_COOKIES %q: must be true or false", v)
		}
		cfg.SecureCookies = secure
	}

	if v := os.Getenv("SESSION_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid SESSION_CAPACITY %q: must be a positive integer", v)
		}
		cfg.SessionCapacity = n
	}

	if cfg.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.SessionSecret = secret
		cfg.SessionSecretGenerated = true
	}

	ids, err := parseIDList(os.Getenv("TELEGRAM_ALLOW_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_ALLOW_USER_IDS: %w", err)
	}
	cfg.TelegramAllowedUserIDs = ids

	if v := os.Getenv("TELEGRAM_ADMIN_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ADMIN_ID %q", v)
		}
		cfg.AdminTelegramID = id
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a user id", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
