package config

import (
	"testing"
	"time"
)

func TestNewFromEnv(t *testing.T) {
	// Helper function to set environment variables for a test
	setEnv := func(key, value string) {
		t.Helper()
		t.Setenv(key, value)
	}

	t.Run("Success", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("GEMINI_MODEL", "")
		setEnv("SESSION_SECRET", "")
		setEnv("SECURE_COOKIES", "")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.GeminiAPIKey != "gemini_key" {
			t.Errorf("Expected GeminiAPIKey to be 'gemini_key', got '%s'", cfg.GeminiAPIKey)
		}
		if cfg.GeminiModel != DefaultGeminiModel {
			t.Errorf("Expected default model, got '%s'", cfg.GeminiModel)
		}
		if cfg.Temperature != DefaultTemperature {
			t.Errorf("Expected default temperature, got %v", cfg.Temperature)
		}
		if cfg.RequestTimeout != DefaultRequestTimeout {
			t.Errorf("Expected default timeout, got %v", cfg.RequestTimeout)
		}
		if cfg.Port != DefaultPort {
			t.Errorf("Expected default port, got %d", cfg.Port)
		}
		if !cfg.SessionSecretGenerated || len(cfg.SessionSecret) != 64 {
			t.Errorf("Expected a generated session secret, got %q", cfg.SessionSecret)
		}
		if cfg.SecureCookies {
			t.Error("Expected plain HTTP cookies by default")
		}
	})

	t.Run("LegacyAPIKey", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "")
		setEnv("API_KEY", "legacy_key")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.GeminiAPIKey != "legacy_key" {
			t.Errorf("Expected GeminiAPIKey to be 'legacy_key', got '%s'", cfg.GeminiAPIKey)
		}
	})

	t.Run("MissingGeminiAPIKey", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "")
		setEnv("API_KEY", "")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing GEMINI_API_KEY, got nil")
		}
		expectedError := "GEMINI_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("GEMINI_TEMPERATURE", "0.3")
		setEnv("REQUEST_TIMEOUT", "2m")
		setEnv("PORT", "9090")
		setEnv("SESSION_SECRET", "s3cret")
		setEnv("TELEGRAM_ALLOW_USER_IDS", "12, 34")
		setEnv("TELEGRAM_ADMIN_ID", "12")
		setEnv("ADMIN_SECRET", "admin-s3cret")
		setEnv("SECURE_COOKIES", "true")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.Temperature != 0.3 {
			t.Errorf("Expected temperature 0.3, got %v", cfg.Temperature)
		}
		if cfg.RequestTimeout != 2*time.Minute {
			t.Errorf("Expected 2m timeout, got %v", cfg.RequestTimeout)
		}
		if cfg.Port != 9090 {
			t.Errorf("Expected port 9090, got %d", cfg.Port)
		}
		if cfg.SessionSecret != "s3cret" || cfg.SessionSecretGenerated {
			t.Errorf("Expected configured session secret, got %q", cfg.SessionSecret)
		}
		if !cfg.SecureCookies {
			t.Error("Expected SECURE_COOKIES=true to enable secure cookies")
		}
		if len(cfg.TelegramAllowedUserIDs) != 2 || cfg.TelegramAllowedUserIDs[1] != 34 {
			t.Errorf("Unexpected allowed ids %v", cfg.TelegramAllowedUserIDs)
		}
		if cfg.AdminTelegramID != 12 {
			t.Errorf("Expected admin id 12, got %d", cfg.AdminTelegramID)
		}
		if cfg.AdminSecret != "admin-s3cret" {
			t.Errorf("Expected admin secret, got %q", cfg.AdminSecret)
		}
	})

	t.Run("InvalidValues", func(t *testing.T) {
		cases := map[string]string{
			"GEMINI_TEMPERATURE":      "hot",
			"REQUEST_TIMEOUT":         "soon",
			"PORT":                    "0",
			"SESSION_CAPACITY":        "-1",
			"SECURE_COOKIES":          "sometimes",
			"TELEGRAM_ALLOW_USER_IDS": "12,abc",
		}
		for key, value := range cases {
			t.Run(key, func(t *testing.T) {
				t.Setenv("GEMINI_API_KEY", "gemini_key")
				t.Setenv(key, value)
				if _, err := NewFromEnv(); err == nil {
					t.Fatalf("Expected an error for %s=%q", key, value)
				}
			})
		}
	})
}
