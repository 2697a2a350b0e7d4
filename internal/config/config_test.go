package config

import (
	"strings"
	"testing"
)

// clearEnv blanks every variable NewFromEnv reads so host settings do not leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LLM_PROVIDER", "GEMINI_API_KEY", "GEMINI_MODEL", "GROQ_API_KEY", "GROQ_MODEL",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL",
		"DATABASE_PATH", "CATALOG_PATH", "CATALOG_SNAPSHOT_DIR", "MENU_LANGUAGE",
		"DEFAULT_STAPLES", "DEFAULT_DISHES",
		"GHOST_API_URL", "GHOST_CONTENT_API_KEY", "GHOST_ADMIN_API_KEY", "GHOST_RECIPE_TAG",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_WEBHOOK_URL", "TELEGRAM_ALLOWED_USER_IDS",
		"ADMIN_TELEGRAM_ID", "PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "gemini_key")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.LLMProvider != ProviderGemini {
			t.Errorf("Expected provider gemini, got '%s'", cfg.LLMProvider)
		}
		if cfg.GeminiModel != "gemini-2.5-flash" {
			t.Errorf("Expected default Gemini model, got '%s'", cfg.GeminiModel)
		}
		if cfg.DatabasePath != "data/menu.db" {
			t.Errorf("Expected default database path, got '%s'", cfg.DatabasePath)
		}
		if cfg.Language != "zh" {
			t.Errorf("Expected default language zh, got '%s'", cfg.Language)
		}
		if cfg.SnapshotDir != "data/snapshots" || cfg.GhostRecipeTag != "recipes" {
			t.Errorf("Unexpected snapshot dir '%s' or ghost tag '%s'", cfg.SnapshotDir, cfg.GhostRecipeTag)
		}
		if cfg.DefaultStaples != 1 || cfg.DefaultDishes != 3 {
			t.Errorf("Expected 1 staple and 3 dishes, got %d and %d", cfg.DefaultStaples, cfg.DefaultDishes)
		}
		if cfg.Port != "8080" {
			t.Errorf("Expected port 8080, got '%s'", cfg.Port)
		}
		if cfg.GhostEnabled() || cfg.TelegramEnabled() {
			t.Error("Expected optional integrations to be disabled")
		}
	})

	t.Run("MissingGeminiAPIKey", func(t *testing.T) {
		clearEnv(t)

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing GEMINI_API_KEY, got nil")
		}
		expectedError := "GEMINI_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("MissingGroqAPIKey", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LLM_PROVIDER", "groq")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing GROQ_API_KEY, got nil")
		}
		expectedError := "GROQ_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("OpenAIProvider", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LLM_PROVIDER", "OpenAI")
		t.Setenv("OPENAI_API_KEY", "sk-test")
		t.Setenv("OPENAI_BASE_URL", "https://openrouter.ai/api/v1")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.LLMProvider != ProviderOpenAI {
			t.Errorf("Expected provider openai, got '%s'", cfg.LLMProvider)
		}
		if cfg.OpenAIBaseURL != "https://openrouter.ai/api/v1" {
			t.Errorf("Unexpected base URL '%s'", cfg.OpenAIBaseURL)
		}
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LLM_PROVIDER", "mystery")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for unknown provider, got nil")
		}
	})

	t.Run("UnknownLanguage", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("MENU_LANGUAGE", "fr")

		_, err := NewFromEnv()
		if err == nil || !strings.Contains(err.Error(), "MENU_LANGUAGE") {
			t.Fatalf("Expected MENU_LANGUAGE error, got %v", err)
		}
	})

	t.Run("ClampsSlotCounts", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("DEFAULT_STAPLES", "9")
		t.Setenv("DEFAULT_DISHES", "0")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.DefaultStaples != 5 {
			t.Errorf("Expected staples clamped to 5, got %d", cfg.DefaultStaples)
		}
		if cfg.DefaultDishes != 1 {
			t.Errorf("Expected dishes clamped to 1, got %d", cfg.DefaultDishes)
		}
	})

	t.Run("InvalidSlotCount", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("DEFAULT_DISHES", "many")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for non-numeric DEFAULT_DISHES, got nil")
		}
	})

	t.Run("GhostAdminKeyFallback", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("GHOST_API_URL", "http://ghost.test/")
		t.Setenv("GHOST_CONTENT_API_KEY", "ghost_key")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.GhostURL != "http://ghost.test" {
			t.Errorf("Expected trailing slash trimmed, got '%s'", cfg.GhostURL)
		}
		if cfg.GhostAdminKey != "ghost_key" {
			t.Errorf("Expected admin key to fall back to content key, got '%s'", cfg.GhostAdminKey)
		}
		if !cfg.GhostEnabled() {
			t.Error("Expected Ghost to be enabled")
		}
	})

	t.Run("TelegramUsers", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "11, 22,")
		t.Setenv("ADMIN_TELEGRAM_ID", "99")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(cfg.TelegramAllowedUserIDs) != 2 {
			t.Fatalf("Expected 2 allowed users, got %v", cfg.TelegramAllowedUserIDs)
		}
		for _, id := range []int64{11, 22, 99} {
			if !cfg.IsAllowedUser(id) {
				t.Errorf("Expected user %d to be allowed", id)
			}
		}
		if cfg.IsAllowedUser(33) {
			t.Error("Expected user 33 to be rejected")
		}
	})

	t.Run("InvalidTelegramUsers", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "11,abc")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for invalid user id list, got nil")
		}
	})
}
