package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"menu-spinner/internal/menu"
)

// LLM providers selectable through LLM_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
)

const (
	defaultGeminiModel  = "gemini-2.5-flash"
	defaultGroqModel    = "llama-3.3-70b-versatile"
	defaultOpenAIModel  = "gpt-4o-mini"
	defaultDatabasePath = "data/menu.db"
	defaultSnapshotDir  = "data/snapshots"
	defaultGhostTag     = "recipes"
	defaultLanguage     = "zh"
	defaultPort         = "8080"
)

// Config holds the configuration for the application.
type Config struct {
	LLMProvider   string
	GeminiAPIKey  string
	GeminiModel   string
	GroqAPIKey    string
	GroqModel     string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	DatabasePath string
	CatalogPath  string
	SnapshotDir  string
	Language     string

	DefaultStaples int
	DefaultDishes  int

	GhostURL        string
	GhostContentKey string
	GhostAdminKey   string
	GhostRecipeTag  string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64

	Port string
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	cfg := &Config{
		LLMProvider:   strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", defaultGeminiModel),
		GroqAPIKey:    os.Getenv("GROQ_API_KEY"),
		GroqModel:     getEnv("GROQ_MODEL", defaultGroqModel),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:   getEnv("OPENAI_MODEL", defaultOpenAIModel),

		DatabasePath: getEnv("DATABASE_PATH", defaultDatabasePath),
		CatalogPath:  os.Getenv("CATALOG_PATH"),
		SnapshotDir:  getEnv("CATALOG_SNAPSHOT_DIR", defaultSnapshotDir),
		Language:     strings.ToLower(getEnv("MENU_LANGUAGE", defaultLanguage)),

		GhostURL:        strings.TrimRight(os.Getenv("GHOST_API_URL"), "/"),
		GhostContentKey: os.Getenv("GHOST_CONTENT_API_KEY"),
		GhostAdminKey:   os.Getenv("GHOST_ADMIN_API_KEY"),
		GhostRecipeTag:  getEnv("GHOST_RECIPE_TAG", defaultGhostTag),

		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),

		Port: getEnv("PORT", defaultPort),
	}

	switch cfg.LLMProvider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case ProviderGroq:
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}

	if cfg.Language != "en" && cfg.Language != "zh" {
		return nil, fmt.Errorf("unsupported MENU_LANGUAGE %q: expected en or zh", cfg.Language)
	}

	var err error
	if cfg.DefaultStaples, err = getInt("DEFAULT_STAPLES", menu.DefaultStaples); err != nil {
		return nil, err
	}
	cfg.DefaultStaples = menu.ClampStaples(cfg.DefaultStaples)

	if cfg.DefaultDishes, err = getInt("DEFAULT_DISHES", menu.DefaultDishes); err != nil {
		return nil, err
	}
	cfg.DefaultDishes = menu.ClampDishes(cfg.DefaultDishes)

	if cfg.GhostAdminKey == "" {
		// Fallback to content key if only one is provided
		cfg.GhostAdminKey = cfg.GhostContentKey
	}

	if cfg.TelegramAllowedUserIDs, err = parseIDList(os.Getenv("TELEGRAM_ALLOWED_USER_IDS")); err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS: %w", err)
	}
	if admin := os.Getenv("ADMIN_TELEGRAM_ID"); admin != "" {
		if cfg.AdminTelegramID, err = strconv.ParseInt(admin, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	return cfg, nil
}

// GhostEnabled reports whether the Ghost integration is configured.
func (c *Config) GhostEnabled() bool {
	return c.GhostURL != "" && c.GhostContentKey != ""
}

// TelegramEnabled reports whether the bot can be started.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramWebhookURL != ""
}

// IsAllowedUser reports whether the Telegram user may talk to the bot.
// An empty allow list admits only the admin.
func (c *Config) IsAllowedUser(id int64) bool {
	if c.AdminTelegramID != 0 && id == c.AdminTelegramID {
		return true
	}
	for _, allowed := range c.TelegramAllowedUserIDs {
		if allowed == id {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
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
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
