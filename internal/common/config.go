package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Answer      AnswerConfig    `toml:"answer"`
	Datahub     DatahubConfig   `toml:"datahub"`
	Delivery    DeliveryConfig  `toml:"delivery"`
	Dedup       DedupConfig     `toml:"dedup"`
	WAHA        WAHAConfig      `toml:"waha"`
	Telegram    TelegramConfig  `toml:"telegram"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
	Schedule    ScheduleConfig  `toml:"schedule"`
	WebSocket   WebSocketConfig `toml:"websocket"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	// Type selects the backing store: "badger" or "memory"
	Type   string       `toml:"type" validate:"oneof=badger memory"`
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// AnswerConfig tunes the answer orchestrator.
type AnswerConfig struct {
	CacheTTL        time.Duration `toml:"cache_ttl"`         // Answer cache lifetime (default: 10m)
	StateTTL        time.Duration `toml:"state_ttl"`         // User conversation state lifetime (default: 24h)
	MaxHistoryTurns int           `toml:"max_history_turns" validate:"min=0"`
	MaxContextDocs  int           `toml:"max_context_docs" validate:"min=1"` // Grounding documents included in the prompt
	SummaryLimit    int           `toml:"summary_limit"`                     // Characters of each document summary kept in the prompt
}

// DatahubConfig tunes the federated aggregator and its source fetchers.
type DatahubConfig struct {
	SourceTimeout   time.Duration `toml:"source_timeout"` // Per-fetcher deadline (default: 6s)
	MaxPerSource    int           `toml:"max_per_source"` // Rows requested from each backend
	CamaraBaseURL   string        `toml:"camara_base_url"`
	SenadoBaseURL   string        `toml:"senado_base_url"`
	DiarioBaseURL   string        `toml:"diario_base_url"`
	BasedadosAPIURL string        `toml:"basedados_api_url"`
}

// DeliveryConfig tunes the outbound delivery engine.
type DeliveryConfig struct {
	MaxAttempts      int           `toml:"max_attempts" validate:"min=1"` // Attempts per provider
	BaseDelay        time.Duration `toml:"base_delay"`                    // First backoff step (default: 1s)
	MaxDelay         time.Duration `toml:"max_delay"`                     // Backoff cap
	FallbackProvider string        `toml:"fallback_provider"`             // Secondary provider name, empty disables fallback
}

// DedupConfig tunes inbound message deduplication.
type DedupConfig struct {
	TTL           time.Duration `toml:"ttl"`            // Seen-marker lifetime (default: 5m)
	PruneInterval time.Duration `toml:"prune_interval"` // In-process fallback map sweep interval
}

// WAHAConfig contains the WhatsApp HTTP API gateway configuration.
type WAHAConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	Session   string `toml:"session"`    // WAHA session name (default: "default")
	RateLimit string `toml:"rate_limit"` // Minimum spacing between outbound calls (default: "200ms")
	Timeout   string `toml:"timeout"`    // HTTP request timeout (default: "15s")
}

// TelegramConfig contains the Telegram Bot API configuration.
type TelegramConfig struct {
	BotToken    string `toml:"bot_token"`
	SecretToken string `toml:"secret_token"` // Webhook secret, checked against X-Telegram-Bot-Api-Secret-Token
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`      // Default: "gemini-3-flash-preview"
	Timeout     string  `toml:"timeout"`    // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"` // Rate limit duration string (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`      // Default: "claude-haiku-3-5-20241022"
	MaxTokens   int     `toml:"max_tokens"` // Default: 1024
	Timeout     string  `toml:"timeout"`
	RateLimit   string  `toml:"rate_limit"`
	Temperature float32 `toml:"temperature"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig selects the default AI provider
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" validate:"oneof=gemini claude"`
	MaxRetries      int         `toml:"max_retries" validate:"min=0"`
}

// ScheduleConfig contains cron schedules for background maintenance
type ScheduleConfig struct {
	MaintenanceSpec string `toml:"maintenance_spec"` // Cron spec for GC and dedup pruning (default: every 10 minutes)
}

// WebSocketConfig tunes the live pipeline event feed
type WebSocketConfig struct {
	BufferSize int `toml:"buffer_size"` // Per-client outbound queue, events beyond it are dropped
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in elo.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Type: "badger",
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Answer: AnswerConfig{
			CacheTTL:        10 * time.Minute,
			StateTTL:        24 * time.Hour,
			MaxHistoryTurns: 10,
			MaxContextDocs:  5,
			SummaryLimit:    240,
		},
		Datahub: DatahubConfig{
			SourceTimeout:   6 * time.Second,
			MaxPerSource:    10,
			CamaraBaseURL:   "https://dadosabertos.camara.leg.br/api/v2",
			SenadoBaseURL:   "https://legis.senado.leg.br/dadosabertos",
			DiarioBaseURL:   "https://queridodiario.ok.org.br/api",
			BasedadosAPIURL: "https://basedosdados.org/api/3/action",
		},
		Delivery: DeliveryConfig{
			MaxAttempts:      3,
			BaseDelay:        1 * time.Second,
			MaxDelay:         8 * time.Second,
			FallbackProvider: "",
		},
		Dedup: DedupConfig{
			TTL:           5 * time.Minute,
			PruneInterval: 1 * time.Minute,
		},
		WAHA: WAHAConfig{
			BaseURL:   "",
			Session:   "default",
			RateLimit: "200ms",
			Timeout:   "15s",
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-3-flash-preview",
			Timeout:     "2m",
			RateLimit:   "4s", // Free tier is 15 RPM
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   1024,
			Timeout:     "2m",
			RateLimit:   "1s",
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
			MaxRetries:      2,
		},
		Schedule: ScheduleConfig{
			MaintenanceSpec: "@every 10m",
		},
		WebSocket: WebSocketConfig{
			BufferSize: 64,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks structural constraints after all overrides applied
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Delivery.FallbackProvider == "console" {
		return fmt.Errorf("invalid configuration: console provider cannot be a delivery fallback")
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ELO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("ELO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("ELO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if storageType := os.Getenv("ELO_STORAGE_TYPE"); storageType != "" {
		config.Storage.Type = storageType
	}
	if badgerPath := os.Getenv("ELO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("ELO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("ELO_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("ELO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Answer configuration
	if ttl := os.Getenv("ELO_ANSWER_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Answer.CacheTTL = d
		}
	}
	if ttl := os.Getenv("ELO_ANSWER_STATE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Answer.StateTTL = d
		}
	}
	if turns := os.Getenv("ELO_ANSWER_MAX_HISTORY_TURNS"); turns != "" {
		if t, err := strconv.Atoi(turns); err == nil {
			config.Answer.MaxHistoryTurns = t
		}
	}

	// Datahub configuration
	if timeout := os.Getenv("ELO_DATAHUB_SOURCE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Datahub.SourceTimeout = d
		}
	}
	if maxRows := os.Getenv("ELO_DATAHUB_MAX_PER_SOURCE"); maxRows != "" {
		if m, err := strconv.Atoi(maxRows); err == nil {
			config.Datahub.MaxPerSource = m
		}
	}

	// Delivery configuration
	if attempts := os.Getenv("ELO_DELIVERY_MAX_ATTEMPTS"); attempts != "" {
		if a, err := strconv.Atoi(attempts); err == nil {
			config.Delivery.MaxAttempts = a
		}
	}
	if delay := os.Getenv("ELO_DELIVERY_BASE_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil {
			config.Delivery.BaseDelay = d
		}
	}
	if fallback := os.Getenv("ELO_DELIVERY_FALLBACK_PROVIDER"); fallback != "" {
		config.Delivery.FallbackProvider = fallback
	}

	// Dedup configuration
	if ttl := os.Getenv("ELO_DEDUP_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Dedup.TTL = d
		}
	}

	// WAHA configuration
	if baseURL := os.Getenv("ELO_WAHA_BASE_URL"); baseURL != "" {
		config.WAHA.BaseURL = baseURL
	}
	if apiKey := os.Getenv("ELO_WAHA_API_KEY"); apiKey != "" {
		config.WAHA.APIKey = apiKey
	}
	if session := os.Getenv("ELO_WAHA_SESSION"); session != "" {
		config.WAHA.Session = session
	}

	// Telegram configuration
	if token := os.Getenv("ELO_TELEGRAM_BOT_TOKEN"); token != "" {
		config.Telegram.BotToken = token
	}
	if secret := os.Getenv("ELO_TELEGRAM_SECRET_TOKEN"); secret != "" {
		config.Telegram.SecretToken = secret
	}

	// Gemini configuration
	if apiKey := os.Getenv("ELO_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("ELO_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if rateLimit := os.Getenv("ELO_GEMINI_RATE_LIMIT"); rateLimit != "" {
		config.Gemini.RateLimit = rateLimit
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("ELO_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // ELO_ prefix takes priority
	}
	if model := os.Getenv("ELO_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("ELO_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}

	// LLM provider configuration
	if provider := os.Getenv("ELO_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if retries := os.Getenv("ELO_LLM_MAX_RETRIES"); retries != "" {
		if r, err := strconv.Atoi(retries); err == nil {
			config.LLM.MaxRetries = r
		}
	}

	// Schedule configuration
	if spec := os.Getenv("ELO_SCHEDULE_MAINTENANCE_SPEC"); spec != "" {
		config.Schedule.MaintenanceSpec = spec
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
