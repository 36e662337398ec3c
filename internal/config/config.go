package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LLM providers
const (
	ProviderNone     = ""
	ProviderDeepSeek = "deepseek"
	ProviderOpenAI   = "openai"
	ProviderGemini   = "gemini"
)

// Config is the resolved runtime configuration
type Config struct {
	Port               int           `mapstructure:"port"`
	DatabaseURL        string        `mapstructure:"database_url"`
	DBMaxConnections   int           `mapstructure:"db_max_connections"`
	APIToken           string        `mapstructure:"api_token"`
	CORSOrigins        string        `mapstructure:"cors_origins"`
	DefaultTimezone    string        `mapstructure:"default_timezone"`
	LLMProvider        string        `mapstructure:"llm_provider"`
	LLMAPIKey          string        `mapstructure:"llm_api_key"`
	LLMBaseURL         string        `mapstructure:"llm_base_url"`
	LLMModel           string        `mapstructure:"llm_model"`
	LLMTimeout         time.Duration `mapstructure:"llm_timeout"`
	AgentMode          bool          `mapstructure:"agent_mode"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute"`
	LogLevel           string        `mapstructure:"log_level"`
	LogFormat          string        `mapstructure:"log_format"`
}

// SetDefaults registers the default for every key so that environment
// variables are picked up for all of them
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("database_url", "healthtrack.db")
	v.SetDefault("db_max_connections", 10)
	v.SetDefault("api_token", "")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("default_timezone", "UTC")
	v.SetDefault("llm_provider", ProviderNone)
	v.SetDefault("llm_api_key", "")
	v.SetDefault("llm_base_url", "")
	v.SetDefault("llm_model", "")
	v.SetDefault("llm_timeout", 30*time.Second)
	v.SetDefault("agent_mode", false)
	v.SetDefault("rate_limit_per_minute", 100)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Load resolves configuration from, in increasing priority: defaults, the
// optional config file, a .env file, the environment and any flags already
// bound to v.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Could not read .env file: %v", err)
	}

	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	switch c.LLMProvider {
	case ProviderNone, ProviderDeepSeek, ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unknown llm_provider %q: use deepseek, openai or gemini", c.LLMProvider)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("database_url is required")
	}

	if c.LLMProvider != ProviderNone && c.LLMAPIKey == "" {
		return fmt.Errorf("llm_api_key is required for llm_provider %q", c.LLMProvider)
	}

	if c.AgentMode && c.LLMProvider == ProviderNone {
		log.Warn("agent_mode is set but no llm_provider is configured; using the heuristic router only")
		c.AgentMode = false
	}

	return nil
}

// LLMEnabled reports whether an LLM provider is configured
func (c *Config) LLMEnabled() bool {
	return c.LLMProvider != ProviderNone
}

// SetupLogging applies log_level and log_format to the global logger
func (c *Config) SetupLogging() error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	log.SetLevel(level)

	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
