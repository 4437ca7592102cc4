// Package config loads switchboard settings from a YAML file with
// SWITCHBOARD_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. SWITCHBOARD_STORE_BACKEND.
const EnvPrefix = "SWITCHBOARD"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config is the full application configuration.
type Config struct {
	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Memory    MemoryConfig    `yaml:"memory" mapstructure:"memory"`
	Knowledge KnowledgeConfig `yaml:"knowledge" mapstructure:"knowledge"`
	Accounts  AccountsConfig  `yaml:"accounts" mapstructure:"accounts"`
	Tools     ToolsConfig     `yaml:"tools" mapstructure:"tools"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Security  SecurityConfig  `yaml:"security" mapstructure:"security"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// EngineConfig tunes the executor.
type EngineConfig struct {
	MaxIterations int           `yaml:"max_iterations" mapstructure:"max_iterations"`
	StepTimeout   time.Duration `yaml:"step_timeout" mapstructure:"step_timeout"`
	// EntryStep forces the first step of each run; empty lets the router decide.
	EntryStep string `yaml:"entry_step" mapstructure:"entry_step"`
}

// StoreConfig selects the checkpoint backend.
type StoreConfig struct {
	Backend string      `yaml:"backend" mapstructure:"backend"`
	Path    string      `yaml:"path" mapstructure:"path"`
	Redis   RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig configures the redis backend and the distributed session lock.
type RedisConfig struct {
	Addr     string        `yaml:"addr" mapstructure:"addr"`
	Password string        `yaml:"password" mapstructure:"password"`
	DB       int           `yaml:"db" mapstructure:"db"`
	Prefix   string        `yaml:"prefix" mapstructure:"prefix"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
	// LockTTL is the session lock lease. Zero covers a full run.
	LockTTL time.Duration `yaml:"lock_ttl" mapstructure:"lock_ttl"`
}

// MemoryConfig tunes short- and long-term memory.
type MemoryConfig struct {
	SummaryTokens int `yaml:"summary_tokens" mapstructure:"summary_tokens"`
	MaxReferences int `yaml:"max_references" mapstructure:"max_references"`
	// LongTermPath is a SQLite file for case records. Empty keeps cases with the
	// checkpoint backend (redis, sqlite) or in memory.
	LongTermPath string `yaml:"long_term_path" mapstructure:"long_term_path"`
}

// AccountsConfig points at seed customer data for the account lookup tools.
// An empty path disables them.
type AccountsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// KnowledgeConfig points at the knowledge base file; empty uses the built-in articles.
type KnowledgeConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ToolsConfig points at an allow-list of external process tools.
type ToolsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
	// BaseDir is the working directory of tool processes.
	BaseDir string `yaml:"base_dir" mapstructure:"base_dir"`
}

// LLMConfig enables the LLM-backed collaborators. An empty provider keeps the
// offline keyword classifier and template responder.
type LLMConfig struct {
	Provider        string `yaml:"provider" mapstructure:"provider"`
	Model           string `yaml:"model" mapstructure:"model"`
	APIKeyEnv       string `yaml:"api_key_env" mapstructure:"api_key_env"`
	MaxOutputTokens int    `yaml:"max_output_tokens" mapstructure:"max_output_tokens"`
}

// SecurityConfig configures checkpoint encryption and PII masking.
type SecurityConfig struct {
	// EncryptionKeyEnv names the variable holding a 32-byte key (raw or base64).
	EncryptionKeyEnv string `yaml:"encryption_key_env" mapstructure:"encryption_key_env"`
	// FallbackKeyEnv names a variable with comma-separated retired keys.
	FallbackKeyEnv string   `yaml:"fallback_key_env" mapstructure:"fallback_key_env"`
	MaskPII        bool     `yaml:"mask_pii" mapstructure:"mask_pii"`
	PIIPatterns    []string `yaml:"pii_patterns" mapstructure:"pii_patterns"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{MaxIterations: 25, StepTimeout: 30 * time.Second},
		Store: StoreConfig{
			Backend: BackendFile,
			Path:    ".switchboard/sessions",
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "switchboard:session:"},
		},
		Memory: MemoryConfig{SummaryTokens: 256, MaxReferences: 10},
		LLM:    LLMConfig{Model: "gpt-4o-mini", APIKeyEnv: "OPENAI_API_KEY", MaxOutputTokens: 512},
		HTTP:   HTTPConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.Environ()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend))
	}
	if c.Engine.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("engine.max_iterations must be positive"))
	}
	if c.Engine.StepTimeout <= 0 {
		errs = append(errs, fmt.Errorf("engine.step_timeout must be positive"))
	}
	if c.Memory.SummaryTokens <= 0 {
		errs = append(errs, fmt.Errorf("memory.summary_tokens must be positive"))
	}
	switch c.LLM.Provider {
	case "", "openai":
	default:
		errs = append(errs, fmt.Errorf("llm.provider: unknown provider %q", c.LLM.Provider))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
