package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig  `toml:"server"`
	LLM     LLMConfig     `toml:"llm"`
	STT     STTConfig     `toml:"stt"`
	UIAgent UIAgentConfig `toml:"ui_agent"`
	Redis   RedisConfig   `toml:"redis"`
	Log     LogConfig     `toml:"log"`
}

type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
	MaxUploadBytes int64    `toml:"max_upload_bytes"`
	TempDir        string   `toml:"temp_dir"` // empty means os.TempDir()
	RateLimitRPS   float64  `toml:"rate_limit_rps"`
	RateLimitBurst int      `toml:"rate_limit_burst"`
}

type LLMConfig struct {
	OllamaURL        string        `toml:"ollama_url"`
	OpenAIKey        string        `toml:"openai_key"`
	AnthropicKey     string        `toml:"anthropic_key"`
	DefaultProvider  string        `toml:"default_provider"`
	DefaultModel     string        `toml:"default_model"`
	FallbackProvider string        `toml:"fallback_provider"`
	MaxRetries       int           `toml:"max_retries"`
	Timeout          time.Duration `toml:"timeout"`
}

type STTConfig struct {
	Backend        string        `toml:"backend"` // "local", "openai" or "google"
	OpenAIKey      string        `toml:"openai_key"`
	OpenAIBaseURL  string        `toml:"openai_base_url"`
	OpenAIModel    string        `toml:"openai_model"`
	LocalBaseURL   string        `toml:"local_base_url"` // default: "http://localhost:8178"
	LocalModel     string        `toml:"local_model"`
	GoogleLanguage string        `toml:"google_language"`
	Language       string        `toml:"language"`
	Timeout        time.Duration `toml:"timeout"`
}

type UIAgentConfig struct {
	Mode       string        `toml:"mode"` // "generate" or "chat"
	JSONFormat bool          `toml:"json_format"`
	CacheTTL   time.Duration `toml:"cache_ttl"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"` // empty disables the result cache
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "text"
}

const (
	ModeGenerate = "generate"
	ModeChat     = "chat"

	STTLocal  = "local"
	STTOpenAI = "openai"
	STTGoogle = "google"
)

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			AllowedOrigins: []string{"http://localhost:8081"},
			MaxUploadBytes: 25 << 20,
			RateLimitRPS:   100,
			RateLimitBurst: 200,
		},
		LLM: LLMConfig{
			OllamaURL:       "http://localhost:11434",
			DefaultProvider: "ollama",
			DefaultModel:    "llama3",
			Timeout:         120 * time.Second,
		},
		STT: STTConfig{
			Backend:        STTLocal,
			LocalBaseURL:   "http://localhost:8178",
			LocalModel:     "base",
			GoogleLanguage: "en-US",
			Timeout:        300 * time.Second,
		},
		UIAgent: UIAgentConfig{
			Mode:     ModeGenerate,
			CacheTTL: 10 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads .env (if present), then the TOML file named by CONFIG_FILE (if set),
// then environment variables. Later sources win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var err error

	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	if cfg.Server.Port, err = getEnvInt("SERVER_PORT", cfg.Server.Port); err != nil {
		return fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	cfg.Server.AllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)
	if cfg.Server.MaxUploadBytes, err = getEnvInt64("MAX_UPLOAD_BYTES", cfg.Server.MaxUploadBytes); err != nil {
		return fmt.Errorf("invalid MAX_UPLOAD_BYTES: %w", err)
	}
	cfg.Server.TempDir = getEnv("UPLOAD_TEMP_DIR", cfg.Server.TempDir)
	if cfg.Server.RateLimitRPS, err = getEnvFloat("RATE_LIMIT_RPS", cfg.Server.RateLimitRPS); err != nil {
		return fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	if cfg.Server.RateLimitBurst, err = getEnvInt("RATE_LIMIT_BURST", cfg.Server.RateLimitBurst); err != nil {
		return fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	cfg.LLM.OllamaURL = getEnv("OLLAMA_URL", cfg.LLM.OllamaURL)
	cfg.LLM.OpenAIKey = getEnv("OPENAI_API_KEY", cfg.LLM.OpenAIKey)
	cfg.LLM.AnthropicKey = getEnv("ANTHROPIC_API_KEY", cfg.LLM.AnthropicKey)
	cfg.LLM.DefaultProvider = getEnv("LLM_DEFAULT_PROVIDER", cfg.LLM.DefaultProvider)
	cfg.LLM.DefaultModel = getEnv("LLM_DEFAULT_MODEL", cfg.LLM.DefaultModel)
	cfg.LLM.FallbackProvider = getEnv("LLM_FALLBACK_PROVIDER", cfg.LLM.FallbackProvider)
	if cfg.LLM.MaxRetries, err = getEnvInt("LLM_MAX_RETRIES", cfg.LLM.MaxRetries); err != nil {
		return fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
	}
	if cfg.LLM.Timeout, err = getEnvDuration("LLM_TIMEOUT", cfg.LLM.Timeout); err != nil {
		return fmt.Errorf("invalid LLM_TIMEOUT: %w", err)
	}

	cfg.STT.Backend = getEnv("STT_BACKEND", cfg.STT.Backend)
	cfg.STT.OpenAIKey = getEnv("OPENAI_API_KEY", cfg.STT.OpenAIKey)
	cfg.STT.OpenAIBaseURL = getEnv("STT_OPENAI_BASE_URL", cfg.STT.OpenAIBaseURL)
	cfg.STT.OpenAIModel = getEnv("STT_OPENAI_MODEL", cfg.STT.OpenAIModel)
	cfg.STT.LocalBaseURL = getEnv("STT_LOCAL_BASE_URL", cfg.STT.LocalBaseURL)
	cfg.STT.LocalModel = getEnv("STT_LOCAL_MODEL", cfg.STT.LocalModel)
	cfg.STT.GoogleLanguage = getEnv("STT_GOOGLE_LANGUAGE", cfg.STT.GoogleLanguage)
	cfg.STT.Language = getEnv("STT_LANGUAGE", cfg.STT.Language)
	if cfg.STT.Timeout, err = getEnvDuration("STT_TIMEOUT", cfg.STT.Timeout); err != nil {
		return fmt.Errorf("invalid STT_TIMEOUT: %w", err)
	}

	cfg.UIAgent.Mode = getEnv("UI_AGENT_MODE", cfg.UIAgent.Mode)
	if cfg.UIAgent.JSONFormat, err = getEnvBool("UI_AGENT_JSON_FORMAT", cfg.UIAgent.JSONFormat); err != nil {
		return fmt.Errorf("invalid UI_AGENT_JSON_FORMAT: %w", err)
	}
	if cfg.UIAgent.CacheTTL, err = getEnvDuration("UI_CACHE_TTL", cfg.UIAgent.CacheTTL); err != nil {
		return fmt.Errorf("invalid UI_CACHE_TTL: %w", err)
	}

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	if cfg.Redis.DB, err = getEnvInt("REDIS_DB", cfg.Redis.DB); err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// CacheEnabled reports whether UI-agent results should be cached in Redis.
func (c *Config) CacheEnabled() bool {
	return c.Redis.Addr != "" && c.UIAgent.CacheTTL > 0
}

func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("SERVER_PORT out of range: %d", c.Server.Port))
	}
	if c.Server.MaxUploadBytes <= 0 {
		problems = append(problems, "MAX_UPLOAD_BYTES must be positive")
	}

	switch c.UIAgent.Mode {
	case ModeGenerate, ModeChat:
	default:
		problems = append(problems, fmt.Sprintf("unknown UI_AGENT_MODE %q", c.UIAgent.Mode))
	}

	switch c.STT.Backend {
	case STTLocal:
		if c.STT.LocalBaseURL == "" {
			problems = append(problems, "STT_LOCAL_BASE_URL")
		}
	case STTOpenAI:
		if c.STT.OpenAIKey == "" {
			problems = append(problems, "OPENAI_API_KEY (required by STT_BACKEND=openai)")
		}
	case STTGoogle:
	default:
		problems = append(problems, fmt.Sprintf("unknown STT_BACKEND %q", c.STT.Backend))
	}

	problems = append(problems, c.LLM.checkProvider("LLM_DEFAULT_PROVIDER", c.LLM.DefaultProvider)...)
	if c.LLM.FallbackProvider != "" {
		problems = append(problems, c.LLM.checkProvider("LLM_FALLBACK_PROVIDER", c.LLM.FallbackProvider)...)
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, ", "))
	}
	return nil
}

// checkProvider reports what the named generation provider is missing. envVar
// is the setting that selected it.
func (l LLMConfig) checkProvider(envVar, name string) []string {
	switch name {
	case "ollama":
		if l.OllamaURL == "" {
			return []string{fmt.Sprintf("OLLAMA_URL (required by %s=ollama)", envVar)}
		}
	case "openai":
		if l.OpenAIKey == "" {
			return []string{fmt.Sprintf("OPENAI_API_KEY (required by %s=openai)", envVar)}
		}
	case "anthropic":
		if l.AnthropicKey == "" {
			return []string{fmt.Sprintf("ANTHROPIC_API_KEY (required by %s=anthropic)", envVar)}
		}
	default:
		return []string{fmt.Sprintf("unknown %s %q", envVar, name)}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
