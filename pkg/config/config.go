package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/zen-systems/alphacouncil/pkg/adapter"
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Market   MarketConfig   `mapstructure:"market"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	APIKeys  APIKeysConfig  `mapstructure:"api_keys"`

	// ConfigFile is the file that was read, empty when none was found.
	ConfigFile string `mapstructure:"-"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	MaxSessions     int           `mapstructure:"max_sessions"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MarketConfig configures the quote service.
type MarketConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LLMConfig configures provider calls.
type LLMConfig struct {
	SystemPrompt    string            `mapstructure:"system_prompt"`
	GeminiWebSearch bool              `mapstructure:"gemini_web_search"`
	BaseURLs        map[string]string `mapstructure:"base_urls"`
	ModelsFile      string            `mapstructure:"models_file"`
}

// PipelineConfig points at an optional stage manifest.
type PipelineConfig struct {
	Manifest string `mapstructure:"manifest"`
}

// APIKeysConfig holds the process-default credentials.
type APIKeysConfig struct {
	Gemini    string `mapstructure:"gemini"`
	DeepSeek  string `mapstructure:"deepseek"`
	Qwen      string `mapstructure:"qwen"`
	OpenAI    string `mapstructure:"openai"`
	Anthropic string `mapstructure:"anthropic"`
	Juhe      string `mapstructure:"juhe"`
}

// envKeys maps api_keys.* settings to the environment variables read for
// them, first match wins.
var envKeys = map[string][]string{
	"api_keys.gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"api_keys.deepseek":  {"DEEPSEEK_API_KEY"},
	"api_keys.qwen":      {"QWEN_API_KEY", "DASHSCOPE_API_KEY"},
	"api_keys.openai":    {"OPENAI_API_KEY"},
	"api_keys.anthropic": {"ANTHROPIC_API_KEY"},
	"api_keys.juhe":      {"JUHE_API_KEY"},
	"server.port":        {"PORT"},
}

// Loader reads configuration from defaults, a YAML file and the environment.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:         viper.New(),
		envPrefix: "ALPHACOUNCIL",
	}
}

// NewLoaderWithViper creates a loader over an existing viper instance, so
// CLI flags bound to it take precedence.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: "ALPHACOUNCIL",
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags bound to the viper instance
// 2. Environment variables (ALPHACOUNCIL_* and the provider key variables)
// 3. Config file (--config, ./alphacouncil.yaml, ~/.alphacouncil/config.yaml)
// 4. Defaults
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
	for key, names := range envKeys {
		if err := l.v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else if path := findConfigFile(); path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.ConfigFile = l.v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("server.host", "")
	l.v.SetDefault("server.port", 3001)
	l.v.SetDefault("server.cors_origins", []string{"*"})
	l.v.SetDefault("server.shutdown_timeout", "10s")
	l.v.SetDefault("server.session_ttl", "2h")
	l.v.SetDefault("server.max_sessions", 1024)

	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "text")

	l.v.SetDefault("market.base_url", "http://web.juhe.cn/finance/stock")
	l.v.SetDefault("market.timeout", "15s")

	l.v.SetDefault("llm.system_prompt", "You are a professional financial analysis assistant.")
	l.v.SetDefault("llm.gemini_web_search", true)
	l.v.SetDefault("llm.base_urls", map[string]string{})
	l.v.SetDefault("llm.models_file", "")

	l.v.SetDefault("pipeline.manifest", "")

	for key := range envKeys {
		if strings.HasPrefix(key, "api_keys.") {
			l.v.SetDefault(key, "")
		}
	}
}

// findConfigFile returns the first existing default config path.
func findConfigFile() string {
	candidates := []string{"alphacouncil.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".alphacouncil", "config.yaml"))
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not a level", c.Log.Level))
	}
	if c.Market.Timeout < 0 {
		errs = append(errs, fmt.Errorf("market.timeout must not be negative"))
	}
	for name := range c.LLM.BaseURLs {
		if _, err := adapter.ParseProvider(name); err != nil {
			errs = append(errs, fmt.Errorf("llm.base_urls: %w", err))
		}
	}
	return errors.Join(errs...)
}

// DefaultCredentials returns the process-level keys by provider name, plus
// "juhe" for market data. Unset keys are omitted.
func (c *Config) DefaultCredentials() map[string]string {
	all := map[string]string{
		string(adapter.ProviderGemini):    c.APIKeys.Gemini,
		string(adapter.ProviderDeepSeek):  c.APIKeys.DeepSeek,
		string(adapter.ProviderQwen):      c.APIKeys.Qwen,
		string(adapter.ProviderOpenAI):    c.APIKeys.OpenAI,
		string(adapter.ProviderAnthropic): c.APIKeys.Anthropic,
		"juhe":                            c.APIKeys.Juhe,
	}
	out := make(map[string]string, len(all))
	for k, v := range all {
		if v = strings.TrimSpace(v); v != "" {
			out[k] = v
		}
	}
	return out
}

// HasProvider returns true if a process-default key is configured for name.
func (c *Config) HasProvider(name string) bool {
	_, ok := c.DefaultCredentials()[strings.ToLower(name)]
	return ok
}

// ProviderBaseURLs returns the configured endpoint overrides.
func (c *Config) ProviderBaseURLs() map[adapter.Provider]string {
	out := make(map[adapter.Provider]string, len(c.LLM.BaseURLs))
	for name, url := range c.LLM.BaseURLs {
		if p, err := adapter.ParseProvider(name); err == nil && url != "" {
			out[p] = url
		}
	}
	return out
}
