// Package config loads digibank settings from defaults, an optional config
// file, DIGIBANK_* environment variables and command-line flags using Viper.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"digibank/pkg/money"
)

// EnvPrefix namespaces environment overrides, e.g. DIGIBANK_BASE_URL.
const EnvPrefix = "DIGIBANK"

// Journal backends.
const (
	JournalMemory = "memory"
	JournalFile   = "file"
	JournalRedis  = "redis"
)

// Config holds client and stub backend settings.
type Config struct {
	// BaseURL is the backend API root, e.g. http://localhost:8080/api.
	BaseURL string `mapstructure:"base_url"`
	// RequestTimeout bounds every non-transfer API call.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// SubmitTimeout bounds a single transfer submission.
	SubmitTimeout time.Duration `mapstructure:"submit_timeout"`
	Locale        string        `mapstructure:"locale"`
	Timezone      string        `mapstructure:"timezone"`
	// DefaultCurrency is used when the source account carries none.
	DefaultCurrency string `mapstructure:"default_currency"`
	PageSize        int    `mapstructure:"page_size"`
	// Journal selects where pending transfer intents are kept: memory, file or redis.
	Journal     string `mapstructure:"journal"`
	JournalPath string `mapstructure:"journal_path"`
	RedisURL    string `mapstructure:"redis_url"`
	SessionPath string `mapstructure:"session_path"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`

	// Stub backend only.
	MockbankAddr        string `mapstructure:"mockbank_addr"`
	JWTSigningKey       string `mapstructure:"jwt_signing_key"`
	OpeningBalanceCents int64  `mapstructure:"opening_balance_cents"`
}

var keys = []string{
	"base_url", "request_timeout", "submit_timeout", "locale", "timezone",
	"default_currency", "page_size", "journal", "journal_path", "redis_url",
	"session_path", "log_level", "log_format", "mockbank_addr", "jwt_signing_key",
	"opening_balance_cents",
}

// Load builds a validated Config. Flags registered with RegisterFlags take
// precedence over the environment, which takes precedence over the optional
// config file named by the "config" flag or DIGIBANK_CONFIG.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for _, key := range keys {
			if f := flags.Lookup(flagName(key)); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("config: bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	if path := configFile(flags); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RegisterFlags adds the client-facing settings to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file (yaml, json or toml)")
	fs.String(flagName("base_url"), "", "backend API root")
	fs.Duration(flagName("request_timeout"), 0, "timeout for API calls")
	fs.Duration(flagName("submit_timeout"), 0, "timeout for a transfer submission")
	fs.String(flagName("locale"), "", "locale for amounts, e.g. en-CA")
	fs.String(flagName("timezone"), "", "IANA zone used to group activity by day")
	fs.String(flagName("journal"), "", "pending intent journal: memory, file or redis")
	fs.String(flagName("log_level"), "", "debug, info, warn or error")
	fs.String(flagName("log_format"), "", "text or json")
}

func setDefaults(v *viper.Viper) {
	dir := stateDir()
	v.SetDefault("base_url", "http://localhost:8080/api")
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("submit_timeout", 15*time.Second)
	v.SetDefault("locale", money.DefaultLocale.String())
	v.SetDefault("timezone", "Local")
	v.SetDefault("default_currency", "CAD")
	v.SetDefault("page_size", 25)
	v.SetDefault("journal", JournalFile)
	v.SetDefault("journal_path", filepath.Join(dir, "pending-transfer.json"))
	v.SetDefault("redis_url", "")
	v.SetDefault("session_path", filepath.Join(dir, "session.json"))
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")
	v.SetDefault("mockbank_addr", ":8080")
	v.SetDefault("jwt_signing_key", "dev-secret-key-change-in-production")
	v.SetDefault("opening_balance_cents", 100000)
}

// Validate checks cross-field constraints after decoding.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: base_url %q must be an absolute http(s) URL", c.BaseURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config: request_timeout must be positive")
	}
	if c.SubmitTimeout <= 0 {
		return fmt.Errorf("config: submit_timeout must be positive")
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("config: page_size must be between 1 and 100, got %d", c.PageSize)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("config: locale %q: %w", c.Locale, err)
	}
	if len(c.DefaultCurrency) != 3 {
		return fmt.Errorf("config: default_currency must be a 3-letter code")
	}
	switch c.Journal {
	case JournalMemory:
	case JournalFile:
		if c.JournalPath == "" {
			return fmt.Errorf("config: journal_path is required for the file journal")
		}
	case JournalRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("config: redis_url is required for the redis journal")
		}
	default:
		return fmt.Errorf("config: unknown journal %q", c.Journal)
	}
	if c.OpeningBalanceCents < 0 {
		return fmt.Errorf("config: opening_balance_cents must not be negative")
	}
	return nil
}

// Location returns the configured time zone. Call after Validate.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func configFile(flags *pflag.FlagSet) string {
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			return f.Value.String()
		}
	}
	return os.Getenv(EnvPrefix + "_CONFIG")
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

func stateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "digibank")
	}
	return ".digibank"
}
