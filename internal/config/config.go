package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by ldflags during release builds
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("panelgate version %s, commit %s, built at %s", version, commit, date)
}

// EnvPrefix prefixes every setting that has no dedicated environment variable,
// e.g. PANELGATE_SERVER_READ_TIMEOUT.
const EnvPrefix = "PANELGATE"

type Config struct {
	Server            ServerConfig  `mapstructure:"server"`
	Logging           LoggingConfig `mapstructure:"logging"`
	Discord           DiscordConfig `mapstructure:"discord"`
	Paths             PathsConfig   `mapstructure:"paths"`
	URL               string        `mapstructure:"url"` // Public base URL of the deployment.
	AuthorizedUserIDs []string      `mapstructure:"authorized_user_ids"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DiscordConfig struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// PathsConfig holds the paths joined onto URL.
type PathsConfig struct {
	Callback string `mapstructure:"callback"`
	Panel    string `mapstructure:"panel"`
	Login    string `mapstructure:"login"`
}

// envBindings keeps the variable names the deployment already uses.
var envBindings = map[string]string{
	"discord.client_id":     "DISCORD_CLIENT_ID",
	"discord.client_secret": "DISCORD_CLIENT_SECRET",
	"discord.base_url":      "DISCORD_BASE_URL",
	"discord.timeout":       "PROVIDER_TIMEOUT",
	"url":                   "URL",
	"authorized_user_ids":   "AUTHORIZED_USER_IDS",
	"paths.login":           "LOGIN_PATH",
	"server.host":           "HOST",
	"server.port":           "PORT",
	"logging.level":         "LOG_LEVEL",
	"logging.format":        "LOG_FORMAT",
}

// flagBindings maps command line flags onto config keys.
var flagBindings = map[string]string{
	"port":      "server.port",
	"log-level": "logging.level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.disable_stacktrace", false)
	v.SetDefault("discord.client_id", "")
	v.SetDefault("discord.client_secret", "")
	v.SetDefault("discord.base_url", "https://discord.com")
	v.SetDefault("discord.timeout", 10*time.Second)
	v.SetDefault("paths.callback", "/auth/discord")
	v.SetDefault("paths.panel", "/admin-panel.html")
	v.SetDefault("paths.login", "/login.html")
	v.SetDefault("url", "")
	v.SetDefault("authorized_user_ids", []string{})
}

// InitFlags registers the command line flags Load understands.
func InitFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a YAML config file")
	fs.Int("port", 8080, "Port to listen on")
	fs.String("log-level", "info", "Log level (debug|info|warn|error)")
}

// Load reads configuration from flags, environment and an optional YAML file,
// in that order of precedence. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	configFile := ""
	if fs != nil {
		for name, key := range flagBindings {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
		if f := fs.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("panelgate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/panelgate")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.AuthorizedUserIDs = trimCSV(cfg.AuthorizedUserIDs)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with. Missing credentials are
// not errors; see Warnings.
func (c *Config) Validate() error {
	if c.Discord.Timeout <= 0 {
		return fmt.Errorf("discord.timeout must be positive, got %s (PROVIDER_TIMEOUT)", c.Discord.Timeout)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d (PORT)", c.Server.Port)
	}
	if err := requireAbsolute("discord.base_url", c.Discord.BaseURL); err != nil {
		return err
	}
	if c.URL != "" {
		if err := requireAbsolute("url", c.URL); err != nil {
			return err
		}
	}
	if !strings.HasPrefix(c.Paths.Callback, "/") {
		return fmt.Errorf("paths.callback must start with /, got %q", c.Paths.Callback)
	}
	if _, err := url.Parse(c.Paths.Login); err != nil {
		return fmt.Errorf("paths.login: %w", err)
	}
	return nil
}

// Warnings lists settings that let the server start but will make every login fail
// or misroute.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Discord.ClientID == "" {
		warnings = append(warnings, "DISCORD_CLIENT_ID is not set")
	}
	if c.Discord.ClientSecret == "" {
		warnings = append(warnings, "DISCORD_CLIENT_SECRET is not set")
	}
	if c.URL == "" {
		warnings = append(warnings, "URL is not set; callback and panel URLs are relative")
	}
	if len(c.AuthorizedUserIDs) == 0 {
		warnings = append(warnings, "AUTHORIZED_USER_IDS is empty; every user will be unauthorized")
	}
	return warnings
}

// CallbackURL is the redirect_uri registered with Discord.
func (c *Config) CallbackURL() string { return joinURL(c.URL, c.Paths.Callback) }

// PanelURL is where allow-listed users end up.
func (c *Config) PanelURL() string { return joinURL(c.URL, c.Paths.Panel) }

// Addr is the listen address.
func (c *Config) Addr() string { return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port) }

func joinURL(base, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(base, "/") + path
}

func requireAbsolute(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
	}
	return nil
}

// trimCSV removes blank entries and surrounding spaces from a comma-split list.
func trimCSV(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			result = append(result, v)
		}
	}
	return result
}
