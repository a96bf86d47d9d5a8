package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Log      LogConfig
	Loader   LoaderConfig
	Refresh  RefreshConfig
	Legend   LegendConfig
}

type ServerConfig struct {
	Port            string
	RateLimit       int // Requests per IP per window, 0 disables the limiter
	RateLimitWindow int // Seconds
}

type DatabaseConfig struct {
	Path string
}

type AuthConfig struct {
	Enabled   bool
	JWTSecret string
	Issuer    string
}

type LogConfig struct {
	Level  string
	Format string // json or console
}

// LoaderConfig controls remote dataset fetching
type LoaderConfig struct {
	TimeoutSeconds int
	MaxBytes       int64
	NoDataValue    float64 // Sentinel marking a missing observation
}

// RefreshConfig controls scheduled reloading of URL-backed datasets
type RefreshConfig struct {
	Enabled  bool
	Schedule string // Cron expression
}

type LegendConfig struct {
	FontPath string // Optional TrueType font; the built-in bitmap face is used when empty
}

// Load 加载配置
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("TABLEVIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("tableviz")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/tableviz/")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("server.port"),
			RateLimit:       v.GetInt("server.rate_limit"),
			RateLimitWindow: v.GetInt("server.rate_limit_window"),
		},
		Database: DatabaseConfig{
			Path: v.GetString("database.path"),
		},
		Auth: AuthConfig{
			Enabled:   v.GetBool("auth.enabled"),
			JWTSecret: v.GetString("auth.jwt_secret"),
			Issuer:    v.GetString("auth.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Loader: LoaderConfig{
			TimeoutSeconds: v.GetInt("loader.timeout_seconds"),
			MaxBytes:       v.GetInt64("loader.max_bytes"),
			NoDataValue:    v.GetFloat64("loader.no_data_value"),
		},
		Refresh: RefreshConfig{
			Enabled:  v.GetBool("refresh.enabled"),
			Schedule: v.GetString("refresh.schedule"),
		},
		Legend: LegendConfig{
			FontPath: v.GetString("legend.font_path"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("server.rate_limit_window", 60)

	v.SetDefault("database.path", "./data/tableviz.db")

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_secret", "your-secret-key-change-in-production")
	v.SetDefault("auth.issuer", "tableviz")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("loader.timeout_seconds", 30)
	v.SetDefault("loader.max_bytes", 64*1024*1024) // 64MB
	v.SetDefault("loader.no_data_value", -9999.0)

	v.SetDefault("refresh.enabled", false)
	v.SetDefault("refresh.schedule", "*/15 * * * *")

	v.SetDefault("legend.font_path", "")
}

// Validate checks the configuration for values the server cannot start with
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port must not be empty")
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required when auth is enabled")
	}
	if c.Loader.TimeoutSeconds <= 0 {
		return fmt.Errorf("loader.timeout_seconds must be positive, got %d", c.Loader.TimeoutSeconds)
	}
	if c.Refresh.Enabled && c.Refresh.Schedule == "" {
		return fmt.Errorf("refresh.schedule is required when refresh is enabled")
	}
	return nil
}
