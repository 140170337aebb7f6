package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Cinema   CinemaConfig   `mapstructure:"cinema"`
	TMDB     TMDBConfig     `mapstructure:"tmdb"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// CinemaConfig holds the cinema listing source configuration.
type CinemaConfig struct {
	Name        string `mapstructure:"name"`
	ScheduleURL string `mapstructure:"schedule_url"`
	Definition  string `mapstructure:"definition"` // path to a YAML selector definition; empty uses the built-in one
	TimeoutSecs int    `mapstructure:"timeout_secs"`
	Timezone    string `mapstructure:"timezone"` // IANA zone for listing times without an offset
}

// TMDBConfig holds the movie metadata source configuration.
type TMDBConfig struct {
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	Language    string `mapstructure:"language"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// RefreshConfig holds the periodic refresh cycle configuration.
type RefreshConfig struct {
	Cron         string `mapstructure:"cron"`
	RunOnStart   bool   `mapstructure:"run_on_start"`
	CacheTTLMins int    `mapstructure:"cache_ttl_mins"`
}

// AuthConfig holds API authentication configuration. Auth is disabled when
// the API key is empty.
type AuthConfig struct {
	APIKey       string `mapstructure:"api_key"`
	JWTSecret    string `mapstructure:"jwt_secret"`
	TokenTTLMins int    `mapstructure:"token_ttl_mins"`
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.marquee")
	}

	v.SetEnvPrefix("MARQUEE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing config file is fine; defaults plus env vars apply.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.path", "./data/marquee.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.path", "")

	v.SetDefault("cinema.name", "")
	v.SetDefault("cinema.schedule_url", "")
	v.SetDefault("cinema.definition", "")
	v.SetDefault("cinema.timeout_secs", 30)
	v.SetDefault("cinema.timezone", "Local")

	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.language", "en-US")
	v.SetDefault("tmdb.timeout_secs", 15)

	// Cinema schedules change a few times a day at most.
	v.SetDefault("refresh.cron", "0 */6 * * *")
	v.SetDefault("refresh.run_on_start", true)
	v.SetDefault("refresh.cache_ttl_mins", 360)

	v.SetDefault("auth.api_key", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl_mins", 60)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
