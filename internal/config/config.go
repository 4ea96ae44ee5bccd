package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Session  Session  `mapstructure:"session"`
	Quote    Quote    `mapstructure:"quote"`
	Trading  Trading  `mapstructure:"trading"`
	Logger   Logger   `mapstructure:"logger"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port         int    `mapstructure:"port"`
	TemplateGlob string `mapstructure:"template_glob"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Session holds the configuration for the session store.
type Session struct {
	Backend   string        `mapstructure:"backend"` // "redis" or "memory"
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisDB   int           `mapstructure:"redis_db"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// Quote holds the configuration for the market quote provider.
type Quote struct {
	BaseURL        string  `mapstructure:"base_url"`
	Token          string  `mapstructure:"token"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Trading holds the configuration for the trading rules.
type Trading struct {
	StartingCash string `mapstructure:"starting_cash"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.template_glob", "web/templates/*.html")
	viper.SetDefault("database.dsn", "finance.db")
	viper.SetDefault("session.backend", "memory")
	viper.SetDefault("session.redis_addr", "127.0.0.1:6379")
	viper.SetDefault("session.ttl", 24*time.Hour)
	viper.SetDefault("quote.rate_limit", 10) // requests per second
	viper.SetDefault("quote.rate_limit_burst", 5)
	viper.SetDefault("trading.starting_cash", "10000")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
