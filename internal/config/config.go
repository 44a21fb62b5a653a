package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	ModelBaseURL      string        `mapstructure:"model_base_url" yaml:"model_base_url"`
	ModelAPIKey       string        `mapstructure:"model_api_key" yaml:"model_api_key"`
	ModelName         string        `mapstructure:"model_name" yaml:"model_name"`
	ModelTimeout      time.Duration `mapstructure:"model_timeout" yaml:"model_timeout"`
	MessagesPerMinute int           `mapstructure:"messages_per_minute" yaml:"messages_per_minute"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "recipes.db",
		ModelBaseURL:      "https://api.openai.com/v1",
		ModelName:         "gpt-4o-mini",
		ModelTimeout:      60 * time.Second,
		MessagesPerMinute: 30,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.ModelBaseURL != "" {
		c.ModelBaseURL = other.ModelBaseURL
	}
	if other.ModelAPIKey != "" {
		c.ModelAPIKey = other.ModelAPIKey
	}
	if other.ModelName != "" {
		c.ModelName = other.ModelName
	}
	if other.ModelTimeout != 0 {
		c.ModelTimeout = other.ModelTimeout
	}
	if other.MessagesPerMinute != 0 {
		c.MessagesPerMinute = other.MessagesPerMinute
	}
}
