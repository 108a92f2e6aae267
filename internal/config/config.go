// Package config loads barrister's runtime configuration: the demo HTTP
// server's address and timeouts, the client's target and headers, and the
// request/response validation toggles the core runtime leaves to the
// embedder.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is barrister's full runtime configuration, loaded from
// barrister.yml/barrister.yaml with environment variable overrides.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Client   ClientConfig   `mapstructure:"client"`
	Validate ValidateConfig `mapstructure:"validate"`
}

// ServerConfig configures the demo HTTP server.
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
}

// Address returns the server's listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ClientConfig configures the HTTP transport used by the client.
type ClientConfig struct {
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

// ValidateConfig toggles request and response validation independently of
// each other. The serve command applies both toggles to the RPC server.
type ValidateConfig struct {
	Request  bool `mapstructure:"request"`
	Response bool `mapstructure:"response"`
}

// Load reads barrister.yml/barrister.yaml from the current directory,
// falling back to defaults when no file is present, with BARRISTER_*
// environment variables taking precedence over file values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 9233)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("client.url", "http://localhost:9233/")
	v.SetDefault("validate.request", true)
	v.SetDefault("validate.response", true)

	v.SetConfigName("barrister")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BARRISTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
