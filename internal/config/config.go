// Package config loads the classroom TUI configuration file.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Settle    SettleConfig    `yaml:"settle"`
}

type ServerConfig struct {
	URL string `yaml:"url"`
}

type ReconnectConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

type SettleConfig struct {
	EndedNotice time.Duration `yaml:"ended_notice"`
	Redirect    time.Duration `yaml:"redirect"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL: "ws://127.0.0.1:8080/ws",
		},
		Reconnect: ReconnectConfig{
			MaxAttempts: 10,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		},
		Settle: SettleConfig{
			EndedNotice: time.Second,
			Redirect:    2 * time.Second,
		},
	}
}

// Load reads a YAML file over the defaults. A missing file is not an
// error; the defaults stand.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
