package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all client configuration
type Config struct {
	Nick          string   `yaml:"nick"`
	Server        string   `yaml:"server"`
	Port          int      `yaml:"port"`
	ServerPass    string   `yaml:"server_pass"`
	Username      string   `yaml:"username"`
	Realname      string   `yaml:"realname"`
	TLS           bool     `yaml:"tls"`
	TLSSkipVerify bool     `yaml:"tls_skip_verify"`
	SASLLogin     string   `yaml:"sasl_login"`
	SASLPassword  string   `yaml:"sasl_password"`
	Channels      []string `yaml:"channels"`
	QuitMessage   string   `yaml:"quit_message"`
	DataDir       string   `yaml:"data_dir"`
	Debug         bool     `yaml:"debug"`
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults
	if cfg.Port == 0 {
		if cfg.TLS {
			cfg.Port = 6697
		} else {
			cfg.Port = 6667
		}
	}
	if cfg.Username == "" {
		cfg.Username = cfg.Nick
	}
	if cfg.Realname == "" {
		cfg.Realname = cfg.Nick
	}
	if cfg.QuitMessage == "" {
		cfg.QuitMessage = "Shutting down"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}

	if cfg.Nick == "" {
		return nil, fmt.Errorf("config is missing a nick")
	}
	if cfg.Server == "" {
		return nil, fmt.Errorf("config is missing a server")
	}

	return &cfg, nil
}
