// Package config provides a viper-backed configuration loader, mirroring
// the teacher's pkg/config/config.go shape (a mapstructure-tagged struct
// merged from a YAML file and CLI flag overrides) trimmed to the fields
// this server actually has.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for a synnergy-kv node.
type Config struct {
	Port       int    `mapstructure:"port" json:"port"`
	ReplicaOf  string `mapstructure:"replicaof" json:"replicaof"`
	Dir        string `mapstructure:"dir" json:"dir"`
	DBFilename string `mapstructure:"dbfilename" json:"dbfilename"`
	Logging    struct {
		Level string `mapstructure:"level" json:"level"`
	} `mapstructure:"logging" json:"logging"`
}

// Default returns the zero-value configuration with the documented
// defaults applied (port 6379, no replica source).
func Default() Config {
	cfg := Config{Port: 6379}
	cfg.Logging.Level = "info"
	return cfg
}

// Load reads an optional config file (if present on viper's search path)
// and merges it under the defaults. Missing config files are not an error;
// CLI flags bound via viper.BindPFlag take precedence over file values.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	v.SetDefault("port", cfg.Port)
	v.SetDefault("logging.level", cfg.Logging.Level)

	v.SetConfigName("synnergy-kv")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, fmt.Errorf("config: read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
