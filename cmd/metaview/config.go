package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the metaview configuration.
type Config struct {
	Neo4j  Neo4jConfig  `mapstructure:"neo4j"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Output OutputConfig `mapstructure:"output"`
}

// Neo4jConfig is the export target.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// CacheConfig sizes the registry caches.
type CacheConfig struct {
	Instructions int `mapstructure:"instructions"`
}

// OutputConfig controls terminal output.
type OutputConfig struct {
	Color bool `mapstructure:"color"`
}

// loadConfig reads metaview.yaml from path, or from the current directory
// or $HOME/.config/metaview when path is empty. METAVIEW_* environment
// variables override file values, as in METAVIEW_NEO4J_URI.
func loadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.database", "")
	v.SetDefault("cache.instructions", 256)
	v.SetDefault("output.color", true)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("metaview")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "metaview"))
		}
	}

	v.SetEnvPrefix("METAVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if c.Cache.Instructions < 0 {
		return nil, fmt.Errorf("cache.instructions must not be negative, got %d", c.Cache.Instructions)
	}
	return &c, nil
}
