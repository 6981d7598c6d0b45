package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override database_url, in priority order
var databaseURLEnv = []string{"FCF_DATABASE_URL", "DATABASE_URL"}

// Load reads a YAML config file, then applies environment overrides.
// A .env file in the working directory is loaded first when present; real environment variables win over it.
func Load(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv(os.LookupEnv)
	return &cfg, nil
}

func (c *AppConfig) applyEnv(lookup func(string) (string, bool)) {
	for _, key := range databaseURLEnv {
		if v, ok := lookup(key); ok && v != "" {
			c.DatabaseURL = v
			return
		}
	}
}
