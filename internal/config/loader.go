package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "VOYAGER_"
	envFileVar = "VOYAGER_CONFIG"
	dotEnvPath = ".env"
)

// Load builds a Config by layering, from low to high precedence:
//  1. defaults (New)
//  2. file (YAML) if VOYAGER_CONFIG is set
//  3. env (prefix VOYAGER_), after loading ./.env when present
func Load(_ context.Context) (*Config, error) {
	base := New()

	if _, err := os.Stat(dotEnvPath); err == nil {
		// Existing environment variables win over .env entries.
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, dotEnvPath, err)
		}
	}

	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// VOYAGER_COMPRESSION_LEVEL -> compression_level
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errors.Join(ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Join(ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
