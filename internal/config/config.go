package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

/*
Configuration is hierarchical, highest priority first:

 1. Runtime overrides (command-line flags)
 2. Environment variables (secrets and crucial switches)
 3. Local project config (./.technologic.yaml)
 4. Global user config ($XDG_CONFIG_HOME/technologic/config.yaml)
 5. Built-in defaults

Backend tokens are never written to config files by the tool; they come
from the environment (OPENAI_API_KEY, ANTHROPIC_API_KEY or a
TECHNOLOGIC_* override) or a .env file.
*/

// New loads, merges and validates the configuration.
func New(overrides *RuntimeOverrides) (*ConfigSchema, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("TECHNOLOGIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := loadEnv(); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	if err := loadConfigFiles(v); err != nil {
		return nil, err
	}

	var cfg ConfigSchema
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	applyOverrides(&cfg, overrides)
	fillTokensFromEnv(&cfg)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backends", []map[string]any{
		{
			"api":          "openai",
			"name":         "OpenAI",
			"url":          "https://api.openai.com/v1",
			"models":       []string{"gpt-4o", "gpt-4o-mini", "o1-mini"},
			"defaultModel": "gpt-4o-mini",
		},
		{
			"api":          "anthropic",
			"name":         "Anthropic",
			"url":          "https://api.anthropic.com/v1",
			"models":       []string{"claude-3-5-sonnet-latest", "claude-3-5-haiku-latest"},
			"defaultModel": "claude-3-5-sonnet-latest",
		},
	})
	v.SetDefault("backend.name", "OpenAI")
	v.SetDefault("log.level", "INFO")
	v.SetDefault("dbPath", defaultDBPath())
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "technologic.db"
	}
	return filepath.Join(home, ".technologic", "technologic.db")
}

// loadConfigFiles merges the global file then the local one, so local
// settings win.
func loadConfigFiles(v *viper.Viper) error {
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		if home, err := os.UserHomeDir(); err == nil {
			xdgConfig = filepath.Join(home, ".config")
		}
	}

	paths := []string{
		filepath.Join(xdgConfig, "technologic", "config.yaml"),
		".technologic.yaml",
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		file := viper.New()
		file.SetConfigFile(path)
		if err := file.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", path, err)
		}
		if err := v.MergeConfigMap(file.AllSettings()); err != nil {
			return fmt.Errorf("error merging config from %s: %w", path, err)
		}
	}
	return nil
}

func applyOverrides(cfg *ConfigSchema, overrides *RuntimeOverrides) {
	if overrides == nil {
		return
	}
	if overrides.Backend != "" {
		cfg.Backend.Name = overrides.Backend
	}
	if overrides.Model != "" {
		cfg.Backend.Model = overrides.Model
	}
	if overrides.DBPath != "" {
		cfg.DBPath = overrides.DBPath
	}
	if overrides.Verbose {
		cfg.Log.Level = "DEBUG"
	}
}

// fillTokensFromEnv gives tokenless backends the conventional key for
// their api kind. Explicit tokens in config files stay untouched.
func fillTokensFromEnv(cfg *ConfigSchema) {
	for i, be := range cfg.Backends {
		if be.Token != "" {
			continue
		}
		switch be.API {
		case "anthropic":
			cfg.Backends[i].Token = os.Getenv("ANTHROPIC_API_KEY")
		default:
			cfg.Backends[i].Token = os.Getenv("OPENAI_API_KEY")
		}
	}
}
