// Package daemon manages the fitquest daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all daemon configuration.
type Config struct {
	Store     StoreConfig     `toml:"store"`
	API       APIConfig       `toml:"api"`
	Engine    EngineConfig    `toml:"engine"`
	Logging   LoggingConfig   `toml:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// StoreConfig controls where state is persisted.
type StoreConfig struct {
	Dir string `toml:"dir"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// EngineConfig tunes the gamification engine.
type EngineConfig struct {
	CatalogFile   string `toml:"catalog_file"` // empty = built-in catalog
	MaxCASRetries int    `toml:"max_cas_retries"`
	LootSeed      int64  `toml:"loot_seed"`    // 0 = seed from clock
	IdleMinutes   int    `toml:"idle_minutes"` // cached engine lifetime without activity
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// TelemetryConfig controls metrics exposure.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	homeDir := fitquestHome()
	return Config{
		Store: StoreConfig{
			Dir: homeDir,
		},
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        8787,
			CORSOrigins: []string{"*"},
		},
		Engine: EngineConfig{
			MaxCASRetries: 5,
			IdleMinutes:   30,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(homeDir, "fitquest.log"),
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// LoadConfig reads config from $FITQUEST_HOME/config.toml, falling back to
// defaults. A .env file in the working directory is loaded first.
func LoadConfig() (Config, error) {
	loadDotEnv()

	cfg := DefaultConfig()
	path := ConfigPath()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = fitquestHome()
	}
	if cfg.Engine.MaxCASRetries <= 0 {
		cfg.Engine.MaxCASRetries = 5
	}
	if cfg.Engine.IdleMinutes <= 0 {
		cfg.Engine.IdleMinutes = 30
	}
	return cfg, nil
}

// applyEnv lets the environment override individual settings.
func applyEnv(cfg *Config) {
	if v := os.Getenv("FITQUEST_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		} else {
			log.Printf("[config] ignoring FITQUEST_PORT=%q: %v", v, err)
		}
	}
	if v := os.Getenv("FITQUEST_CATALOG"); v != "" {
		cfg.Engine.CatalogFile = v
	}
	if v := os.Getenv("FITQUEST_STORE_DIR"); v != "" {
		cfg.Store.Dir = v
	}
}

// SaveConfig writes the config to $FITQUEST_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// ConfigPath returns the config file location.
func ConfigPath() string {
	return filepath.Join(fitquestHome(), "config.toml")
}

var dotEnvOnce sync.Once

func loadDotEnv() {
	dotEnvOnce.Do(func() {
		if err := godotenv.Load(); err == nil {
			log.Printf("[config] loaded .env")
		}
	})
}

// fitquestHome returns the fitquest data directory.
func fitquestHome() string {
	if env := os.Getenv("FITQUEST_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".fitquest")
}

// Home is exported for use by other packages.
func Home() string {
	return fitquestHome()
}
