// Package config provides functionality for managing configuration options
// for the application. Values are layered: built-in defaults, an optional
// YAML file, an optional .env file, then environment variables. Command-line
// flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// StoreKind selects the key/value backend of the local store.
type StoreKind string

const (
	StoreFile   StoreKind = "file"
	StoreSQLite StoreKind = "sqlite"
	StoreMemory StoreKind = "memory"
)

// DefaultAddr is where the local API listens unless configured otherwise.
const DefaultAddr = "127.0.0.1:8080"

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Options holds the configuration values for the application.
type Options struct {
	// APIKey is the Gemini credential. Empty means demo mode.
	APIKey string `yaml:"api_key" env:"GEMINI_API_KEY"`

	// Model is the Gemini model name.
	Model string `yaml:"model" env:"AGRIVISION_MODEL"`

	// Store selects the local store backend.
	Store StoreKind `yaml:"store" env:"AGRIVISION_STORE"`

	// DataPath is the store file or database. Empty means a file under the
	// user config directory.
	DataPath string `yaml:"data" env:"AGRIVISION_DATA"`

	// Addr is the local API listen address (ip:port).
	Addr string `yaml:"addr" env:"AGRIVISION_ADDR"`

	// Lat and Lon fix the device position. Both must be set for weather.
	Lat *float64 `yaml:"lat" env:"AGRIVISION_LAT"`
	Lon *float64 `yaml:"lon" env:"AGRIVISION_LON"`

	// LogLevel is a zap level name.
	LogLevel string `yaml:"log_level" env:"AGRIVISION_LOG_LEVEL"`
}

// Defaults returns the built-in configuration.
func Defaults() Options {
	return Options{
		Model:    "gemini-2.5-flash",
		Store:    StoreFile,
		Addr:     DefaultAddr,
		LogLevel: "info",
	}
}

// Load builds Options from defaults, the YAML file at configPath (skipped
// when empty), the .env file at dotenvPath (skipped when missing) and the
// process environment.
func Load(configPath, dotenvPath string) (Options, error) {
	return load(configPath, dotenvPath, env.ToMap(os.Environ()))
}

func load(configPath, dotenvPath string, environ map[string]string) (Options, error) {
	opts := Defaults()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return Options{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &opts); err != nil {
			return Options{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	vars := map[string]string{}
	if dotenvPath != "" {
		dotenv, err := godotenv.Read(dotenvPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Options{}, fmt.Errorf("load .env file: %w", err)
		}
		for k, v := range dotenv {
			vars[k] = v
		}
	}
	for k, v := range environ {
		vars[k] = v
	}
	if vars["GEMINI_API_KEY"] == "" && vars["API_KEY"] != "" {
		vars["GEMINI_API_KEY"] = vars["API_KEY"]
	}

	if err := env.ParseWithOptions(&opts, env.Options{Environment: vars}); err != nil {
		return Options{}, fmt.Errorf("parse environment: %w", err)
	}
	return opts, opts.Validate()
}

// Validate checks option values.
func (o Options) Validate() error {
	switch o.Store {
	case StoreFile, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, o.Store)
	}
	if o.Addr == "" {
		return fmt.Errorf("%w: empty listen address", ErrInvalidConfig)
	}
	if (o.Lat == nil) != (o.Lon == nil) {
		return fmt.Errorf("%w: latitude and longitude must be set together", ErrInvalidConfig)
	}
	if o.Lat != nil && (*o.Lat < -90 || *o.Lat > 90) {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidConfig, *o.Lat)
	}
	if o.Lon != nil && (*o.Lon < -180 || *o.Lon > 180) {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidConfig, *o.Lon)
	}
	return nil
}

// StorePath returns DataPath, or the default location for the configured
// backend under the user config directory.
func (o Options) StorePath() (string, error) {
	if o.DataPath != "" {
		return o.DataPath, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	name := "store.json"
	if o.Store == StoreSQLite {
		name = "store.db"
	}
	return filepath.Join(dir, "agrivision", name), nil
}
