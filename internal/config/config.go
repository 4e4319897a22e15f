// Package config handles loading and parsing application configuration.
// It supports these sources (later ones override earlier ones):
//  1. A YAML file given by --config=/path/to/config.yaml or CONFIG_PATH
//  2. Environment variables (env:"..." tags), including those from a
//     .env file in the working directory
//
// Without a file, configuration comes from the environment alone.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	// Loads .env into the process environment before anything reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable.
type Config struct {
	// Env controls log format and verbosity: "dev", "staging", "prod".
	Env string `yaml:"env" env:"ENV" env-required:"true" validate:"oneof=dev staging prod"`

	HTTPServer `yaml:"http_server"`

	Storage Storage `yaml:"storage"`

	Students Students `yaml:"students"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:8082".
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-required:"true"`
}

// Storage selects and configures the record store.
//
// DSN is a file path for sqlite and a connection string for postgres.
// The persisted backends refuse to start without it.
type Storage struct {
	Backend string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"memory" validate:"oneof=memory sqlite postgres"`
	DSN     string `yaml:"dsn" env:"STORAGE_DSN" validate:"required_unless=Backend memory"`
}

// Students holds the field rules that differed between deployments.
type Students struct {
	MinAge            int  `yaml:"min_age" env:"STUDENTS_MIN_AGE" env-default:"0" validate:"gte=0"`
	MaxAge            int  `yaml:"max_age" env:"STUDENTS_MAX_AGE" env-default:"150" validate:"gtefield=MinAge"`
	ClassYearNullable bool `yaml:"class_year_nullable" env:"STUDENTS_CLASS_YEAR_NULLABLE" env-default:"false"`

	// Seed inserts the demo students at startup.
	Seed bool `yaml:"seed" env:"STUDENTS_SEED" env-default:"false"`
}

// Load reads the config from path (or the environment only, when path
// is empty) and validates it.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("cannot read config from environment: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// MustLoad resolves the config path from the flag value or CONFIG_PATH
// and exits the process if the config cannot be loaded.
func MustLoad(flagPath string) *Config {
	path := flagPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	cfg, err := Load(path)
	if err != nil {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		logger.Fatal().Err(err).Str("path", path).Msg("could not load config")
	}

	return cfg
}
