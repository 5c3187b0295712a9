package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/joeandaverde/tinytable/internal/backend"
	"github.com/joeandaverde/tinytable/internal/server"
)

// Config is the database configuration file
type Config struct {
	DataFile       string       `yaml:"data_file"`
	Addr           string       `yaml:"addr"`
	MaxConnections int          `yaml:"max_connections"`
	EagerFlush     bool         `yaml:"eager_flush"`
	LogLevel       logrus.Level `yaml:"log_level"`
}

func defaultConfig() *Config {
	return &Config{
		Addr:     "127.0.0.1:5533",
		LogLevel: logrus.InfoLevel,
	}
}

// loadConfig decodes the config file at path over the defaults. An empty path yields the defaults.
func loadConfig(path string, config *Config) error {
	if path == "" {
		return nil
	}

	configFile, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	defer configFile.Close()

	if err := yaml.NewDecoder(configFile).Decode(config); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

func (c *Config) engineConfig() backend.Config {
	return backend.Config{
		Path:       c.DataFile,
		EagerFlush: c.EagerFlush,
	}
}

func (c *Config) serverConfig() server.Config {
	return server.Config{
		MaxConnections: c.MaxConnections,
	}
}

func newLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	return logger
}
