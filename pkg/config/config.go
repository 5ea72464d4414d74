package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the server configuration read from the environment
type Config struct {
	Port           string   `env:"PORTFOLIO_PORT"            envDefault:"3000"`
	HighScoreFile  string   `env:"PORTFOLIO_HIGHSCORE_FILE"  envDefault:"highscore.json"`
	ContentDir     string   `env:"PORTFOLIO_CONTENT_DIR"     envDefault:"main-folder"`
	PublicDir      string   `env:"PORTFOLIO_PUBLIC_DIR"      envDefault:"public"`
	LogLevel       string   `env:"PORTFOLIO_LOG_LEVEL"       envDefault:"info"`
	AllowedOrigins []string `env:"PORTFOLIO_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads an optional .env file from dir and then parses the environment.
// A missing .env file is not an error.
func Load(dir string) (Config, error) {
	envFile := filepath.Join(dir, ".env")
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
		logrus.WithField("file", envFile).Debug("No .env file found, using environment only")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Addr returns the listen address for the configured port
func (c Config) Addr() string {
	return ":" + c.Port
}

// ParseLogLevel returns the logrus level for the configured name, falling
// back to info on an unknown value.
func (c Config) ParseLogLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.WithField("level", c.LogLevel).Warn("Unknown log level, using info")
		return logrus.InfoLevel
	}
	return level
}

// NewUpgrader returns a websocket upgrader that accepts the configured origins
func (c Config) NewUpgrader() websocket.Upgrader {
	origins := c.AllowedOrigins
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range origins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}
}
