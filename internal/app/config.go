package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the client's environment-driven configuration.
type Config struct {
	APIBaseURL     string        `env:"RAMSITA_API_BASE_URL" envDefault:"http://localhost:8080/api"`
	WSBaseURL      string        `env:"RAMSITA_WS_BASE_URL" envDefault:"ws://localhost:8080/ws"`
	SessionDBPath  string        `env:"RAMSITA_SESSION_DB" envDefault:"ramsita-session.db"`
	ReconnectDelay time.Duration `env:"RAMSITA_RECONNECT_DELAY" envDefault:"2s"`
	LogSinks       []string      `env:"RAMSITA_LOG_SINKS" envSeparator:"," envDefault:"console"`
	LogJSONPath    string        `env:"RAMSITA_LOG_JSON_PATH" envDefault:"ramsita-events.ndjson"`
}

// ParseConfig loads configuration from environment variables.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
