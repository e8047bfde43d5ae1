package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all the configuration for the application.
type Config struct {
	Env string `env:"APP_ENV" envDefault:"development"`

	// ChatboxToken authenticates the bot to the chatbox gateway.
	ChatboxToken string `env:"CHATBOX_TOKEN,notEmpty"`
	ChatboxURL   string `env:"CHATBOX_URL" envDefault:"wss://chat.sc3.io/v2/"`

	OpenTDBURL    string        `env:"OPENTDB_URL" envDefault:"https://opentdb.com"`
	DatabasePath  string        `env:"DB_PATH" envDefault:"./data/sctrivia.db"`
	AnswerTimeout time.Duration `env:"ANSWER_TIMEOUT" envDefault:"30s"`
}

// Load loads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
