package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across binaries.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"trivia-live"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:5001"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Game   Game
	Client Client
}

// Game groups the server-side gameplay settings.
type Game struct {
	QuestionFile    string        `env:"QUESTION_FILE" envDefault:"questions.md"`
	QuestionSeconds time.Duration `env:"QUESTION_SECONDS" envDefault:"60s"`
}

// Client groups the player client's connection settings.
type Client struct {
	ServerURL  string `env:"SERVER_URL" envDefault:"http://127.0.0.1:5001"`
	WSURL      string `env:"WS_URL" envDefault:"ws://127.0.0.1:5001/ws"`
	TeamID     string `env:"TEAM_ID"`
	PlayerName string `env:"PLAYER_NAME"`
	TeamName   string `env:"TEAM_NAME"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
