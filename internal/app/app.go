package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/quizwire/trivia-live/internal/config"
	"github.com/quizwire/trivia-live/internal/game"
	"github.com/quizwire/trivia-live/internal/logging"
	"github.com/quizwire/trivia-live/internal/server"
	"github.com/quizwire/trivia-live/pkg/ws"
)

// Application aggregates the game state, the push hub, and the HTTP server.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	game   *game.Game
	ticker *game.Ticker
	http   *http.Server

	bgCancels []context.CancelFunc
}

// New bootstraps config, logger, the question file, and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	questions, err := game.ParseQuestionFile(cfg.Game.QuestionFile)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	logger.Info().Int("count", len(questions)).Str("file", cfg.Game.QuestionFile).Msg("questions loaded")

	g := game.New(questions, game.Options{
		Logger:          logger,
		QuestionSeconds: int(cfg.Game.QuestionSeconds.Seconds()),
	})
	hub := ws.NewHub(logger)
	ticker := game.NewTicker(g, hub, logger)

	srv := server.New(g, hub, logger)
	httpServer := server.NewHTTPServer(cfg, srv)

	return &Application{
		cfg:       cfg,
		logger:    logger,
		game:      g,
		ticker:    ticker,
		http:      httpServer,
		bgCancels: make([]context.CancelFunc, 0, 1),
	}, nil
}

// Run starts the HTTP server and the timer broadcaster, then waits for
// termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	tickerCtx, cancel := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancel)
	go a.ticker.Run(tickerCtx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancelShutdown()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
