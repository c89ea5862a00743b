package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/quizwire/trivia-live/internal/api"
	"github.com/quizwire/trivia-live/internal/client"
	"github.com/quizwire/trivia-live/internal/config"
	"github.com/quizwire/trivia-live/internal/logging"
)

func main() {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load("configs/.env"); err != nil {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.New(cfg.Name+"-player", cfg.Env)

	if cfg.Client.PlayerName == "" {
		log.Fatal("PLAYER_NAME must be set")
	}

	teamID, err := resolveTeam(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to resolve team: %v", err)
	}

	restClient := api.NewClient(cfg.Client.ServerURL, teamID, cfg.Client.PlayerName, logger)
	if err := ensureMembership(ctx, restClient, teamID); err != nil {
		log.Fatalf("failed to join team: %v", err)
	}

	sub, err := api.Subscribe(cfg.Client.WSURL, teamID, logger)
	if err != nil {
		log.Fatalf("failed to subscribe to push channel: %v", err)
	}

	session := client.NewSession(restClient, sub, client.Options{
		Logger:   logger,
		OnUpdate: render(logger),
	})
	if err := session.Start(context.Background()); err != nil {
		if errors.Is(err, client.ErrNoTeam) {
			log.Fatal("no team membership for this identity; set TEAM_NAME to create one")
		}
		log.Fatalf("failed to start session: %v", err)
	}
	defer session.Close()

	runPrompt(session, logger)
}

// resolveTeam returns the configured team id, creating a team when only a
// team name was given.
func resolveTeam(ctx context.Context, cfg *config.App, logger zerolog.Logger) (string, error) {
	if cfg.Client.TeamID != "" {
		return cfg.Client.TeamID, nil
	}
	if cfg.Client.TeamName == "" {
		return "", fmt.Errorf("set TEAM_ID to join a team or TEAM_NAME to create one")
	}

	bootstrap := api.NewClient(cfg.Client.ServerURL, "", cfg.Client.PlayerName, logger)
	teamID, err := bootstrap.CreateTeam(ctx, cfg.Client.TeamName, cfg.Client.PlayerName)
	if err != nil {
		return "", err
	}
	logger.Info().Str("team_id", teamID).Str("team_name", cfg.Client.TeamName).Msg("team created")
	return teamID, nil
}

// ensureMembership joins the team unless the player is already on it.
// Joining twice is a server-side error, so rejoining after a restart has to
// go through the status check.
func ensureMembership(ctx context.Context, c *api.Client, teamID string) error {
	status, err := c.PlayerStatus(ctx)
	if err != nil {
		return err
	}
	if status.HasTeam && status.TeamID == teamID {
		return nil
	}
	return c.JoinTeam(ctx, teamID)
}

// render logs each state change; the terminal log stream is this client's
// display surface.
func render(logger zerolog.Logger) func(kind string, snap client.SessionSnapshot) {
	return func(kind string, snap client.SessionSnapshot) {
		ev := logger.Info().Str("update", kind).Str("phase", snap.Phase)

		switch kind {
		case client.UpdateQuestion:
			if snap.Question != nil {
				ev = ev.
					Int("question", snap.Question.QuestionNumber).
					Int("of", snap.Question.TotalQuestions).
					Str("text", snap.Question.QuestionText).
					Strs("options", snap.Question.Options).
					Str("view", snap.ViewMode)
			}
		case client.UpdateTimer:
			ev = ev.
				Int("time_remaining", snap.Timer.TimeRemaining).
				Int("bonus", snap.Timer.BonusPoints).
				Bool("expired", snap.Timer.Expired)
		case client.UpdateResult:
			if snap.Result != nil {
				ev = ev.
					Bool("correct", snap.Result.Correct).
					Str("correct_answer", snap.Result.CorrectAnswer).
					Int("points_earned", snap.Result.PointsEarned).
					Int("bonus_points", snap.Result.BonusPoints).
					Int("team_score", snap.Result.TeamScore)
			}
		case client.UpdatePhase:
			if snap.PausedMessage != "" {
				ev = ev.Str("notice", snap.PausedMessage)
			}
		case client.UpdateFinal:
			for i, row := range snap.FinalScoreboard {
				ev = ev.Str(fmt.Sprintf("rank_%d", i+1), fmt.Sprintf("%s: %d", row.TeamName, row.Score))
			}
		}

		ev.Msg("game update")
	}
}

// runPrompt reads commands from stdin until EOF or quit.
func runPrompt(session *client.Session, logger zerolog.Logger) {
	fmt.Println("commands: pick <option> | type <answer> | submit | status | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		cmd, rest, _ := strings.Cut(line, " ")

		var err error
		switch cmd {
		case "":
			continue
		case "pick":
			err = session.SelectOption(rest)
		case "type":
			err = session.SetInput(rest)
		case "submit":
			err = session.SubmitAnswer(context.Background())
		case "status":
			snap := session.Snapshot()
			fmt.Printf("phase=%s view=%s pending=%q timer=%ds bonus=%d\n",
				snap.Phase, snap.ViewMode, snap.PendingAnswer,
				snap.Timer.TimeRemaining, snap.Timer.BonusPoints)
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command")
			continue
		}

		if err != nil {
			if client.IsValidation(err) {
				fmt.Printf("rejected: %v\n", err)
			} else {
				logger.Warn().Err(err).Msg("command failed")
			}
		}
	}
}
