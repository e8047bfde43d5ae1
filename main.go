package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/MineRobber9000/sctrivia/bot"
	"github.com/MineRobber9000/sctrivia/chatbox"
	"github.com/MineRobber9000/sctrivia/config"
	"github.com/MineRobber9000/sctrivia/database"
	"github.com/MineRobber9000/sctrivia/logging"
	"github.com/MineRobber9000/sctrivia/trivia"
)

func main() {
	if os.Getenv("APP_ENV") != "production" {
		godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New("sctrivia", "unknown")
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.New("sctrivia", cfg.Env)
	logger.Info().Msg("starting SCTrivia...")

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("failed to open database")
	}
	defer db.Close()

	chat := chatbox.NewClient(cfg.ChatboxURL, cfg.ChatboxToken, logger)
	chat.DefaultName = "&eSCTrivia"
	chat.DefaultFormattingMode = "markdown"

	fetcher := trivia.NewClient(cfg.OpenTDBURL, nil, logger)

	b := bot.New(chat, fetcher, db, cfg.AnswerTimeout, logger)
	chat.HandleCommand(b.HandleCommand)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := chat.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal().Err(err).Msg("chatbox connection failed")
	}
	logger.Info().Msg("shutting down")
}
