package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/app"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/config"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/logging"
	"github.com/joho/godotenv"
)

const envFilePath = ".env"

var shutdownSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}

func main() {
	if err := godotenv.Load(envFilePath); err != nil {
		logging.Info().Msg(".env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	service, err := app.NewService(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize service")
	}

	if err := service.Run(ctx); err != nil {
		logging.Error().Err(err).Msg("service stopped with error")
		stop()
		os.Exit(1)
	}
}
