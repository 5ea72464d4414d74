package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"portfolio-server/internal/highscore"
	"portfolio-server/internal/server"
	"portfolio-server/pkg/config"

	"github.com/sirupsen/logrus"
)

func main() {
	// Configure logrus
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load(".")
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logrus.SetLevel(cfg.ParseLogLevel())

	store, err := highscore.Open(cfg.HighScoreFile)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize high score file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg, store).Run(ctx); err != nil {
		logrus.WithError(err).Fatal("Server stopped")
	}
}
