package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/cmlabs-hris/attendance-backend-go/internal/cli"
	"github.com/cmlabs-hris/attendance-backend-go/internal/config"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(cfg.App.LogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := cli.NewRootCmd(&cli.App{Config: cfg, Log: log})
	return rootCmd.ExecuteContext(ctx)
}
