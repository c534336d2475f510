package main

import (
	"flag"
	"log/slog"
	"os"

	"peaktrail/internal/app"
	"peaktrail/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults to peaktrail.yaml or config.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	application, err := app.NewApplication(cfg, nil)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
