package main

import (
	"log/slog"
	"os"

	"bitewatch/internal/app"
)

func main() {
	// Create application instance
	application, err := app.NewApplication()
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start application
	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
