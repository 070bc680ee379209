package main

import (
	"log/slog"

	"github.com/joho/godotenv"

	"timeclock/internal/app/server"
)

func main() {
	// Missing .env is fine in containerized deployments.
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}
	server.Run()
}
