package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/777mlb/markdown-viewer/internal/api"
	"github.com/777mlb/markdown-viewer/internal/config"
	"github.com/777mlb/markdown-viewer/internal/gh"
	"github.com/777mlb/markdown-viewer/internal/publish"
	"github.com/777mlb/markdown-viewer/internal/render"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	client := gh.NewClient()
	publisher := publish.New(client, log)
	handler := api.NewHandler(client, publisher, render.New(), log, cfg.GitHubToken)
	router := api.NewRouter(handler)

	if cfg.GitHubToken == "" {
		log.Warn("GITHUB_TOKEN not set, using unauthenticated rate limits unless requests carry their own token")
	}
	log.Info("markdown-viewer server listening", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}
