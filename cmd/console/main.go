package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/nightloop/internal/config"
	"github.com/jwebster45206/nightloop/internal/logger"
	"github.com/jwebster45206/nightloop/internal/services"
	"github.com/jwebster45206/nightloop/internal/storage"
	"github.com/jwebster45206/nightloop/pkg/agents"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	store := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
	defer func() {
		_ = store.Close()
	}()

	gen := buildGenerator(cfg, log)
	seed := resolveSeed(cfg.Seed)

	p := tea.NewProgram(NewConsoleUI(store, gen, seed, log),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// buildGenerator prefers a live Ollama instance and falls back to the
// mock generator, which makes every agent use its canned lines.
func buildGenerator(cfg *config.Config, log *slog.Logger) agents.TextGenerator {
	ollama := services.NewOllamaService(cfg.OllamaURL, cfg.ModelName, log)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if ollama.Available(ctx) {
		log.Info("Using Ollama for text generation", "url", cfg.OllamaURL, "model", cfg.ModelName)
		return ollama
	}

	log.Warn("Ollama not reachable, falling back to canned responses", "url", cfg.OllamaURL)
	return services.NewMockGenerator()
}

func resolveSeed(raw string) int64 {
	if raw != "" {
		if seed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}
