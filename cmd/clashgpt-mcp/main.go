package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/time/rate"

	"github.com/dawsonpowell07/clashgpt/internal/catalog"
	"github.com/dawsonpowell07/clashgpt/internal/config"
	"github.com/dawsonpowell07/clashgpt/internal/deck"
	"github.com/dawsonpowell07/clashgpt/internal/tools"
	"github.com/dawsonpowell07/clashgpt/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml (default: ~/.clashgpt/config.toml)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("clashgpt-mcp %s\n", version.GetVersion())
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.App.DebugMode {
		level = slog.LevelDebug
	}
	// stdout carries the MCP protocol; all logging goes to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cat, err := loadCatalog(cfg, logger)
	if err != nil {
		// Degraded catalog: tools that need it report the condition to
		// the agent instead of silently returning nothing useful.
		logger.Warn("Card catalog unavailable, continuing degraded", "error", err)
	}

	searchOpts := deck.DefaultClientOptions(cfg.Backend.BaseURL)
	searchOpts.Timeout = cfg.BackendTimeout()
	searchOpts.APIKey = cfg.Backend.APIKey
	searchOpts.Logger = logger
	if cfg.Search.RateLimitMS > 0 {
		searchOpts.RateLimit = rate.Limit(1000.0 / float64(cfg.Search.RateLimitMS))
	}
	searchClient, err := deck.NewClient(searchOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	deps, err := tools.NewDeps(cat, searchClient, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	deps.Cache = deck.NewResultCache(cfg.CacheTTL(), cfg.Cache.MaxSize)

	s := server.NewMCPServer("clashgpt", version.GetVersion())
	tools.RegisterTools(s, deps)

	logger.Info("Serving game-data tools over stdio",
		"session", deps.SessionID,
		"catalog", cat.Len())

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// loadCatalog fetches the card catalog once, from a local fixture in
// dev mode or from the backend otherwise. It always returns a usable
// (possibly empty) catalog; the error reports degradation.
func loadCatalog(cfg *config.Config, logger *slog.Logger) (*catalog.Catalog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.BackendTimeout())
	defer cancel()

	if cfg.Catalog.DevMode {
		source, err := catalog.NewFileSource(cfg.Catalog.FilePath, logger)
		if err != nil {
			return catalog.NewCatalog(nil), err
		}
		return source.Load(ctx)
	}

	opts := catalog.DefaultClientOptions(cfg.Backend.BaseURL)
	opts.Timeout = cfg.BackendTimeout()
	opts.APIKey = cfg.Backend.APIKey
	opts.Logger = logger
	client, err := catalog.NewClient(opts)
	if err != nil {
		return catalog.NewCatalog(nil), err
	}
	return client.Load(ctx)
}
