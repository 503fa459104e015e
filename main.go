package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"wordwatch/internal/config"
	"wordwatch/internal/game"
	"wordwatch/internal/handlers"
	"wordwatch/internal/inference"
	"wordwatch/internal/logging"
	"wordwatch/internal/storage"
	"wordwatch/internal/words"
)

const (
	sweepEvery = time.Minute
	lockIdle   = 10 * time.Minute
)

func main() {
	debug := pflag.Bool("debug", false, "enable debug logging")
	addr := pflag.String("addr", "", "listen address (overrides WORDWATCH_HTTP_ADDR)")
	agents := pflag.String("agents", "", "agent roster YAML (overrides WORDWATCH_AGENTS_FILE)")
	showVersion := pflag.Bool("version", false, "print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("wordwatch %s (built %s)\n", commit, buildDate)
		return
	}
	logging.Debug = *debug

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	if *agents != "" {
		cfg.AgentsFile = *agents
	}

	log := logging.New(os.Stderr, logging.Options{
		Level: cfg.LogLevel,
		JSON:  cfg.LogFormat == config.LogFormatJSON,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *debug, log); err != nil {
		log.Error("wordwatch stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, debug bool, log *slog.Logger) error {
	roster, err := config.LoadRoster(cfg.AgentsFile)
	if err != nil {
		return err
	}
	rules, err := roster.Rules(cfg)
	if err != nil {
		return err
	}

	db, err := storage.New(cfg.DatabaseURL, debug)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	store := storage.NewStore(db)

	provider, validator, err := backends(cfg)
	if err != nil {
		return err
	}

	hub := game.NewHub()
	go hub.Run(ctx, sweepEvery, lockIdle)

	engine := game.NewEngine(store, provider, rules, hub, log)
	svc := game.NewService(store, engine, validator, log)
	h := handlers.NewHandler(svc, log, handlers.BuildInfo{Commit: commit, BuildDate: buildDate})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info("wordwatch listening",
		"addr", cfg.HTTPAddr,
		"model_mode", cfg.ModelMode,
		"agents", len(rules.Agents),
		"max_turns", rules.MaxTurns,
		"commit", commit,
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func backends(cfg config.Config) (inference.Provider, words.Validator, error) {
	if cfg.ModelMode == config.ModelModeMock {
		return inference.NewScripted(nil, nil), words.AcceptAll{}, nil
	}
	provider, err := inference.NewOpenAI(inference.OpenAIConfig{
		APIKey:     cfg.ProviderAPIKey,
		BaseURL:    cfg.ProviderBaseURL,
		HTTPClient: &http.Client{Timeout: cfg.ProviderTimeout},
	})
	if err != nil {
		return nil, nil, err
	}
	return provider, words.NewDictionary(cfg.DictionaryURL, cfg.DictionaryTimeout), nil
}
