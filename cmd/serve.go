package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"glean/internal/configuration"
	"glean/internal/history"
	"glean/internal/journal"
	"glean/internal/score/ruleset"
	"glean/internal/score/scorer"
	"glean/internal/server"

	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the evaluation API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			config, err := configuration.LoadConfig(configPath)
			if err != nil {
				return err
			}
			prepareLogger(config.Logger.Level)
			return serve(cmd.Context(), config)
		},
	}
}

func serve(ctx context.Context, config *configuration.AppConfig) error {
	appCtx, appCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer appCancel()

	store := ruleset.NewStore(config.Scoring.Rules)
	// an absent rule file is not fatal, evaluations report "unchanged" until it appears
	_ = store.Load()

	if config.Scoring.Watch {
		watcher, err := ruleset.NewWatcher(store, 0)
		if err != nil {
			return err
		}
		if err := watcher.Start(appCtx); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	historyRepo := history.NewRepository(config.History.Length, config.History.TTL)
	go historyRepo.Serve()
	defer historyRepo.Stop()

	var evaluations journal.Journal = journal.Discard{}
	if config.Journal.File != "" {
		evaluations = journal.NewJsonJournal(config.Journal.File, config.Journal.Size, config.Journal.Amount)
	}
	defer evaluations.Close()

	engine := newEngine(config.Scoring)
	rulesScorer := scorer.NewRulesScorer(engine, store, config.Scoring.NonscoringPrefix)
	router := server.NewApiV1Router(config.Server.Token, rulesScorer, engine.Bands(), store, historyRepo, evaluations)
	srv := server.NewServer(config.Server.Address, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	slog.Info("Server listening " + config.Server.Address)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-appCtx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second*10)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown", "error", err)
	}
	slog.Info("Server stopped")

	return nil
}
