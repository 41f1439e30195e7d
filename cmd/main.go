package main

import (
	"log/slog"
	"net"
	"os"
	"strings"

	"glean/internal/configuration"
	"glean/internal/score"
	"glean/internal/score/check"

	"github.com/spf13/cobra"
)

// prepareLogger installs a JSON slog logger on stdout as the default logger.
// Unknown levels fall back to info.
func prepareLogger(level string) {
	var logLevel slog.Level

	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	slog.SetDefault(slog.New(handler))
}

// newEngine builds the scoring engine from the scoring section.
func newEngine(config configuration.ScoringConfig) *score.Engine {
	var resolver check.DomainResolver
	if config.Email.DNS {
		resolver = net.DefaultResolver
	}

	evaluator := check.NewEvaluator(
		check.WithEmailValidator(check.NewEmailValidator(resolver, config.Email.Timeout)),
	)

	return score.NewEngine(
		score.WithEvaluator(evaluator),
		score.WithRange(config.Min, config.Max),
		score.WithBands(config.Grades),
	)
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "glean",
		Short:         "Scores and grades web form submissions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "/etc/glean/config.yaml", "configuration file")

	root.AddCommand(newServeCommand(), newEvaluateCommand(), newRulesCommand())
	return root
}

// Any command error ends the process with code 1.
func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
