package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"glean/internal/configuration"
	"glean/internal/score"
	"glean/internal/score/grade"
	"glean/internal/score/ruleset"
	"glean/internal/score/scorer"
	"glean/internal/submission"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type evaluation struct {
	File   string       `json:"file"`
	ID     string       `json:"id"`
	Score  int          `json:"score"`
	Grade  string       `json:"grade"`
	Result score.Result `json:"result"`
}

func newEvaluateCommand() *cobra.Command {
	var (
		rulesPath string
		detailed  bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate FORM.json...",
		Short: "Score submission forms read from JSON files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, files []string) error {
			scoring := configuration.ScoringConfig{
				Rules:            rulesPath,
				Min:              score.DefaultMin,
				Max:              score.DefaultMax,
				NonscoringPrefix: "_",
				Grades:           grade.Default,
			}
			if rulesPath == "" {
				configPath, _ := cmd.Flags().GetString("config")
				config, err := configuration.LoadConfig(configPath)
				if err != nil {
					return err
				}
				scoring = config.Scoring
			}

			store := ruleset.NewStore(scoring.Rules)
			// without a rule file every form comes back unchanged
			if err := store.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("loading rules: %w", err)
			}
			rulesScorer := scorer.NewRulesScorer(newEngine(scoring), store, scoring.NonscoringPrefix)

			results, err := evaluateFiles(rulesScorer, files, detailed)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			for _, r := range results {
				if err := encoder.Encode(r); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules", "", "rule file, overrides scoring.rules of --config")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "explain which rules matched")
	return cmd
}

// evaluateFiles scores every file concurrently and returns the results in file order.
func evaluateFiles(rs score.SubmissionScorer, files []string, detailed bool) ([]evaluation, error) {
	results := make([]evaluation, len(files))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, file := range files {
		g.Go(func() error {
			content, err := os.ReadFile(file)
			if err != nil {
				return err
			}

			var form submission.Form
			if err := json.Unmarshal(content, &form); err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			if form.ID == "" {
				form.ID = file
			}

			sub, err := submission.FromForm(form)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}

			result, err := rs.Score(sub, detailed)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}

			results[i] = evaluation{File: file, ID: sub.ID, Score: sub.Score, Grade: sub.Grade, Result: result}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
