package main

import (
	"fmt"

	"glean/internal/score/rule"

	"github.com/spf13/cobra"
)

func newRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect scoring rule files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate RULES.yaml",
		Short: "Report which rules load and which are skipped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, issues, err := rule.LoadFromFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range rules {
				status := "ok     "
				if !r.Check.Known() {
					status = "unknown"
				}
				fmt.Fprintf(out, "%s %s\n", status, r)
			}
			for _, issue := range issues {
				fmt.Fprintf(out, "skipped %s\n", issue.Error())
			}
			fmt.Fprintf(out, "%d rules loaded, %d skipped\n", len(rules), len(issues))

			if len(issues) > 0 {
				return fmt.Errorf("%d malformed rules", len(issues))
			}
			return nil
		},
	})

	return cmd
}
