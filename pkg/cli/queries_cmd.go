package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newQueriesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "queries",
		Short: "List the configured dashboard queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := e.loadConfig()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			specs, err := cfg.LoadQuerySet(cfg.QueriesFile)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), specs)
			}
			rows := make([][]string, 0, len(specs))
			for _, s := range specs {
				rows = append(rows, []string{s.Title, s.Database, strings.Join(strings.Fields(s.Query), " ")})
			}
			return printTable(cmd.OutOrStdout(), []string{"Title", "Database", "Query"}, rows)
		},
	}
}
