package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"orders-lake/internal/domain"
	"orders-lake/internal/service/retention"
	"orders-lake/internal/tabular"
)

func newFilterCmd(e *env) *cobra.Command {
	var (
		out    string
		window time.Duration
		asOf   string
	)

	cmd := &cobra.Command{
		Use:   "filter <input.csv>",
		Short: "Apply the retention rule to a local orders file",
		Long: "Drops pending and cancelled orders dated at or before the retention cutoff " +
			"and writes the surviving rows in the same format.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := e.now()
			if asOf != "" {
				t, err := time.ParseInLocation(domain.DefaultDateLayout, asOf, time.UTC)
				if err != nil {
					return fmt.Errorf("invalid --as-of %q: %w", asOf, err)
				}
				now = t
			}

			data, err := os.ReadFile(args[0]) //nolint:gosec // user-supplied path
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			ds, err := tabular.ParseDataset(data)
			if err != nil {
				return err
			}

			policy := domain.DefaultRetentionPolicy()
			policy.Window = window
			kept, stats, err := retention.Filter(ds, policy, now)
			if err != nil {
				return err
			}
			body, err := tabular.FormatDataset(kept)
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(body)
			} else {
				err = os.WriteFile(out, body, 0o600)
			}
			if err != nil {
				return fmt.Errorf("write output: %w", err)
			}

			if getOutputFormat(cmd) == "json" && out != "" && out != "-" {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"output":  out,
					"total":   stats.Total,
					"kept":    stats.Kept,
					"dropped": stats.Dropped,
				})
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Kept %d of %d rows (%d dropped)\n", stats.Kept, stats.Total, stats.Dropped)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output file (default stdout)")
	cmd.Flags().DurationVar(&window, "window", domain.DefaultRetentionWindow, "Retention window")
	cmd.Flags().StringVar(&asOf, "as-of", "", "Evaluate the cutoff at midnight UTC of this date (YYYY-MM-DD)")
	return cmd
}
