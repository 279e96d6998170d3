package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"orders-lake/internal/config"
	"orders-lake/internal/domain"
)

type reportJSON struct {
	Title       string        `json:"title"`
	GeneratedAt time.Time     `json:"generated_at"`
	Sections    []sectionJSON `json:"sections"`
}

type sectionJSON struct {
	Title   string     `json:"title"`
	OK      bool       `json:"ok"`
	Columns []string   `json:"columns,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
	Error   string     `json:"error,omitempty"`
}

func newReportCmd(e *env, logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var failOnError bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run the dashboard queries and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, e, logger(cmd), func(_ *config.Config, b *Backend) error {
				report := b.Reports.Build(cmd.Context())

				var err error
				if getOutputFormat(cmd) == "json" {
					err = printJSON(cmd.OutOrStdout(), toReportJSON(report))
				} else {
					err = printReport(cmd.OutOrStdout(), report)
				}
				if err != nil {
					return err
				}
				if failOnError && report.Failed() > 0 {
					return fmt.Errorf("%d of %d sections failed", report.Failed(), len(report.Sections))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "Exit non-zero when any section failed")
	return cmd
}

func printReport(w io.Writer, report domain.Report) error {
	if _, err := fmt.Fprintf(w, "%s (generated %s)\n", report.Title, report.GeneratedAt.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	for _, sec := range report.Sections {
		if _, err := fmt.Fprintf(w, "\n== %s ==\n", sec.Title); err != nil {
			return err
		}
		if !sec.Result.OK() {
			if _, err := fmt.Fprintf(w, "Error: %s\n", sec.Result.Err); err != nil {
				return err
			}
			continue
		}
		if len(sec.Result.Rows) == 0 {
			if _, err := fmt.Fprintln(w, "(no rows)"); err != nil {
				return err
			}
			continue
		}
		if err := printTable(w, sec.Result.Columns, sec.Result.Rows); err != nil {
			return err
		}
	}
	return nil
}

func toReportJSON(r domain.Report) reportJSON {
	out := reportJSON{Title: r.Title, GeneratedAt: r.GeneratedAt, Sections: make([]sectionJSON, 0, len(r.Sections))}
	for _, sec := range r.Sections {
		s := sectionJSON{Title: sec.Title, OK: sec.Result.OK()}
		if s.OK {
			s.Columns, s.Rows = sec.Result.Columns, sec.Result.Rows
		} else {
			s.Error = sec.Result.Err
		}
		out.Sections = append(out.Sections, s)
	}
	return out
}
