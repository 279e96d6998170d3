package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"orders-lake/internal/config"
	"orders-lake/internal/service/ingestion"
)

type ingestResult struct {
	Bucket     string `json:"bucket"`
	SourceKey  string `json:"source_key"`
	DerivedKey string `json:"derived_key,omitempty"`
	Total      int    `json:"total"`
	Kept       int    `json:"kept"`
	Dropped    int    `json:"dropped"`
	Skipped    bool   `json:"skipped,omitempty"`
	Message    string `json:"message"`
}

func newIngestCmd(e *env, logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var bucket string

	cmd := &cobra.Command{
		Use:   "ingest <key>...",
		Short: "Filter raw uploads already in the bucket",
		Long:  "Runs the ingestion trigger for each object key, as if its upload notification had arrived.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, e, logger(cmd), func(cfg *config.Config, b *Backend) error {
				if bucket == "" {
					bucket = cfg.Bucket
				}
				var results []ingestResult
				for _, key := range args {
					res, err := b.Uploads.OnUpload(cmd.Context(), bucket, key)
					if err != nil {
						return fmt.Errorf("ingest %s: %w", key, err)
					}
					results = append(results, toIngestResult(res))
					if getOutputFormat(cmd) != "json" {
						_, _ = fmt.Fprintln(cmd.OutOrStdout(), res.Message())
					}
				}
				if getOutputFormat(cmd) == "json" {
					return printJSON(cmd.OutOrStdout(), results)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "Bucket holding the uploads (default BUCKET)")
	return cmd
}

func toIngestResult(r ingestion.Result) ingestResult {
	return ingestResult{
		Bucket:     r.Bucket,
		SourceKey:  r.SourceKey,
		DerivedKey: r.DerivedKey,
		Total:      r.Stats.Total,
		Kept:       r.Stats.Kept,
		Dropped:    r.Stats.Dropped,
		Skipped:    r.Skipped,
		Message:    r.Message(),
	}
}
