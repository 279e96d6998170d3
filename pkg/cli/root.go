// Package cli implements the orders command-line tool.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"orders-lake/internal/app"
	"orders-lake/internal/config"
	"orders-lake/internal/domain"
	"orders-lake/internal/service/ingestion"
)

var (
	version = "dev"
	commit  = "none"
)

// ReportSource builds reports and lists the queries behind them.
type ReportSource interface {
	Build(ctx context.Context) domain.Report
	Queries() []domain.QueryJobSpec
}

// Uploader processes one raw upload.
type Uploader interface {
	OnUpload(ctx context.Context, bucket, rawKey string) (ingestion.Result, error)
}

// Backend is the slice of the application the commands talk to.
type Backend struct {
	Reports ReportSource
	Uploads Uploader
	Close   func() error
}

// env holds the seams the commands reach the outside world through.
type env struct {
	loadConfig  func() (*config.Config, error)
	openBackend func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error)
	now         func() time.Time
}

func defaultEnv() *env {
	return &env{
		loadConfig: config.LoadFromEnv,
		openBackend: func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
			a, err := app.New(ctx, app.Deps{Cfg: cfg, Logger: logger})
			if err != nil {
				return nil, err
			}
			return &Backend{Reports: a.Reports, Uploads: a.Trigger, Close: a.Close}, nil
		},
		now: time.Now,
	}
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd(defaultEnv())
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = printJSON(os.Stdout, map[string]string{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(e *env) *cobra.Command {
	var (
		output  string
		envFile string
		verbose bool
	)

	rootCmd := &cobra.Command{
		Use:           "orders",
		Short:         "Orders lake CLI",
		Long:          "Filter order uploads, trigger ingestion, and print the orders dashboard.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if output != "table" && output != "json" {
				return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
			}
			if envFile != "" {
				if err := config.LoadDotEnv(envFile); err != nil {
					return fmt.Errorf("load %s: %w", envFile, err)
				}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level to stderr")

	logger := func(cmd *cobra.Command) *slog.Logger {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	}

	rootCmd.AddCommand(newFilterCmd(e))
	rootCmd.AddCommand(newIngestCmd(e, logger))
	rootCmd.AddCommand(newReportCmd(e, logger))
	rootCmd.AddCommand(newQueriesCmd(e))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// withBackend loads config, opens the backend, and closes it after fn returns.
func withBackend(cmd *cobra.Command, e *env, logger *slog.Logger, fn func(*config.Config, *Backend) error) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}
	b, err := e.openBackend(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if b.Close != nil {
			if err := b.Close(); err != nil {
				logger.Warn("close backend", "error", err)
			}
		}
	}()
	return fn(cfg, b)
}

func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
