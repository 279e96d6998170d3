package engine

import (
	"context"
	"database/sql"
	"fmt"

	"orders-lake/internal/config"
	"orders-lake/internal/ddl"
)

const secretName = "orders_storage"

// ConfigureStorage loads the extensions and creates the secret DuckDB needs to
// read the configured backend. The file and memory backends need neither.
func ConfigureStorage(ctx context.Context, db *sql.DB, cfg *config.Config) error {
	var stmts []string
	switch cfg.StorageBackend {
	case config.BackendS3:
		ext, err := ddl.LoadExtension("httpfs")
		if err != nil {
			return err
		}
		secret, err := ddl.CreateS3Secret(secretName, deref(cfg.S3KeyID), deref(cfg.S3Secret),
			deref(cfg.S3Endpoint), deref(cfg.S3Region), s3URLStyle(cfg))
		if err != nil {
			return fmt.Errorf("build DDL: %w", err)
		}
		stmts = append(stmts, ext, secret)
	case config.BackendGCS:
		ext, err := ddl.LoadExtension("httpfs")
		if err != nil {
			return err
		}
		stmts = append(stmts, ext)
		if cfg.GCSKeyFile != "" {
			secret, err := ddl.CreateGCSSecret(secretName, cfg.GCSKeyFile)
			if err != nil {
				return fmt.Errorf("build DDL: %w", err)
			}
			stmts = append(stmts, secret)
		}
	case config.BackendAzure:
		ext, err := ddl.LoadExtension("azure")
		if err != nil {
			return err
		}
		secret, err := ddl.CreateAzureSecret(secretName, cfg.AzureAccountName, cfg.AzureAccountKey)
		if err != nil {
			return fmt.Errorf("build DDL: %w", err)
		}
		stmts = append(stmts, ext, secret)
	default:
		return nil
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("configure %s storage: %w", cfg.StorageBackend, err)
		}
	}
	return nil
}

// SourceFromConfig returns the order view definition for cfg.
func SourceFromConfig(cfg *config.Config) Source {
	return Source{
		View:  cfg.SourceTable,
		Glob:  cfg.ProcessedGlob(),
		Types: map[string]string{"Amount": "DOUBLE"},
	}
}

func s3URLStyle(cfg *config.Config) string {
	if cfg.S3URLStyle != "" {
		return cfg.S3URLStyle
	}
	if cfg.S3Endpoint != nil {
		return "path"
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
