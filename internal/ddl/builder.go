// Package ddl builds the DuckDB statements the query engine issues for
// extensions, secrets, and the order views it queries.
package ddl

import (
	"fmt"
	"slices"
	"strings"
)

// LoadExtension returns "INSTALL <name>; LOAD <name>;".
func LoadExtension(name string) (string, error) {
	if err := ValidateIdentifier(name); err != nil {
		return "", fmt.Errorf("invalid extension name: %w", err)
	}
	return fmt.Sprintf("INSTALL %s; LOAD %s;", name, name), nil
}

// CreateSchema returns CREATE SCHEMA IF NOT EXISTS "<name>".
func CreateSchema(name string) (string, error) {
	if err := ValidateIdentifier(name); err != nil {
		return "", fmt.Errorf("invalid schema name: %w", err)
	}
	return "CREATE SCHEMA IF NOT EXISTS " + QuoteIdentifier(name), nil
}

// UseSchema returns USE "<name>", which makes name the default schema for
// unqualified table references on the connection.
func UseSchema(name string) (string, error) {
	if err := ValidateIdentifier(name); err != nil {
		return "", fmt.Errorf("invalid schema name: %w", err)
	}
	return "USE " + QuoteIdentifier(name), nil
}

// CreateS3Secret returns a DuckDB statement creating (or replacing) an S3 secret.
// An empty endpoint leaves DuckDB's AWS default in place.
func CreateS3Secret(name, keyID, secret, endpoint, region, urlStyle string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("secret name is required")
	}
	opts := []string{
		"TYPE S3",
		"KEY_ID " + QuoteLiteral(keyID),
		"SECRET " + QuoteLiteral(secret),
		"REGION " + QuoteLiteral(region),
	}
	if endpoint != "" {
		opts = append(opts, "ENDPOINT "+QuoteLiteral(endpoint))
	}
	if urlStyle != "" {
		opts = append(opts, "URL_STYLE "+QuoteLiteral(urlStyle))
	}
	return createSecret(name, opts), nil
}

// CreateAzureSecret returns a DuckDB statement creating an Azure secret from an account key.
func CreateAzureSecret(name, accountName, accountKey string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("secret name is required")
	}
	conn := fmt.Sprintf("DefaultEndpointsProtocol=https;AccountName=%s;AccountKey=%s;EndpointSuffix=core.windows.net",
		accountName, accountKey)
	return createSecret(name, []string{
		"TYPE AZURE",
		"CONNECTION_STRING " + QuoteLiteral(conn),
	}), nil
}

// CreateGCSSecret returns a DuckDB statement creating a GCS secret.
func CreateGCSSecret(name, keyFilePath string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("secret name is required")
	}
	return createSecret(name, []string{
		"TYPE GCS",
		"KEY_FILE_PATH " + QuoteLiteral(keyFilePath),
	}), nil
}

func createSecret(name string, opts []string) string {
	return fmt.Sprintf("CREATE OR REPLACE SECRET %s (\n\t%s\n)", QuoteIdentifier(name), strings.Join(opts, ",\n\t"))
}

// DropSecret returns DROP SECRET IF EXISTS "<name>".
func DropSecret(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("secret name is required")
	}
	return "DROP SECRET IF EXISTS " + QuoteIdentifier(name), nil
}

// CreateCSVView returns a statement (re)defining schema.view over every CSV
// file matching sourceGlob. Column types are auto-detected unless pinned in
// typedColumns.
//
//	CREATE OR REPLACE VIEW "orders_db"."filtered_orders" AS
//	SELECT * FROM read_csv(['s3://orders/processed/filtered_*'], header = true, ...)
func CreateCSVView(schema, view, sourceGlob string, typedColumns map[string]string) (string, error) {
	if err := ValidateIdentifier(schema); err != nil {
		return "", fmt.Errorf("invalid schema name: %w", err)
	}
	if err := ValidateIdentifier(view); err != nil {
		return "", fmt.Errorf("invalid view name: %w", err)
	}
	if sourceGlob == "" {
		return "", fmt.Errorf("source path is required")
	}

	opts := []string{"header = true", "union_by_name = true"}
	if len(typedColumns) > 0 {
		names := make([]string, 0, len(typedColumns))
		for col := range typedColumns {
			names = append(names, col)
		}
		slices.Sort(names)
		pairs := make([]string, 0, len(names))
		for _, col := range names {
			pairs = append(pairs, fmt.Sprintf("%s: %s", QuoteLiteral(col), QuoteLiteral(typedColumns[col])))
		}
		opts = append(opts, "types = {"+strings.Join(pairs, ", ")+"}")
	}

	return fmt.Sprintf("CREATE OR REPLACE VIEW %s.%s AS SELECT * FROM read_csv([%s], %s)",
		QuoteIdentifier(schema),
		QuoteIdentifier(view),
		QuoteLiteral(sourceGlob),
		strings.Join(opts, ", "),
	), nil
}
