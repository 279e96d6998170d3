package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orders-lake/internal/config"
	"orders-lake/internal/domain"
	"orders-lake/internal/service/ingestion"
	"orders-lake/internal/service/retention"
)

var fixedNow = time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)

type mockReports struct {
	BuildFn   func(ctx context.Context) domain.Report
	QueriesFn func() []domain.QueryJobSpec
}

func (m *mockReports) Build(ctx context.Context) domain.Report {
	if m.BuildFn == nil {
		panic("mockReports.Build called but not configured")
	}
	return m.BuildFn(ctx)
}

func (m *mockReports) Queries() []domain.QueryJobSpec {
	if m.QueriesFn == nil {
		panic("mockReports.Queries called but not configured")
	}
	return m.QueriesFn()
}

type mockUploader struct {
	OnUploadFn func(ctx context.Context, bucket, rawKey string) (ingestion.Result, error)
}

func (m *mockUploader) OnUpload(ctx context.Context, bucket, rawKey string) (ingestion.Result, error) {
	if m.OnUploadFn == nil {
		panic("mockUploader.OnUpload called but not configured")
	}
	return m.OnUploadFn(ctx, bucket, rawKey)
}

// testEnv returns an env backed by b and a config with the built-in query set.
func testEnv(b *Backend) *env {
	return &env{
		loadConfig: func() (*config.Config, error) {
			return &config.Config{Bucket: "orders", QueryDatabase: "orders_db", ResultLocation: "mem://orders/enriched/"}, nil
		},
		openBackend: func(context.Context, *config.Config, *slog.Logger) (*Backend, error) {
			return b, nil
		},
		now: func() time.Time { return fixedNow },
	}
}

func runCmd(t *testing.T, e *env, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(e)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func sampleReport() domain.Report {
	return domain.Report{
		Title:       "Orders Dashboard",
		GeneratedAt: fixedNow,
		Sections: []domain.ReportSection{
			{Title: "Total Sales by Customer", Result: domain.NewSuccess([]string{"Customer", "TotalAmountSpent"}, [][]string{{"Acme", "1500.00"}})},
			{Title: "Monthly Order Volume", Result: domain.NewFailure("Query failed: Unknown error")},
		},
	}
}

func TestFilterCmd(t *testing.T) {
	t.Parallel()

	input := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(input, []byte(`OrderID,Customer,Status,OrderDate,Amount
1,Acme,Shipped,2024-01-05,100.00
2,Globex,pending,2025-01-10,20.00
3,Initech,cancelled,2025-03-20,35.50
`), 0o600))

	stdout, stderr, err := runCmd(t, testEnv(nil), "filter", input)
	require.NoError(t, err)
	assert.Equal(t, `OrderID,Customer,Status,OrderDate,Amount
1,Acme,Shipped,2024-01-05,100.00
3,Initech,cancelled,2025-03-20,35.50
`, stdout)
	assert.Contains(t, stderr, "Kept 2 of 3 rows (1 dropped)")
}

func TestFilterCmd_OutFileAndWindow(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "orders.csv")
	out := filepath.Join(dir, "filtered.csv")
	require.NoError(t, os.WriteFile(input, []byte("Status,OrderDate\npending,2025-03-20\n"), 0o600))

	stdout, _, err := runCmd(t, testEnv(nil), "-o", "json", "filter", input, "--out", out, "--window", "24h", "--as-of", "2025-03-31")
	require.NoError(t, err)

	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.InDelta(t, 1, summary["dropped"], 0.001)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Status,OrderDate\n", string(written))
}

func TestFilterCmd_MalformedDate(t *testing.T) {
	t.Parallel()

	input := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(input, []byte("Status,OrderDate\npending,yesterday\n"), 0o600))

	stdout, _, err := runCmd(t, testEnv(nil), "filter", input)
	require.Error(t, err)
	var malformed *domain.MalformedRecordError
	assert.ErrorAs(t, err, &malformed)
	assert.Empty(t, stdout)
}

func TestIngestCmd(t *testing.T) {
	t.Parallel()

	var gotBuckets []string
	closed := false
	b := &Backend{
		Uploads: &mockUploader{OnUploadFn: func(_ context.Context, bucket, key string) (ingestion.Result, error) {
			gotBuckets = append(gotBuckets, bucket)
			return ingestion.Result{
				Bucket:     bucket,
				SourceKey:  key,
				DerivedKey: ingestion.DerivedKey(key),
				Stats:      retention.Stats{Total: 5, Kept: 3, Dropped: 2},
			}, nil
		}},
		Close: func() error { closed = true; return nil },
	}

	stdout, _, err := runCmd(t, testEnv(b), "ingest", "raw/a.csv", "raw/b.csv")
	require.NoError(t, err)
	assert.Equal(t, "Filtered 3 rows and saved to processed/filtered_a.csv\nFiltered 3 rows and saved to processed/filtered_b.csv\n", stdout)
	assert.Equal(t, []string{"orders", "orders"}, gotBuckets)
	assert.True(t, closed)
}

func TestIngestCmd_Error(t *testing.T) {
	t.Parallel()

	b := &Backend{Uploads: &mockUploader{OnUploadFn: func(_ context.Context, bucket, key string) (ingestion.Result, error) {
		return ingestion.Result{}, &domain.StorageError{Op: "get", Bucket: bucket, Key: key, Err: errors.New("denied")}
	}}}

	_, _, err := runCmd(t, testEnv(b), "ingest", "--bucket", "other", "raw/a.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest raw/a.csv")
	assert.Contains(t, err.Error(), "other/raw/a.csv")
}

func TestReportCmd_Table(t *testing.T) {
	t.Parallel()

	b := &Backend{Reports: &mockReports{BuildFn: func(context.Context) domain.Report { return sampleReport() }}}

	stdout, _, err := runCmd(t, testEnv(b), "report")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Orders Dashboard (generated 2025-03-31T12:00:00Z)")
	first := strings.Index(stdout, "== Total Sales by Customer ==")
	second := strings.Index(stdout, "== Monthly Order Volume ==")
	require.GreaterOrEqual(t, first, 0)
	assert.Greater(t, second, first)
	assert.Contains(t, stdout, "CUSTOMER")
	assert.Contains(t, stdout, "1500.00")
	assert.Contains(t, stdout, "Error: Query failed: Unknown error")
}

func TestReportCmd_JSONAndFailOnError(t *testing.T) {
	t.Parallel()

	b := &Backend{Reports: &mockReports{BuildFn: func(context.Context) domain.Report { return sampleReport() }}}

	stdout, _, err := runCmd(t, testEnv(b), "-o", "json", "report", "--fail-on-error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 sections failed")

	var body reportJSON
	require.NoError(t, json.Unmarshal([]byte(stdout), &body))
	require.Len(t, body.Sections, 2)
	assert.True(t, body.Sections[0].OK)
	assert.Equal(t, "Query failed: Unknown error", body.Sections[1].Error)
}

func TestQueriesCmd(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCmd(t, testEnv(nil), "queries")
	require.NoError(t, err)
	assert.Contains(t, stdout, "TITLE")
	assert.Contains(t, stdout, "orders_db")
	assert.Equal(t, len(config.DefaultQuerySet())+1, strings.Count(stdout, "\n"))
}

func TestRootCmd_RejectsUnknownOutput(t *testing.T) {
	t.Parallel()

	_, _, err := runCmd(t, testEnv(nil), "-o", "yaml", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCmd(t, testEnv(nil), "version")
	require.NoError(t, err)
	assert.Equal(t, "orders version dev (commit: none)\n", stdout)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 0, "short"},
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated value", 8, "trunc..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.in, tt.limit), tt.in)
	}
}
