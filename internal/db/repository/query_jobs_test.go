package repository

import (
	"context"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orders-lake/internal/db"
	"orders-lake/internal/domain"
)

func TestQueryJobRepo_SuccessLifecycle(t *testing.T) {
	t.Parallel()

	writeDB, _ := db.OpenTest(t)
	repo := NewQueryJobRepo(writeDB)
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.QueryJob{
		Database:          "orders_db",
		SQLText:           "SELECT 1",
		ResultDestination: "s3://orders/enriched/",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, domain.JobStateQueued, created.State)
	assert.Nil(t, created.StartedAt)

	require.NoError(t, repo.MarkRunning(ctx, created.ID))
	running, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStateRunning, running.State)
	require.NotNil(t, running.StartedAt)

	out := "s3://orders/enriched/" + created.ID + ".csv"
	require.NoError(t, repo.MarkSucceeded(ctx, created.ID, out, 3))

	loaded, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStateSucceeded, loaded.State)
	assert.Equal(t, out, loaded.OutputLocation)
	assert.Equal(t, 3, loaded.RowCount)
	assert.Nil(t, loaded.ErrorMessage)
	require.NotNil(t, loaded.CompletedAt)
}

func TestQueryJobRepo_TerminalStatesAreFinal(t *testing.T) {
	t.Parallel()

	writeDB, _ := db.OpenTest(t)
	repo := NewQueryJobRepo(writeDB)
	ctx := context.Background()

	job, err := repo.Create(ctx, &domain.QueryJob{Database: "orders_db", SQLText: "SELEC nonsense"})
	require.NoError(t, err)
	require.NoError(t, repo.MarkRunning(ctx, job.ID))
	require.NoError(t, repo.MarkFailed(ctx, job.ID, "syntax error at or near SELEC"))

	err = repo.MarkSucceeded(ctx, job.ID, "file://x.csv", 1)
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Message, "FAILED")

	loaded, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStateFailed, loaded.State)
	require.NotNil(t, loaded.ErrorMessage)
	assert.Equal(t, "syntax error at or near SELEC", *loaded.ErrorMessage)
}

func TestQueryJobRepo_Cancel(t *testing.T) {
	t.Parallel()

	writeDB, _ := db.OpenTest(t)
	repo := NewQueryJobRepo(writeDB)
	ctx := context.Background()

	job, err := repo.Create(ctx, &domain.QueryJob{Database: "orders_db", SQLText: "SELECT 1"})
	require.NoError(t, err)
	require.NoError(t, repo.MarkCancelled(ctx, job.ID))

	loaded, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStateCancelled, loaded.State)
	require.NotNil(t, loaded.ErrorMessage)
	assert.Equal(t, "query cancelled", *loaded.ErrorMessage)
}

func TestQueryJobRepo_NotFound(t *testing.T) {
	t.Parallel()

	writeDB, _ := db.OpenTest(t)
	repo := NewQueryJobRepo(writeDB)

	_, err := repo.GetByID(context.Background(), "missing")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Contains(t, nf.Message, "missing")

	err = repo.MarkRunning(context.Background(), "missing")
	require.ErrorAs(t, err, &nf)
}

func TestQueryJobRepo_DuplicateID(t *testing.T) {
	t.Parallel()

	writeDB, _ := db.OpenTest(t)
	repo := NewQueryJobRepo(writeDB)
	ctx := context.Background()

	_, err := repo.Create(ctx, &domain.QueryJob{ID: "fixed", Database: "orders_db", SQLText: "SELECT 1"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &domain.QueryJob{ID: "fixed", Database: "orders_db", SQLText: "SELECT 2"})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestQueryJobRepo_ListRecent(t *testing.T) {
	t.Parallel()

	writeDB, _ := db.OpenTest(t)
	repo := NewQueryJobRepo(writeDB)
	ctx := context.Background()

	var ids []string
	for _, q := range []string{"SELECT 1", "SELECT 2", "SELECT 3"} {
		job, err := repo.Create(ctx, &domain.QueryJob{Database: "orders_db", SQLText: q})
		require.NoError(t, err)
		ids = append(ids, job.ID)
	}

	jobs, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, ids[2], jobs[0].ID)
	assert.Equal(t, ids[1], jobs[1].ID)

	all, err := repo.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestQueryJobRepo_CreateNil(t *testing.T) {
	t.Parallel()

	writeDB, _ := db.OpenTest(t)
	_, err := NewQueryJobRepo(writeDB).Create(context.Background(), nil)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}
