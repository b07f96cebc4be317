package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/RubachokBoss/originality-bot/internal/models"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
CREATE TABLE submissions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    username TEXT,
    content TEXT NOT NULL,
    remote_score REAL,
    created_at TIMESTAMP NOT NULL
);
`

func newTestRepository(t *testing.T) SubmissionRepository {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// The in-memory database evaporates when its connection closes.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return NewSubmissionRepository(db, zerolog.Nop())
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first := &models.Submission{UserID: 1, Username: "alice", Content: "first essay"}
	second := &models.Submission{UserID: 2, Username: "bob", Content: "second essay"}

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.False(t, first.CreatedAt.IsZero())
}

func TestGetByID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	sub := &models.Submission{UserID: 7, Username: "alice", Content: "some essay"}
	require.NoError(t, repo.Create(ctx, sub))

	got, err := repo.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sub.ID, got.ID)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "some essay", got.Content)
	assert.Nil(t, got.RemoteScore)
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	repo := newTestRepository(t)

	got, err := repo.GetByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetAllInsertionOrder(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, content := range []string{"one", "two", "three"} {
		require.NoError(t, repo.Create(ctx, &models.Submission{UserID: 1, Content: content}))
	}

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "one", all[0].Content)
	assert.Equal(t, "three", all[2].Content)
}

func TestListNewestFirstWithTotal(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, content := range []string{"one", "two", "three"} {
		require.NoError(t, repo.Create(ctx, &models.Submission{UserID: 1, Content: content}))
	}

	page, total, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "three", page[0].Content)
	assert.Equal(t, "two", page[1].Content)

	rest, total, err := repo.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, rest, 1)
	assert.Equal(t, "one", rest[0].Content)
}

func TestUpdateRemoteScore(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	sub := &models.Submission{UserID: 1, Content: "scanned essay"}
	require.NoError(t, repo.Create(ctx, sub))

	require.NoError(t, repo.UpdateRemoteScore(ctx, sub.ID, 33.3))

	got, err := repo.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RemoteScore)
	assert.InDelta(t, 33.3, *got.RemoteScore, 1e-9)
}

func TestUpdateRemoteScoreMissingSubmission(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.UpdateRemoteScore(context.Background(), 999, 10.0)
	assert.Error(t, err)
}

func TestGetStats(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	empty, err := repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalSubmissions)
	assert.Nil(t, empty.AverageRemoteScore)
	assert.Nil(t, empty.LastSubmissionAt)

	first := &models.Submission{UserID: 1, Content: "one"}
	second := &models.Submission{UserID: 2, Content: "two"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.UpdateRemoteScore(ctx, first.ID, 10.0))
	require.NoError(t, repo.UpdateRemoteScore(ctx, second.ID, 30.0))

	stats, err := repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalSubmissions)
	assert.Equal(t, 2, stats.ScannedSubmissions)
	require.NotNil(t, stats.AverageRemoteScore)
	assert.InDelta(t, 20.0, *stats.AverageRemoteScore, 1e-9)
	assert.NotNil(t, stats.LastSubmissionAt)
}
