package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/RubachokBoss/originality-bot/internal/models"
	"github.com/RubachokBoss/originality-bot/internal/service/checker"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepo is an in-memory SubmissionRepository good enough for the
// service-level paths.
type memoryRepo struct {
	mu   sync.Mutex
	subs []models.Submission
}

func (m *memoryRepo) Create(ctx context.Context, sub *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub.ID = int64(len(m.subs) + 1)
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	m.subs = append(m.subs, *sub)
	return nil
}

func (m *memoryRepo) GetByID(ctx context.Context, id int64) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.subs {
		if m.subs[i].ID == id {
			sub := m.subs[i]
			return &sub, nil
		}
	}
	return nil, nil
}

func (m *memoryRepo) GetAll(ctx context.Context) ([]models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Submission, len(m.subs))
	copy(out, m.subs)
	return out, nil
}

func (m *memoryRepo) List(ctx context.Context, limit, offset int) ([]models.Submission, int, error) {
	all, _ := m.GetAll(ctx)
	return all, len(all), nil
}

func (m *memoryRepo) UpdateRemoteScore(ctx context.Context, id int64, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.subs {
		if m.subs[i].ID == id {
			m.subs[i].RemoteScore = &score
			return nil
		}
	}
	return nil
}

func (m *memoryRepo) GetStats(ctx context.Context) (*models.CorpusStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &models.CorpusStats{TotalSubmissions: len(m.subs)}, nil
}

func (m *memoryRepo) Ping(ctx context.Context) error { return nil }

type fakeDispatcher struct {
	mu     sync.Mutex
	events []models.ScanRequestedEvent
	err    error
}

func (f *fakeDispatcher) DispatchScan(ctx context.Context, event models.ScanRequestedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func newTestService(repo *memoryRepo, dispatcher ScanDispatcher) SubmissionService {
	corpusChecker := checker.NewCorpusChecker(
		repo,
		checker.CorpusCheckerConfig{Threshold: 0.7},
		zerolog.Nop(),
	)

	return NewSubmissionService(
		repo,
		corpusChecker,
		nil,
		dispatcher,
		zerolog.Nop(),
		SubmissionConfig{ScanEnabled: dispatcher != nil},
	)
}

func TestSubmitRejectsEmptyText(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo, nil)

	tests := []string{"", "   ", "\n\t  \n"}
	for _, text := range tests {
		_, err := svc.Submit(context.Background(), SubmitRequest{
			UserID:  1,
			ChatID:  1,
			Content: text,
		})
		assert.ErrorIs(t, err, ErrEmptyText)
	}

	assert.Empty(t, repo.subs, "nothing may be persisted for empty input")
}

func TestSubmitPersistsExactlyOnce(t *testing.T) {
	repo := &memoryRepo{}
	dispatcher := &fakeDispatcher{}
	svc := newTestService(repo, dispatcher)

	result, err := svc.Submit(context.Background(), SubmitRequest{
		UserID:   100,
		Username: "alice",
		ChatID:   500,
		Content:  "A completely original essay about birds.",
	})
	require.NoError(t, err)

	assert.Len(t, repo.subs, 1)
	assert.Equal(t, int64(1), result.SubmissionID)
	assert.Nil(t, result.Best, "first submission has no prior corpus")
	assert.False(t, result.Suspicious)
	assert.True(t, result.ScanQueued)

	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, int64(1), dispatcher.events[0].SubmissionID)
	assert.Equal(t, int64(500), dispatcher.events[0].ChatID)
}

func TestSubmitIdenticalTextsBothPersist(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo, nil)

	text := "An identical essay submitted by two different students."

	first, err := svc.Submit(context.Background(), SubmitRequest{
		UserID: 1, Username: "alice", ChatID: 10, Content: text,
	})
	require.NoError(t, err)
	assert.Nil(t, first.Best)

	second, err := svc.Submit(context.Background(), SubmitRequest{
		UserID: 2, Username: "bob", ChatID: 20, Content: text,
	})
	require.NoError(t, err)

	assert.Len(t, repo.subs, 2, "both senders' submissions persist")
	require.NotNil(t, second.Best)
	assert.Equal(t, first.SubmissionID, second.Best.SubmissionID)
	assert.Equal(t, "alice", second.Best.Author)
	assert.InDelta(t, 1.0, second.Best.Ratio, 1e-9)
	assert.True(t, second.Suspicious)
}

func TestSubmitComparesBeforeSaving(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo, nil)

	// A submission must not match itself.
	result, err := svc.Submit(context.Background(), SubmitRequest{
		UserID: 1, ChatID: 1, Content: "unique text",
	})
	require.NoError(t, err)
	assert.Nil(t, result.Best)
	assert.False(t, result.Suspicious)
}

func TestSubmitSurvivesDispatchFailure(t *testing.T) {
	repo := &memoryRepo{}
	dispatcher := &fakeDispatcher{err: assert.AnError}
	svc := newTestService(repo, dispatcher)

	result, err := svc.Submit(context.Background(), SubmitRequest{
		UserID: 1, ChatID: 1, Content: "text that cannot be queued",
	})
	require.NoError(t, err, "a broken queue must not lose the submission")

	assert.Len(t, repo.subs, 1)
	assert.False(t, result.ScanQueued)
}

func TestSubmitTrimsContent(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo, nil)

	_, err := svc.Submit(context.Background(), SubmitRequest{
		UserID: 1, ChatID: 1, Content: "  padded text  \n",
	})
	require.NoError(t, err)

	require.Len(t, repo.subs, 1)
	assert.Equal(t, "padded text", repo.subs[0].Content)
}
