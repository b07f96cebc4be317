package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/RubachokBoss/originality-bot/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScanner struct {
	score float64
	err   error
}

func (f *fakeScanner) Scan(ctx context.Context, text string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.score, nil
}

type fakeNotifier struct {
	mu         sync.Mutex
	results    []float64
	suspicious []bool
	failures   []string
}

func (f *fakeNotifier) NotifyScanResult(chatID int64, score float64, suspicious bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, score)
	f.suspicious = append(f.suspicious, suspicious)
	return nil
}

func (f *fakeNotifier) NotifyScanFailure(chatID int64, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, reason)
	return nil
}

type scoreRepo struct {
	mu     sync.Mutex
	scores map[int64]float64
}

func (r *scoreRepo) Create(ctx context.Context, sub *models.Submission) error { return nil }
func (r *scoreRepo) GetByID(ctx context.Context, id int64) (*models.Submission, error) {
	return nil, nil
}
func (r *scoreRepo) GetAll(ctx context.Context) ([]models.Submission, error) { return nil, nil }
func (r *scoreRepo) List(ctx context.Context, limit, offset int) ([]models.Submission, int, error) {
	return nil, 0, nil
}
func (r *scoreRepo) GetStats(ctx context.Context) (*models.CorpusStats, error) { return nil, nil }
func (r *scoreRepo) Ping(ctx context.Context) error                            { return nil }

func (r *scoreRepo) UpdateRemoteScore(ctx context.Context, id int64, score float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scores == nil {
		r.scores = map[int64]float64{}
	}
	r.scores[id] = score
	return nil
}

func newTestWorker(scanner *fakeScanner, notifier *fakeNotifier, repo *scoreRepo) ScanWorker {
	return NewScanWorker(
		NewWorkerPool(1, zerolog.Nop()),
		nil,
		repo,
		scanner,
		notifier,
		zerolog.Nop(),
		ScanWorkerConfig{
			Threshold:   20.0,
			ScanTimeout: time.Second,
		},
	)
}

func testEvent() models.ScanRequestedEvent {
	return models.ScanRequestedEvent{
		SubmissionID: 42,
		ChatID:       7,
		Content:      "the submission under scan",
		RequestedAt:  time.Now().UTC(),
	}
}

func TestProcessScanPersistsScoreAndNotifies(t *testing.T) {
	scanner := &fakeScanner{score: 5.5}
	notifier := &fakeNotifier{}
	repo := &scoreRepo{}

	w := newTestWorker(scanner, notifier, repo)

	err := w.ProcessScan(context.Background(), testEvent())
	require.NoError(t, err)

	assert.InDelta(t, 5.5, repo.scores[42], 1e-9)
	require.Len(t, notifier.results, 1)
	assert.InDelta(t, 5.5, notifier.results[0], 1e-9)
	assert.False(t, notifier.suspicious[0])
	assert.Empty(t, notifier.failures)
}

func TestProcessScanThresholdIsInclusive(t *testing.T) {
	tests := []struct {
		name       string
		score      float64
		suspicious bool
	}{
		{"below threshold", 19.9, false},
		{"exactly threshold", 20.0, true},
		{"above threshold", 35.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &fakeNotifier{}
			w := newTestWorker(&fakeScanner{score: tt.score}, notifier, &scoreRepo{})

			require.NoError(t, w.ProcessScan(context.Background(), testEvent()))
			require.Len(t, notifier.suspicious, 1)
			assert.Equal(t, tt.suspicious, notifier.suspicious[0])
		})
	}
}

func TestProcessScanVendorFailure(t *testing.T) {
	scanner := &fakeScanner{err: errors.New("scanner authentication failed")}
	notifier := &fakeNotifier{}
	repo := &scoreRepo{}

	w := newTestWorker(scanner, notifier, repo)

	err := w.ProcessScan(context.Background(), testEvent())
	require.Error(t, err)
	assert.True(t, isPermanentError(err), "vendor failures must not be requeued")

	assert.Empty(t, repo.scores, "no score is persisted on vendor failure")
	require.Len(t, notifier.failures, 1)
	assert.Contains(t, notifier.failures[0], "authentication failed")
	assert.Empty(t, notifier.results)
}

func TestPermanentErrorClassification(t *testing.T) {
	base := errors.New("boom")

	assert.False(t, isPermanentError(base))
	assert.True(t, isPermanentError(permanent(base)))
	assert.True(t, isPermanentError(permanentError{err: base}))
	assert.ErrorIs(t, permanent(base), base)
}
