package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RubachokBoss/originality-bot/internal/models"
	"github.com/RubachokBoss/originality-bot/internal/repository"
	"github.com/RubachokBoss/originality-bot/internal/service/integration"
	"github.com/RubachokBoss/originality-bot/internal/worker/queue"
	"github.com/rs/zerolog"
)

// ScanNotifier delivers the remote verdict (or the vendor's failure) back
// to the chat that produced the submission.
type ScanNotifier interface {
	NotifyScanResult(chatID int64, score float64, suspicious bool) error
	NotifyScanFailure(chatID int64, reason string) error
}

type ScanWorker interface {
	Start(ctx context.Context) error
	Stop() error
	ProcessScan(ctx context.Context, event models.ScanRequestedEvent) error
	GetStats() ScanWorkerStats
}

type ScanWorkerStats struct {
	ActiveWorkers  int `json:"active_workers"`
	TotalProcessed int `json:"total_processed"`
	FailedScans    int `json:"failed_scans"`
	QueueLength    int `json:"queue_length"`
}

type ScanWorkerConfig struct {
	// Threshold is the matched-content percentage at or above which the
	// verdict flags the submission.
	Threshold float64
	// ScanTimeout bounds one full vendor scan, poll loop included.
	ScanTimeout time.Duration
}

type scanWorker struct {
	workerPool    *WorkerPool
	queueConsumer queue.RabbitMQConsumer
	repo          repository.SubmissionRepository
	scanner       integration.ScannerClient
	notifier      ScanNotifier
	logger        zerolog.Logger
	config        ScanWorkerConfig
	stats         ScanWorkerStats
	statsMutex    sync.RWMutex
}

func NewScanWorker(
	workerPool *WorkerPool,
	queueConsumer queue.RabbitMQConsumer,
	repo repository.SubmissionRepository,
	scanner integration.ScannerClient,
	notifier ScanNotifier,
	logger zerolog.Logger,
	config ScanWorkerConfig,
) ScanWorker {
	return &scanWorker{
		workerPool:    workerPool,
		queueConsumer: queueConsumer,
		repo:          repo,
		scanner:       scanner,
		notifier:      notifier,
		logger:        logger,
		config:        config,
	}
}

func (w *scanWorker) Start(ctx context.Context) error {
	w.logger.Info().Msg("Starting scan worker...")

	if err := w.workerPool.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	msgs, err := w.queueConsumer.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}

	go w.processMessages(ctx, msgs)

	w.logger.Info().Msg("Scan worker started successfully")
	return nil
}

func (w *scanWorker) Stop() error {
	w.logger.Info().Msg("Stopping scan worker...")

	if err := w.workerPool.Stop(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to stop worker pool")
	}

	if err := w.queueConsumer.Close(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to close queue consumer")
	}

	w.logger.Info().
		Int("total_processed", w.stats.TotalProcessed).
		Int("failed_scans", w.stats.FailedScans).
		Msg("Scan worker stopped")

	return nil
}

func (w *scanWorker) processMessages(ctx context.Context, msgs <-chan queue.RabbitMQMessage) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Stopping scan message processing")
			return
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Warn().Msg("Message channel closed")
				return
			}

			w.workerPool.Submit(func() {
				if err := w.processMessage(ctx, msg); err != nil {
					w.logger.Error().Err(err).Msg("Failed to process scan message")

					w.statsMutex.Lock()
					w.stats.FailedScans++
					w.statsMutex.Unlock()

					if isPermanentError(err) {
						if ackErr := msg.Ack(false); ackErr != nil {
							w.logger.Error().Err(ackErr).Msg("Failed to ack message")
						}
						return
					}

					if nackErr := msg.Nack(false, true); nackErr != nil {
						w.logger.Error().Err(nackErr).Msg("Failed to nack message")
					}
				} else {
					if err := msg.Ack(false); err != nil {
						w.logger.Error().Err(err).Msg("Failed to ack message")
					}

					w.statsMutex.Lock()
					w.stats.TotalProcessed++
					w.statsMutex.Unlock()
				}
			})
		}
	}
}

func (w *scanWorker) processMessage(ctx context.Context, msg queue.RabbitMQMessage) error {
	var event models.ScanRequestedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return permanent(fmt.Errorf("failed to unmarshal scan event: %w", err))
	}

	if event.SubmissionID == 0 {
		return permanent(errors.New("empty submission_id"))
	}
	if event.Content == "" {
		return permanent(errors.New("empty scan content"))
	}

	w.logger.Info().
		Int64("submission_id", event.SubmissionID).
		Int64("chat_id", event.ChatID).
		Msg("Processing remote scan")

	return w.ProcessScan(ctx, event)
}

// ProcessScan runs one vendor scan end to end. Vendor failures are
// reported to the user and treated as permanent: the queue must not spin
// on a scan the vendor has already rejected, and the submission itself
// stays persisted with a NULL remote score.
func (w *scanWorker) ProcessScan(ctx context.Context, event models.ScanRequestedEvent) error {
	scanCtx := ctx
	if w.config.ScanTimeout > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, w.config.ScanTimeout)
		defer cancel()
	}

	score, err := w.scanner.Scan(scanCtx, event.Content)
	if err != nil {
		if notifyErr := w.notifier.NotifyScanFailure(event.ChatID, err.Error()); notifyErr != nil {
			w.logger.Error().Err(notifyErr).
				Int64("chat_id", event.ChatID).
				Msg("Failed to notify scan failure")
		}
		return permanent(fmt.Errorf("remote scan failed for submission %d: %w", event.SubmissionID, err))
	}

	if err := w.repo.UpdateRemoteScore(ctx, event.SubmissionID, score); err != nil {
		return fmt.Errorf("failed to persist remote score: %w", err)
	}

	suspicious := score >= w.config.Threshold

	if err := w.notifier.NotifyScanResult(event.ChatID, score, suspicious); err != nil {
		w.logger.Error().Err(err).
			Int64("chat_id", event.ChatID).
			Msg("Failed to notify scan result")
	}

	w.logger.Info().
		Int64("submission_id", event.SubmissionID).
		Float64("score", score).
		Bool("suspicious", suspicious).
		Msg("Remote scan completed")

	return nil
}

func (w *scanWorker) GetStats() ScanWorkerStats {
	w.statsMutex.RLock()
	defer w.statsMutex.RUnlock()

	stats := w.stats

	if queueLength, err := w.queueConsumer.GetQueueLength(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to get queue length")
	} else {
		stats.QueueLength = queueLength
	}

	stats.ActiveWorkers = w.workerPool.GetActiveWorkers()

	return stats
}

type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	return permanentError{err: err}
}

func isPermanentError(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}
