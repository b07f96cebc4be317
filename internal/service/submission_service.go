package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RubachokBoss/originality-bot/internal/models"
	"github.com/RubachokBoss/originality-bot/internal/repository"
	"github.com/RubachokBoss/originality-bot/internal/service/checker"
	"github.com/rs/zerolog"
)

// ErrEmptyText rejects submissions with no content. Nothing is persisted
// for these.
var ErrEmptyText = errors.New("submission text is empty")

// ScanDispatcher hands an accepted submission off to the asynchronous
// remote-scan pipeline.
type ScanDispatcher interface {
	DispatchScan(ctx context.Context, event models.ScanRequestedEvent) error
}

// SubmitRequest carries one accepted message or extracted document.
type SubmitRequest struct {
	UserID   int64
	Username string
	ChatID   int64
	Content  string

	// Set for document submissions only.
	DocumentName string
	DocumentData []byte
}

// CheckResult is the synchronous part of the verdict: the local
// similarity outcome for the freshly persisted submission.
type CheckResult struct {
	SubmissionID int64
	Best         *checker.BestMatch
	Suspicious   bool
	ScanQueued   bool
}

type SubmissionService interface {
	Submit(ctx context.Context, req SubmitRequest) (*CheckResult, error)
	GetSubmission(ctx context.Context, id int64) (*models.Submission, error)
	ListSubmissions(ctx context.Context, limit, offset int) (*models.SubmissionListResponse, error)
	GetStats(ctx context.Context) (*models.CorpusStats, error)
}

type SubmissionConfig struct {
	ScanEnabled    bool
	ArchiveEnabled bool
}

type submissionService struct {
	repo       repository.SubmissionRepository
	checker    checker.CorpusChecker
	archive    repository.ArchiveRepository
	dispatcher ScanDispatcher
	logger     zerolog.Logger
	config     SubmissionConfig
}

func NewSubmissionService(
	repo repository.SubmissionRepository,
	corpusChecker checker.CorpusChecker,
	archive repository.ArchiveRepository,
	dispatcher ScanDispatcher,
	logger zerolog.Logger,
	config SubmissionConfig,
) SubmissionService {
	return &submissionService{
		repo:       repo,
		checker:    corpusChecker,
		archive:    archive,
		dispatcher: dispatcher,
		logger:     logger,
		config:     config,
	}
}

// Submit scores the text against the prior corpus, persists it, archives
// the originating document when there is one, and queues the remote scan.
// The comparison and the save always happen together: a suspicious local
// score never blocks persistence.
func (s *submissionService) Submit(ctx context.Context, req SubmitRequest) (*CheckResult, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyText
	}

	best, err := s.checker.BestMatch(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("failed to score submission: %w", err)
	}

	sub := &models.Submission{
		UserID:    req.UserID,
		Username:  req.Username,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to persist submission: %w", err)
	}

	result := &CheckResult{
		SubmissionID: sub.ID,
	}
	if best != nil {
		result.Best = best
		result.Suspicious = s.checker.IsSuspicious(best.Ratio)
	}

	if s.config.ArchiveEnabled && s.archive != nil && len(req.DocumentData) > 0 {
		s.archiveDocument(ctx, sub.ID, req.DocumentName, req.DocumentData)
	}

	if s.config.ScanEnabled && s.dispatcher != nil {
		event := models.ScanRequestedEvent{
			SubmissionID: sub.ID,
			ChatID:       req.ChatID,
			Content:      content,
			RequestedAt:  time.Now().UTC(),
		}
		if err := s.dispatcher.DispatchScan(ctx, event); err != nil {
			s.logger.Error().Err(err).
				Int64("submission_id", sub.ID).
				Msg("Failed to dispatch remote scan")
		} else {
			result.ScanQueued = true
		}
	}

	s.logger.Info().
		Int64("submission_id", sub.ID).
		Int64("user_id", req.UserID).
		Int("content_length", len(content)).
		Bool("suspicious", result.Suspicious).
		Bool("scan_queued", result.ScanQueued).
		Msg("Submission accepted")

	return result, nil
}

func (s *submissionService) archiveDocument(ctx context.Context, submissionID int64, name string, data []byte) {
	objectName := fmt.Sprintf("submissions/%d/%s", submissionID, name)

	if err := s.archive.StoreDocument(ctx, objectName, bytes.NewReader(data), int64(len(data))); err != nil {
		s.logger.Error().Err(err).
			Int64("submission_id", submissionID).
			Str("object", objectName).
			Msg("Failed to archive document")
	}
}

func (s *submissionService) GetSubmission(ctx context.Context, id int64) (*models.Submission, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *submissionService) ListSubmissions(ctx context.Context, limit, offset int) (*models.SubmissionListResponse, error) {
	subs, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	resp := &models.SubmissionListResponse{
		Submissions: make([]models.SubmissionResponse, 0, len(subs)),
		Total:       total,
		Limit:       limit,
		Offset:      offset,
	}
	for i := range subs {
		resp.Submissions = append(resp.Submissions, subs[i].ToResponse())
	}

	return resp, nil
}

func (s *submissionService) GetStats(ctx context.Context) (*models.CorpusStats, error) {
	return s.repo.GetStats(ctx)
}

// queueDispatcher publishes scan events through the message broker.
type queueDispatcher struct {
	publisher  Publisher
	exchange   string
	routingKey string
}

// Publisher is the broker-facing half of the dispatcher.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
}

func NewQueueDispatcher(publisher Publisher, exchange, routingKey string) ScanDispatcher {
	return &queueDispatcher{
		publisher:  publisher,
		exchange:   exchange,
		routingKey: routingKey,
	}
}

func (d *queueDispatcher) DispatchScan(ctx context.Context, event models.ScanRequestedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal scan event: %w", err)
	}

	return d.publisher.Publish(ctx, d.exchange, d.routingKey, body)
}
