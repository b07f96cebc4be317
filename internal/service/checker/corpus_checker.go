package checker

import (
	"context"
	"fmt"
	"time"

	"github.com/RubachokBoss/originality-bot/internal/models"
	"github.com/rs/zerolog"
)

// SubmissionSource provides the prior corpus to score against.
type SubmissionSource interface {
	GetAll(ctx context.Context) ([]models.Submission, error)
}

// BestMatch is the highest-scoring prior submission for a candidate text.
type BestMatch struct {
	SubmissionID int64   `json:"submission_id"`
	Author       string  `json:"author"`
	Ratio        float64 `json:"ratio"`
}

type CorpusChecker interface {
	// BestMatch scans the full corpus and returns the closest prior
	// submission, or nil when the corpus is empty.
	BestMatch(ctx context.Context, text string) (*BestMatch, error)
	// IsSuspicious reports whether a ratio crosses the similarity
	// threshold. The comparison is inclusive.
	IsSuspicious(ratio float64) bool
}

type CorpusCheckerConfig struct {
	Threshold float64
}

type corpusChecker struct {
	source SubmissionSource
	config CorpusCheckerConfig
	logger zerolog.Logger
}

func NewCorpusChecker(source SubmissionSource, config CorpusCheckerConfig, logger zerolog.Logger) CorpusChecker {
	return &corpusChecker{
		source: source,
		config: config,
		logger: logger,
	}
}

func (c *corpusChecker) BestMatch(ctx context.Context, text string) (*BestMatch, error) {
	startTime := time.Now()

	corpus, err := c.source.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}

	if len(corpus) == 0 {
		c.logger.Debug().Msg("Corpus is empty, nothing to compare against")
		return nil, nil
	}

	var best *BestMatch
	for i := range corpus {
		prior := &corpus[i]

		ratio := Ratio(text, prior.Content)
		if best == nil || ratio > best.Ratio {
			best = &BestMatch{
				SubmissionID: prior.ID,
				Author:       prior.DisplayName(),
				Ratio:        ratio,
			}
		}
	}

	c.logger.Debug().
		Int("corpus_size", len(corpus)).
		Int64("best_submission_id", best.SubmissionID).
		Float64("best_ratio", best.Ratio).
		Dur("processing_time", time.Since(startTime)).
		Msg("Corpus comparison completed")

	return best, nil
}

func (c *corpusChecker) IsSuspicious(ratio float64) bool {
	return ratio >= c.config.Threshold
}
