package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/RubachokBoss/originality-bot/internal/models"
	"github.com/rs/zerolog"
)

type SubmissionRepository interface {
	Create(ctx context.Context, sub *models.Submission) error
	GetByID(ctx context.Context, id int64) (*models.Submission, error)
	GetAll(ctx context.Context) ([]models.Submission, error)
	List(ctx context.Context, limit, offset int) ([]models.Submission, int, error)
	UpdateRemoteScore(ctx context.Context, id int64, score float64) error
	GetStats(ctx context.Context) (*models.CorpusStats, error)
	Ping(ctx context.Context) error
}

type submissionRepository struct {
	*SQLiteRepository
}

func NewSubmissionRepository(db *sql.DB, logger zerolog.Logger) SubmissionRepository {
	return &submissionRepository{
		SQLiteRepository: NewSQLiteRepository(db, logger),
	}
}

func (r *submissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO submissions (user_id, username, content, remote_score, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		sub.UserID,
		sub.Username,
		sub.Content,
		sub.RemoteScore,
		sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get submission id: %w", err)
	}

	sub.ID = id
	return nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id int64) (*models.Submission, error) {
	query := `
		SELECT id, user_id, username, content, remote_score, created_at
		FROM submissions
		WHERE id = ?
	`

	sub := &models.Submission{}
	var username sql.NullString
	var remoteScore sql.NullFloat64

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sub.ID,
		&sub.UserID,
		&username,
		&sub.Content,
		&remoteScore,
		&sub.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sub.Username = username.String
	if remoteScore.Valid {
		sub.RemoteScore = &remoteScore.Float64
	}

	return sub, nil
}

// GetAll returns the complete corpus in insertion order. Every new
// submission is compared against every prior one, so this is read in full
// on each check.
func (r *submissionRepository) GetAll(ctx context.Context) ([]models.Submission, error) {
	query := `
		SELECT id, user_id, username, content, remote_score, created_at
		FROM submissions
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	return scanSubmissions(rows)
}

func (r *submissionRepository) List(ctx context.Context, limit, offset int) ([]models.Submission, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	query := `
		SELECT id, user_id, username, content, remote_score, created_at
		FROM submissions
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	subs, err := scanSubmissions(rows)
	if err != nil {
		return nil, 0, err
	}

	return subs, total, nil
}

func (r *submissionRepository) UpdateRemoteScore(ctx context.Context, id int64, score float64) error {
	query := `UPDATE submissions SET remote_score = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, score, id)
	if err != nil {
		return fmt.Errorf("failed to update remote score: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("submission %d not found", id)
	}

	return nil
}

func (r *submissionRepository) GetStats(ctx context.Context) (*models.CorpusStats, error) {
	stats := &models.CorpusStats{}

	query := `
		SELECT COUNT(*),
		       COUNT(remote_score),
		       AVG(remote_score)
		FROM submissions
	`

	var avgScore sql.NullFloat64

	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalSubmissions,
		&stats.ScannedSubmissions,
		&avgScore,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}

	if avgScore.Valid {
		stats.AverageRemoteScore = &avgScore.Float64
	}

	// Aggregates lose the column's declared type, so the timestamp is
	// read through a plain column select.
	var lastAt time.Time
	err = r.db.QueryRowContext(ctx,
		`SELECT created_at FROM submissions ORDER BY id DESC LIMIT 1`,
	).Scan(&lastAt)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query last submission time: %w", err)
	}
	if err == nil {
		stats.LastSubmissionAt = &lastAt
	}

	return stats, nil
}

func scanSubmissions(rows *sql.Rows) ([]models.Submission, error) {
	var subs []models.Submission

	for rows.Next() {
		var sub models.Submission
		var username sql.NullString
		var remoteScore sql.NullFloat64

		if err := rows.Scan(
			&sub.ID,
			&sub.UserID,
			&username,
			&sub.Content,
			&remoteScore,
			&sub.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}

		sub.Username = username.String
		if remoteScore.Valid {
			sub.RemoteScore = &remoteScore.Float64
		}

		subs = append(subs, sub)
	}

	return subs, rows.Err()
}
