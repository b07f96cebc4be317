package models

import "time"

// Data Transfer Objects for the admin HTTP API

type SubmissionResponse struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username,omitempty"`
	Preview     string    `json:"preview"`
	Length      int       `json:"length"`
	RemoteScore *float64  `json:"remote_score,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type SubmissionListResponse struct {
	Submissions []SubmissionResponse `json:"submissions"`
	Total       int                  `json:"total"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
}

type CorpusStats struct {
	TotalSubmissions   int        `json:"total_submissions"`
	ScannedSubmissions int        `json:"scanned_submissions"`
	AverageRemoteScore *float64   `json:"average_remote_score,omitempty"`
	LastSubmissionAt   *time.Time `json:"last_submission_at,omitempty"`
}

type HealthCheckResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

const previewLength = 120

// ToResponse trims the stored text down to a short preview for listings.
func (s *Submission) ToResponse() SubmissionResponse {
	preview := s.Content
	if len(preview) > previewLength {
		preview = preview[:previewLength] + "..."
	}

	return SubmissionResponse{
		ID:          s.ID,
		UserID:      s.UserID,
		Username:    s.Username,
		Preview:     preview,
		Length:      len(s.Content),
		RemoteScore: s.RemoteScore,
		CreatedAt:   s.CreatedAt,
	}
}
