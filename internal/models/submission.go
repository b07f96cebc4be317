package models

import (
	"strconv"
	"time"
)

// Submission is one piece of user-provided text kept for future comparison.
// Rows are append-only; the only field written after creation is the remote
// score once the external scan finishes.
type Submission struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username,omitempty"`
	Content     string    `json:"content"`
	RemoteScore *float64  `json:"remote_score,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DisplayName returns the submitter's handle, falling back to the numeric
// user ID when no username is known.
func (s *Submission) DisplayName() string {
	if s.Username != "" {
		return s.Username
	}
	return strconv.FormatInt(s.UserID, 10)
}
