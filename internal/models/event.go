package models

import "time"

// ScanRequestedEvent is published to the scan queue once a submission has
// been persisted and the external originality check should run.
type ScanRequestedEvent struct {
	SubmissionID int64     `json:"submission_id"`
	ChatID       int64     `json:"chat_id"`
	Content      string    `json:"content"`
	RequestedAt  time.Time `json:"requested_at"`
}
