package models

import (
	"encoding/json"
	"time"
)

// CorrectionStatus tracks the review lifecycle of a correction request.
type CorrectionStatus string

const (
	CorrectionStatusPending  CorrectionStatus = "PENDING"
	CorrectionStatusApproved CorrectionStatus = "APPROVED"
	CorrectionStatusRejected CorrectionStatus = "REJECTED"
)

// Valid returns true when the status is a supported value.
func (s CorrectionStatus) Valid() bool {
	switch s {
	case CorrectionStatusPending, CorrectionStatusApproved, CorrectionStatusRejected:
		return true
	default:
		return false
	}
}

// ProposedBreak is one break interval inside a correction payload.
type ProposedBreak struct {
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// CorrectionPayload captures the full proposed day state for display and
// replay on approval.
type CorrectionPayload struct {
	ClockInAt  *time.Time      `json:"clock_in_at,omitempty"`
	ClockOutAt *time.Time      `json:"clock_out_at,omitempty"`
	Breaks     []ProposedBreak `json:"breaks"`
	Note       *string         `json:"note,omitempty"`
}

// CorrectionRequest is an employee-submitted proposal to change a day's
// recorded times, subject to administrator review. While one is PENDING the
// target day is locked against direct edits.
type CorrectionRequest struct {
	ID                 string           `db:"id" json:"id"`
	DayID              string           `db:"day_id" json:"day_id"`
	RequesterID        string           `db:"requester_id" json:"requester_id"`
	ProposedClockInAt  *time.Time       `db:"proposed_clock_in_at" json:"proposed_clock_in_at,omitempty"`
	ProposedClockOutAt *time.Time       `db:"proposed_clock_out_at" json:"proposed_clock_out_at,omitempty"`
	ProposedNote       *string          `db:"proposed_note" json:"proposed_note,omitempty"`
	Reason             string           `db:"reason" json:"reason"`
	Payload            json.RawMessage  `db:"payload" json:"payload,omitempty"`
	Status             CorrectionStatus `db:"status" json:"status"`
	ReviewedBy         *string          `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt         *time.Time       `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewNote         *string          `db:"review_note" json:"review_note,omitempty"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
}

// DecodePayload unmarshals the stored payload snapshot.
func (r *CorrectionRequest) DecodePayload() (*CorrectionPayload, error) {
	if len(r.Payload) == 0 {
		return &CorrectionPayload{}, nil
	}
	var payload CorrectionPayload
	if err := json.Unmarshal(r.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// CorrectionFilter scopes listing queries.
type CorrectionFilter struct {
	RequesterID string
	DayID       string
	Status      []CorrectionStatus
	Page        int
	PageSize    int
}
