package model

import (
	"time"

	"github.com/google/uuid"
)

// InterviewStatus enumerates interview states.
type InterviewStatus string

const (
	InterviewStatusScheduled  InterviewStatus = "SCHEDULED"
	InterviewStatusInProgress InterviewStatus = "IN_PROGRESS"
	InterviewStatusCompleted  InterviewStatus = "COMPLETED"
)

// Decision is the interviewer's verdict.
type Decision string

const (
	DecisionFavorable   Decision = "FAVORABLE"
	DecisionToWatch     Decision = "A_SURVEILLER"
	DecisionUnfavorable Decision = "DEFAVORABLE"
)

// Valid reports whether d is a known decision.
func (d Decision) Valid() bool {
	return d == DecisionFavorable || d == DecisionToWatch || d == DecisionUnfavorable
}

// Interview is one interviewer's evaluation of one candidate within one Session.
type Interview struct {
	ID            uuid.UUID       `json:"id"`
	SessionID     uuid.UUID       `json:"session_id"`
	CandidateID   uuid.UUID       `json:"candidate_id"`
	InterviewerID *uuid.UUID      `json:"interviewer_id,omitempty"`
	Status        InterviewStatus `json:"status"`
	Decision      *Decision       `json:"decision,omitempty"`
	Notes         string          `json:"notes"`
	ScheduledAt   *time.Time      `json:"scheduled_at,omitempty"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Open reports whether the interview still awaits a decision.
func (i *Interview) Open() bool {
	return i.Decision == nil
}

// ScheduleInterviewRequest is the payload for planning an interview slot.
type ScheduleInterviewRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at" binding:"omitempty"`
}

// RecordDecisionRequest is the payload for closing an interview.
type RecordDecisionRequest struct {
	Decision Decision `json:"decision" binding:"required,oneof=FAVORABLE A_SURVEILLER DEFAVORABLE"`
	Notes    string   `json:"notes" binding:"max=4000"`
}
