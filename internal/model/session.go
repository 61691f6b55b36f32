package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates cohort states. Status advances manually by staff.
type SessionStatus string

const (
	SessionStatusPlanned SessionStatus = "PLANNED"
	SessionStatusActive  SessionStatus = "ACTIVE"
	SessionStatusClosed  SessionStatus = "CLOSED"
)

// CanAdvanceTo reports whether a cohort may move from s to next. Cohorts only
// move forward; a planned cohort may be closed without ever opening.
func (s SessionStatus) CanAdvanceTo(next SessionStatus) bool {
	switch s {
	case SessionStatusPlanned:
		return next == SessionStatusActive || next == SessionStatusClosed
	case SessionStatusActive:
		return next == SessionStatusClosed
	}
	return false
}

// Session is an academy intake cohort.
type Session struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// SessionCandidate is one candidate's enrollment within one Session.
type SessionCandidate struct {
	SessionID   uuid.UUID       `json:"session_id"`
	CandidateID uuid.UUID       `json:"candidate_id"`
	Status      CandidateStatus `json:"status"`
	Matricule   *string         `json:"matricule,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RegisterCandidateRequest is the payload for enrolling into a cohort.
// CandidateID is only honoured for staff; candidates always register themselves.
type RegisterCandidateRequest struct {
	CandidateID *uuid.UUID `json:"candidate_id" binding:"omitempty"`
	Matricule   *string    `json:"matricule" binding:"omitempty,min=1,max=32"`
}

// FinalizeCandidateRequest selects the admission quiz whose result decides PASSED/FAILED.
type FinalizeCandidateRequest struct {
	QuizID uuid.UUID `json:"quiz_id" binding:"required"`
}

// CreateSessionRequest is the payload for opening a new cohort.
type CreateSessionRequest struct {
	Name string `json:"name" binding:"required,min=3,max=255"`
}

// UpdateSessionStatusRequest advances a cohort.
type UpdateSessionStatusRequest struct {
	Status SessionStatus `json:"status" binding:"required,oneof=ACTIVE CLOSED"`
}
