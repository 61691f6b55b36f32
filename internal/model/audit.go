package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditKind names an auditable action on an attempt or enrollment.
type AuditKind string

const (
	AuditAttemptSubmitted   AuditKind = "ATTEMPT_SUBMITTED"
	AuditAttemptAbandoned   AuditKind = "ATTEMPT_ABANDONED"
	AuditAttemptAdminReset  AuditKind = "ATTEMPT_ADMIN_RESET"
	AuditCandidateFinalized AuditKind = "CANDIDATE_FINALIZED"
	AuditInterviewDecided   AuditKind = "INTERVIEW_DECIDED"
)

// AuditEvent is queued in Redis and persisted by the audit worker.
type AuditEvent struct {
	Kind        AuditKind       `json:"kind"`
	ActorID     uuid.UUID       `json:"actor_id"`
	CandidateID uuid.UUID       `json:"candidate_id"`
	QuizID      *uuid.UUID      `json:"quiz_id,omitempty"`
	SessionID   *uuid.UUID      `json:"session_id,omitempty"`
	Detail      json.RawMessage `json:"detail,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
