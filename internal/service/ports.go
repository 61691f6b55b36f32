package service

import (
	"context"
	"time"

	"github.com/academie/admission-backend/internal/model"
	"github.com/google/uuid"
)

// Storage ports consumed by the services. The pgx repositories satisfy them in
// production; tests plug in-memory fakes. Not-found reads return pgx.ErrNoRows
// and unique violations return repository.ErrDuplicate.

// TxManager runs fn inside one database transaction. AfterCommit holds side
// effects (logs, published events) until the outermost transaction commits.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	AfterCommit(ctx context.Context, f func())
}

// SessionStore reads cohorts.
type SessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
}

// CandidateStore persists enrollments. UpdateStatus is a compare-and-set on from.
type CandidateStore interface {
	Get(ctx context.Context, sessionID, candidateID uuid.UUID) (*model.SessionCandidate, error)
	GetForUpdate(ctx context.Context, sessionID, candidateID uuid.UUID) (*model.SessionCandidate, error)
	Create(ctx context.Context, c *model.SessionCandidate) error
	Delete(ctx context.Context, sessionID, candidateID uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, sessionID, candidateID uuid.UUID, from, to model.CandidateStatus) (bool, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.SessionCandidate, error)
}

// InterviewStore persists interviews.
type InterviewStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Interview, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Interview, error)
	Latest(ctx context.Context, sessionID, candidateID uuid.UUID) (*model.Interview, error)
	FindOpen(ctx context.Context, sessionID, candidateID uuid.UUID) (*model.Interview, error)
	Create(ctx context.Context, i *model.Interview) error
	Claim(ctx context.Context, id, interviewerID uuid.UUID) (bool, error)
	Complete(ctx context.Context, id uuid.UUID, decision model.Decision, notes string, at time.Time) (bool, error)
}

// QuizStore reads quiz definitions.
type QuizStore interface {
	GetWithQuestions(ctx context.Context, id uuid.UUID) (*model.Quiz, error)
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Quiz, error)
}

// AttemptStore persists the single attempt per (quiz, candidate).
type AttemptStore interface {
	Get(ctx context.Context, quizID, candidateID uuid.UUID) (*model.QuizAttempt, error)
	CreateIfAbsent(ctx context.Context, a *model.QuizAttempt) (bool, error)
	SaveProgress(ctx context.Context, a *model.QuizAttempt) (bool, error)
	Complete(ctx context.Context, a *model.QuizAttempt) (bool, error)
	DeleteInProgress(ctx context.Context, quizID, candidateID uuid.UUID) (bool, error)
	Delete(ctx context.Context, quizID, candidateID uuid.UUID) (*model.QuizAttempt, error)
}

// MonitorStore is the read side of the cohort monitor.
type MonitorStore interface {
	ListCandidates(ctx context.Context, sessionID uuid.UUID) ([]model.SessionCandidate, error)
	LatestInterviews(ctx context.Context, sessionID uuid.UUID) (map[uuid.UUID]*model.Interview, error)
	ListAttempts(ctx context.Context, sessionID uuid.UUID) ([]model.QuizAttempt, error)
}

// EventPublisher pushes monitor notifications. Failures are logged, never returned to callers.
type EventPublisher interface {
	Publish(ctx context.Context, evt model.MonitorEvent)
}

// AuditRecorder queues audit events for asynchronous persistence.
type AuditRecorder interface {
	Record(ctx context.Context, evt model.AuditEvent)
}

// Lifecycle applies candidate status transitions. Implemented by CandidateService.
type Lifecycle interface {
	Apply(ctx context.Context, sessionID, candidateID uuid.UUID, event model.LifecycleEvent) (model.CandidateStatus, error)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, model.MonitorEvent) {}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, model.AuditEvent) {}

// AuditTrail reads persisted audit events.
type AuditTrail interface {
	ListByCandidate(ctx context.Context, candidateID uuid.UUID, limit int) ([]model.AuditEvent, error)
}

// SessionAdmin manages cohorts. UpdateStatus is a compare-and-set on from.
type SessionAdmin interface {
	SessionStore
	List(ctx context.Context) ([]model.Session, error)
	Create(ctx context.Context, s *model.Session) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.SessionStatus) (bool, error)
}
