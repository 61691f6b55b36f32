package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/academie/admission-backend/internal/model"
	"github.com/academie/admission-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// CandidateService owns SessionCandidate enrollments and is the only writer of
// their status column.
type CandidateService struct {
	tx         TxManager
	sessions   SessionStore
	candidates CandidateStore
	interviews InterviewStore
	quizzes    QuizStore
	attempts   AttemptStore
	gate       QuizGate
	events     EventPublisher
	audit      AuditRecorder
	log        zerolog.Logger
}

// NewCandidateService creates a new CandidateService.
func NewCandidateService(
	tx TxManager,
	sessions SessionStore,
	candidates CandidateStore,
	interviews InterviewStore,
	quizzes QuizStore,
	attempts AttemptStore,
	gate QuizGate,
	events EventPublisher,
	audit AuditRecorder,
	log zerolog.Logger,
) *CandidateService {
	if events == nil {
		events = nopPublisher{}
	}
	if audit == nil {
		audit = nopRecorder{}
	}
	return &CandidateService{
		tx:         tx,
		sessions:   sessions,
		candidates: candidates,
		interviews: interviews,
		quizzes:    quizzes,
		attempts:   attempts,
		gate:       gate,
		events:     events,
		audit:      audit,
		log:        log.With().Str("component", "candidate_service").Logger(),
	}
}

// Apply runs one lifecycle event against the enrollment. The row is locked,
// the next status comes from model.Transition and the write is a
// compare-and-set on the status that was read. The status_changed event is
// published once the caller's transaction commits.
func (s *CandidateService) Apply(ctx context.Context, sessionID, candidateID uuid.UUID, event model.LifecycleEvent) (model.CandidateStatus, error) {
	var (
		from model.CandidateStatus
		to   model.CandidateStatus
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.candidates.GetForUpdate(ctx, sessionID, candidateID)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCandidateNotFound
		}
		if err != nil {
			return fmt.Errorf("lock candidate: %w", err)
		}

		from = c.Status
		to, err = model.Transition(c.Status, event)
		if err != nil {
			return invalidTransition(err)
		}

		ok, err := s.candidates.UpdateStatus(ctx, sessionID, candidateID, from, to)
		if err != nil {
			return fmt.Errorf("update candidate status: %w", err)
		}
		if !ok {
			return &Error{Kind: KindConflict, Reason: "candidate status changed concurrently"}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.tx.AfterCommit(ctx, func() {
		s.log.Info().
			Str("session_id", sessionID.String()).
			Str("candidate_id", candidateID.String()).
			Str("event", string(event)).
			Str("from", string(from)).
			Str("to", string(to)).
			Msg("Candidate status changed")

		s.events.Publish(ctx, model.MonitorEvent{
			Type:        model.MonitorEventStatusChanged,
			SessionID:   sessionID,
			CandidateID: candidateID,
			Status:      to,
			At:          time.Now(),
		})
	})
	return to, nil
}

// Register enrolls a candidate in a cohort with status REGISTERED.
// Candidates register themselves; staff with sessions:register may enroll anyone.
func (s *CandidateService) Register(ctx context.Context, p *model.Principal, sessionID uuid.UUID, req model.RegisterCandidateRequest) (*model.SessionCandidate, error) {
	candidateID, err := s.targetCandidate(p, req.CandidateID)
	if err != nil {
		return nil, err
	}

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionStatusClosed {
		return nil, ErrSessionClosed
	}

	c := &model.SessionCandidate{
		SessionID:   sessionID,
		CandidateID: candidateID,
		Status:      model.CandidateStatusRegistered,
		Matricule:   req.Matricule,
	}
	if err := s.candidates.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("create candidate: %w", err)
	}

	s.events.Publish(ctx, model.MonitorEvent{
		Type:        model.MonitorEventStatusChanged,
		SessionID:   sessionID,
		CandidateID: candidateID,
		Status:      c.Status,
		At:          time.Now(),
	})
	return c, nil
}

// Unregister withdraws an enrollment. Only allowed while the cohort is PLANNED.
func (s *CandidateService) Unregister(ctx context.Context, p *model.Principal, sessionID, candidateID uuid.UUID) error {
	if p == nil {
		return ErrUnauthorized
	}
	if !p.Owns(candidateID) && !(p.Role.IsStaff() && p.Can(model.PermissionSessionsRegister)) {
		return ErrForbidden
	}

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status != model.SessionStatusPlanned {
		return ErrSessionNotPlanned
	}

	deleted, err := s.candidates.Delete(ctx, sessionID, candidateID)
	if err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	if !deleted {
		return ErrCandidateNotFound
	}
	return nil
}

// Validate marks a registered candidate as VALIDATED.
func (s *CandidateService) Validate(ctx context.Context, p *model.Principal, sessionID, candidateID uuid.UUID) (*model.SessionCandidate, error) {
	if err := requirePermission(p, model.PermissionCandidatesValidate); err != nil {
		return nil, err
	}
	if _, err := s.Apply(ctx, sessionID, candidateID, model.EventValidate); err != nil {
		return nil, err
	}
	return s.candidates.Get(ctx, sessionID, candidateID)
}

// Finalize closes the pipeline for a candidate whose admission quiz is
// completed: PASSED when the score percentage reaches the required score,
// FAILED otherwise.
func (s *CandidateService) Finalize(ctx context.Context, p *model.Principal, sessionID, candidateID, quizID uuid.UUID) (*model.SessionCandidate, error) {
	if err := requirePermission(p, model.PermissionCandidatesFinalize); err != nil {
		return nil, err
	}

	quiz, err := s.quizzes.GetWithQuestions(ctx, quizID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}

	attempt, err := s.attempts.Get(ctx, quizID, candidateID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoProgress
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.SessionID == nil || *attempt.SessionID != sessionID {
		return nil, ErrNoProgress
	}
	if !attempt.Completed {
		return nil, ErrQuizNotCompleted
	}

	interview, err := s.latestInterview(ctx, sessionID, candidateID)
	if err != nil {
		return nil, err
	}

	required := s.gate.RequiredScore(quiz, interview)
	percentage := ScorePercentage(attempt.Score, attempt.MaxScore)
	event := model.EventMarkFailed
	if percentage >= required {
		event = model.EventMarkPassed
	}

	status, err := s.Apply(ctx, sessionID, candidateID, event)
	if err != nil {
		return nil, err
	}

	detail, _ := json.Marshal(map[string]any{
		"score_percentage": percentage,
		"required_score":   required,
		"status":           status,
	})
	s.audit.Record(ctx, model.AuditEvent{
		Kind:        model.AuditCandidateFinalized,
		ActorID:     p.ID,
		CandidateID: candidateID,
		QuizID:      &quizID,
		SessionID:   &sessionID,
		Detail:      detail,
		CreatedAt:   time.Now(),
	})

	return s.candidates.Get(ctx, sessionID, candidateID)
}

// Get returns one enrollment. Candidates may only read their own.
func (s *CandidateService) Get(ctx context.Context, p *model.Principal, sessionID, candidateID uuid.UUID) (*model.SessionCandidate, error) {
	if p == nil {
		return nil, ErrUnauthorized
	}
	if !p.Owns(candidateID) && !p.Can(model.PermissionCandidatesRead) {
		return nil, ErrForbidden
	}
	c, err := s.candidates.Get(ctx, sessionID, candidateID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCandidateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return c, nil
}

// ListBySession returns the enrollments of a cohort.
func (s *CandidateService) ListBySession(ctx context.Context, p *model.Principal, sessionID uuid.UUID) ([]model.SessionCandidate, error) {
	if err := requirePermission(p, model.PermissionCandidatesRead); err != nil {
		return nil, err
	}
	if _, err := s.getSession(ctx, sessionID); err != nil {
		return nil, err
	}
	list, err := s.candidates.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return list, nil
}

func (s *CandidateService) targetCandidate(p *model.Principal, requested *uuid.UUID) (uuid.UUID, error) {
	if p == nil {
		return uuid.Nil, ErrUnauthorized
	}
	if p.Role == model.RoleCandidate {
		if requested != nil && *requested != p.ID {
			return uuid.Nil, ErrForbidden
		}
		return p.ID, nil
	}
	if !p.Can(model.PermissionSessionsRegister) {
		return uuid.Nil, ErrForbidden
	}
	if requested == nil || *requested == uuid.Nil {
		return uuid.Nil, invalidPayload("candidate_id is required")
	}
	return *requested, nil
}

func (s *CandidateService) getSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func (s *CandidateService) latestInterview(ctx context.Context, sessionID, candidateID uuid.UUID) (*model.Interview, error) {
	interview, err := s.interviews.Latest(ctx, sessionID, candidateID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest interview: %w", err)
	}
	return interview, nil
}

func requirePermission(p *model.Principal, perm model.Permission) error {
	if p == nil {
		return ErrUnauthorized
	}
	if !p.Can(perm) {
		return ErrForbidden
	}
	return nil
}
