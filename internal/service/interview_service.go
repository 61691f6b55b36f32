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

// InterviewService schedules, opens and decides interviews. Every status
// change of the candidate goes through the Lifecycle.
type InterviewService struct {
	tx         TxManager
	candidates CandidateStore
	interviews InterviewStore
	lifecycle  Lifecycle
	audit      AuditRecorder
	now        func() time.Time
	log        zerolog.Logger
}

// NewInterviewService creates a new InterviewService.
func NewInterviewService(
	tx TxManager,
	candidates CandidateStore,
	interviews InterviewStore,
	lifecycle Lifecycle,
	audit AuditRecorder,
	log zerolog.Logger,
) *InterviewService {
	if audit == nil {
		audit = nopRecorder{}
	}
	return &InterviewService{
		tx:         tx,
		candidates: candidates,
		interviews: interviews,
		lifecycle:  lifecycle,
		audit:      audit,
		now:        time.Now,
		log:        log.With().Str("component", "interview_service").Logger(),
	}
}

// Schedule plans an interview slot without assigning an interviewer yet.
func (s *InterviewService) Schedule(ctx context.Context, p *model.Principal, sessionID, candidateID uuid.UUID, req model.ScheduleInterviewRequest) (*model.Interview, error) {
	if err := requirePermission(p, model.PermissionInterviewsConduct); err != nil {
		return nil, err
	}

	c, err := s.getCandidate(ctx, sessionID, candidateID)
	if err != nil {
		return nil, err
	}
	if _, err := model.Transition(c.Status, model.EventOpenInterview); err != nil {
		return nil, invalidTransition(err)
	}

	i := &model.Interview{
		SessionID:   sessionID,
		CandidateID: candidateID,
		Status:      model.InterviewStatusScheduled,
		ScheduledAt: req.ScheduledAt,
	}
	if err := s.interviews.Create(ctx, i); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrInterviewAlreadyOpen
		}
		return nil, fmt.Errorf("create interview: %w", err)
	}
	return i, nil
}

// Open starts an interview for the calling interviewer: a scheduled one is
// claimed, otherwise a new one is created directly IN_PROGRESS. The candidate
// moves to IN_INTERVIEW in the same transaction.
func (s *InterviewService) Open(ctx context.Context, p *model.Principal, sessionID, candidateID uuid.UUID) (*model.Interview, error) {
	if err := requirePermission(p, model.PermissionInterviewsConduct); err != nil {
		return nil, err
	}

	var opened *model.Interview
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.getCandidate(ctx, sessionID, candidateID); err != nil {
			return err
		}

		existing, err := s.interviews.FindOpen(ctx, sessionID, candidateID)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			interviewerID := p.ID
			opened = &model.Interview{
				SessionID:     sessionID,
				CandidateID:   candidateID,
				InterviewerID: &interviewerID,
				Status:        model.InterviewStatusInProgress,
			}
			if err := s.interviews.Create(ctx, opened); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return ErrInterviewAlreadyOpen
				}
				return fmt.Errorf("create interview: %w", err)
			}
		case err != nil:
			return fmt.Errorf("find open interview: %w", err)
		case existing.Status != model.InterviewStatusScheduled:
			return ErrInterviewAlreadyOpen
		default:
			claimed, err := s.interviews.Claim(ctx, existing.ID, p.ID)
			if err != nil {
				return fmt.Errorf("claim interview: %w", err)
			}
			if !claimed {
				return ErrInterviewAlreadyOpen
			}
			if opened, err = s.interviews.GetByID(ctx, existing.ID); err != nil {
				return fmt.Errorf("reload interview: %w", err)
			}
		}

		_, err = s.lifecycle.Apply(ctx, sessionID, candidateID, model.EventOpenInterview)
		return err
	})
	if err != nil {
		return nil, err
	}
	return opened, nil
}

// RecordDecision completes an in-progress interview and applies the matching
// lifecycle event. Only the interviewer who opened it may decide, unless the
// caller holds interviews:override.
func (s *InterviewService) RecordDecision(ctx context.Context, p *model.Principal, interviewID uuid.UUID, req model.RecordDecisionRequest) (*model.Interview, error) {
	if err := requirePermission(p, model.PermissionInterviewsConduct); err != nil {
		return nil, err
	}
	event, ok := model.DecisionEvent(req.Decision)
	if !ok {
		return nil, invalidPayload("unknown decision %q", req.Decision)
	}

	var decided *model.Interview
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		i, err := s.interviews.GetForUpdate(ctx, interviewID)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInterviewNotFound
		}
		if err != nil {
			return fmt.Errorf("lock interview: %w", err)
		}
		if !i.Open() {
			return ErrInterviewDecided
		}
		if i.Status != model.InterviewStatusInProgress {
			return &Error{Kind: KindConflict, Code: "INTERVIEW_NOT_STARTED", Reason: "interview has not been opened"}
		}
		if (i.InterviewerID == nil || *i.InterviewerID != p.ID) && !p.Can(model.PermissionInterviewsOverride) {
			return ErrForbidden
		}

		at := s.now()
		done, err := s.interviews.Complete(ctx, i.ID, req.Decision, req.Notes, at)
		if err != nil {
			return fmt.Errorf("complete interview: %w", err)
		}
		if !done {
			return ErrInterviewDecided
		}

		if _, err := s.lifecycle.Apply(ctx, i.SessionID, i.CandidateID, event); err != nil {
			return err
		}

		decision := req.Decision
		i.Status = model.InterviewStatusCompleted
		i.Decision = &decision
		i.Notes = req.Notes
		i.CompletedAt = &at
		decided = i
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("interview_id", decided.ID.String()).
		Str("candidate_id", decided.CandidateID.String()).
		Str("decision", string(req.Decision)).
		Msg("Interview decided")

	detail, _ := json.Marshal(map[string]any{"interview_id": decided.ID, "decision": req.Decision})
	sessionID := decided.SessionID
	s.audit.Record(ctx, model.AuditEvent{
		Kind:        model.AuditInterviewDecided,
		ActorID:     p.ID,
		CandidateID: decided.CandidateID,
		SessionID:   &sessionID,
		Detail:      detail,
		CreatedAt:   decided.CompletedAt.UTC(),
	})
	return decided, nil
}

// Get returns one interview by id.
func (s *InterviewService) Get(ctx context.Context, p *model.Principal, interviewID uuid.UUID) (*model.Interview, error) {
	if err := requirePermission(p, model.PermissionCandidatesRead); err != nil {
		return nil, err
	}
	i, err := s.interviews.GetByID(ctx, interviewID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInterviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get interview: %w", err)
	}
	return i, nil
}

// Latest returns the candidate's most recent interview in the cohort.
// Candidates may read their own.
func (s *InterviewService) Latest(ctx context.Context, p *model.Principal, sessionID, candidateID uuid.UUID) (*model.Interview, error) {
	if p == nil {
		return nil, ErrUnauthorized
	}
	if !p.Owns(candidateID) && !p.Can(model.PermissionCandidatesRead) {
		return nil, ErrForbidden
	}
	i, err := s.interviews.Latest(ctx, sessionID, candidateID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInterviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get latest interview: %w", err)
	}
	return i, nil
}

func (s *InterviewService) getCandidate(ctx context.Context, sessionID, candidateID uuid.UUID) (*model.SessionCandidate, error) {
	c, err := s.candidates.Get(ctx, sessionID, candidateID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCandidateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return c, nil
}
