package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/academie/admission-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// AttemptPolicy holds the optional server-side timing rules.
type AttemptPolicy struct {
	EnforceTimeLimit bool
	SubmitGrace      time.Duration
}

// QuizAttemptService runs the attempt engine: start/resume, autosave, resume
// reads, grading and resets. Every mutating call consults the QuizGate first.
type QuizAttemptService struct {
	tx         TxManager
	quizzes    QuizStore
	attempts   AttemptStore
	candidates CandidateStore
	interviews InterviewStore
	lifecycle  Lifecycle
	gate       QuizGate
	events     EventPublisher
	audit      AuditRecorder
	policy     AttemptPolicy
	now        func() time.Time
	log        zerolog.Logger
}

// NewQuizAttemptService creates a new QuizAttemptService.
func NewQuizAttemptService(
	tx TxManager,
	quizzes QuizStore,
	attempts AttemptStore,
	candidates CandidateStore,
	interviews InterviewStore,
	lifecycle Lifecycle,
	gate QuizGate,
	events EventPublisher,
	audit AuditRecorder,
	policy AttemptPolicy,
	log zerolog.Logger,
) *QuizAttemptService {
	if events == nil {
		events = nopPublisher{}
	}
	if audit == nil {
		audit = nopRecorder{}
	}
	return &QuizAttemptService{
		tx:         tx,
		quizzes:    quizzes,
		attempts:   attempts,
		candidates: candidates,
		interviews: interviews,
		lifecycle:  lifecycle,
		gate:       gate,
		events:     events,
		audit:      audit,
		policy:     policy,
		now:        time.Now,
		log:        log.With().Str("component", "quiz_attempt_service").Logger(),
	}
}

// admission is the resolved context of an attempt. Practice quizzes have no
// session and no interview.
type admission struct {
	sessionID *uuid.UUID
	interview *model.Interview
	required  int
}

func (a *admission) decision() *model.Decision {
	if a.interview == nil {
		return nil
	}
	return a.interview.Decision
}

// StartOrResume opens the single attempt of the candidate on the quiz, or
// returns the in-progress one.
func (s *QuizAttemptService) StartOrResume(ctx context.Context, p *model.Principal, candidateID, quizID uuid.UUID, req model.StartQuizRequest) (*model.QuizStart, error) {
	if err := authorizeCandidate(p, candidateID); err != nil {
		return nil, err
	}
	quiz, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	existing, err := s.findAttempt(ctx, quizID, candidateID)
	if err != nil {
		return nil, err
	}
	adm, err := s.resolveAdmission(ctx, quiz, candidateID, req.SessionID, existing)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Completed {
		return nil, ErrAlreadyCompleted
	}

	now := s.now()
	attempt := existing
	created := false
	if attempt == nil {
		attempt = &model.QuizAttempt{
			QuizID:      quizID,
			CandidateID: candidateID,
			SessionID:   adm.sessionID,
			Progress: model.ProgressMetadata{
				TimeLeftSeconds: quiz.TimeLimitSeconds,
				StartedAtEpoch:  now.Unix(),
			},
			Answers:   model.AnswerMap{},
			StartedAt: now,
		}
		created, err = s.attempts.CreateIfAbsent(ctx, attempt)
		if err != nil {
			return nil, fmt.Errorf("create attempt: %w", err)
		}
		if attempt.Completed {
			return nil, ErrAlreadyCompleted
		}
	}

	if created {
		s.log.Info().
			Str("attempt_id", attempt.ID.String()).
			Str("quiz_id", quizID.String()).
			Str("candidate_id", candidateID.String()).
			Msg("Attempt started")
		s.publish(ctx, model.MonitorEventAttemptStarted, attempt)
	}

	return &model.QuizStart{
		AttemptID:       attempt.ID,
		SessionID:       attempt.SessionID,
		Resumed:         !created,
		RequiredScore:   adm.required,
		Decision:        adm.decision(),
		TimeLeftSeconds: attempt.Progress.AdjustedTimeLeft(now),
		Progress:        attempt.Progress,
		Answers:         attempt.Answers,
		Quiz:            quiz.ForCandidate(),
	}, nil
}

// SaveProgress merges answers into the attempt and replaces its progress
// metadata. A save carrying a client sequence lower than the highest one
// stored is rejected as stale; saves without one apply in arrival order.
func (s *QuizAttemptService) SaveProgress(ctx context.Context, p *model.Principal, candidateID, quizID uuid.UUID, req model.SaveProgressRequest) (*model.QuizProgress, error) {
	if err := authorizeCandidate(p, candidateID); err != nil {
		return nil, err
	}
	quiz, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	existing, err := s.findAttempt(ctx, quizID, candidateID)
	if err != nil {
		return nil, err
	}
	adm, err := s.resolveAdmission(ctx, quiz, candidateID, req.SessionID, existing)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Completed {
		return nil, ErrAlreadyCompleted
	}
	if err := validateAnswers(quiz, req.Answers); err != nil {
		return nil, err
	}
	if n := len(quiz.Questions); n > 0 && req.CurrentQuestionIndex >= n {
		return nil, invalidPayload("current_question_index %d is out of range", req.CurrentQuestionIndex)
	}

	now := s.now()
	attempt := &model.QuizAttempt{
		QuizID:      quizID,
		CandidateID: candidateID,
		SessionID:   adm.sessionID,
		Progress: model.ProgressMetadata{
			CurrentQuestionIndex: req.CurrentQuestionIndex,
			TimeLeftSeconds:      req.TimeLeftSeconds,
			StartedAtEpoch:       req.StartedAtEpoch,
			LastSavedAtEpoch:     now.Unix(),
		},
		Answers:   req.Answers,
		SaveSeq:   req.ClientSeq,
		StartedAt: now,
	}
	if existing != nil {
		attempt.StartedAt = existing.StartedAt
		if existing.Progress.StartedAtEpoch != 0 {
			attempt.Progress.StartedAtEpoch = existing.Progress.StartedAtEpoch
		}
	}
	if attempt.Progress.StartedAtEpoch == 0 {
		attempt.Progress.StartedAtEpoch = now.Unix()
	}

	applied, err := s.attempts.SaveProgress(ctx, attempt)
	if err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}
	if !applied {
		current, err := s.findAttempt(ctx, quizID, candidateID)
		if err != nil {
			return nil, err
		}
		if current != nil && current.Completed {
			return nil, ErrAlreadyCompleted
		}
		return nil, ErrStaleProgress
	}

	s.publish(ctx, model.MonitorEventProgressSaved, attempt)

	return &model.QuizProgress{
		AttemptID:        attempt.ID,
		QuizID:           quizID,
		Progress:         attempt.Progress,
		Answers:          attempt.Answers,
		AdjustedTimeLeft: attempt.Progress.AdjustedTimeLeft(now),
	}, nil
}

// GetProgress returns the in-progress attempt with the time left recomputed
// from wall-clock elapsed since the last save. Staff with attempts:read may
// read any candidate.
func (s *QuizAttemptService) GetProgress(ctx context.Context, p *model.Principal, candidateID, quizID uuid.UUID) (*model.QuizProgress, error) {
	if p == nil {
		return nil, ErrUnauthorized
	}
	if !p.Can(model.PermissionAttemptsRead) {
		if err := authorizeCandidate(p, candidateID); err != nil {
			return nil, err
		}
	}

	attempt, err := s.findAttempt(ctx, quizID, candidateID)
	if err != nil {
		return nil, err
	}
	if attempt == nil || attempt.Completed {
		return nil, ErrNoProgress
	}

	return &model.QuizProgress{
		AttemptID:        attempt.ID,
		QuizID:           quizID,
		Progress:         attempt.Progress,
		Answers:          attempt.Answers,
		AdjustedTimeLeft: attempt.Progress.AdjustedTimeLeft(s.now()),
	}, nil
}

// Submit grades the attempt and marks it completed exactly once. For admission
// quizzes the candidate moves to QUIZ_COMPLETED in the same transaction.
func (s *QuizAttemptService) Submit(ctx context.Context, p *model.Principal, candidateID, quizID uuid.UUID, req model.SubmitQuizRequest) (*model.QuizResult, error) {
	if err := authorizeCandidate(p, candidateID); err != nil {
		return nil, err
	}
	quiz, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	existing, err := s.findAttempt(ctx, quizID, candidateID)
	if err != nil {
		return nil, err
	}
	adm, err := s.resolveAdmission(ctx, quiz, candidateID, req.SessionID, existing)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Completed {
		return nil, ErrAlreadyCompleted
	}
	if err := validateAnswers(quiz, req.Answers); err != nil {
		return nil, err
	}

	now := s.now()
	if s.policy.EnforceTimeLimit && existing != nil {
		limit := time.Duration(quiz.TimeLimitSeconds)*time.Second + s.policy.SubmitGrace
		if now.Sub(existing.StartedAt) > limit {
			return nil, ErrTimeLimitExceeded
		}
	}

	// Submitted answers win over autosaved ones; the stored map is what the
	// monitor re-grades later.
	answers := req.Answers
	progress := model.ProgressMetadata{StartedAtEpoch: now.Unix()}
	startedAt := now
	var seq int64
	if existing != nil {
		answers = existing.Answers.Merge(req.Answers)
		progress = existing.Progress
		startedAt = existing.StartedAt
		seq = existing.SaveSeq
	}
	if answers == nil {
		answers = model.AnswerMap{}
	}
	progress.LastSavedAtEpoch = now.Unix()

	grade := GradeAnswers(quiz.Questions, answers)
	completedAt := now
	attempt := &model.QuizAttempt{
		QuizID:           quizID,
		CandidateID:      candidateID,
		SessionID:        adm.sessionID,
		Progress:         progress,
		Answers:          answers,
		SaveSeq:          seq,
		Score:            grade.Earned,
		MaxScore:         grade.Total,
		TimeSpentSeconds: req.TimeSpent,
		Completed:        true,
		StartedAt:        startedAt,
		CompletedAt:      &completedAt,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		applied, err := s.attempts.Complete(ctx, attempt)
		if err != nil {
			return fmt.Errorf("complete attempt: %w", err)
		}
		if !applied {
			return ErrAlreadyCompleted
		}
		if quiz.Practice || attempt.SessionID == nil {
			return nil
		}
		_, err = s.lifecycle.Apply(ctx, *attempt.SessionID, candidateID, model.EventCompleteQuiz)
		if errors.Is(err, ErrInvalidTransition) {
			// Candidate already past QUIZ_READY (another admission quiz of the
			// same cohort); the attempt still completes.
			s.log.Warn().
				Str("candidate_id", candidateID.String()).
				Str("quiz_id", quizID.String()).
				Err(err).
				Msg("Quiz completed without lifecycle change")
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	percentage := grade.Percentage()
	passed := percentage >= adm.required

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("candidate_id", candidateID.String()).
		Int("score", grade.Earned).
		Int("max_score", grade.Total).
		Bool("passed", passed).
		Msg("Attempt submitted")

	s.publish(ctx, model.MonitorEventAttemptSubmitted, attempt)
	s.record(ctx, model.AuditAttemptSubmitted, p.ID, attempt, map[string]any{
		"score":            grade.Earned,
		"max_score":        grade.Total,
		"score_percentage": percentage,
		"required_score":   adm.required,
	})

	return &model.QuizResult{
		AttemptID:        attempt.ID,
		QuizID:           quizID,
		CandidateID:      candidateID,
		SessionID:        attempt.SessionID,
		Score:            grade.Earned,
		MaxScore:         grade.Total,
		ScorePercentage:  percentage,
		RequiredScore:    adm.required,
		Passed:           passed,
		Decision:         adm.decision(),
		CorrectAnswers:   grade.CorrectCount,
		TotalQuestions:   len(quiz.Questions),
		TimeSpentSeconds: req.TimeSpent,
		CompletedAt:      completedAt,
		Questions:        grade.Results,
	}, nil
}

// ResetProgress lets a candidate abandon an attempt that is not completed yet.
func (s *QuizAttemptService) ResetProgress(ctx context.Context, p *model.Principal, candidateID, quizID uuid.UUID) error {
	if err := authorizeCandidate(p, candidateID); err != nil {
		return err
	}
	attempt, err := s.findAttempt(ctx, quizID, candidateID)
	if err != nil {
		return err
	}
	if attempt == nil || attempt.Completed {
		return ErrNoProgress
	}

	deleted, err := s.attempts.DeleteInProgress(ctx, quizID, candidateID)
	if err != nil {
		return fmt.Errorf("delete attempt: %w", err)
	}
	if !deleted {
		return ErrNoProgress
	}

	s.publish(ctx, model.MonitorEventAttemptReset, attempt)
	s.record(ctx, model.AuditAttemptAbandoned, p.ID, attempt, nil)
	return nil
}

// AdminReset deletes the attempt whatever its state. Removing a completed
// admission attempt sends the candidate back to QUIZ_READY.
func (s *QuizAttemptService) AdminReset(ctx context.Context, p *model.Principal, candidateID, quizID uuid.UUID) error {
	if err := requirePermission(p, model.PermissionAttemptsReset); err != nil {
		return err
	}

	var removed *model.QuizAttempt
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.attempts.Delete(ctx, quizID, candidateID)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoProgress
		}
		if err != nil {
			return fmt.Errorf("delete attempt: %w", err)
		}
		removed = a

		if !a.Completed || a.SessionID == nil {
			return nil
		}
		_, err = s.lifecycle.Apply(ctx, *a.SessionID, candidateID, model.EventResetQuiz)
		if errors.Is(err, ErrCandidateNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}

	s.log.Warn().
		Str("quiz_id", quizID.String()).
		Str("candidate_id", candidateID.String()).
		Str("actor_id", p.ID.String()).
		Bool("was_completed", removed.Completed).
		Msg("Attempt reset by staff")

	s.publish(ctx, model.MonitorEventAttemptReset, removed)
	s.record(ctx, model.AuditAttemptAdminReset, p.ID, removed, map[string]any{
		"completed": removed.Completed,
		"score":     removed.Score,
		"max_score": removed.MaxScore,
	})
	return nil
}

// resolveAdmission finds the cohort of the attempt and runs the gate.
// Practice quizzes bypass both.
func (s *QuizAttemptService) resolveAdmission(ctx context.Context, quiz *model.Quiz, candidateID uuid.UUID, requested *uuid.UUID, existing *model.QuizAttempt) (*admission, error) {
	if quiz.Practice {
		return &admission{required: quiz.PassingScoreNormal}, nil
	}

	sessionID := requested
	if existing != nil && existing.SessionID != nil {
		if sessionID != nil && *sessionID != *existing.SessionID {
			return nil, invalidPayload("attempt belongs to another session")
		}
		sessionID = existing.SessionID
	}
	if sessionID == nil || *sessionID == uuid.Nil {
		return nil, ErrSessionRequired
	}

	if _, err := s.candidates.Get(ctx, *sessionID, candidateID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCandidateNotFound
		}
		return nil, fmt.Errorf("get candidate: %w", err)
	}

	interview, err := s.interviews.Latest(ctx, *sessionID, candidateID)
	if errors.Is(err, pgx.ErrNoRows) {
		interview = nil
	} else if err != nil {
		return nil, fmt.Errorf("get latest interview: %w", err)
	}

	if ok, reason := s.gate.CanAccessQuiz(interview); !ok {
		return nil, gateDenied(reason)
	}

	id := *sessionID
	return &admission{
		sessionID: &id,
		interview: interview,
		required:  s.gate.RequiredScore(quiz, interview),
	}, nil
}

func (s *QuizAttemptService) getQuiz(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	quiz, err := s.quizzes.GetWithQuestions(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	return quiz, nil
}

func (s *QuizAttemptService) findAttempt(ctx context.Context, quizID, candidateID uuid.UUID) (*model.QuizAttempt, error) {
	a, err := s.attempts.Get(ctx, quizID, candidateID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return a, nil
}

func (s *QuizAttemptService) publish(ctx context.Context, typ model.MonitorEventType, a *model.QuizAttempt) {
	if a.SessionID == nil {
		return
	}
	quizID := a.QuizID
	s.events.Publish(ctx, model.MonitorEvent{
		Type:        typ,
		SessionID:   *a.SessionID,
		CandidateID: a.CandidateID,
		QuizID:      &quizID,
		At:          s.now(),
	})
}

func (s *QuizAttemptService) record(ctx context.Context, kind model.AuditKind, actor uuid.UUID, a *model.QuizAttempt, detail map[string]any) {
	evt := model.AuditEvent{
		Kind:        kind,
		ActorID:     actor,
		CandidateID: a.CandidateID,
		SessionID:   a.SessionID,
		CreatedAt:   s.now().UTC(),
	}
	quizID := a.QuizID
	evt.QuizID = &quizID
	if detail != nil {
		raw, err := json.Marshal(detail)
		if err == nil {
			evt.Detail = raw
		}
	}
	s.audit.Record(ctx, evt)
}

// authorizeCandidate allows a candidate to act on its own attempts only.
func authorizeCandidate(p *model.Principal, candidateID uuid.UUID) error {
	if p == nil {
		return ErrUnauthorized
	}
	if !p.Can(model.PermissionQuizTake) || !p.Owns(candidateID) {
		return ErrForbidden
	}
	return nil
}

// validateAnswers rejects answers to unknown questions and selections outside
// the option list.
func validateAnswers(quiz *model.Quiz, answers model.AnswerMap) error {
	for id, idx := range answers {
		q, ok := quiz.Question(id)
		if !ok {
			return invalidPayload("question %s does not belong to this quiz", id)
		}
		if _, ok := q.OptionText(idx); !ok {
			return invalidPayload("answer %d is out of range for question %s", idx, id)
		}
	}
	return nil
}
