package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/academie/admission-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"
)

// MonitorService builds the read-only cohort projection for staff dashboards.
// It never writes and is safe to call at any frequency.
type MonitorService struct {
	sessions SessionStore
	monitor  MonitorStore
	quizzes  QuizStore
	now      func() time.Time
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(sessions SessionStore, monitor MonitorStore, quizzes QuizStore) *MonitorService {
	return &MonitorService{
		sessions: sessions,
		monitor:  monitor,
		quizzes:  quizzes,
		now:      time.Now,
	}
}

// Snapshot joins every enrollment of the cohort with its latest interview, its
// active attempt and its most recent completed attempt. Scores of active
// attempts are recomputed live with GradeAnswers.
func (s *MonitorService) Snapshot(ctx context.Context, p *model.Principal, sessionID uuid.UUID) (*model.MonitorSnapshot, error) {
	if err := requirePermission(p, model.PermissionMonitorRead); err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var (
		candidates []model.SessionCandidate
		interviews map[uuid.UUID]*model.Interview
		attempts   []model.QuizAttempt
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidates, err = s.monitor.ListCandidates(gctx, sessionID)
		if err != nil {
			return fmt.Errorf("list candidates: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		interviews, err = s.monitor.LatestInterviews(gctx, sessionID)
		if err != nil {
			return fmt.Errorf("latest interviews: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		attempts, err = s.monitor.ListAttempts(gctx, sessionID)
		if err != nil {
			return fmt.Errorf("list attempts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	quizIDs := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]struct{})
	for _, a := range attempts {
		if _, ok := seen[a.QuizID]; !ok {
			seen[a.QuizID] = struct{}{}
			quizIDs = append(quizIDs, a.QuizID)
		}
	}
	quizzes, err := s.quizzes.GetMany(ctx, quizIDs)
	if err != nil {
		return nil, fmt.Errorf("get quizzes: %w", err)
	}

	active := make(map[uuid.UUID]*model.QuizAttempt)
	last := make(map[uuid.UUID]*model.QuizAttempt)
	for i := range attempts {
		a := &attempts[i]
		if a.Completed {
			if cur, ok := last[a.CandidateID]; !ok || completedAfter(a, cur) {
				last[a.CandidateID] = a
			}
			continue
		}
		if cur, ok := active[a.CandidateID]; !ok || a.UpdatedAt.After(cur.UpdatedAt) {
			active[a.CandidateID] = a
		}
	}

	now := s.now()
	snap := &model.MonitorSnapshot{
		Session: *session,
		Stats: model.MonitorStats{
			TotalCandidates: len(candidates),
			ByStatus:        make(map[model.CandidateStatus]int),
		},
		Candidates:  make([]model.MonitorCandidate, 0, len(candidates)),
		GeneratedAt: now,
	}

	for _, c := range candidates {
		row := model.MonitorCandidate{
			CandidateID: c.CandidateID,
			Matricule:   c.Matricule,
			Status:      c.Status,
		}
		snap.Stats.ByStatus[c.Status]++

		if i, ok := interviews[c.CandidateID]; ok {
			row.Interview = &model.MonitorInterview{ID: i.ID, Status: i.Status, Decision: i.Decision}
		}
		if a, ok := active[c.CandidateID]; ok {
			row.Active = activeView(a, quizzes[a.QuizID], now)
			snap.Stats.InProgress++
		}
		if a, ok := last[c.CandidateID]; ok {
			row.Last = completedView(a, quizzes[a.QuizID])
			snap.Stats.Completed++
		}
		snap.Candidates = append(snap.Candidates, row)
	}

	return snap, nil
}

func completedAfter(a, b *model.QuizAttempt) bool {
	if a.CompletedAt == nil {
		return false
	}
	if b.CompletedAt == nil {
		return true
	}
	return a.CompletedAt.After(*b.CompletedAt)
}

func activeView(a *model.QuizAttempt, quiz *model.Quiz, now time.Time) *model.MonitorActiveAttempt {
	view := &model.MonitorActiveAttempt{
		AttemptID:            a.ID,
		QuizID:               a.QuizID,
		CurrentQuestionIndex: a.Progress.CurrentQuestionIndex,
		TimeRemaining:        a.Progress.AdjustedTimeLeft(now),
		StartedAt:            a.StartedAt,
	}
	if a.Progress.LastSavedAtEpoch > 0 {
		t := time.Unix(a.Progress.LastSavedAtEpoch, 0).UTC()
		view.LastSavedAt = &t
	}
	if quiz != nil {
		grade := GradeAnswers(quiz.Questions, a.Answers)
		view.QuestionsAnswered = grade.Answered
		view.TotalQuestions = len(quiz.Questions)
		view.CurrentScore = grade.Earned
		view.MaxScore = grade.Total
	}
	return view
}

func completedView(a *model.QuizAttempt, quiz *model.Quiz) *model.MonitorCompletedAttempt {
	view := &model.MonitorCompletedAttempt{
		AttemptID:       a.ID,
		QuizID:          a.QuizID,
		Score:           a.Score,
		MaxScore:        a.MaxScore,
		ScorePercentage: ScorePercentage(a.Score, a.MaxScore),
	}
	if a.CompletedAt != nil {
		view.CompletedAt = *a.CompletedAt
	}
	if quiz != nil {
		grade := GradeAnswers(quiz.Questions, a.Answers)
		view.CorrectAnswersPercentage = ScorePercentage(grade.CorrectCount, len(quiz.Questions))
	}
	return view
}
