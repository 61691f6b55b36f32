package repository

import (
	"context"

	"github.com/academie/admission-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MonitorRepository provides the read side of the cohort monitor. Nothing here writes.
type MonitorRepository struct {
	pool *pgxpool.Pool
}

// NewMonitorRepository creates a new MonitorRepository.
func NewMonitorRepository(pool *pgxpool.Pool) *MonitorRepository {
	return &MonitorRepository{pool: pool}
}

// ListCandidates returns every enrollment of the cohort.
func (r *MonitorRepository) ListCandidates(ctx context.Context, sessionID uuid.UUID) ([]model.SessionCandidate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+candidateColumns+`
		 FROM session_candidates
		 WHERE session_id = $1
		 ORDER BY created_at ASC, candidate_id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SessionCandidate
	for rows.Next() {
		var c model.SessionCandidate
		if err := scanCandidate(rows, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// LatestInterviews returns the most recent interview of each candidate in the cohort.
func (r *MonitorRepository) LatestInterviews(ctx context.Context, sessionID uuid.UUID) (map[uuid.UUID]*model.Interview, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT ON (candidate_id) `+interviewColumns+`
		 FROM interviews
		 WHERE session_id = $1
		 ORDER BY candidate_id, created_at DESC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]*model.Interview)
	for rows.Next() {
		i := &model.Interview{}
		if err := scanInterview(rows, i); err != nil {
			return nil, err
		}
		out[i.CandidateID] = i
	}
	return out, rows.Err()
}

// ListAttempts returns every attempt linked to the cohort.
func (r *MonitorRepository) ListAttempts(ctx context.Context, sessionID uuid.UUID) ([]model.QuizAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+`
		 FROM quiz_attempts
		 WHERE session_id = $1
		 ORDER BY started_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.QuizAttempt
	for rows.Next() {
		var a model.QuizAttempt
		if err := scanAttempt(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
