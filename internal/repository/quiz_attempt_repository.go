package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/academie/admission-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const attemptColumns = `id, quiz_id, candidate_id, session_id, progress, answers, save_seq,
	score, max_score, time_spent_seconds, completed, started_at, completed_at, updated_at`

// QuizAttemptRepository handles the single attempt record per (quiz, candidate).
type QuizAttemptRepository struct {
	pool *pgxpool.Pool
}

// NewQuizAttemptRepository creates a new QuizAttemptRepository.
func NewQuizAttemptRepository(pool *pgxpool.Pool) *QuizAttemptRepository {
	return &QuizAttemptRepository{pool: pool}
}

func scanAttempt(row interface{ Scan(...any) error }, a *model.QuizAttempt) error {
	var progress, answers []byte
	if err := row.Scan(&a.ID, &a.QuizID, &a.CandidateID, &a.SessionID, &progress, &answers, &a.SaveSeq,
		&a.Score, &a.MaxScore, &a.TimeSpentSeconds, &a.Completed, &a.StartedAt, &a.CompletedAt, &a.UpdatedAt); err != nil {
		return err
	}
	if err := json.Unmarshal(progress, &a.Progress); err != nil {
		return fmt.Errorf("decode progress: %w", err)
	}
	a.Answers = model.AnswerMap{}
	if err := json.Unmarshal(answers, &a.Answers); err != nil {
		return fmt.Errorf("decode answers: %w", err)
	}
	return nil
}

func encodeAttempt(a *model.QuizAttempt) (progress, answers []byte, err error) {
	if progress, err = json.Marshal(a.Progress); err != nil {
		return nil, nil, fmt.Errorf("encode progress: %w", err)
	}
	if a.Answers == nil {
		a.Answers = model.AnswerMap{}
	}
	if answers, err = json.Marshal(a.Answers); err != nil {
		return nil, nil, fmt.Errorf("encode answers: %w", err)
	}
	return progress, answers, nil
}

// Get retrieves the attempt of a candidate on a quiz.
func (r *QuizAttemptRepository) Get(ctx context.Context, quizID, candidateID uuid.UUID) (*model.QuizAttempt, error) {
	a := &model.QuizAttempt{}
	if err := scanAttempt(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM quiz_attempts WHERE quiz_id = $1 AND candidate_id = $2`,
		quizID, candidateID), a); err != nil {
		return nil, err
	}
	return a, nil
}

// CreateIfAbsent inserts a fresh attempt unless one already exists for the
// (quiz, candidate) pair. On conflict a is overwritten with the stored row and
// created is false.
func (r *QuizAttemptRepository) CreateIfAbsent(ctx context.Context, a *model.QuizAttempt) (bool, error) {
	progress, answers, err := encodeAttempt(a)
	if err != nil {
		return false, err
	}

	err = conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO quiz_attempts (quiz_id, candidate_id, session_id, progress, answers, save_seq, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (quiz_id, candidate_id) DO NOTHING
		 RETURNING id, updated_at`,
		a.QuizID, a.CandidateID, a.SessionID, progress, answers, a.SaveSeq, a.StartedAt,
	).Scan(&a.ID, &a.UpdatedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	existing, err := r.Get(ctx, a.QuizID, a.CandidateID)
	if err != nil {
		return false, err
	}
	*a = *existing
	return false, nil
}

// SaveProgress upserts progress and merges answers into the stored map.
// The write is skipped when the attempt is completed or when a save with a
// higher client sequence already landed; unsequenced saves (save_seq 0) skip
// that check. applied reports whether the row changed.
func (r *QuizAttemptRepository) SaveProgress(ctx context.Context, a *model.QuizAttempt) (bool, error) {
	progress, answers, err := encodeAttempt(a)
	if err != nil {
		return false, err
	}

	var merged []byte
	err = conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO quiz_attempts (quiz_id, candidate_id, session_id, progress, answers, save_seq, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (quiz_id, candidate_id) DO UPDATE SET
		     progress   = EXCLUDED.progress,
		     answers    = quiz_attempts.answers || EXCLUDED.answers,
		     save_seq   = GREATEST(quiz_attempts.save_seq, EXCLUDED.save_seq),
		     session_id = COALESCE(quiz_attempts.session_id, EXCLUDED.session_id),
		     updated_at = NOW()
		 WHERE quiz_attempts.completed = FALSE
		   AND (EXCLUDED.save_seq = 0 OR quiz_attempts.save_seq <= EXCLUDED.save_seq)
		 RETURNING id, session_id, answers, started_at, updated_at`,
		a.QuizID, a.CandidateID, a.SessionID, progress, answers, a.SaveSeq, a.StartedAt,
	).Scan(&a.ID, &a.SessionID, &merged, &a.StartedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	a.Answers = model.AnswerMap{}
	if err := json.Unmarshal(merged, &a.Answers); err != nil {
		return false, fmt.Errorf("decode answers: %w", err)
	}
	return true, nil
}

// Complete writes the graded final state. Only one caller can flip completed
// from FALSE to TRUE; the rest get applied == false.
func (r *QuizAttemptRepository) Complete(ctx context.Context, a *model.QuizAttempt) (bool, error) {
	progress, answers, err := encodeAttempt(a)
	if err != nil {
		return false, err
	}

	err = conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO quiz_attempts (quiz_id, candidate_id, session_id, progress, answers, save_seq,
		                            score, max_score, time_spent_seconds, completed, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, $10, $11)
		 ON CONFLICT (quiz_id, candidate_id) DO UPDATE SET
		     progress           = EXCLUDED.progress,
		     answers            = EXCLUDED.answers,
		     save_seq           = GREATEST(quiz_attempts.save_seq, EXCLUDED.save_seq),
		     session_id         = COALESCE(quiz_attempts.session_id, EXCLUDED.session_id),
		     score              = EXCLUDED.score,
		     max_score          = EXCLUDED.max_score,
		     time_spent_seconds = EXCLUDED.time_spent_seconds,
		     completed          = TRUE,
		     completed_at       = EXCLUDED.completed_at,
		     updated_at         = NOW()
		 WHERE quiz_attempts.completed = FALSE
		 RETURNING id, session_id, started_at, updated_at`,
		a.QuizID, a.CandidateID, a.SessionID, progress, answers, a.SaveSeq,
		a.Score, a.MaxScore, a.TimeSpentSeconds, a.StartedAt, a.CompletedAt,
	).Scan(&a.ID, &a.SessionID, &a.StartedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	a.Completed = true
	return true, nil
}

// DeleteInProgress removes an attempt that has not been completed yet.
func (r *QuizAttemptRepository) DeleteInProgress(ctx context.Context, quizID, candidateID uuid.UUID) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM quiz_attempts
		 WHERE quiz_id = $1 AND candidate_id = $2 AND completed = FALSE`,
		quizID, candidateID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes an attempt regardless of its state and returns the removed row.
// Returns pgx.ErrNoRows when there was nothing to delete.
func (r *QuizAttemptRepository) Delete(ctx context.Context, quizID, candidateID uuid.UUID) (*model.QuizAttempt, error) {
	a := &model.QuizAttempt{}
	if err := scanAttempt(conn(ctx, r.pool).QueryRow(ctx,
		`DELETE FROM quiz_attempts
		 WHERE quiz_id = $1 AND candidate_id = $2
		 RETURNING `+attemptColumns,
		quizID, candidateID), a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListBySession returns every attempt linked to a cohort, oldest first.
func (r *QuizAttemptRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.QuizAttempt, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+attemptColumns+`
		 FROM quiz_attempts
		 WHERE session_id = $1
		 ORDER BY started_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.QuizAttempt
	for rows.Next() {
		var a model.QuizAttempt
		if err := scanAttempt(rows, &a); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
