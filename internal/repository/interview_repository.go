package repository

import (
	"context"
	"time"

	"github.com/academie/admission-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const interviewColumns = `id, session_id, candidate_id, interviewer_id, status, decision,
	notes, scheduled_at, completed_at, created_at, updated_at`

// InterviewRepository handles interview data access.
type InterviewRepository struct {
	pool *pgxpool.Pool
}

// NewInterviewRepository creates a new InterviewRepository.
func NewInterviewRepository(pool *pgxpool.Pool) *InterviewRepository {
	return &InterviewRepository{pool: pool}
}

func scanInterview(row interface{ Scan(...any) error }, i *model.Interview) error {
	return row.Scan(&i.ID, &i.SessionID, &i.CandidateID, &i.InterviewerID, &i.Status, &i.Decision,
		&i.Notes, &i.ScheduledAt, &i.CompletedAt, &i.CreatedAt, &i.UpdatedAt)
}

// GetByID retrieves an interview by its UUID.
func (r *InterviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Interview, error) {
	i := &model.Interview{}
	if err := scanInterview(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE id = $1`, id), i); err != nil {
		return nil, err
	}
	return i, nil
}

// GetForUpdate retrieves an interview and locks it for the current transaction.
func (r *InterviewRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Interview, error) {
	i := &model.Interview{}
	if err := scanInterview(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE id = $1 FOR UPDATE`, id), i); err != nil {
		return nil, err
	}
	return i, nil
}

// Latest returns the most recent interview of a candidate in a cohort.
func (r *InterviewRepository) Latest(ctx context.Context, sessionID, candidateID uuid.UUID) (*model.Interview, error) {
	i := &model.Interview{}
	if err := scanInterview(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+interviewColumns+`
		 FROM interviews
		 WHERE session_id = $1 AND candidate_id = $2
		 ORDER BY created_at DESC
		 LIMIT 1`, sessionID, candidateID), i); err != nil {
		return nil, err
	}
	return i, nil
}

// FindOpen returns the undecided interview of a candidate in a cohort, if any.
func (r *InterviewRepository) FindOpen(ctx context.Context, sessionID, candidateID uuid.UUID) (*model.Interview, error) {
	i := &model.Interview{}
	if err := scanInterview(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+interviewColumns+`
		 FROM interviews
		 WHERE session_id = $1 AND candidate_id = $2 AND decision IS NULL
		 FOR UPDATE`, sessionID, candidateID), i); err != nil {
		return nil, err
	}
	return i, nil
}

// Create inserts an interview. Returns ErrDuplicate when an open interview
// already exists for the enrollment.
func (r *InterviewRepository) Create(ctx context.Context, i *model.Interview) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO interviews (session_id, candidate_id, interviewer_id, status, notes, scheduled_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		i.SessionID, i.CandidateID, i.InterviewerID, i.Status, i.Notes, i.ScheduledAt,
	).Scan(&i.ID, &i.CreatedAt, &i.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// Claim moves a scheduled interview to IN_PROGRESS for the given interviewer.
func (r *InterviewRepository) Claim(ctx context.Context, id, interviewerID uuid.UUID) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE interviews
		 SET status = $1, interviewer_id = $2, updated_at = NOW()
		 WHERE id = $3 AND status = $4`,
		model.InterviewStatusInProgress, interviewerID, id, model.InterviewStatusScheduled)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Complete records the decision of an open interview. Returns false if the
// interview was already decided.
func (r *InterviewRepository) Complete(ctx context.Context, id uuid.UUID, decision model.Decision, notes string, at time.Time) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE interviews
		 SET status = $1, decision = $2, notes = $3, completed_at = $4, updated_at = NOW()
		 WHERE id = $5 AND decision IS NULL`,
		model.InterviewStatusCompleted, decision, notes, at, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
