package repository

import (
	"context"

	"github.com/academie/admission-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const candidateColumns = `session_id, candidate_id, status, matricule, created_at, updated_at`

// SessionCandidateRepository handles cohort enrollment data access.
// Status changes go through UpdateStatus only, which is a compare-and-set.
type SessionCandidateRepository struct {
	pool *pgxpool.Pool
}

// NewSessionCandidateRepository creates a new SessionCandidateRepository.
func NewSessionCandidateRepository(pool *pgxpool.Pool) *SessionCandidateRepository {
	return &SessionCandidateRepository{pool: pool}
}

func scanCandidate(row interface{ Scan(...any) error }, c *model.SessionCandidate) error {
	return row.Scan(&c.SessionID, &c.CandidateID, &c.Status, &c.Matricule, &c.CreatedAt, &c.UpdatedAt)
}

// Get retrieves one enrollment.
func (r *SessionCandidateRepository) Get(ctx context.Context, sessionID, candidateID uuid.UUID) (*model.SessionCandidate, error) {
	c := &model.SessionCandidate{}
	err := scanCandidate(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+candidateColumns+`
		 FROM session_candidates
		 WHERE session_id = $1 AND candidate_id = $2`, sessionID, candidateID,
	), c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetForUpdate retrieves one enrollment and locks the row until the
// surrounding transaction ends.
func (r *SessionCandidateRepository) GetForUpdate(ctx context.Context, sessionID, candidateID uuid.UUID) (*model.SessionCandidate, error) {
	c := &model.SessionCandidate{}
	err := scanCandidate(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+candidateColumns+`
		 FROM session_candidates
		 WHERE session_id = $1 AND candidate_id = $2
		 FOR UPDATE`, sessionID, candidateID,
	), c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create enrolls a candidate. Returns ErrDuplicate if already enrolled.
func (r *SessionCandidateRepository) Create(ctx context.Context, c *model.SessionCandidate) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO session_candidates (session_id, candidate_id, status, matricule)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		c.SessionID, c.CandidateID, c.Status, c.Matricule,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// Delete removes an enrollment. Returns false when nothing was deleted.
func (r *SessionCandidateRepository) Delete(ctx context.Context, sessionID, candidateID uuid.UUID) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM session_candidates WHERE session_id = $1 AND candidate_id = $2`,
		sessionID, candidateID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateStatus sets the status only if it still equals from.
func (r *SessionCandidateRepository) UpdateStatus(ctx context.Context, sessionID, candidateID uuid.UUID, from, to model.CandidateStatus) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE session_candidates
		 SET status = $1, updated_at = NOW()
		 WHERE session_id = $2 AND candidate_id = $3 AND status = $4`,
		to, sessionID, candidateID, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListBySession returns every enrollment of a cohort in registration order.
func (r *SessionCandidateRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.SessionCandidate, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+candidateColumns+`
		 FROM session_candidates
		 WHERE session_id = $1
		 ORDER BY created_at ASC, candidate_id ASC`, sessionID,
	)
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
