package repository

import (
	"context"

	"github.com/academie/admission-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository handles cohort data access.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// GetByID retrieves a cohort by its UUID.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	s := &model.Session{}
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, name, status, created_at, updated_at
		 FROM admission_sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new cohort.
func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	if s.Status == "" {
		s.Status = model.SessionStatusPlanned
	}
	return conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO admission_sessions (name, status)
		 VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		s.Name, s.Status,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// List returns every cohort, newest first.
func (r *SessionRepository) List(ctx context.Context) ([]model.Session, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT id, name, status, created_at, updated_at
		 FROM admission_sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Session, error) {
		var s model.Session
		err := row.Scan(&s.ID, &s.Name, &s.Status, &s.CreatedAt, &s.UpdatedAt)
		return s, err
	})
}

// UpdateStatus moves a cohort from one status to another. It reports false
// when the cohort was no longer in from.
func (r *SessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.SessionStatus) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE admission_sessions SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
