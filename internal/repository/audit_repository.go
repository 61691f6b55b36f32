package repository

import (
	"context"
	"fmt"

	"github.com/academie/admission-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepository persists attempt audit events.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// InsertBatch writes events with a single COPY.
func (r *AuditRepository) InsertBatch(ctx context.Context, events []model.AuditEvent) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}

	n, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"attempt_audit_events"},
		[]string{"kind", "actor_id", "candidate_id", "quiz_id", "session_id", "detail", "created_at"},
		pgx.CopyFromSlice(len(events), func(i int) ([]any, error) {
			e := events[i]
			var detail any
			if len(e.Detail) > 0 {
				detail = []byte(e.Detail)
			}
			return []any{string(e.Kind), e.ActorID, e.CandidateID, e.QuizID, e.SessionID, detail, e.CreatedAt}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy audit events: %w", err)
	}
	return n, nil
}

// ListByCandidate returns the audit trail of a candidate, newest first.
func (r *AuditRepository) ListByCandidate(ctx context.Context, candidateID uuid.UUID, limit int) ([]model.AuditEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT kind, actor_id, candidate_id, quiz_id, session_id, detail, created_at
		 FROM attempt_audit_events
		 WHERE candidate_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`, candidateID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AuditEvent
	for rows.Next() {
		var (
			e      model.AuditEvent
			detail []byte
		)
		if err := rows.Scan(&e.Kind, &e.ActorID, &e.CandidateID, &e.QuizID, &e.SessionID, &detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Detail = detail
		out = append(out, e)
	}
	return out, rows.Err()
}
