package service

import (
	"context"
	"fmt"

	"github.com/academie/admission-backend/internal/model"
	"github.com/google/uuid"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditService exposes the persisted audit trail to staff.
type AuditService struct {
	trail AuditTrail
}

// NewAuditService creates a new AuditService.
func NewAuditService(trail AuditTrail) *AuditService {
	return &AuditService{trail: trail}
}

// ListByCandidate returns the newest audit events of a candidate.
func (s *AuditService) ListByCandidate(ctx context.Context, p *model.Principal, candidateID uuid.UUID, limit int) ([]model.AuditEvent, error) {
	if err := requirePermission(p, model.PermissionCandidatesRead); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	events, err := s.trail.ListByCandidate(ctx, candidateID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	if events == nil {
		events = []model.AuditEvent{}
	}
	return events, nil
}
