package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/academie/admission-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// SessionService manages intake cohorts.
type SessionService struct {
	sessions SessionAdmin
	log      zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(sessions SessionAdmin, log zerolog.Logger) *SessionService {
	return &SessionService{
		sessions: sessions,
		log:      log.With().Str("component", "session_service").Logger(),
	}
}

// Create opens a PLANNED cohort.
func (s *SessionService) Create(ctx context.Context, p *model.Principal, req model.CreateSessionRequest) (*model.Session, error) {
	if err := requirePermission(p, model.PermissionSessionsManage); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalidPayload("session name is required")
	}

	session := &model.Session{Name: name, Status: model.SessionStatusPlanned}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.log.Info().Str("session_id", session.ID.String()).Str("actor_id", p.ID.String()).Msg("Session created")
	return session, nil
}

// List returns every cohort, newest first.
func (s *SessionService) List(ctx context.Context, p *model.Principal) ([]model.Session, error) {
	if err := requirePermission(p, model.PermissionCandidatesRead); err != nil {
		return nil, err
	}
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	return sessions, nil
}

// Get returns one cohort.
func (s *SessionService) Get(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.Session, error) {
	if err := requirePermission(p, model.PermissionCandidatesRead); err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

// UpdateStatus advances a cohort. Closing a cohort stops new registrations.
func (s *SessionService) UpdateStatus(ctx context.Context, p *model.Principal, id uuid.UUID, req model.UpdateSessionStatusRequest) (*model.Session, error) {
	if err := requirePermission(p, model.PermissionSessionsManage); err != nil {
		return nil, err
	}
	session, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status == req.Status {
		return session, nil
	}
	if !session.Status.CanAdvanceTo(req.Status) {
		return nil, &Error{
			Kind:   KindInvalidTransition,
			Reason: fmt.Sprintf("session cannot move from %s to %s", session.Status, req.Status),
		}
	}

	ok, err := s.sessions.UpdateStatus(ctx, id, session.Status, req.Status)
	if err != nil {
		return nil, fmt.Errorf("update session status: %w", err)
	}
	if !ok {
		return nil, ErrConflict
	}

	s.log.Info().
		Str("session_id", id.String()).
		Str("from", string(session.Status)).
		Str("to", string(req.Status)).
		Str("actor_id", p.ID.String()).
		Msg("Session status changed")

	session.Status = req.Status
	return session, nil
}

func (s *SessionService) get(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}
