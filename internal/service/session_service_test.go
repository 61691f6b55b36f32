package service

import (
	"context"
	"errors"
	"testing"

	"github.com/academie/admission-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestSessionService_Lifecycle(t *testing.T) {
	db := newMemDB()
	svc := NewSessionService(memSessions{db}, zerolog.Nop())
	ctx := context.Background()
	supervisor := &model.Principal{ID: uuid.New(), Role: model.RoleSupervisor}

	created, err := svc.Create(ctx, supervisor, model.CreateSessionRequest{Name: "  Promotion Hiver  "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != model.SessionStatusPlanned || created.Name != "Promotion Hiver" {
		t.Fatalf("created = %+v", created)
	}

	steps := []struct {
		to      model.SessionStatus
		wantErr error
	}{
		{model.SessionStatusActive, nil},
		{model.SessionStatusActive, nil}, // no-op
		{model.SessionStatusClosed, nil},
		{model.SessionStatusActive, ErrInvalidTransition},
	}
	for _, st := range steps {
		got, err := svc.UpdateStatus(ctx, supervisor, created.ID, model.UpdateSessionStatusRequest{Status: st.to})
		if st.wantErr != nil {
			if !errors.Is(err, st.wantErr) {
				t.Errorf("-> %s: err = %v, want %v", st.to, err, st.wantErr)
			}
			continue
		}
		if err != nil {
			t.Fatalf("-> %s: %v", st.to, err)
		}
		if got.Status != st.to {
			t.Errorf("status = %s, want %s", got.Status, st.to)
		}
	}

	list, err := svc.List(ctx, supervisor)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}
	if list[0].Status != model.SessionStatusClosed {
		t.Errorf("stored status = %s, want CLOSED", list[0].Status)
	}
}

func TestSessionService_Access(t *testing.T) {
	db := newMemDB()
	svc := NewSessionService(memSessions{db}, zerolog.Nop())
	ctx := context.Background()
	instructor := &model.Principal{ID: uuid.New(), Role: model.RoleInstructor}
	candidate := &model.Principal{ID: uuid.New(), Role: model.RoleCandidate}

	if _, err := svc.Create(ctx, instructor, model.CreateSessionRequest{Name: "X"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("instructor create: err = %v, want ErrForbidden", err)
	}
	if _, err := svc.List(ctx, candidate); !errors.Is(err, ErrForbidden) {
		t.Errorf("candidate list: err = %v, want ErrForbidden", err)
	}
	if _, err := svc.Get(ctx, instructor, uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("missing session: err = %v, want ErrSessionNotFound", err)
	}
	if _, err := svc.Create(ctx, nil, model.CreateSessionRequest{Name: "X"}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("anonymous create: err = %v, want ErrUnauthorized", err)
	}
}
