package service

import (
	"errors"
	"testing"
	"time"

	"github.com/academie/admission-backend/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	want := model.Principal{ID: uuid.New(), Role: model.RoleSupervisor}

	tok, err := svc.Issue(want)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, err := svc.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if *got != want {
		t.Errorf("principal = %+v, want %+v", *got, want)
	}
}

func TestTokenService_Rejects(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	p := model.Principal{ID: uuid.New(), Role: model.RoleCandidate}

	other, _ := NewTokenService("other-secret", time.Hour).Issue(p)
	if _, err := svc.Verify(other); err == nil {
		t.Error("token signed with another secret accepted")
	}

	expired, _ := NewTokenService("test-secret", -time.Minute).Issue(p)
	if _, err := svc.Verify(expired); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expired token: err = %v, want ErrTokenExpired", err)
	}

	bad := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "ADMIN",
	})
	signed, _ := bad.SignedString([]byte("test-secret"))
	if _, err := svc.Verify(signed); err == nil {
		t.Error("unknown role accepted")
	}

	if _, err := svc.Verify("not-a-token"); err == nil {
		t.Error("garbage accepted")
	}
}
