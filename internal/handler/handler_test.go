package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/academie/admission-backend/internal/middleware"
	"github.com/academie/admission-backend/internal/model"
	"github.com/academie/admission-backend/internal/response"
	"github.com/academie/admission-backend/internal/service"
	"github.com/academie/admission-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   response.ErrCode
	}{
		{"unauthenticated", service.ErrUnauthorized, http.StatusUnauthorized, response.ErrUnauthorized},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, response.ErrForbidden},
		{"gate denied", &service.Error{Kind: service.KindGateDenied, Reason: service.ReasonInterviewIncomplete}, http.StatusForbidden, response.ErrGateDenied},
		{"invalid payload", &service.Error{Kind: service.KindValidation, Reason: "unknown question"}, http.StatusBadRequest, response.ErrInvalidPayload},
		{"session required", service.ErrSessionRequired, http.StatusBadRequest, response.ErrSessionRequired},
		{"time limit", service.ErrTimeLimitExceeded, http.StatusBadRequest, response.ErrTimeLimit},
		{"already completed", service.ErrAlreadyCompleted, http.StatusBadRequest, response.ErrAlreadyCompleted},
		{"wrapped already completed", fmt.Errorf("submit: %w", service.ErrAlreadyCompleted), http.StatusBadRequest, response.ErrAlreadyCompleted},
		{"no progress", service.ErrNoProgress, http.StatusNotFound, response.ErrNoProgress},
		{"quiz not found", service.ErrQuizNotFound, http.StatusNotFound, response.ErrQuizNotFound},
		{"generic not found", service.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
		{"stale progress", service.ErrStaleProgress, http.StatusConflict, response.ErrStaleProgress},
		{"interview open", service.ErrInterviewAlreadyOpen, http.StatusConflict, response.ErrInterviewAlreadyOpen},
		{"generic conflict", service.ErrConflict, http.StatusConflict, response.ErrConflict},
		{"invalid transition", &service.Error{Kind: service.KindInvalidTransition, Reason: "x"}, http.StatusConflict, response.ErrInvalidTransition},
		{"storage failure", errors.New("connection reset"), http.StatusInternalServerError, response.ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := statusOf(tt.err)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Errorf("statusOf = (%d, %s), want (%d, %s)", status, code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestFailWithError_Envelope(t *testing.T) {
	r := gin.New()
	r.GET("/gate", func(c *gin.Context) {
		failWithError(c, &service.Error{Kind: service.KindGateDenied, Reason: service.ReasonUnfavorableDecision})
	})
	r.GET("/boom", func(c *gin.Context) {
		failWithError(c, errors.New("pq: relation does not exist"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gate", nil))
	body := decode(t, rec)
	if rec.Code != http.StatusForbidden || body.Error.Code != response.ErrGateDenied {
		t.Fatalf("gate: %d %+v", rec.Code, body.Error)
	}
	if body.Error.Reason != service.ReasonUnfavorableDecision {
		t.Errorf("reason = %q, want %q", body.Error.Reason, service.ReasonUnfavorableDecision)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	body = decode(t, rec)
	if rec.Code != http.StatusInternalServerError || body.Error.Code != response.ErrInternal {
		t.Fatalf("internal: %d %+v", rec.Code, body.Error)
	}
	if strings.Contains(rec.Body.String(), "relation") {
		t.Error("storage error leaked to the client")
	}
}

// withPrincipal stands in for RequireJWT.
func withPrincipal(p *model.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p != nil {
			c.Set(middleware.ContextKeyPrincipal, p)
		}
		c.Next()
	}
}

func TestHandlers_RejectBeforeService(t *testing.T) {
	candidate := &model.Principal{ID: uuid.New(), Role: model.RoleCandidate}
	staff := &model.Principal{ID: uuid.New(), Role: model.RoleSupervisor}

	// Services are nil: every case must be answered before reaching them.
	quiz := NewQuizHandler(nil)
	staffH := NewStaffHandler(nil, nil, nil)
	sessions := NewSessionHandler(nil)

	r := gin.New()
	cand := r.Group("/c", withPrincipal(candidate))
	cand.PUT("/quizzes/:quiz_id/progress", quiz.SaveProgress)
	cand.POST("/quizzes/:quiz_id/progress/beacon", quiz.SaveProgressBeacon)
	cand.POST("/quizzes/:quiz_id/start", quiz.Start)
	st := r.Group("/s", withPrincipal(staff))
	st.POST("/sessions/:session_id/candidates", staffH.RegisterCandidate)
	st.POST("/interviews/:interview_id/decision", staffH.RecordDecision)
	st.POST("/sessions/:session_id/candidates/:candidate_id/finalize", staffH.FinalizeCandidate)
	st.PUT("/sessions/:session_id/status", sessions.UpdateSessionStatus)
	anon := r.Group("/a", withPrincipal(nil))
	anon.POST("/quizzes/:quiz_id/start", quiz.Start)

	sid := uuid.NewString()
	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		body        string
		wantStatus  int
		wantCode    response.ErrCode
		wantField   string
	}{
		{"bad quiz id", http.MethodPost, "/c/quizzes/nope/start", "", "", http.StatusBadRequest, response.ErrInvalidID, ""},
		{"no principal", http.MethodPost, "/a/quizzes/" + sid + "/start", "", "", http.StatusUnauthorized, response.ErrTokenRequired, ""},
		{"negative time left", http.MethodPut, "/c/quizzes/" + sid + "/progress", "application/json",
			`{"current_question_index":0,"time_left_seconds":-5,"answers":{}}`, http.StatusBadRequest, response.ErrValidation, "time_left_seconds"},
		{"beacon garbage", http.MethodPost, "/c/quizzes/" + sid + "/progress/beacon", "text/plain",
			`{"current_question_index":`, http.StatusBadRequest, response.ErrValidation, "detail"},
		{"beacon negative index", http.MethodPost, "/c/quizzes/" + sid + "/progress/beacon", "text/plain",
			`{"current_question_index":-1}`, http.StatusBadRequest, response.ErrValidation, "current_question_index"},
		{"staff register without candidate", http.MethodPost, "/s/sessions/" + sid + "/candidates", "application/json",
			`{}`, http.StatusBadRequest, response.ErrValidation, "candidate_id"},
		{"unknown decision", http.MethodPost, "/s/interviews/" + sid + "/decision", "application/json",
			`{"decision":"MAYBE"}`, http.StatusBadRequest, response.ErrValidation, "decision"},
		{"finalize without quiz", http.MethodPost, "/s/sessions/" + sid + "/candidates/" + sid + "/finalize", "application/json",
			`{}`, http.StatusBadRequest, response.ErrValidation, "quiz_id"},
		{"reopen session", http.MethodPut, "/s/sessions/" + sid + "/status", "application/json",
			`{"status":"PLANNED"}`, http.StatusBadRequest, response.ErrValidation, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			body := decode(t, rec)
			if body.Error == nil || body.Error.Code != tt.wantCode {
				t.Fatalf("error = %+v, want code %s", body.Error, tt.wantCode)
			}
			if tt.wantField != "" {
				if _, ok := body.Error.Fields[tt.wantField]; !ok {
					t.Errorf("fields = %v, want key %q", body.Error.Fields, tt.wantField)
				}
			}
		})
	}
}
