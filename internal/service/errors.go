package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a service failure for the transport layer.
type ErrorKind string

const (
	KindAuthentication    ErrorKind = "AUTHENTICATION"
	KindAuthorization     ErrorKind = "AUTHORIZATION"
	KindValidation        ErrorKind = "VALIDATION"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindConflict          ErrorKind = "CONFLICT"
	KindGateDenied        ErrorKind = "GATE_DENIED"
	KindInvalidTransition ErrorKind = "INVALID_TRANSITION"
)

// Error is a kinded business error. Code narrows the kind (e.g. ALREADY_COMPLETED
// within CONFLICT) and Reason is the human-readable detail.
type Error struct {
	Kind   ErrorKind
	Code   string
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return string(e.Kind)
	}
	return e.Reason
}

// Is matches on Code when the target carries one, otherwise on Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != "" {
		return e.Code == t.Code
	}
	return e.Kind == t.Kind
}

// Sentinel errors. Match with errors.Is; the kind-only ones match any error of
// that kind.
var (
	ErrUnauthorized      = &Error{Kind: KindAuthentication, Reason: "authentication required"}
	ErrForbidden         = &Error{Kind: KindAuthorization, Reason: "not allowed"}
	ErrInvalidPayload    = &Error{Kind: KindValidation, Reason: "invalid payload"}
	ErrNotFound          = &Error{Kind: KindNotFound, Reason: "not found"}
	ErrConflict          = &Error{Kind: KindConflict, Reason: "conflict"}
	ErrGateDenied        = &Error{Kind: KindGateDenied, Reason: "quiz access denied"}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition, Reason: "invalid transition"}

	ErrQuizNotFound      = &Error{Kind: KindNotFound, Code: "QUIZ_NOT_FOUND", Reason: "quiz not found"}
	ErrSessionNotFound   = &Error{Kind: KindNotFound, Code: "SESSION_NOT_FOUND", Reason: "session not found"}
	ErrCandidateNotFound = &Error{Kind: KindNotFound, Code: "CANDIDATE_NOT_FOUND", Reason: "candidate is not enrolled in this session"}
	ErrInterviewNotFound = &Error{Kind: KindNotFound, Code: "INTERVIEW_NOT_FOUND", Reason: "interview not found"}
	ErrNoProgress        = &Error{Kind: KindNotFound, Code: "NO_PROGRESS", Reason: "no progress for this quiz"}

	ErrAlreadyCompleted     = &Error{Kind: KindConflict, Code: "ALREADY_COMPLETED", Reason: "quiz already completed"}
	ErrStaleProgress        = &Error{Kind: KindConflict, Code: "STALE_PROGRESS", Reason: "stale progress"}
	ErrAlreadyRegistered    = &Error{Kind: KindConflict, Code: "ALREADY_REGISTERED", Reason: "already registered"}
	ErrInterviewAlreadyOpen = &Error{Kind: KindConflict, Code: "INTERVIEW_ALREADY_OPEN", Reason: "an interview is already open for this candidate"}
	ErrInterviewDecided     = &Error{Kind: KindConflict, Code: "INTERVIEW_DECIDED", Reason: "interview already decided"}
	ErrSessionClosed        = &Error{Kind: KindConflict, Code: "SESSION_CLOSED", Reason: "session is closed"}
	ErrQuizNotCompleted     = &Error{Kind: KindConflict, Code: "QUIZ_NOT_COMPLETED", Reason: "quiz has not been completed"}
	ErrSessionNotPlanned    = &Error{Kind: KindConflict, Code: "SESSION_NOT_PLANNED", Reason: "registrations can only be withdrawn while the session is planned"}

	ErrSessionRequired   = &Error{Kind: KindValidation, Code: "SESSION_REQUIRED", Reason: "session id is required for admission quizzes"}
	ErrTimeLimitExceeded = &Error{Kind: KindValidation, Code: "TIME_LIMIT_EXCEEDED", Reason: "time limit exceeded"}
)

func gateDenied(reason string) error {
	return &Error{Kind: KindGateDenied, Reason: reason}
}

func invalidPayload(format string, args ...any) error {
	return &Error{Kind: KindValidation, Reason: fmt.Sprintf(format, args...)}
}

func invalidTransition(err error) error {
	return &Error{Kind: KindInvalidTransition, Reason: err.Error()}
}

// KindOf returns the kind of err, or "" for errors outside the service vocabulary.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// CodeOf returns the narrow code of err, if any.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
