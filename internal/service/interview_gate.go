package service

import "github.com/academie/admission-backend/internal/model"

// Gate denial reasons.
const (
	ReasonInterviewNotScheduled = "interview not scheduled"
	ReasonInterviewIncomplete   = "interview incomplete"
	ReasonUnfavorableDecision   = "unfavorable decision"
)

// QuizGate decides whether a candidate's interview lets them into a quiz and
// which threshold applies.
type QuizGate interface {
	CanAccessQuiz(interview *model.Interview) (bool, string)
	RequiredScore(quiz *model.Quiz, interview *model.Interview) int
}

// InterviewGate is the admission policy. It is pure: no I/O, no clock.
type InterviewGate struct{}

// CanAccessQuiz grants access only after a completed interview with a
// FAVORABLE or A_SURVEILLER decision.
func (InterviewGate) CanAccessQuiz(interview *model.Interview) (bool, string) {
	if interview == nil {
		return false, ReasonInterviewNotScheduled
	}
	if interview.Status != model.InterviewStatusCompleted || interview.Decision == nil {
		return false, ReasonInterviewIncomplete
	}
	switch *interview.Decision {
	case model.DecisionFavorable, model.DecisionToWatch:
		return true, ""
	}
	return false, ReasonUnfavorableDecision
}

// RequiredScore returns the to-watch threshold for A_SURVEILLER candidates and
// the normal one otherwise.
func (InterviewGate) RequiredScore(quiz *model.Quiz, interview *model.Interview) int {
	if interview != nil && interview.Decision != nil && *interview.Decision == model.DecisionToWatch {
		return quiz.PassingScoreToWatch
	}
	return quiz.PassingScoreNormal
}
