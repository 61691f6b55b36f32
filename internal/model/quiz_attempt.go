package model

import (
	"time"

	"github.com/google/uuid"
)

// ProgressMetadata is the resume bookkeeping of an attempt, kept apart from answers.
type ProgressMetadata struct {
	CurrentQuestionIndex int   `json:"current_question_index"`
	TimeLeftSeconds      int   `json:"time_left_seconds"`
	StartedAtEpoch       int64 `json:"started_at_epoch"`
	LastSavedAtEpoch     int64 `json:"last_saved_at_epoch"`
}

// AdjustedTimeLeft recomputes the remaining time from wall-clock elapsed since
// the last save (or the start when nothing was saved yet). Never negative.
func (p ProgressMetadata) AdjustedTimeLeft(now time.Time) int {
	ref := p.LastSavedAtEpoch
	if ref == 0 {
		ref = p.StartedAtEpoch
	}
	elapsed := now.Unix() - ref
	if elapsed < 0 {
		elapsed = 0
	}
	left := int64(p.TimeLeftSeconds) - elapsed
	if left < 0 {
		return 0
	}
	return int(left)
}

// AnswerMap maps a question id to the selected option index.
type AnswerMap map[uuid.UUID]int

// Merge overlays newer answers on top of m and returns the result.
func (m AnswerMap) Merge(newer AnswerMap) AnswerMap {
	out := make(AnswerMap, len(m)+len(newer))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range newer {
		out[k] = v
	}
	return out
}

// QuizAttempt is the single mutable record of one candidate's work on one quiz.
type QuizAttempt struct {
	ID               uuid.UUID        `json:"id"`
	QuizID           uuid.UUID        `json:"quiz_id"`
	CandidateID      uuid.UUID        `json:"candidate_id"`
	SessionID        *uuid.UUID       `json:"session_id,omitempty"`
	Progress         ProgressMetadata `json:"progress"`
	Answers          AnswerMap        `json:"answers"`
	SaveSeq          int64            `json:"-"` // highest client sequence seen
	Score            int              `json:"score"`
	MaxScore         int              `json:"max_score"`
	TimeSpentSeconds int              `json:"time_spent_seconds"`
	Completed        bool             `json:"completed"`
	StartedAt        time.Time        `json:"started_at"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// StartQuizRequest opens or resumes an attempt.
type StartQuizRequest struct {
	SessionID *uuid.UUID `json:"session_id" binding:"omitempty"`
}

// SaveProgressRequest is the autosave / beacon payload.
// ClientSeq is a client-side monotonic stamp (e.g. Date.now()). It is only
// compared against earlier client stamps; 0 means unsequenced.
type SaveProgressRequest struct {
	SessionID            *uuid.UUID `json:"session_id" binding:"omitempty"`
	CurrentQuestionIndex int        `json:"current_question_index" binding:"min=0"`
	Answers              AnswerMap  `json:"answers"`
	TimeLeftSeconds      int        `json:"time_left_seconds" binding:"min=0"`
	StartedAtEpoch       int64      `json:"started_at_epoch" binding:"min=0"`
	ClientSeq            int64      `json:"client_seq" binding:"min=0"`
}

// SubmitQuizRequest finishes an attempt.
type SubmitQuizRequest struct {
	SessionID *uuid.UUID `json:"session_id" binding:"omitempty"`
	Answers   AnswerMap  `json:"answers"`
	TimeSpent int        `json:"time_spent" binding:"min=0"`
}

// QuestionResult is the per-question grading breakdown.
type QuestionResult struct {
	QuestionID    uuid.UUID `json:"question_id"`
	SelectedIndex *int      `json:"selected_index,omitempty"`
	SubmittedText string    `json:"submitted_text"`
	CorrectText   string    `json:"correct_text"`
	IsCorrect     bool      `json:"is_correct"`
	Points        int       `json:"points"`
	EarnedPoints  int       `json:"earned_points"`
}

// QuizResult is returned by a successful submission.
type QuizResult struct {
	AttemptID        uuid.UUID        `json:"attempt_id"`
	QuizID           uuid.UUID        `json:"quiz_id"`
	CandidateID      uuid.UUID        `json:"candidate_id"`
	SessionID        *uuid.UUID       `json:"session_id,omitempty"`
	Score            int              `json:"score"`
	MaxScore         int              `json:"max_score"`
	ScorePercentage  int              `json:"score_percentage"`
	RequiredScore    int              `json:"required_score"`
	Passed           bool             `json:"passed"`
	Decision         *Decision        `json:"decision,omitempty"`
	CorrectAnswers   int              `json:"correct_answers"`
	TotalQuestions   int              `json:"total_questions"`
	TimeSpentSeconds int              `json:"time_spent_seconds"`
	CompletedAt      time.Time        `json:"completed_at"`
	Questions        []QuestionResult `json:"questions"`
}

// QuizStart is returned when an attempt is opened or resumed.
type QuizStart struct {
	AttemptID       uuid.UUID        `json:"attempt_id"`
	SessionID       *uuid.UUID       `json:"session_id,omitempty"`
	Resumed         bool             `json:"resumed"`
	RequiredScore   int              `json:"required_score"`
	Decision        *Decision        `json:"decision,omitempty"`
	TimeLeftSeconds int              `json:"time_left_seconds"`
	Progress        ProgressMetadata `json:"progress"`
	Answers         AnswerMap        `json:"answers"`
	Quiz            QuizForCandidate `json:"quiz"`
}

// QuizProgress is the resume view returned by GetProgress.
type QuizProgress struct {
	AttemptID        uuid.UUID        `json:"attempt_id"`
	QuizID           uuid.UUID        `json:"quiz_id"`
	Progress         ProgressMetadata `json:"progress"`
	Answers          AnswerMap        `json:"answers"`
	AdjustedTimeLeft int              `json:"adjusted_time_left"`
}
