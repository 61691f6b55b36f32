package model

import (
	"time"

	"github.com/google/uuid"
)

// MonitorInterview is the interview part of a monitor row.
type MonitorInterview struct {
	ID       uuid.UUID       `json:"id"`
	Status   InterviewStatus `json:"status"`
	Decision *Decision       `json:"decision,omitempty"`
}

// MonitorActiveAttempt is a live re-grade of an attempt still in progress.
type MonitorActiveAttempt struct {
	AttemptID            uuid.UUID  `json:"attempt_id"`
	QuizID               uuid.UUID  `json:"quiz_id"`
	CurrentQuestionIndex int        `json:"current_question_index"`
	QuestionsAnswered    int        `json:"questions_answered"`
	TotalQuestions       int        `json:"total_questions"`
	CurrentScore         int        `json:"current_score"`
	MaxScore             int        `json:"max_score"`
	TimeRemaining        int        `json:"time_remaining"`
	StartedAt            time.Time  `json:"started_at"`
	LastSavedAt          *time.Time `json:"last_saved_at,omitempty"`
}

// MonitorCompletedAttempt summarises the most recent completed attempt.
type MonitorCompletedAttempt struct {
	AttemptID                uuid.UUID `json:"attempt_id"`
	QuizID                   uuid.UUID `json:"quiz_id"`
	Score                    int       `json:"score"`
	MaxScore                 int       `json:"max_score"`
	ScorePercentage          int       `json:"score_percentage"`
	CorrectAnswersPercentage int       `json:"correct_answers_percentage"`
	CompletedAt              time.Time `json:"completed_at"`
}

// MonitorCandidate is one row of the cohort projection.
type MonitorCandidate struct {
	CandidateID uuid.UUID                `json:"candidate_id"`
	Matricule   *string                  `json:"matricule,omitempty"`
	Status      CandidateStatus          `json:"status"`
	Interview   *MonitorInterview        `json:"interview,omitempty"`
	Active      *MonitorActiveAttempt    `json:"active,omitempty"`
	Last        *MonitorCompletedAttempt `json:"last,omitempty"`
}

// MonitorStats aggregates counts over the cohort.
type MonitorStats struct {
	TotalCandidates int                     `json:"total_candidates"`
	ByStatus        map[CandidateStatus]int `json:"by_status"`
	InProgress      int                     `json:"in_progress"`
	Completed       int                     `json:"completed"`
}

// MonitorSnapshot is the read-only projection of a whole cohort.
type MonitorSnapshot struct {
	Session     Session            `json:"session"`
	Stats       MonitorStats       `json:"stats"`
	Candidates  []MonitorCandidate `json:"candidates"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// MonitorEventType names a realtime notification pushed to monitor subscribers.
type MonitorEventType string

const (
	MonitorEventAttemptStarted   MonitorEventType = "attempt_started"
	MonitorEventProgressSaved    MonitorEventType = "progress_saved"
	MonitorEventAttemptSubmitted MonitorEventType = "attempt_submitted"
	MonitorEventAttemptReset     MonitorEventType = "attempt_reset"
	MonitorEventStatusChanged    MonitorEventType = "status_changed"
)

// MonitorEvent is published on the cohort monitor channel.
type MonitorEvent struct {
	Type        MonitorEventType `json:"type"`
	SessionID   uuid.UUID        `json:"session_id"`
	CandidateID uuid.UUID        `json:"candidate_id"`
	QuizID      *uuid.UUID       `json:"quiz_id,omitempty"`
	Status      CandidateStatus  `json:"status,omitempty"`
	At          time.Time        `json:"at"`
}
