package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Quiz is a timed assessment definition with two passing thresholds.
// Practice quizzes are headless: they never read or write admission state.
type Quiz struct {
	ID                  uuid.UUID  `json:"id"`
	Title               string     `json:"title"`
	TimeLimitSeconds    int        `json:"time_limit_seconds"`
	PassingScoreNormal  int        `json:"passing_score_normal"`
	PassingScoreToWatch int        `json:"passing_score_to_watch"`
	Practice            bool       `json:"practice"`
	Questions           []Question `json:"questions"`
	CreatedAt           time.Time  `json:"created_at"`
}

// Question is graded by comparing the selected option's text to CorrectAnswerText.
type Question struct {
	ID                uuid.UUID `json:"id"`
	QuizID            uuid.UUID `json:"quiz_id"`
	Prompt            string    `json:"prompt"`
	Options           []string  `json:"options"`
	CorrectAnswerText string    `json:"correct_answer_text"`
	Points            int       `json:"points"`
	OrderNum          int       `json:"order_num"`
}

// Question authoring errors.
var (
	ErrNoOptions          = errors.New("question has no options")
	ErrDuplicateOption    = errors.New("option texts must be unique within a question")
	ErrCorrectNotAnOption = errors.New("correct answer text does not match any option")
	ErrNegativePoints     = errors.New("points must not be negative")
)

// Validate enforces the authoring rules that keep text-based grading unambiguous.
func (q *Question) Validate() error {
	if len(q.Options) == 0 {
		return ErrNoOptions
	}
	if q.Points < 0 {
		return ErrNegativePoints
	}
	seen := make(map[string]struct{}, len(q.Options))
	matched := false
	for _, opt := range q.Options {
		key := strings.TrimSpace(opt)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateOption, key)
		}
		seen[key] = struct{}{}
		if opt == q.CorrectAnswerText {
			matched = true
		}
	}
	if !matched {
		return ErrCorrectNotAnOption
	}
	return nil
}

// OptionText returns the option at idx, or false when idx is out of range.
func (q *Question) OptionText(idx int) (string, bool) {
	if idx < 0 || idx >= len(q.Options) {
		return "", false
	}
	return q.Options[idx], true
}

// Validate checks the quiz definition and every question in it.
func (qz *Quiz) Validate() error {
	if strings.TrimSpace(qz.Title) == "" {
		return errors.New("quiz title is required")
	}
	if qz.TimeLimitSeconds <= 0 {
		return errors.New("time limit must be positive")
	}
	for _, score := range []int{qz.PassingScoreNormal, qz.PassingScoreToWatch} {
		if score < 0 || score > 100 {
			return errors.New("passing scores are percentages between 0 and 100")
		}
	}
	for i := range qz.Questions {
		if err := qz.Questions[i].Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}

// Question looks up a question by id.
func (qz *Quiz) Question(id uuid.UUID) (*Question, bool) {
	for i := range qz.Questions {
		if qz.Questions[i].ID == id {
			return &qz.Questions[i], true
		}
	}
	return nil, false
}

// QuizForCandidate is the quiz payload sent to candidates (no correct answers).
type QuizForCandidate struct {
	ID               uuid.UUID              `json:"id"`
	Title            string                 `json:"title"`
	TimeLimitSeconds int                    `json:"time_limit_seconds"`
	Questions        []QuestionForCandidate `json:"questions"`
}

// QuestionForCandidate is a question without its correct answer.
type QuestionForCandidate struct {
	ID       uuid.UUID `json:"id"`
	Prompt   string    `json:"prompt"`
	Options  []string  `json:"options"`
	Points   int       `json:"points"`
	OrderNum int       `json:"order_num"`
}

// ForCandidate strips grading data from the quiz.
func (qz *Quiz) ForCandidate() QuizForCandidate {
	qs := make([]QuestionForCandidate, len(qz.Questions))
	for i, q := range qz.Questions {
		qs[i] = QuestionForCandidate{
			ID:       q.ID,
			Prompt:   q.Prompt,
			Options:  q.Options,
			Points:   q.Points,
			OrderNum: q.OrderNum,
		}
	}
	return QuizForCandidate{
		ID:               qz.ID,
		Title:            qz.Title,
		TimeLimitSeconds: qz.TimeLimitSeconds,
		Questions:        qs,
	}
}
