package service

import (
	"math"

	"github.com/academie/admission-backend/internal/model"
)

// Grade is the outcome of grading an answer map against a quiz.
type Grade struct {
	Results      []model.QuestionResult
	Earned       int
	Total        int
	CorrectCount int
	// Answered counts answers whose key is a question of the quiz.
	Answered int
}

// Percentage returns round(100 * earned / total), or 0 for an empty quiz.
func (g Grade) Percentage() int {
	return ScorePercentage(g.Earned, g.Total)
}

// ScorePercentage rounds half away from zero.
func ScorePercentage(earned, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(earned) / float64(total)))
}

// GradeAnswers grades by comparing the text of the selected option with the
// question's correct answer text. Missing or out-of-range selections are
// incorrect; keys that are not questions of the quiz are ignored. Both submit
// and the monitor go through this function.
func GradeAnswers(questions []model.Question, answers model.AnswerMap) Grade {
	g := Grade{Results: make([]model.QuestionResult, 0, len(questions))}
	for i := range questions {
		q := &questions[i]
		g.Total += q.Points

		res := model.QuestionResult{
			QuestionID:  q.ID,
			CorrectText: q.CorrectAnswerText,
			Points:      q.Points,
		}
		if idx, ok := answers[q.ID]; ok {
			g.Answered++
			sel := idx
			res.SelectedIndex = &sel
			if text, ok := q.OptionText(idx); ok {
				res.SubmittedText = text
				res.IsCorrect = text == q.CorrectAnswerText
			}
		}
		if res.IsCorrect {
			res.EarnedPoints = q.Points
			g.Earned += q.Points
			g.CorrectCount++
		}
		g.Results = append(g.Results, res)
	}
	return g
}
