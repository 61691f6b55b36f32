package service

import (
	"testing"

	"github.com/academie/admission-backend/internal/model"
	"github.com/google/uuid"
)

func gradingQuestions() []model.Question {
	return []model.Question{
		{ID: uuid.New(), Options: []string{"A", "B", "C"}, CorrectAnswerText: "B", Points: 2},
		{ID: uuid.New(), Options: []string{"oui", "non"}, CorrectAnswerText: "oui", Points: 3},
		{ID: uuid.New(), Options: []string{"1", "2"}, CorrectAnswerText: "2", Points: 0},
	}
}

func TestGradeAnswers(t *testing.T) {
	qs := gradingQuestions()

	tests := []struct {
		name       string
		answers    model.AnswerMap
		earned     int
		correct    int
		answered   int
		percentage int
	}{
		{"empty", model.AnswerMap{}, 0, 0, 0, 0},
		{"all correct", model.AnswerMap{qs[0].ID: 1, qs[1].ID: 0, qs[2].ID: 1}, 5, 3, 3, 100},
		{"first only", model.AnswerMap{qs[0].ID: 1, qs[1].ID: 1}, 2, 1, 2, 40},
		{"out of range counts as wrong", model.AnswerMap{qs[0].ID: 7, qs[1].ID: -1}, 0, 0, 2, 0},
		{"foreign keys ignored", model.AnswerMap{uuid.New(): 0, qs[1].ID: 0}, 3, 1, 1, 60},
		{"zero point question", model.AnswerMap{qs[2].ID: 1}, 0, 1, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := GradeAnswers(qs, tt.answers)
			if g.Total != 5 {
				t.Errorf("total = %d, want 5", g.Total)
			}
			if g.Earned != tt.earned || g.CorrectCount != tt.correct || g.Answered != tt.answered {
				t.Errorf("earned/correct/answered = %d/%d/%d, want %d/%d/%d",
					g.Earned, g.CorrectCount, g.Answered, tt.earned, tt.correct, tt.answered)
			}
			if p := g.Percentage(); p != tt.percentage {
				t.Errorf("percentage = %d, want %d", p, tt.percentage)
			}
			if len(g.Results) != len(qs) {
				t.Errorf("results = %d rows, want %d", len(g.Results), len(qs))
			}
		})
	}
}

func TestScorePercentage_Rounding(t *testing.T) {
	tests := []struct{ earned, total, want int }{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{5, 5, 100},
	}
	for _, tt := range tests {
		if got := ScorePercentage(tt.earned, tt.total); got != tt.want {
			t.Errorf("ScorePercentage(%d, %d) = %d, want %d", tt.earned, tt.total, got, tt.want)
		}
	}
}

func TestGradeAnswers_ComparesTextNotIndex(t *testing.T) {
	q := model.Question{ID: uuid.New(), Options: []string{"Rabat", "Dakar"}, CorrectAnswerText: "Dakar", Points: 1}
	before := GradeAnswers([]model.Question{q}, model.AnswerMap{q.ID: 1})

	// Reordering options keeps a text match correct at its new index.
	q.Options = []string{"Dakar", "Rabat"}
	after := GradeAnswers([]model.Question{q}, model.AnswerMap{q.ID: 0})

	if before.Earned != 1 || after.Earned != 1 {
		t.Errorf("earned before/after = %d/%d, want 1/1", before.Earned, after.Earned)
	}
	if after.Results[0].SubmittedText != "Dakar" {
		t.Errorf("submitted text = %q", after.Results[0].SubmittedText)
	}
}
