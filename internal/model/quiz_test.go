package model

import (
	"errors"
	"testing"
)

func TestQuestion_Validate(t *testing.T) {
	tests := []struct {
		name string
		q    Question
		want error
	}{
		{"ok", Question{Options: []string{"A", "B"}, CorrectAnswerText: "B", Points: 1}, nil},
		{"no options", Question{CorrectAnswerText: "A"}, ErrNoOptions},
		{"duplicate after trim", Question{Options: []string{"Paris", " Paris "}, CorrectAnswerText: "Paris"}, ErrDuplicateOption},
		{"correct not an option", Question{Options: []string{"A", "B"}, CorrectAnswerText: "C"}, ErrCorrectNotAnOption},
		{"negative points", Question{Options: []string{"A"}, CorrectAnswerText: "A", Points: -1}, ErrNegativePoints},
		{"case sensitive", Question{Options: []string{"oui", "Oui"}, CorrectAnswerText: "Oui"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if tt.want == nil && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestQuiz_Validate(t *testing.T) {
	valid := Quiz{
		Title:               "Logique",
		TimeLimitSeconds:    900,
		PassingScoreNormal:  60,
		PassingScoreToWatch: 75,
		Questions:           []Question{{Options: []string{"A", "B"}, CorrectAnswerText: "A", Points: 1}},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid quiz: %v", err)
	}

	broken := valid
	broken.PassingScoreToWatch = 120
	if err := broken.Validate(); err == nil {
		t.Error("threshold above 100 accepted")
	}

	broken = valid
	broken.Questions = []Question{{Options: []string{"A"}, CorrectAnswerText: "Z"}}
	if err := broken.Validate(); !errors.Is(err, ErrCorrectNotAnOption) {
		t.Errorf("bad question: err = %v", err)
	}
}

func TestQuiz_ForCandidateHidesAnswers(t *testing.T) {
	q := Quiz{Title: "T", Questions: []Question{{Prompt: "2+2", Options: []string{"3", "4"}, CorrectAnswerText: "4", Points: 1}}}
	view := q.ForCandidate()
	if len(view.Questions) != 1 || view.Questions[0].Prompt != "2+2" || len(view.Questions[0].Options) != 2 {
		t.Errorf("view = %+v", view)
	}
}
