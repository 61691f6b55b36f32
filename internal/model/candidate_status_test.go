package model

import (
	"errors"
	"testing"
)

func TestTransition_Table(t *testing.T) {
	legal := map[CandidateStatus]map[LifecycleEvent]CandidateStatus{
		CandidateStatusRegistered: {
			EventValidate:      CandidateStatusValidated,
			EventOpenInterview: CandidateStatusInInterview,
		},
		CandidateStatusValidated: {
			EventOpenInterview: CandidateStatusInInterview,
		},
		CandidateStatusInInterview: {
			EventDecisionFavorable:   CandidateStatusQuizReady,
			EventDecisionUnfavorable: CandidateStatusFailed,
		},
		CandidateStatusQuizReady: {
			EventCompleteQuiz: CandidateStatusQuizCompleted,
			EventResetQuiz:    CandidateStatusQuizReady,
		},
		CandidateStatusQuizCompleted: {
			EventMarkPassed: CandidateStatusPassed,
			EventMarkFailed: CandidateStatusFailed,
			EventResetQuiz:  CandidateStatusQuizReady,
		},
		CandidateStatusPassed: {
			EventResetQuiz: CandidateStatusQuizReady,
		},
		CandidateStatusFailed: {
			EventResetQuiz: CandidateStatusQuizReady,
		},
	}

	for _, from := range AllCandidateStatuses {
		for _, event := range AllLifecycleEvents {
			want, ok := legal[from][event]
			got, err := Transition(from, event)
			if ok {
				if err != nil || got != want {
					t.Errorf("Transition(%s, %s) = (%s, %v), want %s", from, event, got, err, want)
				}
				continue
			}
			var te *TransitionError
			if !errors.As(err, &te) {
				t.Errorf("Transition(%s, %s) err = %v, want TransitionError", from, event, err)
				continue
			}
			if got != from {
				t.Errorf("Transition(%s, %s) moved to %s on error", from, event, got)
			}
			if te.Error() == "" {
				t.Errorf("Transition(%s, %s) has an empty reason", from, event)
			}
		}
	}
}

func TestTransition_UnknownEvent(t *testing.T) {
	if _, err := Transition(CandidateStatusRegistered, "TELEPORT"); err == nil {
		t.Fatal("unknown event accepted")
	}
}

func TestDecisionEvent(t *testing.T) {
	tests := []struct {
		decision Decision
		event    LifecycleEvent
		ok       bool
	}{
		{DecisionFavorable, EventDecisionFavorable, true},
		{DecisionToWatch, EventDecisionFavorable, true},
		{DecisionUnfavorable, EventDecisionUnfavorable, true},
		{"", "", false},
	}
	for _, tt := range tests {
		event, ok := DecisionEvent(tt.decision)
		if event != tt.event || ok != tt.ok {
			t.Errorf("DecisionEvent(%q) = (%s, %v), want (%s, %v)", tt.decision, event, ok, tt.event, tt.ok)
		}
	}
}
