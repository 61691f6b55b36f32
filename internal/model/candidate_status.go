package model

import "fmt"

// CandidateStatus is the pipeline position of a SessionCandidate.
type CandidateStatus string

const (
	CandidateStatusRegistered  CandidateStatus = "REGISTERED"
	CandidateStatusValidated   CandidateStatus = "VALIDATED"
	CandidateStatusInInterview CandidateStatus = "IN_INTERVIEW"
	// CandidateStatusInterviewed is still representable for legacy rows; no event produces it.
	CandidateStatusInterviewed   CandidateStatus = "INTERVIEWED"
	CandidateStatusQuizReady     CandidateStatus = "QUIZ_READY"
	CandidateStatusQuizCompleted CandidateStatus = "QUIZ_COMPLETED"
	CandidateStatusPassed        CandidateStatus = "PASSED"
	CandidateStatusFailed        CandidateStatus = "FAILED"
)

// AllCandidateStatuses lists every status in pipeline order.
var AllCandidateStatuses = []CandidateStatus{
	CandidateStatusRegistered,
	CandidateStatusValidated,
	CandidateStatusInInterview,
	CandidateStatusInterviewed,
	CandidateStatusQuizReady,
	CandidateStatusQuizCompleted,
	CandidateStatusPassed,
	CandidateStatusFailed,
}

// LifecycleEvent drives a CandidateStatus transition.
type LifecycleEvent string

const (
	EventValidate            LifecycleEvent = "VALIDATE"
	EventOpenInterview       LifecycleEvent = "OPEN_INTERVIEW"
	EventDecisionFavorable   LifecycleEvent = "DECISION_FAVORABLE"
	EventDecisionUnfavorable LifecycleEvent = "DECISION_UNFAVORABLE"
	EventCompleteQuiz        LifecycleEvent = "COMPLETE_QUIZ"
	EventMarkPassed          LifecycleEvent = "MARK_PASSED"
	EventMarkFailed          LifecycleEvent = "MARK_FAILED"
	EventResetQuiz           LifecycleEvent = "RESET_QUIZ"
)

// AllLifecycleEvents lists every event known to the transition table.
var AllLifecycleEvents = []LifecycleEvent{
	EventValidate,
	EventOpenInterview,
	EventDecisionFavorable,
	EventDecisionUnfavorable,
	EventCompleteQuiz,
	EventMarkPassed,
	EventMarkFailed,
	EventResetQuiz,
}

type transitionRule struct {
	from []CandidateStatus
	to   CandidateStatus
}

var transitions = map[LifecycleEvent]transitionRule{
	EventValidate: {
		from: []CandidateStatus{CandidateStatusRegistered},
		to:   CandidateStatusValidated,
	},
	EventOpenInterview: {
		from: []CandidateStatus{CandidateStatusRegistered, CandidateStatusValidated},
		to:   CandidateStatusInInterview,
	},
	EventDecisionFavorable: {
		from: []CandidateStatus{CandidateStatusInInterview},
		to:   CandidateStatusQuizReady,
	},
	EventDecisionUnfavorable: {
		from: []CandidateStatus{CandidateStatusInInterview},
		to:   CandidateStatusFailed,
	},
	EventCompleteQuiz: {
		from: []CandidateStatus{CandidateStatusQuizReady},
		to:   CandidateStatusQuizCompleted,
	},
	EventMarkPassed: {
		from: []CandidateStatus{CandidateStatusQuizCompleted},
		to:   CandidateStatusPassed,
	},
	EventMarkFailed: {
		from: []CandidateStatus{CandidateStatusQuizCompleted},
		to:   CandidateStatusFailed,
	},
	EventResetQuiz: {
		from: []CandidateStatus{
			CandidateStatusQuizReady,
			CandidateStatusQuizCompleted,
			CandidateStatusPassed,
			CandidateStatusFailed,
		},
		to: CandidateStatusQuizReady,
	},
}

// TransitionError reports an event that is not legal from the current status.
type TransitionError struct {
	From  CandidateStatus
	Event LifecycleEvent
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot apply %s to a candidate in status %s", e.Event, e.From)
}

// Transition returns the status reached by applying event to current.
func Transition(current CandidateStatus, event LifecycleEvent) (CandidateStatus, error) {
	rule, ok := transitions[event]
	if !ok {
		return current, &TransitionError{From: current, Event: event}
	}
	for _, from := range rule.from {
		if from == current {
			return rule.to, nil
		}
	}
	return current, &TransitionError{From: current, Event: event}
}

// DecisionEvent maps an interview decision to its lifecycle event.
func DecisionEvent(d Decision) (LifecycleEvent, bool) {
	switch d {
	case DecisionFavorable, DecisionToWatch:
		return EventDecisionFavorable, true
	case DecisionUnfavorable:
		return EventDecisionUnfavorable, true
	}
	return "", false
}
