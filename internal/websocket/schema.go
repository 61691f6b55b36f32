package websocket

import (
	"encoding/json"

	"github.com/academie/admission-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSave   Action = "save"
	ActionSubmit Action = "submit"
	ActionPing   Action = "ping"
)

// RequestEnvelope wraps every client frame. ID is echoed back so the client
// can pair replies with requests; Data holds the action payload.
type RequestEnvelope struct {
	Action Action          `json:"action"`
	ID     string          `json:"id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// SaveRequest carries the same payload as the HTTP autosave endpoint.
type SaveRequest = model.SaveProgressRequest

// SubmitRequest carries the same payload as the HTTP submit endpoint.
type SubmitRequest = model.SubmitQuizRequest

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventSaved  Event = "saved"
	EventGraded Event = "graded"
	EventPong   Event = "pong"
)

type SavedResponse struct {
	Event    Event               `json:"event"`
	ID       string              `json:"id,omitempty"`
	Progress *model.QuizProgress `json:"progress"`
}

type GradedResponse struct {
	Event  Event             `json:"event"`
	ID     string            `json:"id,omitempty"`
	Result *model.QuizResult `json:"result"`
}

type ErrorResponse struct {
	Event  Event             `json:"event"`
	ID     string            `json:"id,omitempty"`
	Code   string            `json:"code"`
	Error  string            `json:"error"`
	Reason string            `json:"reason,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

type PongResponse struct {
	Event Event  `json:"event"`
	ID    string `json:"id,omitempty"`
}
