package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/academie/admission-backend/internal/model"
	"github.com/academie/admission-backend/internal/response"
	"github.com/academie/admission-backend/internal/service"
	"github.com/academie/admission-backend/internal/validator"
	ws "github.com/academie/admission-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a quiz attempt over a WebSocket: autosave, submit and ping
// frames run through the same engine as the HTTP endpoints.
type WSHandler struct {
	attemptService *service.QuizAttemptService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attemptService *service.QuizAttemptService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attemptService: attemptService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// QuizStream godoc
// WS /ws/v1/candidate/quizzes/:quiz_id/stream?token=...
func (h *WSHandler) QuizStream(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	quizID, ok := uuidParam(c, "quiz_id")
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	ws.Prepare(conn)

	ctx := c.Request.Context()
	wsLog := h.log.With().
		Str("candidate_id", p.ID.String()).
		Str("quiz_id", quizID.String()).
		Logger()
	wsLog.Info().Msg("Candidate connected")

	for {
		env, err := ws.ReadEnvelope(conn)
		if errors.Is(err, ws.ErrMalformed) {
			ws.WriteError(conn, "", string(response.ErrInvalidPayload), err.Error())
			continue
		}
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch env.Action {
		case ws.ActionSave:
			h.handleSave(ctx, conn, p, quizID, env)
		case ws.ActionSubmit:
			if h.handleSubmit(ctx, conn, wsLog, p, quizID, env) {
				return
			}
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong, ID: env.ID})
		default:
			wsLog.Warn().Str("action", string(env.Action)).Msg("Unknown action")
			ws.WriteError(conn, env.ID, string(response.ErrInvalidPayload), "unknown action: "+string(env.Action))
		}
	}
}

func (h *WSHandler) handleSave(ctx context.Context, conn *websocket.Conn, p *model.Principal, quizID uuid.UUID, env ws.RequestEnvelope) {
	var req ws.SaveRequest
	if fields := validator.DecodeJSON(env.Data, &req); fields != nil {
		writeFields(conn, env.ID, fields)
		return
	}

	progress, err := h.attemptService.SaveProgress(ctx, p, p.ID, quizID, req)
	if err != nil {
		writeServiceError(conn, env.ID, err, h.log)
		return
	}
	ws.WriteTyped(conn, ws.SavedResponse{Event: ws.EventSaved, ID: env.ID, Progress: progress})
}

// handleSubmit reports whether the attempt is finished and the stream can close.
func (h *WSHandler) handleSubmit(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, p *model.Principal, quizID uuid.UUID, env ws.RequestEnvelope) bool {
	var req ws.SubmitRequest
	if len(env.Data) > 0 {
		if fields := validator.DecodeJSON(env.Data, &req); fields != nil {
			writeFields(conn, env.ID, fields)
			return false
		}
	}

	result, err := h.attemptService.Submit(ctx, p, p.ID, quizID, req)
	if err != nil {
		writeServiceError(conn, env.ID, err, h.log)
		return errors.Is(err, service.ErrAlreadyCompleted)
	}

	wsLog.Info().
		Int("score", result.Score).
		Int("max_score", result.MaxScore).
		Bool("passed", result.Passed).
		Msg("Quiz submitted over WebSocket")

	ws.WriteTyped(conn, ws.GradedResponse{Event: ws.EventGraded, ID: env.ID, Result: result})
	ws.Close(conn, "completed")
	return true
}

func writeFields(conn *websocket.Conn, id string, fields map[string]string) {
	ws.WriteTyped(conn, ws.ErrorResponse{
		Event:  ws.EventError,
		ID:     id,
		Code:   string(response.ErrValidation),
		Error:  response.GetMessage(response.ErrValidation),
		Fields: fields,
	})
}

func writeServiceError(conn *websocket.Conn, id string, err error, log zerolog.Logger) {
	status, code := statusOf(err)
	out := ws.ErrorResponse{Event: ws.EventError, ID: id, Code: string(code), Error: response.GetMessage(code)}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("WebSocket action failed")
	} else {
		var se *service.Error
		if errors.As(err, &se) {
			out.Reason = se.Reason
		}
	}
	ws.WriteTyped(conn, out)
}
