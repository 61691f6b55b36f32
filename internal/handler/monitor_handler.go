package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/academie/admission-backend/internal/config"
	"github.com/academie/admission-backend/internal/model"
	"github.com/academie/admission-backend/internal/response"
	"github.com/academie/admission-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	refreshInterval   = 15 * time.Second
	keepAliveInterval = 30 * time.Second
	refreshTimeout    = 5 * time.Second // keeps a slow snapshot from stalling the SSE loop
)

// MonitorHandler serves the cohort monitor, as a snapshot or a live SSE stream.
type MonitorHandler struct {
	rdb            *redis.Client
	monitorService *service.MonitorService
	log            zerolog.Logger
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(rdb *redis.Client, monitorService *service.MonitorService, log zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{
		rdb:            rdb,
		monitorService: monitorService,
		log:            log.With().Str("component", "monitor_handler").Logger(),
	}
}

// Snapshot godoc
// GET /api/v1/staff/sessions/:session_id/monitor/snapshot
func (h *MonitorHandler) Snapshot(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}

	snap, err := h.monitorService.Snapshot(c.Request.Context(), p, sessionID)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, snap)
}

// Stream godoc
// GET /api/v1/staff/sessions/:session_id/monitor
// Sends a snapshot, then forwards attempt events from Redis, refreshes the
// snapshot periodically and pings to keep proxies from closing the stream.
func (h *MonitorHandler) Stream(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "session_id")
	if !ok {
		return
	}

	reqCtx := c.Request.Context()

	// Fail before switching to the event-stream content type.
	snap, err := h.monitorService.Snapshot(reqCtx, p, sessionID)
	if err != nil {
		failWithError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.SSEvent("message", gin.H{"type": "snapshot", "data": snap})
	c.Writer.Flush()

	pubsub := h.rdb.Subscribe(reqCtx, config.CacheKey.SessionMonitorChannel(sessionID.String()))
	defer pubsub.Close()
	ch := pubsub.Channel()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()
	refresh := time.NewTicker(refreshInterval)
	defer refresh.Stop()

	streamLog := h.log.With().
		Str("session_id", sessionID.String()).
		Str("actor_id", p.ID.String()).
		Logger()
	streamLog.Info().Msg("Staff attached to cohort monitor")

	pingPayload, _ := json.Marshal(map[string]string{"type": "ping"})
	dirty := false

	for {
		select {
		case <-reqCtx.Done():
			streamLog.Info().Msg("Staff detached from cohort monitor")
			return

		case msg, open := <-ch:
			if !open {
				streamLog.Warn().Msg("Monitor subscription closed")
				return
			}
			// Events are already JSON; forward them untouched.
			h.writeRaw(c, []byte(msg.Payload))
			dirty = true

		case <-refresh.C:
			if !dirty {
				continue
			}
			dirty = false
			h.sendRefresh(c, reqCtx, p, sessionID, streamLog)

		case <-keepAlive.C:
			h.writeRaw(c, pingPayload)
		}
	}
}

func (h *MonitorHandler) writeRaw(c *gin.Context, payload []byte) {
	c.Writer.Write([]byte("data: "))
	c.Writer.Write(payload)
	c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}

// sendRefresh recomputes the snapshot after attempt activity.
func (h *MonitorHandler) sendRefresh(c *gin.Context, parent context.Context, p *model.Principal, sessionID uuid.UUID, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(parent, refreshTimeout)
	defer cancel()

	snap, err := h.monitorService.Snapshot(ctx, p, sessionID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to refresh monitor snapshot")
		return
	}

	c.SSEvent("message", gin.H{"type": "refresh", "data": snap})
	c.Writer.Flush()
}
