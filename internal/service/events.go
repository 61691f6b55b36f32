package service

import (
	"context"
	"encoding/json"

	"github.com/academie/admission-backend/internal/config"
	"github.com/academie/admission-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisEventPublisher fans monitor events out on the cohort's PubSub channel.
type RedisEventPublisher struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisEventPublisher creates a new RedisEventPublisher.
func NewRedisEventPublisher(rdb *redis.Client, log zerolog.Logger) *RedisEventPublisher {
	return &RedisEventPublisher{
		rdb: rdb,
		log: log.With().Str("component", "monitor_events").Logger(),
	}
}

// Publish is fire-and-forget: monitor subscribers reconcile on their periodic refresh.
func (p *RedisEventPublisher) Publish(ctx context.Context, evt model.MonitorEvent) {
	payload, err := json.Marshal(evt)
	if err != nil {
		p.log.Error().Err(err).Msg("Failed to encode monitor event")
		return
	}
	channel := config.CacheKey.SessionMonitorChannel(evt.SessionID.String())
	if err := p.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		p.log.Warn().Err(err).Str("channel", channel).Msg("Failed to publish monitor event")
	}
}

// RedisAuditRecorder queues audit events for the audit worker.
type RedisAuditRecorder struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisAuditRecorder creates a new RedisAuditRecorder.
func NewRedisAuditRecorder(rdb *redis.Client, log zerolog.Logger) *RedisAuditRecorder {
	return &RedisAuditRecorder{
		rdb: rdb,
		log: log.With().Str("component", "audit_recorder").Logger(),
	}
}

// Record pushes evt onto the audit queue. A failure is logged with the full
// event so it can be replayed by hand.
func (r *RedisAuditRecorder) Record(ctx context.Context, evt model.AuditEvent) {
	payload, err := json.Marshal(evt)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to encode audit event")
		return
	}
	if err := r.rdb.RPush(ctx, config.WorkerKey.PersistAuditQueue, payload).Err(); err != nil {
		r.log.Error().Err(err).RawJSON("event", payload).Msg("Failed to queue audit event")
	}
}
