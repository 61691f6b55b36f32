package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/academie/admission-backend/internal/config"
	"github.com/academie/admission-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	auditBatchSize  = 100
	auditPopTimeout = time.Second
	auditRetryDelay = 5 * time.Second
)

// AuditSink persists a batch of audit events.
type AuditSink interface {
	InsertBatch(ctx context.Context, events []model.AuditEvent) (int64, error)
}

// AuditWorker drains the audit queue into PostgreSQL in batches.
type AuditWorker struct {
	sink  AuditSink
	rdb   *redis.Client
	queue string
	log   zerolog.Logger
}

// NewAuditWorker creates a new AuditWorker.
func NewAuditWorker(sink AuditSink, rdb *redis.Client, log zerolog.Logger) *AuditWorker {
	return &AuditWorker{
		sink:  sink,
		rdb:   rdb,
		queue: config.WorkerKey.PersistAuditQueue,
		log:   log.With().Str("component", "audit_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *AuditWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AuditWorker) processNext(ctx context.Context) {
	// BLPop blocks for the first item, the rest of the batch is popped without waiting.
	first, err := w.rdb.BLPop(ctx, auditPopTimeout, w.queue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(first) < 2 {
		return
	}

	raw := []string{first[1]}
	rest, err := w.rdb.LPopCount(ctx, w.queue, auditBatchSize-1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		w.log.Warn().Err(err).Msg("LPopCount error, persisting partial batch")
	}
	raw = append(raw, rest...)

	if err := w.persist(ctx, raw); err != nil {
		w.log.Error().Err(err).Int("count", len(raw)).Msg("Persist error, retrying in 5s")
		w.requeue(context.Background(), raw)
		select {
		case <-ctx.Done():
		case <-time.After(auditRetryDelay):
		}
	}
}

func (w *AuditWorker) persist(ctx context.Context, raw []string) error {
	events, skipped := decodeAuditBatch(raw)
	if skipped > 0 {
		w.log.Error().Int("skipped", skipped).Msg("Dropped undecodable audit events")
	}
	if len(events) == 0 {
		return nil
	}

	n, err := w.sink.InsertBatch(ctx, events)
	if err != nil {
		return err
	}
	w.log.Debug().Int64("count", n).Msg("Audit batch persisted")
	return nil
}

func (w *AuditWorker) requeue(ctx context.Context, raw []string) {
	items := make([]interface{}, len(raw))
	for i, r := range raw {
		items[i] = r
	}
	// LPUSH prepends one by one, so push in reverse to keep the original order at the head.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	if err := w.rdb.LPush(ctx, w.queue, items...).Err(); err != nil {
		w.log.Error().Err(err).Int("count", len(raw)).Msg("Requeue failed, audit events lost")
	}
}

// drain persists whatever is left in the queue before shutdown.
func (w *AuditWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.rdb.LPopCount(ctx, w.queue, auditBatchSize).Result()
		if err != nil || len(raw) == 0 {
			break
		}
		if err := w.persist(ctx, raw); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.requeue(ctx, raw)
			break
		}
		drained += len(raw)
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}

// decodeAuditBatch parses queued events and counts the ones it had to drop.
// Events without a timestamp get the decode time.
func decodeAuditBatch(raw []string) ([]model.AuditEvent, int) {
	events := make([]model.AuditEvent, 0, len(raw))
	skipped := 0
	now := time.Now().UTC()
	for _, r := range raw {
		var evt model.AuditEvent
		if err := json.Unmarshal([]byte(r), &evt); err != nil || evt.Kind == "" {
			skipped++
			continue
		}
		if evt.CreatedAt.IsZero() {
			evt.CreatedAt = now
		}
		events = append(events, evt)
	}
	return events, skipped
}
