package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/academie/admission-backend/internal/config"
	"github.com/academie/admission-backend/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const healthTimeout = 2 * time.Second

// HealthHandler reports liveness of the process and its backing stores.
type HealthHandler struct {
	pool      *pgxpool.Pool
	rdb       *redis.Client
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(pool *pgxpool.Pool, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{pool: pool, rdb: rdb, startTime: time.Now()}
}

type healthStatus struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	GoVersion     string `json:"go_version"`
	Goroutines    int    `json:"goroutines"`
	Postgres      string `json:"postgres"`
	PoolTotal     int32  `json:"pool_total_conns"`
	PoolIdle      int32  `json:"pool_idle_conns"`
	PoolAcquired  int32  `json:"pool_acquired_conns"`
	Redis         string `json:"redis"`
	AuditQueue    string `json:"audit_queue"`
	AuditQueueLen int64  `json:"audit_queue_len"`
}

// redisProber is the part of *redis.Client the health check reads.
type redisProber interface {
	Ping(ctx context.Context) *redis.StatusCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
}

// Check godoc
// GET /health
// Returns 503 when PostgreSQL or Redis is unreachable.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	out := healthStatus{
		Status:     "ok",
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		Postgres:   "ok",
		Redis:      "ok",
		AuditQueue: "ok",
	}

	if err := h.pool.Ping(ctx); err != nil {
		out.Status, out.Postgres = "degraded", err.Error()
	}
	stat := h.pool.Stat()
	out.PoolTotal = stat.TotalConns()
	out.PoolIdle = stat.IdleConns()
	out.PoolAcquired = stat.AcquiredConns()

	checkRedis(ctx, h.rdb, &out)

	status := http.StatusOK
	if out.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	response.Success(c, status, out)
}

// checkRedis pings Redis and reads the audit queue depth, degrading out on
// either failure.
func checkRedis(ctx context.Context, rdb redisProber, out *healthStatus) {
	if err := rdb.Ping(ctx).Err(); err != nil {
		out.Status, out.Redis = "degraded", err.Error()
		out.AuditQueue = "unknown"
		return
	}
	n, err := rdb.LLen(ctx, config.WorkerKey.PersistAuditQueue).Result()
	if err != nil {
		out.Status, out.AuditQueue = "degraded", err.Error()
		return
	}
	out.AuditQueueLen = n
}
