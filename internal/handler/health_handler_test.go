package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
)

type stubRedis struct {
	pingErr error
	llen    int64
	llenErr error
}

func (s stubRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", s.pingErr)
}

func (s stubRedis) LLen(context.Context, string) *redis.IntCmd {
	return redis.NewIntResult(s.llen, s.llenErr)
}

func TestCheckRedis(t *testing.T) {
	tests := []struct {
		name       string
		rdb        stubRedis
		wantStatus string
		wantRedis  string
		wantQueue  string
		wantLen    int64
	}{
		{"healthy", stubRedis{llen: 12}, "ok", "ok", "ok", 12},
		{"ping fails", stubRedis{pingErr: errors.New("connection refused")}, "degraded", "connection refused", "unknown", 0},
		{"queue read fails", stubRedis{llenErr: errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")},
			"degraded", "ok", "WRONGTYPE Operation against a key holding the wrong kind of value", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := healthStatus{Status: "ok", Redis: "ok", AuditQueue: "ok"}
			checkRedis(context.Background(), tt.rdb, &out)

			if out.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", out.Status, tt.wantStatus)
			}
			if out.Redis != tt.wantRedis {
				t.Errorf("redis = %q, want %q", out.Redis, tt.wantRedis)
			}
			if out.AuditQueue != tt.wantQueue {
				t.Errorf("audit_queue = %q, want %q", out.AuditQueue, tt.wantQueue)
			}
			if out.AuditQueueLen != tt.wantLen {
				t.Errorf("audit_queue_len = %d, want %d", out.AuditQueueLen, tt.wantLen)
			}
		})
	}
}
