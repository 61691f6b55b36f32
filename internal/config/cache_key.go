package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionMonitorChannel returns the Redis PubSub channel name for a cohort monitor.
func (r *CacheKeyStruct) SessionMonitorChannel(sessionID string) string {
	return fmt.Sprintf("session:%s:monitor", sessionID)
}

// AutosaveRateKey returns the fixed-window rate limit counter for a principal.
func (r *CacheKeyStruct) AutosaveRateKey(subject string, window int64) string {
	return fmt.Sprintf("ratelimit:autosave:%s:%d", subject, window)
}

var CacheKey = NewCacheKeyStruct()
