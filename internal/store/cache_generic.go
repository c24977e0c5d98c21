package store

import (
	"context"
	"encoding/json"
	"time"
)

// CacheGet and CacheSet expose the warm read-through cache to callers
// outside this package (handlers serving insights/summary reads) that need
// the same short-TTL caching the paged list reads already use, without
// duplicating the per-type read/write helpers in read.go and analytics.go.
func (s *Store) CacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.warm == nil {
		return false
	}
	raw, err := s.warm.Get(ctx, key)
	if err != nil || raw == "" {
		return false
	}
	return json.Unmarshal([]byte(raw), dest) == nil
}

func (s *Store) CacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s.warm == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.warm.Set(ctx, key, string(raw), ttl)
}
