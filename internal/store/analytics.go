package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// SystemCounters is the admin-facing §6 analytics payload: coarse,
// platform-wide counts. Only the feedback counts are limited to the
// trailing window; the active-recommendation counts and the profile
// count/average confidence are current totals. Cheap enough to compute
// on a cache miss but cached anyway since they rarely need second-level
// freshness.
type SystemCounters struct {
	Days                 int     `json:"days"`
	ActiveContentRecs     int     `json:"active_content_recommendations"`
	ActiveGroupRecs        int     `json:"active_group_recommendations"`
	FeedbackCount          int     `json:"feedback_count"`
	PositiveFeedbackCount  int     `json:"positive_feedback_count"`
	NegativeFeedbackCount  int     `json:"negative_feedback_count"`
	ProfilesBuilt          int     `json:"profiles_built"`
	AvgProfileConfidence   float64 `json:"avg_profile_confidence"`
}

// Analytics computes SystemCounters for the trailing `days` window, using
// the warm cache keyed by the window size.
func (s *Store) Analytics(ctx context.Context, days int, ttl time.Duration) (*SystemCounters, error) {
	key := fmt.Sprintf("analytics:%d", days)
	if cached, ok := s.readCachedAnalytics(ctx, key); ok {
		return cached, nil
	}

	now := s.now()
	since := now.AddDate(0, 0, -days)

	counters := &SystemCounters{Days: days}
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM content_recommendations WHERE dismissed_at IS NULL AND expires_at > $1`, now).Scan(&counters.ActiveContentRecs); err != nil {
		return nil, fmt.Errorf("failed to count active content recommendations: %w", err)
	}
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM group_recommendations WHERE dismissed_at IS NULL AND expires_at > $1`, now).Scan(&counters.ActiveGroupRecs); err != nil {
		return nil, fmt.Errorf("failed to count active group recommendations: %w", err)
	}
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM recommendation_feedback WHERE created_at >= $1`, since).Scan(&counters.FeedbackCount); err != nil {
		return nil, fmt.Errorf("failed to count feedback: %w", err)
	}
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM recommendation_feedback WHERE created_at >= $1 AND feedback_type = 'POSITIVE'`, since).Scan(&counters.PositiveFeedbackCount); err != nil {
		return nil, fmt.Errorf("failed to count positive feedback: %w", err)
	}
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM recommendation_feedback WHERE created_at >= $1 AND feedback_type = 'NEGATIVE'`, since).Scan(&counters.NegativeFeedbackCount); err != nil {
		return nil, fmt.Errorf("failed to count negative feedback: %w", err)
	}
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*), COALESCE(AVG(confidence), 0) FROM preference_profiles`).Scan(&counters.ProfilesBuilt, &counters.AvgProfileConfidence); err != nil {
		return nil, fmt.Errorf("failed to summarize preference profiles: %w", err)
	}

	s.writeCachedAnalytics(ctx, key, counters, ttl)
	return counters, nil
}

func (s *Store) readCachedAnalytics(ctx context.Context, key string) (*SystemCounters, bool) {
	if s.warm == nil {
		return nil, false
	}
	raw, err := s.warm.Get(ctx, key)
	if err != nil || raw == "" {
		return nil, false
	}
	var counters SystemCounters
	if err := json.Unmarshal([]byte(raw), &counters); err != nil {
		return nil, false
	}
	return &counters, true
}

func (s *Store) writeCachedAnalytics(ctx context.Context, key string, counters *SystemCounters, ttl time.Duration) {
	if s.warm == nil {
		return
	}
	raw, err := json.Marshal(counters)
	if err != nil {
		return
	}
	_ = s.warm.Set(ctx, key, string(raw), ttl)
}
