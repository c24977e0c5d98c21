package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/showsync/reccore/internal/kernel"
	"github.com/showsync/reccore/pkg/models"
)

// Compatibility is genre-weight cosine similarity between two profiles.
func Compatibility(a, b *models.PreferenceProfile) float64 {
	return kernel.CosineSimilarity(a.GenreWeights, b.GenreWeights)
}

func compatibilityCacheKey(a, b uuid.UUID) string {
	ids := []string{a.String(), b.String()}
	sort.Strings(ids)
	return fmt.Sprintf("compat:%s:%s", ids[0], ids[1])
}

// CachedCompatibility reads the Cold tier before falling back to computing
// and storing the cosine similarity; the pair is cache-key-order-independent
// since compatibility is symmetric.
func CachedCompatibility(ctx context.Context, cold *redis.Client, ttl time.Duration, a, b *models.PreferenceProfile) (float64, error) {
	key := compatibilityCacheKey(a.UserID, b.UserID)

	if raw, err := cold.Get(ctx, key).Result(); err == nil {
		var score float64
		if jsonErr := json.Unmarshal([]byte(raw), &score); jsonErr == nil {
			return score, nil
		}
	} else if err != redis.Nil {
		return 0, fmt.Errorf("failed to read compatibility cache: %w", err)
	}

	score := Compatibility(a, b)

	encoded, err := json.Marshal(score)
	if err != nil {
		return score, fmt.Errorf("failed to encode compatibility score: %w", err)
	}
	if err := cold.Set(ctx, key, encoded, ttl).Err(); err != nil {
		return score, fmt.Errorf("failed to write compatibility cache: %w", err)
	}
	return score, nil
}
