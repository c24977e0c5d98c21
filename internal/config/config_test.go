package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Recs: RecommendationConfig{
			Weights:                    WeightConfig{Genre: 0.4, Rating: 0.3, Platform: 0.15, Era: 0.15},
			GroupWeights:               GroupWeightConfig{Alpha: 0.4, Beta: 0.2, Gamma: 0.15, Delta: 0.25},
			RealtimeBlend:              RealtimeBlend{Collaborative: 0.7, Trending: 0.3},
			MinConfidenceToPersonalize: 0.3,
			DiversityFactor:            0.3,
			DecayPerDay:                0.995,
			MaxActivePerUser:           50,
		},
		Scheduler: SchedulerConfig{GenerationThreadPoolSize: 8},
	}
}

func TestValidate(t *testing.T) {
	t.Run("accepts a well-formed config", func(t *testing.T) {
		assert.NoError(t, Validate(validConfig()))
	})

	t.Run("rejects weights that do not sum to 1", func(t *testing.T) {
		cfg := validConfig()
		cfg.Recs.Weights.Genre = 0.5
		assert.Error(t, Validate(cfg))
	})

	t.Run("tolerates floating point slop within 1e-6", func(t *testing.T) {
		cfg := validConfig()
		cfg.Recs.Weights.Genre += 5e-7
		assert.NoError(t, Validate(cfg))
	})

	t.Run("rejects group weights that do not sum to 1", func(t *testing.T) {
		cfg := validConfig()
		cfg.Recs.GroupWeights.Alpha = 0.9
		assert.Error(t, Validate(cfg))
	})

	t.Run("rejects realtime blend that does not sum to 1", func(t *testing.T) {
		cfg := validConfig()
		cfg.Recs.RealtimeBlend.Trending = 0.9
		assert.Error(t, Validate(cfg))
	})

	t.Run("rejects non-positive pool size", func(t *testing.T) {
		cfg := validConfig()
		cfg.Scheduler.GenerationThreadPoolSize = 0
		assert.Error(t, Validate(cfg))
	})

	t.Run("rejects non-positive max active per user", func(t *testing.T) {
		cfg := validConfig()
		cfg.Recs.MaxActivePerUser = 0
		assert.Error(t, Validate(cfg))
	})
}
