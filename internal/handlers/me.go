package handlers

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/showsync/reccore/internal/config"
	"github.com/showsync/reccore/internal/middleware"
	"github.com/showsync/reccore/internal/profile"
	"github.com/showsync/reccore/internal/scheduler"
	"github.com/showsync/reccore/internal/store"
	"github.com/showsync/reccore/pkg/models"
)

const topGenreCount = 5

type MeHandler struct {
	store   *store.Store
	builder *profile.Builder
	sched   *scheduler.Scheduler
	cfg     *config.Config
	logger  *logrus.Logger
}

// Generate triggers on-demand regeneration for the calling user; enqueuing
// is asynchronous, so this returns 202 without waiting for the job to run.
func (h *MeHandler) Generate(c *gin.Context) {
	userID, _, _ := middleware.GetUserFromContext(c)
	if err := h.sched.Enqueue(userID); err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("failed to enqueue on-demand generation")
		internalError(c, "GENERATE_FAILED", "Failed to trigger generation")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// Insights is the profile-insights payload: confidence, personality, and
// top genres, cached per the configured insights TTL.
type Insights struct {
	Confidence        float64                    `json:"confidence"`
	Personality       models.ViewingPersonality  `json:"personality"`
	TopGenres         []string                   `json:"top_genres"`
	PreferredLength   models.PreferredLength     `json:"preferred_length"`
	TotalInteractions int                        `json:"total_interactions"`
	CompletionRate    float64                    `json:"completion_rate"`
}

func (h *MeHandler) Insights(c *gin.Context) {
	userID, _, _ := middleware.GetUserFromContext(c)
	ctx := c.Request.Context()

	key := fmt.Sprintf("insights:%s", userID)
	var cached Insights
	if h.store.CacheGet(ctx, key, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	p, err := h.builder.GetOrBuild(ctx, userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("failed to build profile insights")
		internalError(c, "INSIGHTS_FAILED", "Failed to compute insights")
		return
	}

	insights := Insights{
		Confidence:        p.Confidence,
		Personality:       p.Personality,
		TopGenres:         topGenres(p.GenreWeights, topGenreCount),
		PreferredLength:   p.PreferredLength,
		TotalInteractions: p.TotalInteractions,
		CompletionRate:    p.CompletionRate(),
	}
	h.store.CacheSet(ctx, key, insights, h.cfg.Recs.CacheTTLs.Insights)
	c.JSON(http.StatusOK, insights)
}

// Summary is the dashboard payload: insights plus the caller's standing
// active recommendation counts. It reuses the insights TTL rather than a
// dedicated config knob, since §6 names no separate cache TTL for it.
type Summary struct {
	Insights           Insights `json:"insights"`
	ActiveContentCount int      `json:"active_content_count"`
	ActiveGroupCount   int      `json:"active_group_count"`
}

func (h *MeHandler) Summary(c *gin.Context) {
	userID, _, _ := middleware.GetUserFromContext(c)
	ctx := c.Request.Context()

	key := fmt.Sprintf("summary:%s", userID)
	var cached Summary
	if h.store.CacheGet(ctx, key, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	p, err := h.builder.GetOrBuild(ctx, userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("failed to build dashboard summary")
		internalError(c, "SUMMARY_FAILED", "Failed to compute summary")
		return
	}

	content, err := h.store.ListActiveContent(ctx, userID, 0, 1)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("failed to count active content recommendations")
		internalError(c, "SUMMARY_FAILED", "Failed to compute summary")
		return
	}
	groups, err := h.store.ListGroupSuggestions(ctx, userID, 0, 1)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("failed to count active group recommendations")
		internalError(c, "SUMMARY_FAILED", "Failed to compute summary")
		return
	}

	summary := Summary{
		Insights: Insights{
			Confidence:        p.Confidence,
			Personality:       p.Personality,
			TopGenres:         topGenres(p.GenreWeights, topGenreCount),
			PreferredLength:   p.PreferredLength,
			TotalInteractions: p.TotalInteractions,
			CompletionRate:    p.CompletionRate(),
		},
		ActiveContentCount: content.TotalElements,
		ActiveGroupCount:   groups.TotalElements,
	}
	h.store.CacheSet(ctx, key, summary, h.cfg.Recs.CacheTTLs.Insights)
	c.JSON(http.StatusOK, summary)
}

func topGenres(weights map[string]float64, n int) []string {
	type kv struct {
		genre  string
		weight float64
	}
	sorted := make([]kv, 0, len(weights))
	for g, w := range weights {
		sorted = append(sorted, kv{g, w})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].weight > sorted[j].weight })

	if n > len(sorted) {
		n = len(sorted)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = sorted[i].genre
	}
	return out
}
