package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/showsync/reccore/internal/config"
	"github.com/showsync/reccore/internal/generator"
	"github.com/showsync/reccore/internal/middleware"
	"github.com/showsync/reccore/internal/profile"
	"github.com/showsync/reccore/internal/store"
	"github.com/showsync/reccore/pkg/models"
)

const (
	defaultPage  = 0
	defaultSize  = 20
	maxPageSize  = 100
	defaultLimit = 10
	maxLimit     = 100
)

// validReasons is the closed RecommendationReason set the by-type endpoint
// validates query input against.
var validReasons = map[models.RecommendationReason]bool{
	models.ReasonGenreMatch:        true,
	models.ReasonSimilarContent:    true,
	models.ReasonGroupActivity:     true,
	models.ReasonSimilarUsers:      true,
	models.ReasonTrendingGlobal:    true,
	models.ReasonTrendingGenre:     true,
	models.ReasonHighlyRated:       true,
	models.ReasonNewRelease:        true,
	models.ReasonAwardWinner:       true,
	models.ReasonCompletionPattern: true,
	models.ReasonBingeWorthy:       true,
	models.ReasonGeneral:           true,
}

type RecommendationHandler struct {
	db      generator.DatabaseQuerier
	hot     *redis.Client
	store   *store.Store
	gen     *generator.Generator
	builder *profile.Builder
	cfg     *config.Config
	logger  *logrus.Logger
}

// Personal serves a page of the user's standing PERSONAL/COLLABORATIVE/
// TRENDING recommendations as persisted by the scheduler.
func (h *RecommendationHandler) Personal(c *gin.Context) {
	userID, _, _ := middleware.GetUserFromContext(c)
	page := queryInt(c, "page", defaultPage, 0, 100000)
	size := queryInt(c, "size", defaultSize, 1, maxPageSize)

	resp, err := h.store.ListActiveContent(c.Request.Context(), userID, page, size)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("failed to list personal recommendations")
		internalError(c, "RECOMMENDATION_LIST_FAILED", "Failed to list recommendations")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Realtime serves an ad hoc, unpersisted list: content-based against
// mediaId when given, otherwise a collaborative/trending blend per the
// configured ratio.
func (h *RecommendationHandler) Realtime(c *gin.Context) {
	userID, _, _ := middleware.GetUserFromContext(c)
	limit := queryInt(c, "limit", defaultLimit, 1, maxLimit)
	ctx := c.Request.Context()

	mediaIDStr := c.Query("mediaId")
	if mediaIDStr != "" {
		mediaID, err := uuid.Parse(mediaIDStr)
		if err != nil {
			badRequest(c, "INVALID_MEDIA_ID", "mediaId must be a valid UUID")
			return
		}
		if _, err := generator.FetchMedia(ctx, h.db, mediaID); err != nil {
			notFound(c, "MEDIA_NOT_FOUND", "Unknown media")
			return
		}
		recs, err := h.gen.GenerateContentBased(ctx, userID, mediaID, limit)
		if err != nil {
			h.logger.WithError(err).WithField("user_id", userID).Error("failed to generate real-time content-based recommendations")
			internalError(c, "RECOMMENDATION_GENERATION_FAILED", "Failed to generate recommendations")
			return
		}
		c.JSON(http.StatusOK, recs)
		return
	}

	blend := h.cfg.Recs.RealtimeBlend
	collabCount := int(float64(limit)*blend.Collaborative + 0.5)
	trendingCount := limit - collabCount

	var recs []*models.ContentRecommendation
	if collabCount > 0 {
		collab, err := h.gen.GenerateCollaborative(ctx, userID, collabCount)
		if err != nil {
			h.logger.WithError(err).WithField("user_id", userID).Warn("collaborative blend failed, continuing with trending only")
		} else {
			recs = append(recs, collab...)
		}
	}
	if trendingCount > 0 {
		trending, err := h.gen.GenerateTrending(ctx, userID, trendingCount)
		if err != nil {
			h.logger.WithError(err).WithField("user_id", userID).Error("trending blend failed")
			internalError(c, "RECOMMENDATION_GENERATION_FAILED", "Failed to generate recommendations")
			return
		}
		recs = append(recs, trending...)
	}
	c.JSON(http.StatusOK, recs)
}

// Trending serves the platform-wide trending fallback, ad hoc.
func (h *RecommendationHandler) Trending(c *gin.Context) {
	userID, _, _ := middleware.GetUserFromContext(c)
	limit := queryInt(c, "limit", defaultLimit, 1, maxLimit)

	recs, err := h.gen.GenerateTrending(c.Request.Context(), userID, limit)
	if err != nil {
		h.logger.WithError(err).Error("failed to generate trending recommendations")
		internalError(c, "RECOMMENDATION_GENERATION_FAILED", "Failed to generate recommendations")
		return
	}
	c.JSON(http.StatusOK, recs)
}

// Similar serves content-based similarity against a specific media item.
func (h *RecommendationHandler) Similar(c *gin.Context) {
	userID, _, _ := middleware.GetUserFromContext(c)
	ctx := c.Request.Context()

	mediaID, err := uuid.Parse(c.Param("mediaId"))
	if err != nil {
		badRequest(c, "INVALID_MEDIA_ID", "mediaId must be a valid UUID")
		return
	}
	if _, err := generator.FetchMedia(ctx, h.db, mediaID); err != nil {
		notFound(c, "MEDIA_NOT_FOUND", "Unknown media")
		return
	}

	limit := queryInt(c, "limit", defaultLimit, 1, maxLimit)
	recs, err := h.gen.GenerateContentBased(ctx, userID, mediaID, limit)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("failed to generate similar-content recommendations")
		internalError(c, "RECOMMENDATION_GENERATION_FAILED", "Failed to generate recommendations")
		return
	}
	c.JSON(http.StatusOK, recs)
}

// ByType filters a user's active content recommendations down to a single
// RecommendationReason.
func (h *RecommendationHandler) ByType(c *gin.Context) {
	userID, _, _ := middleware.GetUserFromContext(c)
	reason := models.RecommendationReason(c.Query("type"))
	if !validReasons[reason] {
		badRequest(c, "INVALID_REASON", "type must be a known recommendation reason")
		return
	}
	limit := queryInt(c, "limit", defaultLimit, 1, maxLimit)

	recs, err := h.store.ListActiveContentByReason(c.Request.Context(), userID, reason, limit)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("failed to list recommendations by type")
		internalError(c, "RECOMMENDATION_LIST_FAILED", "Failed to list recommendations")
		return
	}
	c.JSON(http.StatusOK, recs)
}

// Groups generates fresh group suggestions for the user, persists new ones,
// and serves a page of the standing set — group suggestions are generated
// at request time rather than by the scheduler, since they depend on
// caller-visible membership data the daily batch does not iterate.
func (h *RecommendationHandler) Groups(c *gin.Context) {
	userID, _, _ := middleware.GetUserFromContext(c)
	page := queryInt(c, "page", defaultPage, 0, 100000)
	size := queryInt(c, "size", defaultSize, 1, maxPageSize)
	ctx := c.Request.Context()

	candidates, err := generator.FetchVisibleGroups(ctx, h.db, userID, h.cfg.Recs.CandidatePoolCap)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("failed to fetch visible groups")
		internalError(c, "GROUP_LIST_FAILED", "Failed to list group suggestions")
		return
	}

	if len(candidates) > 0 {
		memberProfiles := make(map[uuid.UUID][]*models.PreferenceProfile, len(candidates))
		for _, grp := range candidates {
			memberIDs, err := generator.FetchGroupMemberIDs(ctx, h.db, grp.ID)
			if err != nil {
				h.logger.WithError(err).WithField("group_id", grp.ID).Warn("failed to fetch group members, skipping group as a candidate")
				continue
			}
			profiles := make([]*models.PreferenceProfile, 0, len(memberIDs))
			for _, memberID := range memberIDs {
				p, err := h.builder.GetOrBuild(ctx, memberID)
				if err != nil {
					continue
				}
				profiles = append(profiles, p)
			}
			memberProfiles[grp.ID] = profiles
		}

		suggestions, err := h.gen.SuggestGroups(ctx, userID, candidates, memberProfiles, size)
		if err != nil {
			h.logger.WithError(err).WithField("user_id", userID).Error("failed to score group suggestions")
			internalError(c, "GROUP_LIST_FAILED", "Failed to list group suggestions")
			return
		}

		release, err := store.AcquireUserLock(ctx, h.hot, userID)
		if err == nil {
			if _, err := h.store.SaveGroupRecommendations(ctx, userID, suggestions); err != nil {
				h.logger.WithError(err).WithField("user_id", userID).Warn("failed to persist group suggestions")
			}
			release(ctx)
		}
	}

	resp, err := h.store.ListGroupSuggestions(ctx, userID, page, size)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("failed to list group suggestions")
		internalError(c, "GROUP_LIST_FAILED", "Failed to list group suggestions")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GroupContent serves a page of group-internal content recommendations for
// the calling user, generated ad hoc against the group's shared candidate
// pool. ContentRecommendation carries no GroupID field, so pagination here
// is performed in memory rather than via the store.
func (h *RecommendationHandler) GroupContent(c *gin.Context) {
	userID, _, _ := middleware.GetUserFromContext(c)
	ctx := c.Request.Context()

	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		badRequest(c, "INVALID_GROUP_ID", "groupId must be a valid UUID")
		return
	}

	visible, err := generator.IsGroupVisible(ctx, h.db, userID, groupID)
	if err != nil {
		h.logger.WithError(err).WithField("group_id", groupID).Error("failed to check group visibility")
		internalError(c, "GROUP_CONTENT_FAILED", "Failed to list group content recommendations")
		return
	}
	if !visible {
		forbidden(c, "GROUP_NOT_VISIBLE", "This group's recommendations are not visible to you")
		return
	}

	memberIDs, err := generator.FetchGroupMemberIDs(ctx, h.db, groupID)
	if err != nil {
		h.logger.WithError(err).WithField("group_id", groupID).Error("failed to fetch group members")
		internalError(c, "GROUP_CONTENT_FAILED", "Failed to list group content recommendations")
		return
	}

	page := queryInt(c, "page", defaultPage, 0, 100000)
	size := queryInt(c, "size", defaultSize, 1, maxPageSize)

	byMember, err := h.gen.GenerateGroupContent(ctx, groupID, memberIDs, (page+1)*size)
	if err != nil {
		h.logger.WithError(err).WithField("group_id", groupID).Error("failed to generate group content recommendations")
		internalError(c, "GROUP_CONTENT_FAILED", "Failed to list group content recommendations")
		return
	}

	all := byMember[userID]
	total := len(all)
	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	resp := &models.PagedResponse[*models.ContentRecommendation]{
		Content:       all[start:end],
		Page:          page,
		Size:          size,
		TotalElements: total,
	}
	c.JSON(http.StatusOK, resp)
}
