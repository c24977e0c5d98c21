package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/showsync/reccore/internal/config"
	"github.com/showsync/reccore/internal/middleware"
	"github.com/showsync/reccore/internal/scheduler"
	"github.com/showsync/reccore/internal/store"
	"github.com/showsync/reccore/pkg/models"
)

type ActionHandler struct {
	sched  *scheduler.Scheduler
	cfg    *config.Config
	logger *logrus.Logger
}

func parseKind(raw string) (models.RecommendationKind, bool) {
	switch models.RecommendationKind(raw) {
	case models.KindContent, models.KindGroup:
		return models.RecommendationKind(raw), true
	default:
		return "", false
	}
}

func parseKindAndID(c *gin.Context) (models.RecommendationKind, uuid.UUID, bool) {
	kind, ok := parseKind(c.Param("kind"))
	if !ok {
		badRequest(c, "INVALID_KIND", "kind must be CONTENT or GROUP")
		return "", uuid.UUID{}, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "INVALID_ID", "id must be a valid UUID")
		return "", uuid.UUID{}, false
	}
	return kind, id, true
}

// View marks a recommendation viewed.
func (h *ActionHandler) View(c *gin.Context) {
	userID, _, _ := middleware.GetUserFromContext(c)
	kind, id, ok := parseKindAndID(c)
	if !ok {
		return
	}

	if err := h.sched.View(c.Request.Context(), userID, id, kind); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(c, "RECOMMENDATION_NOT_FOUND", "Unknown recommendation")
			return
		}
		h.logger.WithError(err).WithField("user_id", userID).Error("failed to mark recommendation viewed")
		internalError(c, "VIEW_FAILED", "Failed to mark recommendation viewed")
		return
	}
	c.Status(http.StatusNoContent)
}

// Dismiss idempotently dismisses a recommendation.
func (h *ActionHandler) Dismiss(c *gin.Context) {
	userID, _, _ := middleware.GetUserFromContext(c)
	kind, id, ok := parseKindAndID(c)
	if !ok {
		return
	}
	reason := c.Query("reason")

	if err := h.sched.Dismiss(c.Request.Context(), userID, id, kind, reason); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(c, "RECOMMENDATION_NOT_FOUND", "Unknown recommendation")
			return
		}
		h.logger.WithError(err).WithField("user_id", userID).Error("failed to dismiss recommendation")
		internalError(c, "DISMISS_FAILED", "Failed to dismiss recommendation")
		return
	}
	c.Status(http.StatusNoContent)
}

// Feedback records an explicit score and/or free-text comment against a
// recommendation, §6's rating ∈ [1,5] contract.
func (h *ActionHandler) Feedback(c *gin.Context) {
	userID, _, _ := middleware.GetUserFromContext(c)
	kind, id, ok := parseKindAndID(c)
	if !ok {
		return
	}

	var score *int
	if raw := c.Query("rating"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 5 {
			badRequest(c, "INVALID_RATING", "rating must be an integer between 1 and 5")
			return
		}
		score = &v
	}
	comment := c.Query("comment")

	if err := h.sched.Feedback(c.Request.Context(), userID, id, kind, score, comment); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(c, "RECOMMENDATION_NOT_FOUND", "Unknown recommendation")
			return
		}
		h.logger.WithError(err).WithField("user_id", userID).Error("failed to record feedback")
		internalError(c, "FEEDBACK_FAILED", "Failed to record feedback")
		return
	}
	c.Status(http.StatusNoContent)
}
