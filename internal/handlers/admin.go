package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/showsync/reccore/internal/config"
	"github.com/showsync/reccore/internal/scheduler"
	"github.com/showsync/reccore/internal/store"
)

type AdminHandler struct {
	store  *store.Store
	sched  *scheduler.Scheduler
	cfg    *config.Config
	logger *logrus.Logger
}

// Generate triggers a batch generation pass for every user with a profile.
// Enqueuing onto the worker pool is asynchronous, so this returns 202 as
// soon as the user set is enumerated rather than waiting for generation.
func (h *AdminHandler) Generate(c *gin.Context) {
	if err := h.sched.GenerateAll(c.Request.Context()); err != nil {
		h.logger.WithError(err).Error("failed to trigger batch generation")
		internalError(c, "GENERATE_FAILED", "Failed to trigger generation")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// Analytics serves system-level counters over a trailing window of days.
func (h *AdminHandler) Analytics(c *gin.Context) {
	days := queryInt(c, "days", 7, 1, 365)

	counters, err := h.store.Analytics(c.Request.Context(), days, h.cfg.Recs.CacheTTLs.Analytics)
	if err != nil {
		h.logger.WithError(err).Error("failed to compute analytics")
		internalError(c, "ANALYTICS_FAILED", "Failed to compute analytics")
		return
	}
	c.JSON(http.StatusOK, counters)
}
