package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/showsync/reccore/internal/health"
)

type HealthHandler struct {
	checker *health.Checker
}

func (h *HealthHandler) Check(c *gin.Context) {
	status := h.checker.Check(c.Request.Context())

	httpStatus := http.StatusOK
	if status.Status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, status)
}
