package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// respondError writes the {"error": {"code", "message"}} envelope every
// route shares.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

func badRequest(c *gin.Context, code, message string) {
	respondError(c, http.StatusBadRequest, code, message)
}

func notFound(c *gin.Context, code, message string) {
	respondError(c, http.StatusNotFound, code, message)
}

func forbidden(c *gin.Context, code, message string) {
	respondError(c, http.StatusForbidden, code, message)
}

func internalError(c *gin.Context, code, message string) {
	respondError(c, http.StatusInternalServerError, code, message)
}

func queryInt(c *gin.Context, key string, def, min, max int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return def
	}
	return v
}
