package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"teamchat/internal/shared"

	"github.com/gin-gonic/gin"
)

// respondError maps the shared error taxonomy onto a status code.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, shared.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, shared.ErrMembershipDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
	default:
		slog.Error("request_failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
