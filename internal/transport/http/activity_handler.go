package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"quiz-service/internal/domain"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

// ListActivity handles GET /activity?limit=, newest first.
func (h *Handler) ListActivity(c *gin.Context) {
	userID, _ := currentUser(c)

	limit := defaultActivityLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(c, domain.NewValidationError("limit", "must be a positive integer"))
			return
		}
		limit = n
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	activities, err := h.attempts.ListActivities(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if activities == nil {
		activities = []domain.Activity{}
	}
	c.JSON(http.StatusOK, activities)
}
