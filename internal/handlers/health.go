package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse is what external orchestration polls for liveness.
type HealthResponse struct {
	Status    string `json:"status"`
	Tag       string `json:"tag"`
	Timestamp string `json:"timestamp"`
}

// Health reports process liveness, the build tag, and the current time.
func Health(tag string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:    "ok",
			Tag:       tag,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}
