package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peermesh/videomesh/internal/relay"
)

// RoomInfoResponse is the public occupancy view of a room.
type RoomInfoResponse struct {
	ID           string `json:"id"`
	Participants int    `json:"participants"`
}

// RoomInfo reads the current occupancy of a room from the in-memory
// registry. Rooms exist implicitly, so an unknown identifier is simply a
// room with zero participants, not an error.
func RoomInfo(r *relay.Relay) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("roomId")
		if roomID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "roomId is required"})
			return
		}
		c.JSON(http.StatusOK, RoomInfoResponse{
			ID:           roomID,
			Participants: r.Occupancy(roomID),
		})
	}
}
