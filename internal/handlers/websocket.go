package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/peermesh/videomesh/internal/middleware"
	"github.com/peermesh/videomesh/internal/relay"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is handled by the OriginFilter middleware.
		return true
	},
}

// Signaling upgrades the connection and hands it to the relay. Rooms are
// joined by sending a join event on the channel, not by URL; one transport
// connection carries everything.
func Signaling(r *relay.Relay, requireAuth bool, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if requireAuth {
			token := c.Query("token")
			if _, err := middleware.ParseGuestToken(token, jwtSecret); err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("handlers: websocket upgrade failed: %v", err)
			return
		}

		client := r.NewClient(conn)
		go client.WritePump()
		go client.ReadPump(r)
	}
}
