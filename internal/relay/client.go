package relay

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/peermesh/videomesh/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// Client is one signaling connection. The identifier is relay-assigned and
// ephemeral: it lives exactly as long as the transport connection.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte

	mu         sync.Mutex
	name       string
	lang       string
	micEnabled bool
	camEnabled bool
	rooms      map[string]*Room
}

func newClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		ID:         id,
		Conn:       conn,
		Send:       make(chan []byte, sendBuffer),
		micEnabled: true,
		camEnabled: true,
		rooms:      make(map[string]*Room),
	}
}

// setAttrs records the display attributes from a join payload. Empty values
// are kept as-is; the relay accepts them rather than rejecting the join.
func (c *Client) setAttrs(name, lang string) {
	c.mu.Lock()
	c.name = name
	c.lang = lang
	c.mu.Unlock()
}

func (c *Client) setMedia(mic, cam bool) {
	c.mu.Lock()
	c.micEnabled = mic
	c.camEnabled = cam
	c.mu.Unlock()
}

// info snapshots the client's roster entry.
func (c *Client) info() protocol.PeerInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return protocol.PeerInfo{
		ID:         c.ID,
		Name:       c.name,
		Lang:       c.lang,
		MicEnabled: c.micEnabled,
		CamEnabled: c.camEnabled,
	}
}

func (c *Client) displayName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

// sendEvent marshals and queues an event for delivery. The send channel is
// the per-recipient ordering point: everything a single sender routes here
// arrives in the order it was queued.
func (c *Client) sendEvent(ev protocol.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("relay: marshal %s event: %v", ev.Type, err)
		return
	}
	select {
	case c.Send <- data:
	default:
		log.Printf("relay: send buffer full for peer %s, dropping %s", c.ID, ev.Type)
	}
}

// ReadPump consumes inbound events until the transport drops, then runs the
// implicit-leave path. Runs on its own goroutine, one per connection.
func (c *Client) ReadPump(r *Relay) {
	defer func() {
		r.Disconnect(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("relay: websocket error from %s: %v", c.ID, err)
			}
			break
		}

		var ev protocol.Event
		if err := json.Unmarshal(message, &ev); err != nil {
			log.Printf("relay: unparsable event from %s: %v", c.ID, err)
			continue
		}
		r.HandleEvent(c, ev)
	}
}

// WritePump drains the send channel onto the wire and keeps the connection
// alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("relay: write to %s failed: %v", c.ID, err)
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
