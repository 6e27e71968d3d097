// Package signalclient is the coordinator-side transport: one WebSocket
// connection to the relay carrying tagged events in both directions.
package signalclient

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/peermesh/videomesh/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 54 * time.Second
	eventBuf   = 64
)

// Client is a connected signaling channel. Events() yields inbound relay
// events in delivery order; the Send* methods are safe for concurrent use.
type Client struct {
	conn   *websocket.Conn
	roomID string

	writeMu sync.Mutex
	events  chan protocol.Event
	done    chan struct{}
	once    sync.Once
}

// Dial connects to the relay's signaling endpoint.
func Dial(relayURL string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(relayURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	c := &Client{
		conn:   conn,
		events: make(chan protocol.Event, eventBuf),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	go c.pingLoop()
	return c, nil
}

// Join registers in a room. The relay answers with a roster snapshot on the
// event channel.
func (c *Client) Join(roomID, name, lang string) error {
	c.roomID = roomID
	return c.send(protocol.EventJoin, protocol.Join{RoomID: roomID, Name: name, Lang: lang})
}

// SendSignal unicasts a negotiation payload to one peer. Satisfies
// coordinator.Signaler.
func (c *Client) SendSignal(targetID string, data []byte) error {
	return c.send(protocol.EventSignal, protocol.Signal{
		RoomID:   c.roomID,
		TargetID: targetID,
		Data:     json.RawMessage(data),
	})
}

// SendState broadcasts the local media flags.
func (c *Client) SendState(micEnabled, camEnabled bool) error {
	return c.send(protocol.EventState, protocol.State{
		RoomID:     c.roomID,
		MicEnabled: micEnabled,
		CamEnabled: camEnabled,
	})
}

// SendChat broadcasts a chat message.
func (c *Client) SendChat(msg, lang string) error {
	return c.send(protocol.EventChat, protocol.Chat{RoomID: c.roomID, Msg: msg, Lang: lang})
}

// Events yields inbound relay events. The channel closes when the
// transport drops.
func (c *Client) Events() <-chan protocol.Event {
	return c.events
}

// Close tears down the transport. The relay treats it as departure.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *Client) send(t protocol.EventType, payload any) error {
	ev, err := protocol.NewEvent(t, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", t, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write %s event: %w", t, err)
	}
	return nil
}

func (c *Client) readLoop() {
	defer func() {
		close(c.events)
		c.Close()
	}()
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				log.Printf("signalclient: read: %v", err)
			}
			return
		}
		var ev protocol.Event
		if err := json.Unmarshal(message, &ev); err != nil {
			log.Printf("signalclient: unparsable event: %v", err)
			continue
		}
		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
