// Package relay implements the signaling relay: membership bookkeeping and
// envelope routing between named participants. It never inspects negotiation
// payloads and never touches media. All state is in-memory; a restart loses
// every room and forces clients to rejoin.
package relay

import (
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/peermesh/videomesh/internal/presence"
	"github.com/peermesh/videomesh/internal/protocol"
)

// Relay owns the room registry. Rooms are created on first join and removed
// when the last member leaves; nothing else manages their lifecycle.
type Relay struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	presence *presence.Store
}

// New builds a relay. store may be nil when no Redis mirror is configured.
func New(store *presence.Store) *Relay {
	return &Relay{
		rooms:    make(map[string]*Room),
		presence: store,
	}
}

// NewClient registers a fresh connection under a relay-assigned identifier.
func (r *Relay) NewClient(conn *websocket.Conn) *Client {
	return newClient(uuid.New().String(), conn)
}

// Occupancy reports the current member count of a room, zero if absent.
func (r *Relay) Occupancy(roomID string) int {
	r.mu.RLock()
	room, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return 0
	}
	return room.size()
}

// HandleEvent routes one inbound event from a client. Unknown event kinds
// are logged and dropped; the closed protocol.EventType set keeps the switch
// reviewable for completeness.
func (r *Relay) HandleEvent(c *Client, ev protocol.Event) {
	switch ev.Type {
	case protocol.EventJoin:
		var p protocol.Join
		// Malformed joins degrade to empty defaults rather than rejecting.
		if err := ev.Decode(&p); err != nil {
			log.Printf("relay: join from %s with bad payload: %v", c.ID, err)
		}
		r.join(c, p)
	case protocol.EventState:
		var p protocol.State
		if err := ev.Decode(&p); err != nil {
			log.Printf("relay: state from %s with bad payload: %v", c.ID, err)
			return
		}
		r.relayState(c, p)
	case protocol.EventSignal:
		var p protocol.Signal
		if err := ev.Decode(&p); err != nil {
			log.Printf("relay: signal from %s with bad payload: %v", c.ID, err)
			return
		}
		r.relaySignal(c, p)
	case protocol.EventChat:
		var p protocol.Chat
		if err := ev.Decode(&p); err != nil {
			log.Printf("relay: chat from %s with bad payload: %v", c.ID, err)
			return
		}
		r.relayChat(c, p)
	case protocol.EventPeers, protocol.EventPeerJoined, protocol.EventPeerLeft, protocol.EventPeerState:
		// Server-to-client kinds are not valid inbound.
		log.Printf("relay: unexpected %s event from client %s", ev.Type, c.ID)
	default:
		log.Printf("relay: unknown event type %q from %s", ev.Type, c.ID)
	}
}

// join registers the caller, answers with a snapshot of the other members,
// and fans a join notice out to everyone else. The caller never appears in
// its own snapshot and never receives its own join notice.
func (r *Relay) join(c *Client, p protocol.Join) {
	c.setAttrs(p.Name, p.Lang)
	room := r.getOrCreateRoom(p.RoomID)

	already := room.add(c)
	if !already {
		c.mu.Lock()
		c.rooms[room.ID] = room
		c.mu.Unlock()
		r.presence.Add(room.ID, c.ID)
	}

	snapshot, err := protocol.NewEvent(protocol.EventPeers, room.snapshot(c.ID))
	if err != nil {
		log.Printf("relay: encode roster for %s: %v", c.ID, err)
		return
	}
	c.sendEvent(snapshot)

	if already {
		// Duplicate join: the roster re-send above is the whole response.
		return
	}

	notice, err := protocol.NewEvent(protocol.EventPeerJoined, protocol.PeerJoined{
		ID:   c.ID,
		Name: p.Name,
		Lang: p.Lang,
	})
	if err != nil {
		log.Printf("relay: encode join notice for %s: %v", c.ID, err)
		return
	}
	room.broadcast(notice, c.ID)

	log.Printf("relay: peer %s joined room %s (%d members)", c.ID, room.ID, room.size())
}

// relayState broadcasts an attribute delta to all other members. Fire and
// forget: no acknowledgement.
func (r *Relay) relayState(c *Client, p protocol.State) {
	room := r.roomFor(c, p.RoomID)
	if room == nil {
		return
	}
	c.setMedia(p.MicEnabled, p.CamEnabled)

	ev, err := protocol.NewEvent(protocol.EventPeerState, protocol.PeerState{
		ID:         c.ID,
		MicEnabled: p.MicEnabled,
		CamEnabled: p.CamEnabled,
	})
	if err != nil {
		log.Printf("relay: encode state from %s: %v", c.ID, err)
		return
	}
	room.broadcast(ev, c.ID)
}

// relaySignal unicasts an opaque negotiation payload, stamped with the
// sender's identifier so the recipient can key its session.
func (r *Relay) relaySignal(c *Client, p protocol.Signal) {
	room := r.roomFor(c, p.RoomID)
	if room == nil {
		return
	}
	ev, err := protocol.NewEvent(protocol.EventSignal, protocol.DeliveredSignal{
		From: c.ID,
		Data: p.Data,
	})
	if err != nil {
		log.Printf("relay: encode signal from %s: %v", c.ID, err)
		return
	}
	room.sendTo(p.TargetID, ev)
}

// relayChat broadcasts to every other member; the sender never hears its
// own message back.
func (r *Relay) relayChat(c *Client, p protocol.Chat) {
	room := r.roomFor(c, p.RoomID)
	if room == nil {
		return
	}
	ev, err := protocol.NewEvent(protocol.EventChat, protocol.DeliveredChat{
		From: c.ID,
		Name: c.displayName(),
		Msg:  p.Msg,
		Lang: p.Lang,
	})
	if err != nil {
		log.Printf("relay: encode chat from %s: %v", c.ID, err)
		return
	}
	room.broadcast(ev, c.ID)
}

// Disconnect runs the implicit-leave path: a departure notice to every room
// the connection had joined, then membership removal. Transport loss and
// intentional leave are indistinguishable by design.
func (r *Relay) Disconnect(c *Client) {
	c.mu.Lock()
	rooms := make([]*Room, 0, len(c.rooms))
	for _, room := range c.rooms {
		rooms = append(rooms, room)
	}
	c.rooms = make(map[string]*Room)
	c.mu.Unlock()

	notice, err := protocol.NewEvent(protocol.EventPeerLeft, protocol.PeerLeft{ID: c.ID})
	if err != nil {
		log.Printf("relay: encode departure of %s: %v", c.ID, err)
		return
	}

	for _, room := range rooms {
		remaining := room.remove(c.ID)
		room.broadcast(notice, c.ID)
		r.presence.Remove(room.ID, c.ID)
		if remaining == 0 {
			r.removeRoom(room.ID)
		}
		log.Printf("relay: peer %s left room %s", c.ID, room.ID)
	}

	close(c.Send)
}

func (r *Relay) getOrCreateRoom(roomID string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		room = newRoom(roomID)
		r.rooms[roomID] = room
		log.Printf("relay: created room %s", roomID)
	}
	return room
}

func (r *Relay) removeRoom(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[roomID]; ok && room.size() == 0 {
		delete(r.rooms, roomID)
		log.Printf("relay: removed empty room %s", roomID)
	}
}

// roomFor resolves the room named in an event, but only if the sender is
// actually a member of it.
func (r *Relay) roomFor(c *Client, roomID string) *Room {
	c.mu.Lock()
	room := c.rooms[roomID]
	c.mu.Unlock()
	if room == nil {
		log.Printf("relay: %s referenced room %s without membership", c.ID, roomID)
	}
	return room
}
