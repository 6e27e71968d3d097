package relay

import (
	"log"
	"sync"

	"github.com/peermesh/videomesh/internal/protocol"
)

// Room scopes one membership set. Rooms hold no negotiation state and no
// media, only the current members and their display attributes (which live
// on the clients themselves).
type Room struct {
	ID string

	mu      sync.RWMutex
	members map[string]*Client
}

func newRoom(id string) *Room {
	return &Room{ID: id, members: make(map[string]*Client)}
}

// add inserts a member. Reports whether the client was already present, so
// a duplicate join can be treated as a roster re-request instead of a
// second registration.
func (rm *Room) add(c *Client) (already bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if _, ok := rm.members[c.ID]; ok {
		return true
	}
	rm.members[c.ID] = c
	return false
}

// remove deletes a member and reports the remaining occupancy.
func (rm *Room) remove(id string) int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	delete(rm.members, id)
	return len(rm.members)
}

func (rm *Room) size() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.members)
}

// snapshot returns every member's roster entry except the named one.
func (rm *Room) snapshot(except string) []protocol.PeerInfo {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	peers := make([]protocol.PeerInfo, 0, len(rm.members))
	for id, member := range rm.members {
		if id == except {
			continue
		}
		peers = append(peers, member.info())
	}
	return peers
}

// broadcast queues an event for every member except the named one. The
// sender never receives its own broadcast back.
func (rm *Room) broadcast(ev protocol.Event, except string) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	for id, member := range rm.members {
		if id == except {
			continue
		}
		member.sendEvent(ev)
	}
}

// sendTo unicasts to exactly one member. An absent target is dropped
// silently: no retry, no error back to the sender.
func (rm *Room) sendTo(targetID string, ev protocol.Event) {
	rm.mu.RLock()
	target, ok := rm.members[targetID]
	rm.mu.RUnlock()
	if !ok {
		log.Printf("relay: target %s not in room %s, dropping %s", targetID, rm.ID, ev.Type)
		return
	}
	target.sendEvent(ev)
}
