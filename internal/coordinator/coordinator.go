// Package coordinator drives one peer connection per remote participant
// toward a connected state and keeps the local roster consistent with relay
// events. It is transport-agnostic: events come in through HandleEvent and
// negotiation payloads go out through the Signaler.
package coordinator

import (
	"fmt"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/peermesh/videomesh/internal/protocol"
)

// RosterEntry is one displayed participant: the relay's attributes plus the
// local negotiation state toward that participant. StateIdle with no
// session yet is reported for snapshot-seeded peers that have not signaled.
type RosterEntry struct {
	protocol.PeerInfo
	State SessionState
}

// Hooks surface coordinator activity to the embedding application. All
// hooks are invoked outside the coordinator's lock and may be nil.
type Hooks struct {
	OnRoster      func([]RosterEntry)
	OnChat        func(protocol.DeliveredChat)
	OnRemoteTrack func(peerID string, track RemoteTrack)
}

// Config wires a Coordinator.
type Config struct {
	Signaler Signaler
	Links    LinkFactory
	// NegotiationTimeout bounds how long a session may sit in
	// OfferCreated or AwaitingOffer before it is marked Failed.
	// Zero disables the stall timer.
	NegotiationTimeout time.Duration
	LoggerFactory      logging.LoggerFactory
	Hooks              Hooks
}

// Coordinator owns the per-peer sessions and the local roster replica.
// One lock serializes every mutation: inbound relay events, link callbacks,
// and stall timers all funnel through it, so sessions need no locking of
// their own.
type Coordinator struct {
	sig     Signaler
	factory LinkFactory
	timeout time.Duration
	hooks   Hooks
	log     logging.LeveledLogger

	mu       sync.Mutex
	roster   map[string]protocol.PeerInfo
	order    []string // roster insertion order, for stable snapshots
	sessions map[string]*Session
}

// New builds a Coordinator.
func New(cfg Config) *Coordinator {
	lf := cfg.LoggerFactory
	if lf == nil {
		lf = logging.NewDefaultLoggerFactory()
	}
	return &Coordinator{
		sig:      cfg.Signaler,
		factory:  cfg.Links,
		timeout:  cfg.NegotiationTimeout,
		hooks:    cfg.Hooks,
		log:      lf.NewLogger("coordinator"),
		roster:   make(map[string]protocol.PeerInfo),
		sessions: make(map[string]*Session),
	}
}

// HandleEvent processes one relay event. The caller is expected to feed
// events from a single goroutine in delivery order; per-sender ordering is
// all the relay guarantees and all the coordinator assumes.
func (c *Coordinator) HandleEvent(ev protocol.Event) {
	switch ev.Type {
	case protocol.EventPeers:
		var peers []protocol.PeerInfo
		if err := ev.Decode(&peers); err != nil {
			c.log.Warnf("bad roster snapshot: %v", err)
			return
		}
		c.seedRoster(peers)
	case protocol.EventPeerJoined:
		var p protocol.PeerJoined
		if err := ev.Decode(&p); err != nil {
			c.log.Warnf("bad join notice: %v", err)
			return
		}
		c.onJoinNotice(p)
	case protocol.EventPeerLeft:
		var p protocol.PeerLeft
		if err := ev.Decode(&p); err != nil {
			c.log.Warnf("bad departure notice: %v", err)
			return
		}
		c.onDeparture(p.ID)
	case protocol.EventPeerState:
		var p protocol.PeerState
		if err := ev.Decode(&p); err != nil {
			c.log.Warnf("bad state update: %v", err)
			return
		}
		c.onPeerState(p)
	case protocol.EventSignal:
		var p protocol.DeliveredSignal
		if err := ev.Decode(&p); err != nil {
			c.log.Warnf("bad signal envelope: %v", err)
			return
		}
		data, err := protocol.ParseSignalData(p.Data)
		if err != nil {
			// Malformed negotiation payloads are recovered locally:
			// one bad message must not tear anything down.
			c.log.Warnf("unusable signal from %s: %v", p.From, err)
			return
		}
		if data.SDP != nil {
			c.onRemoteDescription(p.From, *data.SDP)
		} else {
			c.onRemoteCandidate(p.From, *data.Candidate)
		}
	case protocol.EventChat:
		var p protocol.DeliveredChat
		if err := ev.Decode(&p); err != nil {
			c.log.Warnf("bad chat: %v", err)
			return
		}
		if c.hooks.OnChat != nil {
			c.hooks.OnChat(p)
		}
	case protocol.EventJoin, protocol.EventState:
		// Client-to-relay kinds; a coordinator never receives these.
	default:
		c.log.Warnf("unknown event type %q", ev.Type)
	}
}

// seedRoster applies the join snapshot: every listed member is recorded and
// the local side takes the responder role toward all of them. No sessions
// are constructed yet; they form lazily when the members' offers arrive.
func (c *Coordinator) seedRoster(peers []protocol.PeerInfo) {
	c.mu.Lock()
	for _, p := range peers {
		c.insertLocked(p)
	}
	c.mu.Unlock()
	c.publishRoster()
}

// onJoinNotice handles a newcomer: insert the roster entry and, because
// only pre-existing members initiate, offer toward it exactly once.
// Duplicate delivery of the same notice is a no-op.
func (c *Coordinator) onJoinNotice(p protocol.PeerJoined) {
	c.mu.Lock()
	if _, known := c.roster[p.ID]; known {
		c.mu.Unlock()
		c.log.Debugf("duplicate join notice for %s ignored", p.ID)
		return
	}
	c.insertLocked(protocol.PeerInfo{
		ID:         p.ID,
		Name:       p.Name,
		Lang:       p.Lang,
		MicEnabled: true,
		CamEnabled: true,
	})
	c.initiateLocked(p.ID)
	c.mu.Unlock()
	c.publishRoster()
}

// onPeerState merges an attribute delta into a known entry. Updates for
// unknown participants are dropped.
func (c *Coordinator) onPeerState(p protocol.PeerState) {
	c.mu.Lock()
	entry, known := c.roster[p.ID]
	if !known {
		c.mu.Unlock()
		return
	}
	entry.MicEnabled = p.MicEnabled
	entry.CamEnabled = p.CamEnabled
	c.roster[p.ID] = entry
	c.mu.Unlock()
	c.publishRoster()
}

// onDeparture removes the roster entry and cascade-closes the session under
// one lock acquisition, so no observer can see one without the other.
func (c *Coordinator) onDeparture(peerID string) {
	c.mu.Lock()
	_, known := c.roster[peerID]
	delete(c.roster, peerID)
	for i, id := range c.order {
		if id == peerID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	s := c.sessions[peerID]
	delete(c.sessions, peerID)
	var link PeerLink
	if s != nil {
		s.stopStall()
		s.state = StateClosed
		s.remoteTracks = nil
		link = s.link
	}
	c.mu.Unlock()

	if link != nil {
		if err := link.Close(); err != nil {
			c.log.Warnf("closing link to %s: %v", peerID, err)
		}
	}
	if known || s != nil {
		c.publishRoster()
	}
}

// EnsureSession returns the existing session for peerID or lazily
// constructs a responder-role one. Idempotent.
func (c *Coordinator) EnsureSession(peerID string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureSessionLocked(peerID, RoleResponder)
}

func (c *Coordinator) ensureSessionLocked(peerID string, role Role) (*Session, error) {
	if s, ok := c.sessions[peerID]; ok {
		return s, nil
	}
	s := &Session{peerID: peerID, role: role, state: StateIdle}
	if role == RoleResponder {
		s.state = StateAwaitingOffer
	}
	link, err := c.factory(peerID, LinkEvents{
		OnLocalCandidate: func(cand protocol.Candidate) { c.onLocalCandidate(peerID, cand) },
		OnConnected:      func() { c.onLinkConnected(peerID) },
		OnRemoteTrack:    func(t RemoteTrack) { c.onRemoteTrack(peerID, t) },
	})
	if err != nil {
		return nil, fmt.Errorf("build link to %s: %w", peerID, err)
	}
	s.link = link
	c.sessions[peerID] = s
	if s.negotiating() {
		c.armStallLocked(s)
	}
	return s, nil
}

// initiateLocked builds and sends an offer toward peerID. Initiator role
// only; a session already past Idle is left alone.
func (c *Coordinator) initiateLocked(peerID string) {
	s, err := c.ensureSessionLocked(peerID, RoleInitiator)
	if err != nil {
		c.log.Errorf("initiate toward %s: %v", peerID, err)
		return
	}
	if s.state != StateIdle {
		return
	}
	offer, err := s.link.CreateOffer()
	if err != nil {
		c.log.Errorf("create offer for %s: %v", peerID, err)
		return
	}
	s.state = StateOfferCreated
	c.armStallLocked(s)
	c.sendDescription(peerID, offer)
}

// onRemoteDescription reacts to an inbound offer or answer. Invalid
// transitions are ignored, never errored, to tolerate duplicate and
// reordered delivery.
func (c *Coordinator) onRemoteDescription(from string, desc protocol.SessionDescription) {
	c.mu.Lock()
	switch desc.Type {
	case "offer":
		s, err := c.ensureSessionLocked(from, RoleResponder)
		if err != nil {
			c.mu.Unlock()
			c.log.Errorf("session for offer from %s: %v", from, err)
			return
		}
		if s.state != StateAwaitingOffer && s.state != StateIdle {
			c.mu.Unlock()
			c.log.Debugf("offer from %s in state %s ignored", from, s.state)
			return
		}
		answer, err := s.link.CreateAnswer(desc)
		if err != nil {
			c.mu.Unlock()
			c.log.Warnf("answer for %s failed: %v", from, err)
			return
		}
		c.completeExchangeLocked(s)
		c.sendDescription(from, answer)
		c.flushLocalLocked(s)
	case "answer":
		s, ok := c.sessions[from]
		if !ok || s.state != StateOfferCreated {
			c.mu.Unlock()
			c.log.Debugf("stray answer from %s ignored", from)
			return
		}
		if err := s.link.ApplyAnswer(desc); err != nil {
			c.mu.Unlock()
			c.log.Warnf("apply answer from %s failed: %v", from, err)
			return
		}
		c.completeExchangeLocked(s)
		c.flushLocalLocked(s)
	default:
		c.mu.Unlock()
		c.log.Warnf("description of type %q from %s ignored", desc.Type, from)
		return
	}
	c.mu.Unlock()
	c.publishRoster()
}

// completeExchangeLocked marks the remote description as known, drains the
// buffered remote candidates into the link in arrival order, and settles
// the state machine.
func (c *Coordinator) completeExchangeLocked(s *Session) {
	s.remoteDescSet = true
	for _, cand := range s.pendingRemote {
		if err := s.link.AddRemoteCandidate(cand); err != nil {
			c.log.Warnf("buffered candidate for %s rejected: %v", s.peerID, err)
		}
	}
	s.pendingRemote = nil
	s.state = StateAnswerExchanged
	s.stopStall()
}

// onRemoteCandidate applies a trickled candidate, or buffers it when the
// remote description is not yet in place.
func (c *Coordinator) onRemoteCandidate(from string, cand protocol.Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.ensureSessionLocked(from, RoleResponder)
	if err != nil {
		c.log.Errorf("session for candidate from %s: %v", from, err)
		return
	}
	if s.state == StateFailed || s.state == StateClosed {
		return
	}
	if !s.remoteDescSet {
		s.pendingRemote = append(s.pendingRemote, cand)
		return
	}
	if err := s.link.AddRemoteCandidate(cand); err != nil {
		c.log.Warnf("candidate from %s rejected: %v", from, err)
	}
}

// onLocalCandidate is fired by the link as local candidates are gathered.
// They leave for the wire only once the remote description is known.
func (c *Coordinator) onLocalCandidate(peerID string, cand protocol.Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[peerID]
	if !ok || s.state == StateFailed || s.state == StateClosed {
		return
	}
	if !s.remoteDescSet {
		s.pendingLocal = append(s.pendingLocal, cand)
		return
	}
	c.sendCandidate(peerID, cand)
}

// flushLocalLocked sends every held-back local candidate, in generation
// order, now that the remote side can apply them.
func (c *Coordinator) flushLocalLocked(s *Session) {
	for _, cand := range s.pendingLocal {
		c.sendCandidate(s.peerID, cand)
	}
	s.pendingLocal = nil
}

func (c *Coordinator) onLinkConnected(peerID string) {
	c.mu.Lock()
	s, ok := c.sessions[peerID]
	if !ok || s.state != StateAnswerExchanged {
		c.mu.Unlock()
		return
	}
	s.state = StateConnected
	c.mu.Unlock()
	c.log.Infof("connected to %s", peerID)
	c.publishRoster()
}

func (c *Coordinator) onRemoteTrack(peerID string, t RemoteTrack) {
	c.mu.Lock()
	s, ok := c.sessions[peerID]
	if ok {
		s.remoteTracks = append(s.remoteTracks, t)
	}
	c.mu.Unlock()
	if ok && c.hooks.OnRemoteTrack != nil {
		c.hooks.OnRemoteTrack(peerID, t)
	}
}

// armStallLocked starts the per-session stall timer. A session still
// mid-exchange when it fires is moved to Failed and surfaced through the
// roster; there is no automatic retry.
func (c *Coordinator) armStallLocked(s *Session) {
	if c.timeout <= 0 {
		return
	}
	s.stopStall()
	peerID := s.peerID
	s.stall = time.AfterFunc(c.timeout, func() { c.failStalled(peerID) })
}

func (c *Coordinator) failStalled(peerID string) {
	c.mu.Lock()
	s, ok := c.sessions[peerID]
	if !ok || !s.negotiating() {
		c.mu.Unlock()
		return
	}
	s.state = StateFailed
	s.stopStall()
	link := s.link
	c.mu.Unlock()

	c.log.Warnf("negotiation with %s stalled, marking failed", peerID)
	if err := link.Close(); err != nil {
		c.log.Warnf("closing stalled link to %s: %v", peerID, err)
	}
	c.publishRoster()
}

func (c *Coordinator) sendDescription(peerID string, desc protocol.SessionDescription) {
	data, err := protocol.EncodeDescription(desc)
	if err != nil {
		c.log.Errorf("encode description for %s: %v", peerID, err)
		return
	}
	if err := c.sig.SendSignal(peerID, data); err != nil {
		c.log.Warnf("send description to %s: %v", peerID, err)
	}
}

func (c *Coordinator) sendCandidate(peerID string, cand protocol.Candidate) {
	data, err := protocol.EncodeCandidate(cand)
	if err != nil {
		c.log.Errorf("encode candidate for %s: %v", peerID, err)
		return
	}
	if err := c.sig.SendSignal(peerID, data); err != nil {
		c.log.Warnf("send candidate to %s: %v", peerID, err)
	}
}

// insertLocked adds a roster entry if absent, preserving insertion order.
func (c *Coordinator) insertLocked(p protocol.PeerInfo) {
	if _, ok := c.roster[p.ID]; ok {
		return
	}
	c.roster[p.ID] = p
	c.order = append(c.order, p.ID)
}

// Roster snapshots the current participant list with per-peer negotiation
// state, in join order.
func (c *Coordinator) Roster() []RosterEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rosterLocked()
}

func (c *Coordinator) rosterLocked() []RosterEntry {
	entries := make([]RosterEntry, 0, len(c.order))
	for _, id := range c.order {
		info, ok := c.roster[id]
		if !ok {
			continue
		}
		entry := RosterEntry{PeerInfo: info, State: StateIdle}
		if s, ok := c.sessions[id]; ok {
			entry.State = s.state
		}
		entries = append(entries, entry)
	}
	return entries
}

func (c *Coordinator) publishRoster() {
	if c.hooks.OnRoster == nil {
		return
	}
	c.mu.Lock()
	entries := c.rosterLocked()
	c.mu.Unlock()
	c.hooks.OnRoster(entries)
}

// SessionCount reports how many sessions currently exist.
func (c *Coordinator) SessionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// SessionState reports the negotiation state toward peerID.
func (c *Coordinator) SessionState(peerID string) (SessionState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[peerID]
	if !ok {
		return StateIdle, false
	}
	return s.state, true
}

// Close tears down every session. Used on shutdown; remote peers learn of
// the departure from the relay's transport-loss broadcast, not from us.
func (c *Coordinator) Close() {
	c.mu.Lock()
	sessions := c.sessions
	c.sessions = make(map[string]*Session)
	c.roster = make(map[string]protocol.PeerInfo)
	c.order = nil
	c.mu.Unlock()

	for _, s := range sessions {
		s.stopStall()
		s.state = StateClosed
		if err := s.link.Close(); err != nil {
			c.log.Warnf("closing link to %s: %v", s.peerID, err)
		}
	}
}
