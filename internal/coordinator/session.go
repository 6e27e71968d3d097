package coordinator

import (
	"time"

	"github.com/peermesh/videomesh/internal/protocol"
)

// Role is the negotiation role toward one remote participant. The joiner is
// always the responder toward every pre-existing member; pre-existing
// members initiate toward the joiner. The asymmetry guarantees exactly one
// offer per pair, so glare cannot occur.
type Role int

const (
	RoleInitiator Role = iota
	RoleResponder
)

func (r Role) String() string {
	if r == RoleInitiator {
		return "initiator"
	}
	return "responder"
}

// SessionState tracks per-peer negotiation progress.
type SessionState int

const (
	StateIdle SessionState = iota
	StateOfferCreated
	StateAwaitingOffer
	StateAnswerExchanged
	StateConnected
	StateFailed
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOfferCreated:
		return "offer-created"
	case StateAwaitingOffer:
		return "awaiting-offer"
	case StateAnswerExchanged:
		return "answer-exchanged"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session is the negotiation state for one remote participant. At most one
// exists per remote identifier. All fields are mutated only under the
// owning Coordinator's lock; the session itself carries no mutex.
type Session struct {
	peerID string
	role   Role
	state  SessionState
	link   PeerLink

	// remoteDescSet gates both candidate queues. Candidates generated
	// locally before the remote description is known are held back from
	// the wire; candidates received before it is set are held back from
	// the link. Applying early is the classic mesh negotiation failure.
	remoteDescSet bool
	pendingLocal  []protocol.Candidate
	pendingRemote []protocol.Candidate

	remoteTracks []RemoteTrack
	stall        *time.Timer
}

// negotiating reports whether the session is still waiting on the remote
// side to complete the description exchange.
func (s *Session) negotiating() bool {
	return s.state == StateOfferCreated || s.state == StateAwaitingOffer
}

// stopStall cancels the stall timer once the description exchange completes
// or the session is torn down.
func (s *Session) stopStall() {
	if s.stall != nil {
		s.stall.Stop()
		s.stall = nil
	}
}

// PeerID returns the remote participant this session negotiates with.
func (s *Session) PeerID() string { return s.peerID }

// Role returns the session's negotiation role.
func (s *Session) Role() Role { return s.role }
