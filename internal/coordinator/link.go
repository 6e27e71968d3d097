package coordinator

import "github.com/peermesh/videomesh/internal/protocol"

// PeerLink abstracts the per-peer connection object. The production
// implementation wraps a pion PeerConnection; tests substitute a fake so the
// negotiation state machine can be exercised without ICE.
type PeerLink interface {
	// CreateOffer builds and locally applies an offer.
	CreateOffer() (protocol.SessionDescription, error)
	// CreateAnswer applies the remote offer, then builds and locally
	// applies the answer.
	CreateAnswer(offer protocol.SessionDescription) (protocol.SessionDescription, error)
	// ApplyAnswer completes the initiator side.
	ApplyAnswer(answer protocol.SessionDescription) error
	// AddRemoteCandidate applies one trickled candidate. Callers must not
	// invoke this before a remote description is in place.
	AddRemoteCandidate(c protocol.Candidate) error
	Close() error
}

// RemoteTrack is the attached remote media, reduced to what the roster
// layer needs. pion's *webrtc.TrackRemote satisfies it.
type RemoteTrack interface {
	ID() string
	StreamID() string
}

// LinkEvents are the callbacks a link fires as negotiation progresses.
// They may arrive on arbitrary goroutines; the coordinator serializes them.
type LinkEvents struct {
	OnLocalCandidate func(protocol.Candidate)
	OnConnected      func()
	OnRemoteTrack    func(RemoteTrack)
}

// LinkFactory constructs the connection object for one remote participant.
type LinkFactory func(peerID string, events LinkEvents) (PeerLink, error)

// Signaler is the only surface the coordinator needs from the transport
// layer: unicast an opaque negotiation payload to one participant.
type Signaler interface {
	SendSignal(targetID string, data []byte) error
}
