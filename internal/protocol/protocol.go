// Package protocol defines the signaling events exchanged between the relay
// and connection coordinators. The set of event kinds is closed: every reader
// switches over EventType exhaustively, so an unhandled kind is a compile-time
// review item rather than a silently ignored string.
package protocol

import (
	"encoding/json"
	"fmt"
)

// EventType tags a signaling event.
type EventType string

const (
	// Client → relay.
	EventJoin   EventType = "join"
	EventState  EventType = "state"
	EventSignal EventType = "signal"
	EventChat   EventType = "chat"

	// Relay → client. EventSignal and EventChat are reused in this
	// direction with the Delivered* payloads below.
	EventPeers      EventType = "peers"
	EventPeerJoined EventType = "peer-joined"
	EventPeerLeft   EventType = "peer-left"
	EventPeerState  EventType = "peer-state"
)

// Event is the envelope for every message on the signaling channel.
// Data holds the payload struct for the given Type.
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent wraps a payload into an Event of the given type.
func NewEvent(t EventType, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return Event{Type: t, Data: data}, nil
}

// Decode unmarshals the event payload into dst.
func (e Event) Decode(dst any) error {
	if err := json.Unmarshal(e.Data, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// Join registers the sender in a room. Missing fields are accepted with
// empty defaults; the relay performs no validation on display attributes.
type Join struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
	Lang   string `json:"lang"`
}

// State announces a change to the sender's media flags.
type State struct {
	RoomID     string `json:"roomId"`
	MicEnabled bool   `json:"micEnabled"`
	CamEnabled bool   `json:"camEnabled"`
}

// Signal carries an opaque negotiation payload to exactly one peer.
// The relay routes by TargetID and never inspects Data.
type Signal struct {
	RoomID   string          `json:"roomId"`
	TargetID string          `json:"targetId"`
	Data     json.RawMessage `json:"data"`
}

// Chat broadcasts a text message to every other room member.
type Chat struct {
	RoomID string `json:"roomId"`
	Msg    string `json:"msg"`
	Lang   string `json:"lang"`
}

// PeerInfo is one roster entry: the relay-assigned ephemeral identifier
// plus current display attributes.
type PeerInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Lang       string `json:"lang"`
	MicEnabled bool   `json:"micEnabled"`
	CamEnabled bool   `json:"camEnabled"`
}

// PeerJoined notifies existing members of a newcomer.
type PeerJoined struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Lang string `json:"lang"`
}

// PeerLeft notifies remaining members of a departure.
type PeerLeft struct {
	ID string `json:"id"`
}

// PeerState carries an attribute update for one member.
type PeerState struct {
	ID         string `json:"id"`
	MicEnabled bool   `json:"micEnabled"`
	CamEnabled bool   `json:"camEnabled"`
}

// DeliveredSignal is a relayed negotiation payload, stamped with the
// sender's identifier.
type DeliveredSignal struct {
	From string          `json:"from"`
	Data json.RawMessage `json:"data"`
}

// DeliveredChat is a relayed chat message.
type DeliveredChat struct {
	From string `json:"from"`
	Name string `json:"name"`
	Msg  string `json:"msg"`
	Lang string `json:"lang"`
}
