package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"
)

// SessionDescription is the wire form of an SDP offer or answer.
type SessionDescription struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// DescriptionFromPion converts a pion session description for the wire.
func DescriptionFromPion(desc webrtc.SessionDescription) SessionDescription {
	return SessionDescription{Type: desc.Type.String(), SDP: desc.SDP}
}

// ToPion converts a wire description back into pion's representation.
func (s SessionDescription) ToPion() (webrtc.SessionDescription, error) {
	var t webrtc.SDPType
	switch s.Type {
	case "offer":
		t = webrtc.SDPTypeOffer
	case "answer":
		t = webrtc.SDPTypeAnswer
	default:
		return webrtc.SessionDescription{}, fmt.Errorf("unsupported sdp type %q", s.Type)
	}
	return webrtc.SessionDescription{Type: t, SDP: s.SDP}, nil
}

// Candidate is the wire form of a trickled ICE candidate.
type Candidate struct {
	Candidate        string  `json:"candidate"`
	SDPMid           *string `json:"sdpMid,omitempty"`
	SDPMLineIndex    *uint16 `json:"sdpMLineIndex,omitempty"`
	UsernameFragment *string `json:"usernameFragment,omitempty"`
}

// CandidateFromPion converts a pion candidate init for the wire.
func CandidateFromPion(init webrtc.ICECandidateInit) Candidate {
	return Candidate{
		Candidate:        init.Candidate,
		SDPMid:           init.SDPMid,
		SDPMLineIndex:    init.SDPMLineIndex,
		UsernameFragment: init.UsernameFragment,
	}
}

// ToPion converts a wire candidate back into pion's representation.
func (c Candidate) ToPion() webrtc.ICECandidateInit {
	return webrtc.ICECandidateInit{
		Candidate:        c.Candidate,
		SDPMid:           c.SDPMid,
		SDPMLineIndex:    c.SDPMLineIndex,
		UsernameFragment: c.UsernameFragment,
	}
}

// SignalData is the negotiation payload carried inside a Signal envelope.
// Exactly one of SDP or Candidate must be set. The relay never decodes
// this; only coordinators do.
type SignalData struct {
	SDP       *SessionDescription `json:"sdp,omitempty"`
	Candidate *Candidate          `json:"candidate,omitempty"`
}

// Validate enforces the one-of constraint.
func (d SignalData) Validate() error {
	switch {
	case d.SDP == nil && d.Candidate == nil:
		return fmt.Errorf("signal data carries neither sdp nor candidate")
	case d.SDP != nil && d.Candidate != nil:
		return fmt.Errorf("signal data carries both sdp and candidate")
	}
	return nil
}

// ParseSignalData decodes and validates a negotiation payload.
func ParseSignalData(raw json.RawMessage) (SignalData, error) {
	var d SignalData
	if err := json.Unmarshal(raw, &d); err != nil {
		return SignalData{}, fmt.Errorf("decode signal data: %w", err)
	}
	if err := d.Validate(); err != nil {
		return SignalData{}, err
	}
	return d, nil
}

// EncodeDescription wraps a session description as raw signal data.
func EncodeDescription(desc SessionDescription) (json.RawMessage, error) {
	return json.Marshal(SignalData{SDP: &desc})
}

// EncodeCandidate wraps a candidate as raw signal data.
func EncodeCandidate(c Candidate) (json.RawMessage, error) {
	return json.Marshal(SignalData{Candidate: &c})
}
