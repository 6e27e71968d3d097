package coordinator

import (
	"fmt"

	"github.com/pion/webrtc/v4"

	"github.com/peermesh/videomesh/internal/media"
	"github.com/peermesh/videomesh/internal/protocol"
)

// pionLink adapts a pion PeerConnection to the PeerLink interface.
type pionLink struct {
	pc *webrtc.PeerConnection
}

// NewPionFactory returns a LinkFactory backed by pion. Every link shares
// the one local media source; when the source has no tracks (capture denied
// or headless), receive-only transceivers keep negotiation viable.
func NewPionFactory(iceServers []webrtc.ICEServer, src *media.Source) LinkFactory {
	return func(peerID string, events LinkEvents) (PeerLink, error) {
		pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: iceServers})
		if err != nil {
			return nil, fmt.Errorf("new peer connection: %w", err)
		}

		tracks := src.Tracks()
		for _, t := range tracks {
			if _, err := pc.AddTrack(t); err != nil {
				pc.Close()
				return nil, fmt.Errorf("add local track: %w", err)
			}
		}
		if len(tracks) == 0 {
			for _, kind := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeAudio, webrtc.RTPCodecTypeVideo} {
				_, err := pc.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{
					Direction: webrtc.RTPTransceiverDirectionRecvonly,
				})
				if err != nil {
					pc.Close()
					return nil, fmt.Errorf("add %s transceiver: %w", kind, err)
				}
			}
		}

		pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
			if cand == nil || events.OnLocalCandidate == nil {
				return
			}
			events.OnLocalCandidate(protocol.CandidateFromPion(cand.ToJSON()))
		})
		pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
			if state == webrtc.PeerConnectionStateConnected && events.OnConnected != nil {
				events.OnConnected()
			}
		})
		pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
			if events.OnRemoteTrack != nil {
				events.OnRemoteTrack(track)
			}
		})

		return &pionLink{pc: pc}, nil
	}
}

func (l *pionLink) CreateOffer() (protocol.SessionDescription, error) {
	offer, err := l.pc.CreateOffer(nil)
	if err != nil {
		return protocol.SessionDescription{}, fmt.Errorf("create offer: %w", err)
	}
	if err := l.pc.SetLocalDescription(offer); err != nil {
		return protocol.SessionDescription{}, fmt.Errorf("set local offer: %w", err)
	}
	return protocol.DescriptionFromPion(offer), nil
}

func (l *pionLink) CreateAnswer(offer protocol.SessionDescription) (protocol.SessionDescription, error) {
	remote, err := offer.ToPion()
	if err != nil {
		return protocol.SessionDescription{}, err
	}
	if err := l.pc.SetRemoteDescription(remote); err != nil {
		return protocol.SessionDescription{}, fmt.Errorf("set remote offer: %w", err)
	}
	answer, err := l.pc.CreateAnswer(nil)
	if err != nil {
		return protocol.SessionDescription{}, fmt.Errorf("create answer: %w", err)
	}
	if err := l.pc.SetLocalDescription(answer); err != nil {
		return protocol.SessionDescription{}, fmt.Errorf("set local answer: %w", err)
	}
	return protocol.DescriptionFromPion(answer), nil
}

func (l *pionLink) ApplyAnswer(answer protocol.SessionDescription) error {
	remote, err := answer.ToPion()
	if err != nil {
		return err
	}
	if err := l.pc.SetRemoteDescription(remote); err != nil {
		return fmt.Errorf("set remote answer: %w", err)
	}
	return nil
}

func (l *pionLink) AddRemoteCandidate(c protocol.Candidate) error {
	if err := l.pc.AddICECandidate(c.ToPion()); err != nil {
		return fmt.Errorf("add ice candidate: %w", err)
	}
	return nil
}

func (l *pionLink) Close() error {
	return l.pc.Close()
}
