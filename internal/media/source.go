// Package media holds the one local media source shared by every
// negotiation session.
package media

import (
	"sync"

	"github.com/pion/webrtc/v4"
)

// Source is acquired once and read by all sessions. The mic/cam flags have
// a single mutation path (Set) observed through one callback, so sessions
// can never hold divergent copies. An empty track list is valid: capture
// denial is recoverable, and sessions proceed without local media.
type Source struct {
	mu         sync.Mutex
	micEnabled bool
	camEnabled bool
	tracks     []webrtc.TrackLocal
	onChange   func(micEnabled, camEnabled bool)
}

// NewSource wraps the acquired local tracks. Both flags start enabled.
func NewSource(tracks []webrtc.TrackLocal) *Source {
	return &Source{
		micEnabled: true,
		camEnabled: true,
		tracks:     tracks,
	}
}

// Tracks returns the local tracks to attach to a new peer connection.
// The slice is shared read-only; callers must not mutate it.
func (s *Source) Tracks() []webrtc.TrackLocal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracks
}

// OnChange registers the single observer of flag mutations, typically the
// code that broadcasts a state event to the room.
func (s *Source) OnChange(fn func(micEnabled, camEnabled bool)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Set updates both flags and notifies the observer. This is the only
// mutation path.
func (s *Source) Set(micEnabled, camEnabled bool) {
	s.mu.Lock()
	s.micEnabled = micEnabled
	s.camEnabled = camEnabled
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(micEnabled, camEnabled)
	}
}

// ToggleMic flips the microphone flag and returns the new value.
func (s *Source) ToggleMic() bool {
	s.mu.Lock()
	mic, cam := !s.micEnabled, s.camEnabled
	s.mu.Unlock()
	s.Set(mic, cam)
	return mic
}

// ToggleCam flips the camera flag and returns the new value.
func (s *Source) ToggleCam() bool {
	s.mu.Lock()
	mic, cam := s.micEnabled, !s.camEnabled
	s.mu.Unlock()
	s.Set(mic, cam)
	return cam
}

// Flags reads the current flag values.
func (s *Source) Flags() (micEnabled, camEnabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.micEnabled, s.camEnabled
}
