package room

import (
	"sync"

	"github.com/pion/webrtc/v4"
)

// Participant is the read-oriented projection of one remote peer: identity,
// media flags and whatever remote tracks have arrived so far. The roster
// never owns connection objects.
type Participant struct {
	ID            string
	Name          string
	MicEnabled    bool
	CameraEnabled bool
	ScreenSharing bool

	// Tracks is nil until the first remote track arrives.
	Tracks []*webrtc.TrackRemote
}

// Roster is the authoritative set of participants known to this client,
// keyed by peer id. Insertion order is preserved for stable rendering.
type Roster struct {
	mu       sync.RWMutex
	order    []string
	byID     map[string]*Participant
	onChange func()
}

func NewRoster() *Roster {
	return &Roster{byID: make(map[string]*Participant)}
}

// OnChange registers a callback fired after every roster mutation. Used by
// the rendering collaborator to refresh.
func (r *Roster) OnChange(fn func()) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

func (r *Roster) notify() {
	r.mu.RLock()
	fn := r.onChange
	r.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// AddParticipant inserts a participant unless the id is already present.
// Peers start with mic and camera assumed on; toggles arrive separately.
func (r *Roster) AddParticipant(id, name string) {
	r.mu.Lock()
	if _, ok := r.byID[id]; ok {
		r.mu.Unlock()
		return
	}
	r.byID[id] = &Participant{
		ID:            id,
		Name:          name,
		MicEnabled:    true,
		CameraEnabled: true,
	}
	r.order = append(r.order, id)
	r.mu.Unlock()

	r.notify()
}

// RemoveParticipant deletes the entry for id. Unknown ids are no-ops.
func (r *Roster) RemoveParticipant(id string) {
	r.mu.Lock()
	if _, ok := r.byID[id]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.byID, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	r.notify()
}

// AttachRemoteTrack records a newly-arrived remote track for the
// participant. Tracks for unknown ids are silently dropped (stale signals).
func (r *Roster) AttachRemoteTrack(id string, track *webrtc.TrackRemote) {
	r.mu.Lock()
	p, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	p.Tracks = append(p.Tracks, track)
	r.mu.Unlock()

	r.notify()
}

// SetMediaEnabled updates the mic or camera flag for id.
func (r *Roster) SetMediaEnabled(id, kind string, on bool) {
	r.mu.Lock()
	p, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	switch kind {
	case "audio":
		p.MicEnabled = on
	case "video":
		p.CameraEnabled = on
	}
	r.mu.Unlock()

	r.notify()
}

// SetScreenSharing updates the screen-share flag for id.
func (r *Roster) SetScreenSharing(id string, sharing bool) {
	r.mu.Lock()
	p, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	p.ScreenSharing = sharing
	r.mu.Unlock()

	r.notify()
}

// Has reports whether id is present.
func (r *Roster) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}

// Len returns the participant count.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Snapshot returns the participants in insertion order. The returned values
// are copies; mutating them does not affect the roster.
func (r *Roster) Snapshot() []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out
}
