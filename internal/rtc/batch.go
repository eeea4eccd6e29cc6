package rtc

import (
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
)

// DefaultFlushDelay is the debounce window for locally-gathered ICE
// candidates. Gathering tends to emit candidates in bursts; waiting a few
// tens of milliseconds collapses a burst into one flush.
const DefaultFlushDelay = 50 * time.Millisecond

// CandidateBuffer coalesces locally-gathered ICE candidates per remote peer
// and hands them to the flush callback after a quiet period. Each new
// candidate re-arms the peer's timer (debounce, not a fixed interval).
type CandidateBuffer struct {
	mu      sync.Mutex
	delay   time.Duration
	pending map[string][]webrtc.ICECandidateInit
	timers  map[string]*time.Timer
	flush   func(peerID string, candidates []webrtc.ICECandidateInit)
}

// NewCandidateBuffer creates a buffer with the given debounce delay.
func NewCandidateBuffer(delay time.Duration, flush func(string, []webrtc.ICECandidateInit)) *CandidateBuffer {
	return &CandidateBuffer{
		delay:   delay,
		pending: make(map[string][]webrtc.ICECandidateInit),
		timers:  make(map[string]*time.Timer),
		flush:   flush,
	}
}

// Add queues a candidate for the peer and re-arms its flush timer.
func (b *CandidateBuffer) Add(peerID string, candidate webrtc.ICECandidateInit) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending[peerID] = append(b.pending[peerID], candidate)

	// Arming always cancels the prior handle for the key.
	if t, ok := b.timers[peerID]; ok {
		t.Stop()
	}
	b.timers[peerID] = time.AfterFunc(b.delay, func() {
		b.flushPeer(peerID)
	})
}

func (b *CandidateBuffer) flushPeer(peerID string) {
	b.mu.Lock()
	candidates := b.pending[peerID]
	delete(b.pending, peerID)
	delete(b.timers, peerID)
	b.mu.Unlock()

	if len(candidates) > 0 {
		b.flush(peerID, candidates)
	}
}

// Cancel drops the queue and timer for one peer without flushing.
func (b *CandidateBuffer) Cancel(peerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.timers[peerID]; ok {
		t.Stop()
		delete(b.timers, peerID)
	}
	delete(b.pending, peerID)
}

// CancelAll drops every queue and timer. Used on room exit.
func (b *CandidateBuffer) CancelAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, t := range b.timers {
		t.Stop()
		delete(b.timers, id)
	}
	b.pending = make(map[string][]webrtc.ICECandidateInit)
}
