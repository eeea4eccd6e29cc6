package rtc

import (
	"sync"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
)

type flushRecorder struct {
	mu      sync.Mutex
	flushes [][]webrtc.ICECandidateInit
	peers   []string
}

func (r *flushRecorder) record(peerID string, candidates []webrtc.ICECandidateInit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes = append(r.flushes, candidates)
	r.peers = append(r.peers, peerID)
}

func (r *flushRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flushes)
}

func (r *flushRecorder) snapshot() [][]webrtc.ICECandidateInit {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]webrtc.ICECandidateInit, len(r.flushes))
	copy(out, r.flushes)
	return out
}

func candidate(s string) webrtc.ICECandidateInit {
	return webrtc.ICECandidateInit{Candidate: s}
}

func TestCandidateBufferDebouncesBursts(t *testing.T) {
	rec := &flushRecorder{}
	b := NewCandidateBuffer(50*time.Millisecond, rec.record)

	// A burst inside the window, then a straggler after it.
	b.Add("p1", candidate("c1"))
	time.Sleep(10 * time.Millisecond)
	b.Add("p1", candidate("c2"))
	time.Sleep(60 * time.Millisecond)
	b.Add("p1", candidate("c3"))
	time.Sleep(70 * time.Millisecond)

	flushes := rec.snapshot()
	assert.Len(t, flushes, 2)
	assert.Equal(t, []webrtc.ICECandidateInit{candidate("c1"), candidate("c2")}, flushes[0])
	assert.Equal(t, []webrtc.ICECandidateInit{candidate("c3")}, flushes[1])
}

func TestCandidateBufferRearmsTimer(t *testing.T) {
	rec := &flushRecorder{}
	b := NewCandidateBuffer(40*time.Millisecond, rec.record)

	// Keep adding before the window elapses; nothing may flush meanwhile.
	for i := 0; i < 4; i++ {
		b.Add("p1", candidate("c"))
		time.Sleep(20 * time.Millisecond)
	}
	assert.Equal(t, 0, rec.count())

	time.Sleep(60 * time.Millisecond)
	flushes := rec.snapshot()
	assert.Len(t, flushes, 1)
	assert.Len(t, flushes[0], 4)
}

func TestCandidateBufferIsPerPeer(t *testing.T) {
	rec := &flushRecorder{}
	b := NewCandidateBuffer(30*time.Millisecond, rec.record)

	b.Add("p1", candidate("a"))
	b.Add("p2", candidate("b"))
	time.Sleep(60 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Len(t, rec.flushes, 2)
	assert.ElementsMatch(t, []string{"p1", "p2"}, rec.peers)
	assert.Len(t, rec.flushes[0], 1)
	assert.Len(t, rec.flushes[1], 1)
}

func TestCandidateBufferCancel(t *testing.T) {
	rec := &flushRecorder{}
	b := NewCandidateBuffer(30*time.Millisecond, rec.record)

	b.Add("p1", candidate("a"))
	b.Cancel("p1")
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, 0, rec.count())
}

func TestCandidateBufferCancelAll(t *testing.T) {
	rec := &flushRecorder{}
	b := NewCandidateBuffer(30*time.Millisecond, rec.record)

	b.Add("p1", candidate("a"))
	b.Add("p2", candidate("b"))
	b.CancelAll()
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, 0, rec.count())

	// The buffer stays usable after a full cancel.
	b.Add("p3", candidate("c"))
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}
