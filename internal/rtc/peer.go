package rtc

import (
	"log/slog"
	"sync"

	"github.com/pion/webrtc/v4"
)

// Peer owns the connection-level state for one remote participant: the
// underlying peer connection, the locally-added track senders, the chat data
// channel and the queue of remote candidates that arrived before the remote
// description was set.
type Peer struct {
	id   string
	name string
	pc   *webrtc.PeerConnection

	mu            sync.Mutex
	senders       []*webrtc.RTPSender
	pendingRemote []webrtc.ICECandidateInit
	chat          *webrtc.DataChannel
}

func (p *Peer) addSender(s *webrtc.RTPSender) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.senders = append(p.senders, s)
}

// Senders returns a snapshot of the locally-added track senders.
func (p *Peer) Senders() []*webrtc.RTPSender {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*webrtc.RTPSender, len(p.senders))
	copy(out, p.senders)
	return out
}

// queueRemoteCandidate holds a candidate that arrived before the remote
// description. It is applied by applyQueuedCandidates.
func (p *Peer) queueRemoteCandidate(c webrtc.ICECandidateInit) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pendingRemote = append(p.pendingRemote, c)
}

// applyQueuedCandidates applies the early-arrival queue after the remote
// description is in place. Failures degrade connectivity for this peer only.
func (p *Peer) applyQueuedCandidates() {
	p.mu.Lock()
	queued := p.pendingRemote
	p.pendingRemote = nil
	p.mu.Unlock()

	for _, c := range queued {
		if err := p.pc.AddICECandidate(c); err != nil {
			slog.Warn("failed to apply queued ICE candidate", "peer", p.id, "err", err)
		}
	}
}

func (p *Peer) setChat(dc *webrtc.DataChannel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chat = dc
}

func (p *Peer) chatChannel() *webrtc.DataChannel {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chat
}

// Close tears down the data channel and the connection.
func (p *Peer) Close() error {
	if dc := p.chatChannel(); dc != nil {
		dc.Close()
	}
	return p.pc.Close()
}
