package rtc

import (
	"log/slog"
	"sync"

	"github.com/Manish-keer19/meeting-app/internal/config"
	"github.com/Manish-keer19/meeting-app/internal/media"
	"github.com/Manish-keer19/meeting-app/internal/signaling"
	"github.com/pion/webrtc/v4"
)

// Sender is the outbound half of the signaling channel consumed by the
// manager. *signaling.Channel implements it.
type Sender interface {
	Send(event string, payload any) error
}

// RosterSink receives participant updates derived from connection events.
// The manager never owns roster entries; it only projects into them.
type RosterSink interface {
	AddParticipant(id, name string)
	RemoveParticipant(id string)
	AttachRemoteTrack(id string, track *webrtc.TrackRemote)
}

// Manager owns one peer connection per remote participant and drives the
// offer/answer/candidate exchange for all of them. All negotiation faults are
// absorbed and logged: a broken exchange degrades that one peer, nothing
// else.
type Manager struct {
	cfg      *config.Config
	signal   Sender
	roster   RosterSink
	userName string

	mu    sync.Mutex
	conns map[string]*Peer

	batcher *CandidateBuffer

	chatMu sync.RWMutex
	chatFn func(peerID string, msg ChatMessage)
}

// NewManager creates a manager sending signals through signal and projecting
// connection events into roster. userName is attached to outbound offers.
func NewManager(cfg *config.Config, signal Sender, roster RosterSink, userName string) *Manager {
	m := &Manager{
		cfg:      cfg,
		signal:   signal,
		roster:   roster,
		userName: userName,
		conns:    make(map[string]*Peer),
	}
	m.batcher = NewCandidateBuffer(DefaultFlushDelay, m.sendCandidates)
	return m
}

// sendCandidates is the flush callback of the candidate buffer: every queued
// candidate goes out as an individual ice-candidate message.
func (m *Manager) sendCandidates(peerID string, candidates []webrtc.ICECandidateInit) {
	for _, c := range candidates {
		m.signal.Send(signaling.EventICECandidate, signaling.CandidatePayload{
			To:        peerID,
			Candidate: c,
		})
	}
}

func (m *Manager) get(peerID string) *Peer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conns[peerID]
}

func (m *Manager) peers() []*Peer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Peer, 0, len(m.conns))
	for _, p := range m.conns {
		out = append(out, p)
	}
	return out
}

// Count returns the number of live peer connections.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

// EnsureConnection creates the peer connection for peerID unless one already
// exists (idempotent: duplicate announcements are no-ops). Every track of
// stream is attached. When initiator is true, an offer is produced and sent;
// offer-creation failure is logged, never propagated.
func (m *Manager) EnsureConnection(peerID, peerName string, initiator bool, stream *media.Stream) {
	m.mu.Lock()
	if _, ok := m.conns[peerID]; ok {
		m.mu.Unlock()
		return
	}

	peer, err := m.newPeer(peerID, peerName)
	if err != nil {
		m.mu.Unlock()
		slog.Error("failed to create peer connection", "peer", peerID, "err", err)
		return
	}
	// The map is updated before any blocking SDP work so that a racing
	// create for the same peer id sees the connection and backs off.
	m.conns[peerID] = peer
	m.mu.Unlock()

	for _, track := range stream.Tracks() {
		sender, err := peer.pc.AddTrack(track)
		if err != nil {
			slog.Warn("failed to attach local track", "peer", peerID, "kind", track.Kind(), "err", err)
			continue
		}
		peer.addSender(sender)
	}

	if initiator {
		m.openChat(peer)
		m.sendOffer(peer)
	}
}

// newPeer builds the connection object and installs its callbacks. The
// peer-id mapping is explicit here; nothing relies on ambient closures.
func (m *Manager) newPeer(peerID, peerName string) (*Peer, error) {
	pc, err := m.newPeerConnection()
	if err != nil {
		return nil, err
	}

	peer := &Peer{id: peerID, name: peerName, pc: pc}

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		slog.Debug("remote track arrived", "peer", peerID, "kind", track.Kind())
		m.roster.AttachRemoteTrack(peerID, track)
	})

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		m.batcher.Add(peerID, c.ToJSON())
	})

	// Connectivity changes are surfaced for observation only. A failed or
	// disconnected state does not trigger local cleanup; recovery is left
	// to a later renegotiation or an explicit leave.
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		slog.Info("peer connection state changed", "peer", peerID, "state", state.String())
	})

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() == chatChannelLabel {
			m.bindChat(peer, dc)
		}
	})

	return peer, nil
}

// newPeerConnection centralizes ICE server configuration.
func (m *Manager) newPeerConnection() (*webrtc.PeerConnection, error) {
	iceServers := []webrtc.ICEServer{{URLs: m.cfg.GetSTUNServers()}}

	if turnServers := m.cfg.GetTURNServers(); turnServers != nil {
		username, password := m.cfg.GetTURNCredentials()
		iceServers = append(iceServers, webrtc.ICEServer{
			URLs:       turnServers,
			Username:   username,
			Credential: password,
		})
	}

	return webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: iceServers})
}

// sendOffer stages a local offer and ships it with trickle ICE (candidates
// follow through the batcher, the offer does not wait for gathering).
func (m *Manager) sendOffer(peer *Peer) {
	offer, err := peer.pc.CreateOffer(nil)
	if err != nil {
		slog.Error("failed to create offer", "peer", peer.id, "err", err)
		return
	}
	if err := peer.pc.SetLocalDescription(offer); err != nil {
		slog.Error("failed to stage offer", "peer", peer.id, "err", err)
		return
	}

	m.signal.Send(signaling.EventOffer, signaling.OfferPayload{
		To:       peer.id,
		UserName: m.userName,
		Offer:    *peer.pc.LocalDescription(),
	})
}

// HandleOffer answers an inbound offer. First contact with the peer creates
// both the Participant and the connection; an offer for an already-connected
// peer is accepted as a renegotiation.
func (m *Manager) HandleOffer(fromID, fromName string, offer webrtc.SessionDescription, stream *media.Stream) {
	m.roster.AddParticipant(fromID, fromName)
	m.EnsureConnection(fromID, fromName, false, stream)

	peer := m.get(fromID)
	if peer == nil {
		// Connection creation failed and was already logged.
		return
	}

	if err := peer.pc.SetRemoteDescription(offer); err != nil {
		slog.Warn("failed to apply remote offer", "peer", fromID, "err", err)
		return
	}
	peer.applyQueuedCandidates()

	answer, err := peer.pc.CreateAnswer(nil)
	if err != nil {
		slog.Error("failed to create answer", "peer", fromID, "err", err)
		return
	}
	if err := peer.pc.SetLocalDescription(answer); err != nil {
		slog.Error("failed to stage answer", "peer", fromID, "err", err)
		return
	}

	m.signal.Send(signaling.EventAnswer, signaling.AnswerPayload{
		To:     fromID,
		Answer: *peer.pc.LocalDescription(),
	})
}

// HandleAnswer applies a remote answer. An answer for an unknown peer is
// stale and silently ignored.
func (m *Manager) HandleAnswer(fromID string, answer webrtc.SessionDescription) {
	peer := m.get(fromID)
	if peer == nil {
		slog.Debug("answer for unknown peer ignored", "peer", fromID)
		return
	}

	if err := peer.pc.SetRemoteDescription(answer); err != nil {
		slog.Warn("failed to apply remote answer", "peer", fromID, "err", err)
		return
	}
	peer.applyQueuedCandidates()
}

// HandleRemoteCandidate applies an inbound candidate. Candidates for unknown
// peers are ignored; candidates arriving before the remote description are
// queued rather than dropped.
func (m *Manager) HandleRemoteCandidate(fromID string, candidate webrtc.ICECandidateInit) {
	peer := m.get(fromID)
	if peer == nil {
		slog.Debug("candidate for unknown peer ignored", "peer", fromID)
		return
	}

	if peer.pc.RemoteDescription() == nil {
		peer.queueRemoteCandidate(candidate)
		return
	}

	if err := peer.pc.AddICECandidate(candidate); err != nil {
		slog.Warn("failed to apply ICE candidate", "peer", fromID, "err", err)
	}
}

// ClosePeer tears down the connection for peerID and removes the participant
// from the roster. Invoked on a user-left signal.
func (m *Manager) ClosePeer(peerID string) {
	m.mu.Lock()
	peer, ok := m.conns[peerID]
	delete(m.conns, peerID)
	m.mu.Unlock()

	if !ok {
		return
	}

	m.batcher.Cancel(peerID)
	if err := peer.Close(); err != nil {
		slog.Warn("error closing peer connection", "peer", peerID, "err", err)
	}
	m.roster.RemoveParticipant(peerID)
}

// ReplaceOutboundTrack swaps the payload of the kind-matched sender on every
// connection in place, avoiding renegotiation when switching between camera
// and screen share. Connections without a matching sender are skipped.
func (m *Manager) ReplaceOutboundTrack(newTrack webrtc.TrackLocal) {
	for _, peer := range m.peers() {
		for _, sender := range peer.Senders() {
			current := sender.Track()
			if current == nil || current.Kind() != newTrack.Kind() {
				continue
			}
			if err := sender.ReplaceTrack(newTrack); err != nil {
				slog.Warn("failed to replace outbound track", "peer", peer.id, "err", err)
			}
			break
		}
	}
}

// CloseAll cancels every pending candidate timer and closes every connection.
// Used on room exit, before the signaling channel detaches.
func (m *Manager) CloseAll() {
	m.batcher.CancelAll()

	m.mu.Lock()
	conns := m.conns
	m.conns = make(map[string]*Peer)
	m.mu.Unlock()

	for id, peer := range conns {
		if err := peer.Close(); err != nil {
			slog.Warn("error closing peer connection", "peer", id, "err", err)
		}
		m.roster.RemoveParticipant(id)
	}
}
