package rtc

import (
	"log/slog"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/vmihailenco/msgpack/v5"
)

const chatChannelLabel = "chat"

// ChatMessage is the msgpack frame exchanged over the per-peer chat data
// channel.
type ChatMessage struct {
	Name   string `msgpack:"name"`
	Text   string `msgpack:"text"`
	SentAt int64  `msgpack:"sentAt"`
}

// OnChat registers the callback for inbound chat messages.
func (m *Manager) OnChat(fn func(peerID string, msg ChatMessage)) {
	m.chatMu.Lock()
	defer m.chatMu.Unlock()
	m.chatFn = fn
}

// openChat creates the chat data channel on an initiator connection. The
// answering side picks it up via OnDataChannel.
func (m *Manager) openChat(peer *Peer) {
	dc, err := peer.pc.CreateDataChannel(chatChannelLabel, nil)
	if err != nil {
		slog.Warn("failed to create chat channel", "peer", peer.id, "err", err)
		return
	}
	m.bindChat(peer, dc)
}

func (m *Manager) bindChat(peer *Peer, dc *webrtc.DataChannel) {
	peer.setChat(dc)

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		var cm ChatMessage
		if err := msgpack.Unmarshal(msg.Data, &cm); err != nil {
			slog.Warn("malformed chat message", "peer", peer.id, "err", err)
			return
		}

		m.chatMu.RLock()
		fn := m.chatFn
		m.chatMu.RUnlock()
		if fn != nil {
			fn(peer.id, cm)
		}
	})
}

// BroadcastChat sends a chat message to every peer whose channel is open.
func (m *Manager) BroadcastChat(text string) {
	data, err := msgpack.Marshal(ChatMessage{
		Name:   m.userName,
		Text:   text,
		SentAt: time.Now().UnixMilli(),
	})
	if err != nil {
		slog.Warn("failed to marshal chat message", "err", err)
		return
	}

	for _, peer := range m.peers() {
		dc := peer.chatChannel()
		if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
			continue
		}
		if err := dc.Send(data); err != nil {
			slog.Warn("failed to send chat message", "peer", peer.id, "err", err)
		}
	}
}
