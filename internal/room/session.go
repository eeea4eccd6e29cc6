package room

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Manish-keer19/meeting-app/internal/config"
	"github.com/Manish-keer19/meeting-app/internal/media"
	"github.com/Manish-keer19/meeting-app/internal/rtc"
	"github.com/Manish-keer19/meeting-app/internal/signaling"
)

// subscribedEvents is every inbound event a session handles. Kept in one
// place so Leave can detach them all.
var subscribedEvents = []string{
	signaling.EventWaitingForApproval,
	signaling.EventJoinApproved,
	signaling.EventJoinRejected,
	signaling.EventJoinRequest,
	signaling.EventExistingUsers,
	signaling.EventUserJoined,
	signaling.EventUserLeft,
	signaling.EventOffer,
	signaling.EventAnswer,
	signaling.EventICECandidate,
	signaling.EventMediaStatusUpdate,
	signaling.EventScreenShareStatus,
}

// Session orchestrates one room visit: it wires inbound signaling into the
// admission flow, the roster and the peer connection manager, and exposes
// the operations the rendering collaborator calls.
type Session struct {
	cfg      *config.Config
	channel  *signaling.Channel
	source   media.Source
	roomID   string
	userName string

	roster    *Roster
	admission *Admission
	emitter   *Emitter
	manager   *rtc.Manager

	mu       sync.Mutex
	micOn    bool
	cameraOn bool
	sharing  bool
	joinedAt time.Time

	leaveOnce sync.Once

	// Callbacks for the rendering collaborator. Set before Join.
	OnRosterChange  func()
	OnStatusChange  func(Status)
	OnPendingChange func()
	OnChatMessage   func(peerID string, msg rtc.ChatMessage)
	OnDisconnected  func(err error)
}

// NewSession builds a session over the given signaling channel. The channel
// may be shared across consecutive sessions; it is connected by Join and only
// detached, never closed, by Leave.
func NewSession(cfg *config.Config, channel *signaling.Channel, source media.Source, roomID, userName string, notifier Notifier) *Session {
	s := &Session{
		cfg:      cfg,
		channel:  channel,
		source:   source,
		roomID:   roomID,
		userName: userName,
		micOn:    true,
		cameraOn: true,
	}

	s.roster = NewRoster()
	s.manager = rtc.NewManager(cfg, channel, s.roster, userName)
	s.admission = NewAdmission(channel, roomID, notifier, channel.Disconnect)
	s.emitter = NewEmitter(channel, roomID)

	s.roster.OnChange(func() {
		if s.OnRosterChange != nil {
			s.OnRosterChange()
		}
	})
	s.admission.OnStatusChange(func(st Status) {
		if st == StatusJoined {
			s.mu.Lock()
			s.joinedAt = time.Now()
			s.mu.Unlock()
		}
		if s.OnStatusChange != nil {
			s.OnStatusChange(st)
		}
	})
	s.admission.OnPendingChange(func() {
		if s.OnPendingChange != nil {
			s.OnPendingChange()
		}
	})
	s.manager.OnChat(func(peerID string, msg rtc.ChatMessage) {
		if s.OnChatMessage != nil {
			s.OnChatMessage(peerID, msg)
		}
	})

	return s
}

// Join connects the signaling channel, installs every event handler and
// emits the join request.
func (s *Session) Join() error {
	if err := s.channel.Connect(); err != nil {
		return fmt.Errorf("join room %s: %w", s.roomID, err)
	}

	s.channel.OnDisconnect = func(err error) {
		if s.OnDisconnected != nil {
			s.OnDisconnected(err)
		}
	}
	s.subscribe()

	return s.channel.Send(signaling.EventJoinRoom, signaling.JoinRoomPayload{
		RoomID:   s.roomID,
		UserName: s.userName,
	})
}

func (s *Session) subscribe() {
	s.channel.Subscribe(signaling.EventWaitingForApproval, func(json.RawMessage) {
		s.admission.HandleWaiting()
	})

	s.channel.Subscribe(signaling.EventJoinApproved, func(json.RawMessage) {
		s.admission.HandleApproved()
	})

	s.channel.Subscribe(signaling.EventJoinRejected, func(json.RawMessage) {
		s.admission.HandleRejected()
	})

	s.channel.Subscribe(signaling.EventJoinRequest, func(raw json.RawMessage) {
		user, ok := decode[signaling.UserInfo](raw, signaling.EventJoinRequest)
		if !ok {
			return
		}
		s.admission.Enqueue(user.UserID, user.UserName)
	})

	// The initial roster snapshot doubles as join approval: seed the roster
	// (deduplicated) and initiate a connection to every existing member.
	s.channel.Subscribe(signaling.EventExistingUsers, func(raw json.RawMessage) {
		users, ok := decode[[]signaling.UserInfo](raw, signaling.EventExistingUsers)
		if !ok {
			return
		}
		s.admission.MarkJoined()
		for _, u := range users {
			s.roster.AddParticipant(u.UserID, u.UserName)
			s.manager.EnsureConnection(u.UserID, u.UserName, true, s.localStream())
		}
	})

	// A newcomer announces itself; the connection is created now and the
	// newcomer's offer completes it.
	s.channel.Subscribe(signaling.EventUserJoined, func(raw json.RawMessage) {
		user, ok := decode[signaling.UserInfo](raw, signaling.EventUserJoined)
		if !ok {
			return
		}
		s.roster.AddParticipant(user.UserID, user.UserName)
		s.manager.EnsureConnection(user.UserID, user.UserName, false, s.localStream())
	})

	s.channel.Subscribe(signaling.EventUserLeft, func(raw json.RawMessage) {
		user, ok := decode[signaling.UserInfo](raw, signaling.EventUserLeft)
		if !ok {
			return
		}
		s.manager.ClosePeer(user.UserID)
	})

	s.channel.Subscribe(signaling.EventOffer, func(raw json.RawMessage) {
		offer, ok := decode[signaling.OfferPayload](raw, signaling.EventOffer)
		if !ok {
			return
		}
		s.manager.HandleOffer(offer.From, offer.UserName, offer.Offer, s.localStream())
	})

	s.channel.Subscribe(signaling.EventAnswer, func(raw json.RawMessage) {
		answer, ok := decode[signaling.AnswerPayload](raw, signaling.EventAnswer)
		if !ok {
			return
		}
		s.manager.HandleAnswer(answer.From, answer.Answer)
	})

	s.channel.Subscribe(signaling.EventICECandidate, func(raw json.RawMessage) {
		cand, ok := decode[signaling.CandidatePayload](raw, signaling.EventICECandidate)
		if !ok {
			return
		}
		s.manager.HandleRemoteCandidate(cand.From, cand.Candidate)
	})

	s.channel.Subscribe(signaling.EventMediaStatusUpdate, func(raw json.RawMessage) {
		status, ok := decode[signaling.MediaStatusPayload](raw, signaling.EventMediaStatusUpdate)
		if !ok {
			return
		}
		s.roster.SetMediaEnabled(status.UserID, status.Kind, status.IsOn)
	})

	s.channel.Subscribe(signaling.EventScreenShareStatus, func(raw json.RawMessage) {
		status, ok := decode[signaling.ScreenSharePayload](raw, signaling.EventScreenShareStatus)
		if !ok {
			return
		}
		s.roster.SetScreenSharing(status.UserID, status.IsSharing)
	})
}

// Leave exits the room exactly once: candidate timers are cancelled and every
// peer connection closed before the channel detaches, then leave-room is
// emitted. The channel itself stays open for the next session.
func (s *Session) Leave() {
	s.leaveOnce.Do(func() {
		s.manager.CloseAll()
		s.channel.Send(signaling.EventLeaveRoom, s.roomID)
		for _, event := range subscribedEvents {
			s.channel.Unsubscribe(event)
		}
	})
}

func (s *Session) localStream() *media.Stream {
	if s.source == nil {
		return nil
	}
	return s.source.LocalStream()
}

// ToggleMic flips the local mic flag and announces it. Returns the new state.
func (s *Session) ToggleMic() bool {
	s.mu.Lock()
	s.micOn = !s.micOn
	on := s.micOn
	s.mu.Unlock()

	s.emitter.ToggleMediaStatus(signaling.KindAudio, on)
	return on
}

// ToggleCamera flips the local camera flag and announces it.
func (s *Session) ToggleCamera() bool {
	s.mu.Lock()
	s.cameraOn = !s.cameraOn
	on := s.cameraOn
	s.mu.Unlock()

	s.emitter.ToggleMediaStatus(signaling.KindVideo, on)
	return on
}

// StartScreenShare swaps the screen track into every video sender and
// announces the share. Already sharing is a no-op.
func (s *Session) StartScreenShare() error {
	s.mu.Lock()
	if s.sharing {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if s.source == nil {
		return fmt.Errorf("start screen share: no media source")
	}

	track, err := s.source.ScreenTrack()
	if err != nil {
		return fmt.Errorf("start screen share: %w", err)
	}

	s.manager.ReplaceOutboundTrack(track)

	s.mu.Lock()
	s.sharing = true
	s.mu.Unlock()

	s.emitter.EmitScreenShareStatus(true)
	return nil
}

// StopScreenShare swaps the camera track back and announces the stop.
func (s *Session) StopScreenShare() {
	s.mu.Lock()
	if !s.sharing {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if s.source != nil {
		if cam := s.source.CameraTrack(); cam != nil {
			s.manager.ReplaceOutboundTrack(cam)
		}
	}

	s.mu.Lock()
	s.sharing = false
	s.mu.Unlock()

	s.emitter.EmitScreenShareStatus(false)
}

// SendChat broadcasts a chat message to every connected peer.
func (s *Session) SendChat(text string) {
	s.manager.BroadcastChat(text)
}

// Admit approves a pending join request.
func (s *Session) Admit(userID string) { s.admission.Admit(userID) }

// Reject declines a pending join request.
func (s *Session) Reject(userID string) { s.admission.Reject(userID) }

// Roster returns the participant set for rendering.
func (s *Session) Roster() *Roster { return s.roster }

// Status returns the current connection status.
func (s *Session) Status() Status { return s.admission.Status() }

// Pending returns the host-side join request queue.
func (s *Session) Pending() []PendingJoinRequest { return s.admission.Pending() }

func (s *Session) RoomID() string { return s.roomID }

func (s *Session) UserName() string { return s.userName }

func (s *Session) MicOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.micOn
}

func (s *Session) CameraOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cameraOn
}

func (s *Session) Sharing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sharing
}

// JoinedAt returns when the session entered the room, zero if it never did.
func (s *Session) JoinedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.joinedAt
}

// decode unmarshals an event payload, logging and discarding malformed ones.
func decode[T any](raw json.RawMessage, event string) (T, bool) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.Warn("malformed signaling payload", "event", event, "err", err)
		return v, false
	}
	return v, true
}
