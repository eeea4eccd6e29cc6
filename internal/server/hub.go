package server

import (
	"encoding/json"
	"log/slog"

	"github.com/Manish-keer19/meeting-app/internal/signaling"
)

// inbound pairs an envelope with the client that sent it.
type inbound struct {
	client *Client
	env    *signaling.Envelope
}

// Hub is the central brain of the signaling server. Its Run loop is the
// single goroutine that owns all room state, so no handler ever races
// another.
type Hub struct {
	Rooms map[string]*Room

	Register   chan *Client
	Unregister chan *Client
	Inbound    chan *inbound
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]*Room),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan *inbound),
	}
}

// Run starts the hub's main processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			slog.Debug("client registered", "client", client.ID, "addr", client.Conn.RemoteAddr())

		case client := <-h.Unregister:
			slog.Debug("client unregistered", "client", client.ID)
			h.removeClient(client)
			close(client.Send)

		case msg := <-h.Inbound:
			h.handle(msg.client, msg.env)
		}
	}
}

// handle is the core signaling logic, dispatched by event name.
func (h *Hub) handle(c *Client, env *signaling.Envelope) {
	switch env.Event {
	case signaling.EventJoinRoom:
		var req signaling.JoinRoomPayload
		if !h.decode(c, env, &req) {
			return
		}
		h.joinRoom(c, req)

	case signaling.EventAdmitUser:
		var decision signaling.AdmissionDecision
		if !h.decode(c, env, &decision) {
			return
		}
		h.admit(c, decision)

	case signaling.EventRejectUser:
		var decision signaling.AdmissionDecision
		if !h.decode(c, env, &decision) {
			return
		}
		h.reject(c, decision)

	case signaling.EventOffer:
		var offer signaling.OfferPayload
		if !h.decode(c, env, &offer) {
			return
		}
		to := offer.To
		offer.To = ""
		offer.From = c.ID
		h.relay(c, to, signaling.EventOffer, offer)

	case signaling.EventAnswer:
		var answer signaling.AnswerPayload
		if !h.decode(c, env, &answer) {
			return
		}
		to := answer.To
		answer.To = ""
		answer.From = c.ID
		h.relay(c, to, signaling.EventAnswer, answer)

	case signaling.EventICECandidate:
		var cand signaling.CandidatePayload
		if !h.decode(c, env, &cand) {
			return
		}
		to := cand.To
		cand.To = ""
		cand.From = c.ID
		h.relay(c, to, signaling.EventICECandidate, cand)

	case signaling.EventToggleMedia:
		var status signaling.MediaStatusPayload
		if !h.decode(c, env, &status) {
			return
		}
		h.fanOut(c, signaling.EventMediaStatusUpdate, signaling.MediaStatusPayload{
			UserID: c.ID,
			Kind:   status.Kind,
			IsOn:   status.IsOn,
		})

	case signaling.EventScreenShareStatus:
		var status signaling.ScreenSharePayload
		if !h.decode(c, env, &status) {
			return
		}
		h.fanOut(c, signaling.EventScreenShareStatus, signaling.ScreenSharePayload{
			UserID:    c.ID,
			IsSharing: status.IsSharing,
		})

	case signaling.EventLeaveRoom:
		h.removeClient(c)

	default:
		slog.Debug("unknown signaling event", "event", env.Event, "client", c.ID)
	}
}

// joinRoom admits the first arrival as host and queues everyone else for the
// host's decision.
func (h *Hub) joinRoom(c *Client, req signaling.JoinRoomPayload) {
	if c.RoomID != "" {
		return
	}
	c.Name = req.UserName

	room, ok := h.Rooms[req.RoomID]
	if !ok {
		room = newRoom(req.RoomID, c)
		h.Rooms[req.RoomID] = room
		c.RoomID = req.RoomID

		slog.Info("room created", "room", req.RoomID, "host", c.ID)
		// An empty snapshot doubles as the host's fast-path admission.
		h.send(c, signaling.EventExistingUsers, room.roster(c))
		return
	}

	if room.isMember(c) || room.Pending[c.ID] != nil {
		return
	}

	room.Pending[c.ID] = c
	c.RoomID = req.RoomID

	h.send(c, signaling.EventWaitingForApproval, struct{}{})
	h.send(room.Host, signaling.EventJoinRequest, signaling.UserInfo{
		UserID:   c.ID,
		UserName: c.Name,
	})
}

// admit resolves a pending join request in the requester's favor.
func (h *Hub) admit(c *Client, decision signaling.AdmissionDecision) {
	room := h.Rooms[decision.RoomID]
	if room == nil || room.Host != c {
		return
	}

	requester := room.Pending[decision.UserID]
	if requester == nil {
		// Already resolved or gone; not an error.
		return
	}
	delete(room.Pending, decision.UserID)

	h.send(requester, signaling.EventJoinApproved, struct{}{})
	h.send(requester, signaling.EventExistingUsers, room.roster(requester))

	announcement := signaling.UserInfo{UserID: requester.ID, UserName: requester.Name}
	for _, m := range room.Members {
		h.send(m, signaling.EventUserJoined, announcement)
	}

	room.Members = append(room.Members, requester)
	slog.Info("user admitted", "room", room.ID, "user", requester.ID)
}

// reject resolves a pending join request against the requester.
func (h *Hub) reject(c *Client, decision signaling.AdmissionDecision) {
	room := h.Rooms[decision.RoomID]
	if room == nil || room.Host != c {
		return
	}

	requester := room.Pending[decision.UserID]
	if requester == nil {
		return
	}
	delete(room.Pending, decision.UserID)
	requester.RoomID = ""

	h.send(requester, signaling.EventJoinRejected, struct{}{})
	slog.Info("user rejected", "room", room.ID, "user", requester.ID)
}

// relay forwards a peer-addressed envelope to the target member of the
// sender's room. Unknown targets are dropped.
func (h *Hub) relay(c *Client, to, event string, payload any) {
	room := h.Rooms[c.RoomID]
	if room == nil || !room.isMember(c) {
		return
	}

	target := room.memberByID(to)
	if target == nil {
		slog.Debug("relay target not in room", "room", c.RoomID, "to", to)
		return
	}

	h.send(target, event, payload)
}

// fanOut broadcasts to every member of the sender's room except the sender.
func (h *Hub) fanOut(c *Client, event string, payload any) {
	room := h.Rooms[c.RoomID]
	if room == nil || !room.isMember(c) {
		return
	}

	for _, m := range room.Members {
		if m == c {
			continue
		}
		h.send(m, event, payload)
	}
}

// removeClient takes the client out of its room: pending requesters vanish
// quietly, members are announced with user-left. The last member leaving
// rejects any remaining requesters and deletes the room; a departing host
// hands the role to the oldest member.
func (h *Hub) removeClient(c *Client) {
	if c.RoomID == "" {
		return
	}
	room := h.Rooms[c.RoomID]
	c.RoomID = ""
	if room == nil {
		return
	}

	if room.Pending[c.ID] != nil {
		delete(room.Pending, c.ID)
		return
	}

	if !room.removeMember(c) {
		return
	}

	departure := signaling.UserInfo{UserID: c.ID, UserName: c.Name}
	for _, m := range room.Members {
		h.send(m, signaling.EventUserLeft, departure)
	}

	if len(room.Members) == 0 {
		for _, waiting := range room.Pending {
			waiting.RoomID = ""
			h.send(waiting, signaling.EventJoinRejected, struct{}{})
		}
		delete(h.Rooms, room.ID)
		slog.Info("room deleted", "room", room.ID)
		return
	}

	if room.Host == c {
		room.Host = room.Members[0]
		slog.Info("host changed", "room", room.ID, "host", room.Host.ID)

		// The waiting queue transfers with the role: requesters only ever
		// announced themselves to the old host.
		for _, waiting := range room.Pending {
			h.send(room.Host, signaling.EventJoinRequest, signaling.UserInfo{
				UserID:   waiting.ID,
				UserName: waiting.Name,
			})
		}
	}
}

// send queues an envelope for a client, dropping it if the client's buffer
// is full (a stuck connection must not stall the hub loop).
func (h *Hub) send(c *Client, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal payload", "event", event, "err", err)
		return
	}

	env := &signaling.Envelope{Event: event, Payload: data}
	select {
	case c.Send <- env:
	default:
		slog.Warn("client send buffer full, dropping", "client", c.ID, "event", event)
	}
}

func (h *Hub) decode(c *Client, env *signaling.Envelope, v any) bool {
	if err := json.Unmarshal(env.Payload, v); err != nil {
		slog.Warn("malformed payload", "event", env.Event, "client", c.ID, "err", err)
		return false
	}
	return true
}
