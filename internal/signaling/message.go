package signaling

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
)

// Envelope is the framing for every message exchanged with the signaling
// server: a logical event name plus an event-specific JSON payload.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event name constants.
const (
	// Client to server
	EventJoinRoom   = "join-room"
	EventAdmitUser  = "admit-user"
	EventRejectUser = "reject-user"
	EventLeaveRoom  = "leave-room"

	// Server to client
	EventWaitingForApproval = "waiting-for-approval"
	EventJoinApproved       = "join-approved"
	EventJoinRejected       = "join-rejected"
	EventJoinRequest        = "join-request"
	EventExistingUsers      = "existing-users"
	EventUserJoined         = "user-joined"
	EventUserLeft           = "user-left"

	// Relayed peer-to-peer
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice-candidate"

	// Media status
	EventToggleMedia       = "toggle-media"
	EventMediaStatusUpdate = "media-status-update"
	EventScreenShareStatus = "screen-share-status"
)

// Media kinds carried by toggle-media / media-status-update.
const (
	KindAudio = "audio"
	KindVideo = "video"
)

// JoinRoomPayload is sent by a client requesting entry into a room.
type JoinRoomPayload struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
}

// UserInfo identifies a participant. Used by join-request, existing-users,
// user-joined and user-left.
type UserInfo struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// AdmissionDecision is sent by the host to admit or reject a requester.
type AdmissionDecision struct {
	UserID string `json:"userId"`
	RoomID string `json:"roomId"`
}

// OfferPayload carries a session description offer between two peers.
// Clients set To; the server stamps From before relaying.
type OfferPayload struct {
	To       string                    `json:"to,omitempty"`
	From     string                    `json:"from,omitempty"`
	UserName string                    `json:"userName"`
	Offer    webrtc.SessionDescription `json:"offer"`
}

// AnswerPayload carries a session description answer between two peers.
type AnswerPayload struct {
	To     string                    `json:"to,omitempty"`
	From   string                    `json:"from,omitempty"`
	Answer webrtc.SessionDescription `json:"answer"`
}

// CandidatePayload carries a single ICE candidate between two peers.
type CandidatePayload struct {
	To        string                  `json:"to,omitempty"`
	From      string                  `json:"from,omitempty"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

// MediaStatusPayload reports a mic or camera toggle. Outbound (toggle-media)
// carries RoomID; the fan-out (media-status-update) carries UserID instead.
type MediaStatusPayload struct {
	RoomID string `json:"roomId,omitempty"`
	UserID string `json:"userId,omitempty"`
	Kind   string `json:"kind"`
	IsOn   bool   `json:"isOn"`
}

// ScreenSharePayload reports screen-share start/stop. UserID is stamped by
// the server on fan-out.
type ScreenSharePayload struct {
	RoomID    string `json:"roomId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	IsSharing bool   `json:"isSharing"`
}
