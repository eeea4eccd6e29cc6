package room

import (
	"log/slog"
	"sync"

	"github.com/Manish-keer19/meeting-app/internal/rtc"
	"github.com/Manish-keer19/meeting-app/internal/signaling"
)

// Status is the client-wide connection status. It only moves forward:
// connecting→waiting, connecting→joined and waiting→joined are the legal
// advances into the active state; rejected is terminal.
type Status int

const (
	StatusConnecting Status = iota
	StatusWaiting
	StatusJoined
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusWaiting:
		return "waiting"
	case StatusJoined:
		return "joined"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// PendingJoinRequest is one entry in the host-side approval queue.
type PendingJoinRequest struct {
	UserID   string
	UserName string
}

// Admission is the client-side join-handshake state machine plus the
// host-side queue of incoming join requests.
type Admission struct {
	signal   rtc.Sender
	roomID   string
	notifier Notifier

	// disconnect detaches the signaling channel when rejection is final.
	disconnect func()

	onStatus  func(Status)
	onPending func()

	mu      sync.Mutex
	status  Status
	pending []PendingJoinRequest
}

func NewAdmission(signal rtc.Sender, roomID string, notifier Notifier, disconnect func()) *Admission {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Admission{
		signal:     signal,
		roomID:     roomID,
		notifier:   notifier,
		disconnect: disconnect,
		status:     StatusConnecting,
	}
}

// OnStatusChange registers the callback fired on every status advance.
func (a *Admission) OnStatusChange(fn func(Status)) {
	a.mu.Lock()
	a.onStatus = fn
	a.mu.Unlock()
}

// OnPendingChange registers the callback fired when the request queue moves.
func (a *Admission) OnPendingChange(fn func()) {
	a.mu.Lock()
	a.onPending = fn
	a.mu.Unlock()
}

// Status returns the current connection status.
func (a *Admission) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// advance applies the transition rules and reports whether the status moved.
func (a *Admission) advance(next Status) bool {
	a.mu.Lock()
	legal := false
	switch next {
	case StatusWaiting:
		legal = a.status == StatusConnecting
	case StatusJoined:
		legal = a.status == StatusConnecting || a.status == StatusWaiting
	case StatusRejected:
		legal = a.status != StatusRejected
	}
	if legal {
		a.status = next
	}
	fn := a.onStatus
	a.mu.Unlock()

	if legal {
		slog.Info("connection status changed", "status", next.String())
		if fn != nil {
			fn(next)
		}
	}
	return legal
}

// HandleWaiting processes an inbound waiting-for-approval event.
func (a *Admission) HandleWaiting() {
	a.advance(StatusWaiting)
}

// HandleApproved processes an inbound join-approved event.
func (a *Admission) HandleApproved() {
	if a.advance(StatusJoined) {
		a.notifier.Admitted()
	}
}

// HandleRejected processes an inbound join-rejected event. Rejection is
// terminal: the signaling channel is detached and no later event can change
// the status again.
func (a *Admission) HandleRejected() {
	if a.advance(StatusRejected) && a.disconnect != nil {
		a.disconnect()
	}
}

// MarkJoined records the fast path: receiving the initial roster snapshot
// means this client is in the room, approval implied.
func (a *Admission) MarkJoined() {
	a.advance(StatusJoined)
}

// Enqueue adds a host-side join request. A requester already waiting is not
// duplicated.
func (a *Admission) Enqueue(userID, userName string) {
	a.mu.Lock()
	for _, req := range a.pending {
		if req.UserID == userID {
			a.mu.Unlock()
			return
		}
	}
	a.pending = append(a.pending, PendingJoinRequest{UserID: userID, UserName: userName})
	fn := a.onPending
	a.mu.Unlock()

	a.notifier.JoinRequested(userName)
	if fn != nil {
		fn()
	}
}

// Pending returns the queued join requests in arrival order.
func (a *Admission) Pending() []PendingJoinRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]PendingJoinRequest, len(a.pending))
	copy(out, a.pending)
	return out
}

// Admit approves the queued request for userID and tells the server.
// Unknown or already-resolved ids are ignored.
func (a *Admission) Admit(userID string) {
	if !a.resolve(userID) {
		return
	}
	a.signal.Send(signaling.EventAdmitUser, signaling.AdmissionDecision{
		UserID: userID,
		RoomID: a.roomID,
	})
}

// Reject declines the queued request for userID and tells the server.
func (a *Admission) Reject(userID string) {
	if !a.resolve(userID) {
		return
	}
	a.signal.Send(signaling.EventRejectUser, signaling.AdmissionDecision{
		UserID: userID,
		RoomID: a.roomID,
	})
}

// resolve removes userID from the queue, reporting whether it was pending.
func (a *Admission) resolve(userID string) bool {
	a.mu.Lock()
	found := false
	for i, req := range a.pending {
		if req.UserID == userID {
			a.pending = append(a.pending[:i], a.pending[i+1:]...)
			found = true
			break
		}
	}
	fn := a.onPending
	a.mu.Unlock()

	if found && fn != nil {
		fn()
	}
	return found
}
