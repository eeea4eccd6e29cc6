package room

import (
	"github.com/Manish-keer19/meeting-app/internal/rtc"
	"github.com/Manish-keer19/meeting-app/internal/signaling"
)

// Emitter translates local media-toggle actions into outbound status
// messages. It is stateless and fire-and-forget; peers' own toggles come
// back through media-status-update and are applied to the roster elsewhere.
type Emitter struct {
	signal rtc.Sender
	roomID string
}

func NewEmitter(signal rtc.Sender, roomID string) *Emitter {
	return &Emitter{signal: signal, roomID: roomID}
}

// ToggleMediaStatus announces a local mic or camera toggle.
func (e *Emitter) ToggleMediaStatus(kind string, isOn bool) {
	e.signal.Send(signaling.EventToggleMedia, signaling.MediaStatusPayload{
		RoomID: e.roomID,
		Kind:   kind,
		IsOn:   isOn,
	})
}

// EmitScreenShareStatus announces a screen-share start or stop.
func (e *Emitter) EmitScreenShareStatus(isSharing bool) {
	e.signal.Send(signaling.EventScreenShareStatus, signaling.ScreenSharePayload{
		RoomID:    e.roomID,
		IsSharing: isSharing,
	})
}
