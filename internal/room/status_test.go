package room

import (
	"testing"

	"github.com/Manish-keer19/meeting-app/internal/signaling"
	"github.com/stretchr/testify/assert"
)

func TestEmitterToggleMediaStatus(t *testing.T) {
	sender := &fakeSender{}
	e := NewEmitter(sender, "room-1")

	e.ToggleMediaStatus(signaling.KindAudio, false)
	e.ToggleMediaStatus(signaling.KindVideo, true)

	assert.Len(t, sender.sent, 2)
	assert.Equal(t, signaling.EventToggleMedia, sender.sent[0].event)

	first := sender.sent[0].payload.(signaling.MediaStatusPayload)
	assert.Equal(t, "room-1", first.RoomID)
	assert.Equal(t, signaling.KindAudio, first.Kind)
	assert.False(t, first.IsOn)

	second := sender.sent[1].payload.(signaling.MediaStatusPayload)
	assert.Equal(t, signaling.KindVideo, second.Kind)
	assert.True(t, second.IsOn)
}

func TestEmitterScreenShareStatus(t *testing.T) {
	sender := &fakeSender{}
	e := NewEmitter(sender, "room-1")

	e.EmitScreenShareStatus(true)
	e.EmitScreenShareStatus(false)

	assert.Len(t, sender.sent, 2)
	assert.Equal(t, signaling.EventScreenShareStatus, sender.sent[0].event)

	start := sender.sent[0].payload.(signaling.ScreenSharePayload)
	assert.True(t, start.IsSharing)
	stop := sender.sent[1].payload.(signaling.ScreenSharePayload)
	assert.False(t, stop.IsSharing)
}
