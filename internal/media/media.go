// Package media models the local capture collaborator. Actual device access
// (camera, microphone, screen) lives outside the core; the core only needs
// local tracks to attach to peer connections and to swap into senders.
package media

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
)

// Stream is an ordered set of local tracks sharing one stream ID.
type Stream struct {
	tracks []webrtc.TrackLocal
}

// NewStream builds a stream from the given tracks. Nil tracks are skipped.
func NewStream(tracks ...webrtc.TrackLocal) *Stream {
	s := &Stream{}
	for _, t := range tracks {
		if t != nil {
			s.tracks = append(s.tracks, t)
		}
	}
	return s
}

// Tracks returns the local tracks in insertion order.
func (s *Stream) Tracks() []webrtc.TrackLocal {
	if s == nil {
		return nil
	}
	return s.tracks
}

// TrackOfKind returns the first track of the given kind, or nil.
func (s *Stream) TrackOfKind(kind webrtc.RTPCodecType) webrtc.TrackLocal {
	if s == nil {
		return nil
	}
	for _, t := range s.tracks {
		if t.Kind() == kind {
			return t
		}
	}
	return nil
}

// Source is the capture collaborator consumed by the room session.
type Source interface {
	// LocalStream returns the tracks to publish, or nil when capture is
	// unavailable (the client then joins receive-only).
	LocalStream() *Stream

	// CameraTrack returns the current camera track, or nil. Used to swap
	// back after a screen share ends.
	CameraTrack() webrtc.TrackLocal

	// ScreenTrack returns a video track carrying the screen capture,
	// created on first use.
	ScreenTrack() (webrtc.TrackLocal, error)
}

// StaticSource is a placeholder Source backed by sample tracks that carry no
// frames. It lets the client negotiate real audio/video senders without
// device access, e.g. on headless machines.
type StaticSource struct {
	streamID string
	audio    *webrtc.TrackLocalStaticSample
	camera   *webrtc.TrackLocalStaticSample
	screen   *webrtc.TrackLocalStaticSample
}

// NewStaticSource creates a static source with one opus audio track and one
// VP8 camera track.
func NewStaticSource() (*StaticSource, error) {
	streamID := "meet-" + uuid.NewString()

	audio, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
		"audio", streamID,
	)
	if err != nil {
		return nil, fmt.Errorf("create audio track: %w", err)
	}

	camera, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000},
		"camera", streamID,
	)
	if err != nil {
		return nil, fmt.Errorf("create camera track: %w", err)
	}

	return &StaticSource{streamID: streamID, audio: audio, camera: camera}, nil
}

func (s *StaticSource) LocalStream() *Stream {
	return NewStream(s.audio, s.camera)
}

func (s *StaticSource) CameraTrack() webrtc.TrackLocal {
	return s.camera
}

func (s *StaticSource) ScreenTrack() (webrtc.TrackLocal, error) {
	if s.screen == nil {
		screen, err := webrtc.NewTrackLocalStaticSample(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000},
			"screen", s.streamID,
		)
		if err != nil {
			return nil, fmt.Errorf("create screen track: %w", err)
		}
		s.screen = screen
	}
	return s.screen, nil
}
