package rtc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// RelayManager implements Manager for clients whose peer-connection engine
// runs remotely. Media permission outcomes and connection states are reported
// by the client; negotiation payloads are forwarded back to it verbatim.
type RelayManager struct {
	forward func(kind string, payload json.RawMessage)

	mu            sync.Mutex
	granted       bool
	media         *relayMedia
	signalHandler func(envType string, payload json.RawMessage)
	stateHandler  func(state ConnectionState)
	remoteHandler func(participantID string)
}

func NewRelayManager(forward func(kind string, payload json.RawMessage)) *RelayManager {
	return &RelayManager{
		forward: forward,
		granted: true,
	}
}

// SetMediaPermission records the client-reported permission outcome. Must be
// set before AcquireMedia runs.
func (m *RelayManager) SetMediaPermission(granted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.granted = granted
}

// EmitSignal injects a client-produced offer/answer/ICE payload.
func (m *RelayManager) EmitSignal(envType string, payload json.RawMessage) {
	m.mu.Lock()
	handler := m.signalHandler
	m.mu.Unlock()
	if handler != nil {
		handler(envType, payload)
	}
}

// UpdateState injects a client-reported connection state change.
func (m *RelayManager) UpdateState(state ConnectionState) {
	m.mu.Lock()
	handler := m.stateHandler
	m.mu.Unlock()
	if handler != nil {
		handler(state)
	}
}

// RemoteStreamReady injects a client-reported remote stream arrival.
func (m *RelayManager) RemoteStreamReady(participantID string) {
	m.mu.Lock()
	handler := m.remoteHandler
	m.mu.Unlock()
	if handler != nil {
		handler(participantID)
	}
}

func (m *RelayManager) AcquireMedia(ctx context.Context, constraints MediaConstraints) (LocalMedia, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.granted {
		return nil, fmt.Errorf("client denied media: %w", ErrPermissionDenied)
	}

	m.media = &relayMedia{
		enabled: map[TrackKind]bool{
			TrackVideo: constraints.Video,
			TrackAudio: constraints.Audio,
		},
	}
	return m.media, nil
}

func (m *RelayManager) AttachLocalMedia(media LocalMedia) error {
	return nil
}

func (m *RelayManager) SetRemoteStreamHandler(handler func(participantID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remoteHandler = handler
}

func (m *RelayManager) SetSignalHandler(handler func(envType string, payload json.RawMessage)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signalHandler = handler
}

// HandleSignal forwards a relayed negotiation payload to the client engine.
func (m *RelayManager) HandleSignal(ctx context.Context, envType string, payload json.RawMessage) error {
	m.forward(envType, payload)
	return nil
}

func (m *RelayManager) SetStateHandler(handler func(state ConnectionState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateHandler = handler
}

func (m *RelayManager) StartScreenShare(ctx context.Context) error {
	m.forward("screen-share-start", nil)
	return nil
}

func (m *RelayManager) StopScreenShare(ctx context.Context) error {
	m.forward("screen-share-stop", nil)
	return nil
}

func (m *RelayManager) Close() {
	m.mu.Lock()
	media := m.media
	m.media = nil
	m.mu.Unlock()

	if media != nil {
		media.Release()
	}
	m.forward("peer-close", nil)
}

// relayMedia tracks the client stream's state server-side. The actual tracks
// live in the client engine.
type relayMedia struct {
	mu       sync.Mutex
	enabled  map[TrackKind]bool
	released bool
}

func (m *relayMedia) SetEnabled(kind TrackKind, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return
	}
	m.enabled[kind] = enabled
}

func (m *relayMedia) Enabled(kind TrackKind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.released && m.enabled[kind]
}

func (m *relayMedia) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = true
}
