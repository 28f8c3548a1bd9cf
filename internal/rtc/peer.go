package rtc

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrPermissionDenied distinguishes a camera/microphone denial from generic
// connection failure. Callers branch on it to prompt for permissions instead
// of retrying.
var ErrPermissionDenied = errors.New("media permission denied")

// TrackKind identifies one media track of a local stream.
type TrackKind string

const (
	TrackVideo  TrackKind = "video"
	TrackAudio  TrackKind = "audio"
	TrackScreen TrackKind = "screen"
)

// MediaConstraints passed to media acquisition.
type MediaConstraints struct {
	Video            bool
	Audio            bool
	Width            int
	Height           int
	EchoCancellation bool
}

// DefaultConstraints is the baseline used for random video chat.
var DefaultConstraints = MediaConstraints{
	Video:            true,
	Audio:            true,
	Width:            1280,
	Height:           720,
	EchoCancellation: true,
}

// LocalMedia owns the acquired tracks. Release is idempotent: the stream is
// released exactly once and further calls are no-ops.
type LocalMedia interface {
	SetEnabled(kind TrackKind, enabled bool)
	Enabled(kind TrackKind) bool
	Release()
}

// ConnectionState mirrors the underlying peer-connection engine's states.
type ConnectionState string

const (
	StateNew          ConnectionState = "new"
	StateChecking     ConnectionState = "checking"
	StateConnected    ConnectionState = "connected"
	StateCompleted    ConnectionState = "completed"
	StateDisconnected ConnectionState = "disconnected"
	StateFailed       ConnectionState = "failed"
	StateClosed       ConnectionState = "closed"
)

// Manager wraps the peer-connection engine. The engine itself is an external
// collaborator; this interface is everything the session controller depends
// on.
type Manager interface {
	// AcquireMedia requests camera/microphone access. Returns
	// ErrPermissionDenied (possibly wrapped) when the user refuses.
	AcquireMedia(ctx context.Context, constraints MediaConstraints) (LocalMedia, error)

	// AttachLocalMedia binds the acquired stream to the outgoing connection.
	AttachLocalMedia(media LocalMedia) error

	// SetRemoteStreamHandler registers the callback fired when a remote
	// participant's stream becomes available.
	SetRemoteStreamHandler(handler func(participantID string))

	// SetSignalHandler receives offer/answer/ice payloads the engine emits;
	// the controller relays them through the signaling channel.
	SetSignalHandler(handler func(envType string, payload json.RawMessage))

	// HandleSignal consumes a relayed offer/answer/ice payload.
	HandleSignal(ctx context.Context, envType string, payload json.RawMessage) error

	// SetStateHandler registers the connection-state callback.
	SetStateHandler(handler func(state ConnectionState))

	StartScreenShare(ctx context.Context) error
	StopScreenShare(ctx context.Context) error

	// Close tears down the current peer connection. Idempotent; the manager
	// may negotiate a new connection afterwards.
	Close()
}
