package rtc

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type forwardRecorder struct {
	mu    sync.Mutex
	kinds []string
}

func (f *forwardRecorder) forward(kind string, payload json.RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
}

func (f *forwardRecorder) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.kinds...)
}

func TestRelayManager_AcquireMedia(t *testing.T) {
	ctx := context.Background()

	t.Run("grants by default", func(t *testing.T) {
		m := NewRelayManager((&forwardRecorder{}).forward)

		media, err := m.AcquireMedia(ctx, DefaultConstraints)
		require.NoError(t, err)
		assert.True(t, media.Enabled(TrackVideo))
		assert.True(t, media.Enabled(TrackAudio))
	})

	t.Run("denial surfaces ErrPermissionDenied", func(t *testing.T) {
		m := NewRelayManager((&forwardRecorder{}).forward)
		m.SetMediaPermission(false)

		_, err := m.AcquireMedia(ctx, DefaultConstraints)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("constraints set the initial track state", func(t *testing.T) {
		m := NewRelayManager((&forwardRecorder{}).forward)

		media, err := m.AcquireMedia(ctx, MediaConstraints{Video: true, Audio: false})
		require.NoError(t, err)
		assert.True(t, media.Enabled(TrackVideo))
		assert.False(t, media.Enabled(TrackAudio))
	})
}

func TestRelayManager_SignalFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("client signals reach the registered handler", func(t *testing.T) {
		m := NewRelayManager((&forwardRecorder{}).forward)

		var gotType string
		var gotPayload json.RawMessage
		m.SetSignalHandler(func(envType string, payload json.RawMessage) {
			gotType = envType
			gotPayload = payload
		})

		m.EmitSignal("offer", json.RawMessage(`{"sdp":"v=0"}`))
		assert.Equal(t, "offer", gotType)
		assert.JSONEq(t, `{"sdp":"v=0"}`, string(gotPayload))
	})

	t.Run("relayed signals are forwarded to the client", func(t *testing.T) {
		rec := &forwardRecorder{}
		m := NewRelayManager(rec.forward)

		require.NoError(t, m.HandleSignal(ctx, "answer", json.RawMessage(`{}`)))
		assert.Equal(t, []string{"answer"}, rec.all())
	})

	t.Run("state updates reach the registered handler", func(t *testing.T) {
		m := NewRelayManager((&forwardRecorder{}).forward)

		var got ConnectionState
		m.SetStateHandler(func(state ConnectionState) { got = state })

		m.UpdateState(StateConnected)
		assert.Equal(t, StateConnected, got)
	})

	t.Run("remote stream arrivals reach the registered handler", func(t *testing.T) {
		m := NewRelayManager((&forwardRecorder{}).forward)

		var got string
		m.SetRemoteStreamHandler(func(participantID string) { got = participantID })

		m.RemoteStreamReady("p-1")
		assert.Equal(t, "p-1", got)
	})
}

func TestRelayManager_Close(t *testing.T) {
	ctx := context.Background()
	rec := &forwardRecorder{}
	m := NewRelayManager(rec.forward)

	media, err := m.AcquireMedia(ctx, DefaultConstraints)
	require.NoError(t, err)

	m.Close()

	assert.Contains(t, rec.all(), "peer-close")
	// A released stream reports every track disabled.
	assert.False(t, media.Enabled(TrackVideo))
}

func TestRelayManager_ScreenShare(t *testing.T) {
	ctx := context.Background()
	rec := &forwardRecorder{}
	m := NewRelayManager(rec.forward)

	require.NoError(t, m.StartScreenShare(ctx))
	require.NoError(t, m.StopScreenShare(ctx))

	assert.Equal(t, []string{"screen-share-start", "screen-share-stop"}, rec.all())
}

func TestRelayMedia_ReleaseIsSticky(t *testing.T) {
	media := &relayMedia{enabled: map[TrackKind]bool{TrackVideo: true}}

	media.Release()
	media.SetEnabled(TrackVideo, true)

	assert.False(t, media.Enabled(TrackVideo))

	// A second release stays a no-op.
	media.Release()
}
