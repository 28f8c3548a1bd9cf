package controller

import (
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
)

// State is the controller's position in the session lifecycle.
type State string

const (
	StateDisconnected State = "disconnected"
	StateSearching    State = "searching"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// Events are the UI-facing callbacks the controller delivers. Unset callbacks
// are skipped. Callbacks may fire from internal goroutines; handlers must not
// call back into the controller synchronously.
type Events struct {
	OnStateChange     func(state State)
	OnQueueStatus     func(status model.QueueStatus)
	OnPartnerJoined   func(p model.Participant)
	OnPartnerUpdated  func(p model.Participant)
	OnParticipantLeft func(participantID string)
	OnMessage         func(msg model.ChatMessage)
	OnUnreadCount     func(count int)
	OnWarning         func(reason string)
	OnSessionEnded    func(reason model.EndReason)
	OnQualityChange   func(q model.ConnectionQuality)
	OnRemoteStream    func(participantID string)
	OnError           func(err error)
}

func (e Events) stateChange(state State) {
	if e.OnStateChange != nil {
		e.OnStateChange(state)
	}
}

func (e Events) sessionEnded(reason model.EndReason) {
	if e.OnSessionEnded != nil {
		e.OnSessionEnded(reason)
	}
}

func (e Events) emitError(err error) {
	if e.OnError != nil {
		e.OnError(err)
	}
}
