package signaling

import (
	"encoding/json"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
)

// Envelope is the wire unit relayed between participants. Data carries chat
// payloads, WebRTC offer/answer/ICE blobs and control notifications opaquely.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
	To   string          `json:"to,omitempty"`
	From string          `json:"from,omitempty"`
}

// Envelope types.
const (
	TypeChatMessage       = "chat-message"
	TypeOffer             = "offer"
	TypeAnswer            = "answer"
	TypeICECandidate      = "ice-candidate"
	TypeParticipantUpdate = "participant-update"
	TypeMatchFound        = "match-found"
	TypeQueueStatus       = "queue-status"
	TypeUserJoined        = "user-joined"
	TypeUserLeft          = "user-left"
	TypePartnerLeft       = "partner-left"
	TypeReport            = "report"
)

// MatchFoundData notifies a queued participant about a confirmed pairing.
type MatchFoundData struct {
	RoomID  string            `json:"roomId"`
	Partner model.Participant `json:"partner"`
}

// ChatMessageData is the chat payload inside a chat-message envelope.
type ChatMessageData struct {
	MessageID string `json:"messageId"`
	Text      string `json:"text"`
	SentAt    int64  `json:"sentAt"`
}

func NewEnvelope(envType, from, to string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: envType, Data: raw, From: from, To: to}, nil
}
