package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/controller"
	apperrors "github.com/amogelangphejane-blip/Wuuble-sub003/internal/errors"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/httputil"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/middleware"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/rtc"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ControllerFactory builds the per-connection session controller and its
// relay peer manager. forward delivers engine-bound payloads to the client.
type ControllerFactory func(self model.Participant, forward func(kind string, payload json.RawMessage)) (*controller.Controller, *rtc.RelayManager)

// WSHandler is the realtime endpoint. Each connection gets one controller;
// all session operations arrive as commands and all controller events leave
// as frames.
type WSHandler struct {
	newController ControllerFactory
}

func NewWSHandler(newController ControllerFactory) *WSHandler {
	return &WSHandler{newController: newController}
}

// command is one inbound client frame.
type command struct {
	Op            string             `json:"op"`
	Text          string             `json:"text,omitempty"`
	Preferences   *model.Preferences `json:"preferences,omitempty"`
	MediaGranted  *bool              `json:"mediaGranted,omitempty"`
	Enabled       bool               `json:"enabled,omitempty"`
	Active        bool               `json:"active,omitempty"`
	Open          bool               `json:"open,omitempty"`
	Reason        string             `json:"reason,omitempty"`
	Description   string             `json:"description,omitempty"`
	CallID        string             `json:"callId,omitempty"`
	CommunityID   string             `json:"communityId,omitempty"`
	SignalType    string             `json:"signalType,omitempty"`
	Payload       json.RawMessage    `json:"payload,omitempty"`
	State         string             `json:"state,omitempty"`
	ParticipantID string             `json:"participantId,omitempty"`
}

// frame is one outbound server frame.
type frame struct {
	Type          string                  `json:"type"`
	Op            string                  `json:"op,omitempty"`
	State         string                  `json:"state,omitempty"`
	Status        *model.QueueStatus      `json:"status,omitempty"`
	Participant   *model.Participant      `json:"participant,omitempty"`
	ParticipantID string                  `json:"participantId,omitempty"`
	Message       *model.ChatMessage      `json:"message,omitempty"`
	Count         int                     `json:"count,omitempty"`
	Reason        string                  `json:"reason,omitempty"`
	Quality       string                  `json:"quality,omitempty"`
	SignalType    string                  `json:"signalType,omitempty"`
	Payload       json.RawMessage         `json:"payload,omitempty"`
	Error         *httputil.ErrorResponse `json:"error,omitempty"`
}

type wsClient struct {
	conn  *websocket.Conn
	send  chan frame
	ctrl  *controller.Controller
	peers *rtc.RelayManager

	mu     sync.Mutex
	closed bool
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	participant := middleware.GetParticipant(r.Context())
	if participant == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan frame, sendBuffer),
	}

	ctrl, peers := h.newController(*participant, func(kind string, payload json.RawMessage) {
		client.push(frame{Type: "signal", SignalType: kind, Payload: payload})
	})
	client.ctrl = ctrl
	client.peers = peers

	ctrl.SetEvents(client.controllerEvents())

	log.Info().
		Str("participantId", participant.ParticipantID).
		Str("userId", participant.UserID).
		Msg("websocket connected")

	go client.writePump()
	client.readPump()
}

func (c *wsClient) controllerEvents() controller.Events {
	return controller.Events{
		OnStateChange: func(state controller.State) {
			c.push(frame{Type: "state", State: string(state)})
		},
		OnQueueStatus: func(status model.QueueStatus) {
			s := status
			c.push(frame{Type: "queue", Status: &s})
		},
		OnPartnerJoined: func(p model.Participant) {
			c.push(frame{Type: "partner-joined", Participant: &p})
		},
		OnPartnerUpdated: func(p model.Participant) {
			c.push(frame{Type: "partner-updated", Participant: &p})
		},
		OnParticipantLeft: func(participantID string) {
			c.push(frame{Type: "participant-left", ParticipantID: participantID})
		},
		OnMessage: func(msg model.ChatMessage) {
			m := msg
			c.push(frame{Type: "message", Message: &m})
		},
		OnUnreadCount: func(count int) {
			c.push(frame{Type: "unread", Count: count})
		},
		OnWarning: func(reason string) {
			c.push(frame{Type: "warning", Reason: reason})
		},
		OnSessionEnded: func(reason model.EndReason) {
			c.push(frame{Type: "session-ended", Reason: string(reason)})
		},
		OnQualityChange: func(q model.ConnectionQuality) {
			c.push(frame{Type: "quality", Quality: string(q)})
		},
		OnRemoteStream: func(participantID string) {
			c.push(frame{Type: "remote-stream", ParticipantID: participantID})
		},
		OnError: func(err error) {
			c.pushError("", err)
		},
	}
}

// push enqueues a frame, dropping it when the client cannot keep up.
func (c *wsClient) push(f frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	select {
	case c.send <- f:
	default:
		log.Warn().Str("type", f.Type).Msg("dropping frame for slow websocket client")
	}
}

func (c *wsClient) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *wsClient) pushError(op string, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Internal("An unexpected error occurred")
	}
	c.push(frame{
		Type: "error",
		Op:   op,
		Error: &httputil.ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		},
	})
}

func (c *wsClient) readPump() {
	defer func() {
		c.ctrl.Close()
		c.closeSend()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		var cmd command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.pushError("", apperrors.InvalidInput("command", "must be valid JSON"))
			continue
		}
		c.handleCommand(cmd)
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(f); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) handleCommand(cmd command) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	switch cmd.Op {
	case "start_search":
		if cmd.MediaGranted != nil {
			c.peers.SetMediaPermission(*cmd.MediaGranted)
		}
		prefs := model.Preferences{}
		if cmd.Preferences != nil {
			prefs = *cmd.Preferences
		}
		err = c.ctrl.StartSearch(ctx, prefs)

	case "next":
		err = c.ctrl.NextPartner(ctx)

	case "end", "cancel_search":
		err = c.ctrl.EndChat(ctx)

	case "message":
		err = c.ctrl.SendMessage(ctx, cmd.Text)

	case "report":
		err = c.ctrl.ReportUser(ctx, model.ReportReason(cmd.Reason), cmd.Description)

	case "toggle_video":
		err = c.ctrl.ToggleVideo(ctx, cmd.Enabled)

	case "toggle_audio":
		err = c.ctrl.ToggleAudio(ctx, cmd.Enabled)

	case "screen_share":
		if cmd.Active {
			err = c.ctrl.StartScreenShare(ctx)
		} else {
			err = c.ctrl.StopScreenShare(ctx)
		}

	case "chat_open":
		c.ctrl.SetChatOpen(cmd.Open)

	case "host_call":
		err = c.ctrl.HostCall(ctx, cmd.CommunityID)

	case "join_call":
		err = c.ctrl.JoinCall(ctx, cmd.CallID)

	case "signal":
		c.peers.EmitSignal(cmd.SignalType, cmd.Payload)

	case "peer_state":
		c.peers.UpdateState(rtc.ConnectionState(cmd.State))

	case "remote_stream":
		c.peers.RemoteStreamReady(cmd.ParticipantID)

	default:
		err = apperrors.InvalidInput("op", cmd.Op)
	}

	if err != nil {
		c.pushError(cmd.Op, err)
	}
}
