package signaling

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/matchmaker"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
	redisclient "github.com/amogelangphejane-blip/Wuuble-sub003/internal/redis"
)

// Events are the lifecycle callbacks a Channel delivers. Unset callbacks are
// skipped.
type Events struct {
	OnConnected    func()
	OnDisconnected func(err error)
	OnError        func(err error)
	OnMatchFound   func(roomID string, partner model.Participant)
	OnUserJoined   func(p model.Participant)
	OnUserLeft     func(participantID string)
	OnQueueStatus  func(status model.QueueStatus)
	OnMessage      func(env Envelope)
}

// Channel is the realtime transport used to find partners, exchange
// session-control messages and relay WebRTC negotiation payloads.
type Channel interface {
	Connect(ctx context.Context) error
	Disconnect()
	FindRandomPartner(ctx context.Context, self model.Participant, prefs model.Preferences) error
	CancelSearch(ctx context.Context) error
	JoinGroup(ctx context.Context, roomID string, self model.Participant) error
	LeaveGroup(ctx context.Context, roomID string) error
	Send(ctx context.Context, env Envelope) error
	SetEvents(events Events)
}

// brokerChannel implements Channel on top of the redis pub/sub Broker and the
// in-process matchmaker. One instance per connected participant.
type brokerChannel struct {
	broker  *Broker
	matcher *matchmaker.Service
	selfID  string

	mu        sync.Mutex
	events    Events
	userSub   *Subscriber
	roomSub   *Subscriber
	roomID    string
	connected bool
}

func NewBrokerChannel(broker *Broker, matcher *matchmaker.Service, participantID string) Channel {
	return &brokerChannel{
		broker:  broker,
		matcher: matcher,
		selfID:  participantID,
	}
}

func (c *brokerChannel) SetEvents(events Events) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = events
}

func (c *brokerChannel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.userSub = c.broker.Subscribe(redisclient.UserChannel(c.selfID))
	c.connected = true
	events := c.events
	c.mu.Unlock()

	go c.pump(c.userSub)

	if events.OnConnected != nil {
		events.OnConnected()
	}
	return nil
}

func (c *brokerChannel) Disconnect() {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}
	c.connected = false
	userSub, roomSub := c.userSub, c.roomSub
	c.userSub, c.roomSub = nil, nil
	c.roomID = ""
	c.mu.Unlock()

	c.matcher.Dequeue(c.selfID)
	if userSub != nil {
		c.broker.Unsubscribe(userSub)
	}
	if roomSub != nil {
		c.broker.Unsubscribe(roomSub)
	}
}

func (c *brokerChannel) FindRandomPartner(ctx context.Context, self model.Participant, prefs model.Preferences) error {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()
	if !connected {
		return fmt.Errorf("signaling channel not connected")
	}

	c.matcher.Enqueue(matchmaker.Ticket{Participant: self, Prefs: prefs})
	return nil
}

func (c *brokerChannel) CancelSearch(ctx context.Context) error {
	c.matcher.Dequeue(c.selfID)
	return nil
}

func (c *brokerChannel) JoinGroup(ctx context.Context, roomID string, self model.Participant) error {
	if err := c.joinRoom(roomID); err != nil {
		return err
	}

	env, err := NewEnvelope(TypeUserJoined, c.selfID, "", self)
	if err != nil {
		return err
	}
	return c.broker.Publish(ctx, redisclient.RoomChannel(roomID), env)
}

func (c *brokerChannel) LeaveGroup(ctx context.Context, roomID string) error {
	env := Envelope{Type: TypeUserLeft, From: c.selfID}
	if err := c.broker.Publish(ctx, redisclient.RoomChannel(roomID), env); err != nil {
		log.Warn().Err(err).Str("roomId", roomID).Msg("failed to publish user-left")
	}

	c.mu.Lock()
	roomSub := c.roomSub
	c.roomSub = nil
	c.roomID = ""
	c.mu.Unlock()

	if roomSub != nil {
		c.broker.Unsubscribe(roomSub)
	}
	return nil
}

func (c *brokerChannel) Send(ctx context.Context, env Envelope) error {
	env.From = c.selfID

	if env.To != "" {
		return c.broker.Publish(ctx, redisclient.UserChannel(env.To), env)
	}

	c.mu.Lock()
	roomID := c.roomID
	c.mu.Unlock()
	if roomID == "" {
		return fmt.Errorf("no room to send to")
	}
	return c.broker.Publish(ctx, redisclient.RoomChannel(roomID), env)
}

func (c *brokerChannel) joinRoom(roomID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return fmt.Errorf("signaling channel not connected")
	}
	if c.roomSub != nil {
		c.broker.Unsubscribe(c.roomSub)
	}

	c.roomID = roomID
	c.roomSub = c.broker.Subscribe(redisclient.RoomChannel(roomID))
	go c.pump(c.roomSub)
	return nil
}

func (c *brokerChannel) pump(sub *Subscriber) {
	for {
		select {
		case <-sub.Done:
			c.mu.Lock()
			closedByPeer := c.connected && (sub == c.userSub)
			events := c.events
			c.mu.Unlock()

			// The user subscription closing underneath an active channel
			// means the broker shut down: a transport-level disconnect.
			if closedByPeer && events.OnDisconnected != nil {
				events.OnDisconnected(fmt.Errorf("signaling subscription closed"))
			}
			return

		case env, ok := <-sub.Envelopes:
			if !ok {
				return
			}
			c.dispatch(env)
		}
	}
}

func (c *brokerChannel) dispatch(env Envelope) {
	// Room broadcasts include the sender's own envelopes.
	if env.From == c.selfID {
		return
	}

	c.mu.Lock()
	events := c.events
	c.mu.Unlock()

	switch env.Type {
	case TypeMatchFound:
		var data MatchFoundData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			log.Error().Err(err).Msg("invalid match-found payload")
			return
		}
		if err := c.joinRoom(data.RoomID); err != nil {
			if events.OnError != nil {
				events.OnError(err)
			}
			return
		}
		if events.OnMatchFound != nil {
			events.OnMatchFound(data.RoomID, data.Partner)
		} else if events.OnUserJoined != nil {
			events.OnUserJoined(data.Partner)
		}

	case TypeQueueStatus:
		var status model.QueueStatus
		if err := json.Unmarshal(env.Data, &status); err != nil {
			log.Error().Err(err).Msg("invalid queue-status payload")
			return
		}
		if events.OnQueueStatus != nil {
			events.OnQueueStatus(status)
		}

	case TypeUserJoined:
		var p model.Participant
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Error().Err(err).Msg("invalid user-joined payload")
			return
		}
		if events.OnUserJoined != nil {
			events.OnUserJoined(p)
		}

	case TypeUserLeft, TypePartnerLeft:
		if events.OnUserLeft != nil {
			events.OnUserLeft(env.From)
		}

	default:
		if events.OnMessage != nil {
			events.OnMessage(env)
		}
	}
}

// MatchNotifier bridges matchmaker outcomes onto the broker so both matched
// parties learn the room id, whichever instance they are connected to.
type MatchNotifier struct {
	broker *Broker
}

func NewMatchNotifier(broker *Broker) *MatchNotifier {
	return &MatchNotifier{broker: broker}
}

func (n *MatchNotifier) OnMatch(m matchmaker.Match) {
	ctx := context.Background()
	n.publishMatch(ctx, m.A.Participant.ParticipantID, m.RoomID, m.B.Participant)
	n.publishMatch(ctx, m.B.Participant.ParticipantID, m.RoomID, m.A.Participant)
}

func (n *MatchNotifier) OnStatus(participantID string, status model.QueueStatus) {
	env, err := NewEnvelope(TypeQueueStatus, "", participantID, status)
	if err != nil {
		log.Error().Err(err).Msg("failed to build queue-status envelope")
		return
	}
	if err := n.broker.Publish(context.Background(), redisclient.UserChannel(participantID), env); err != nil {
		log.Warn().Err(err).Str("participantId", participantID).Msg("failed to publish queue status")
	}
}

func (n *MatchNotifier) publishMatch(ctx context.Context, participantID, roomID string, partner model.Participant) {
	env, err := NewEnvelope(TypeMatchFound, "", participantID, MatchFoundData{RoomID: roomID, Partner: partner})
	if err != nil {
		log.Error().Err(err).Msg("failed to build match-found envelope")
		return
	}
	if err := n.broker.Publish(ctx, redisclient.UserChannel(participantID), env); err != nil {
		log.Error().Err(err).Str("participantId", participantID).Msg("failed to publish match-found")
	}
}
