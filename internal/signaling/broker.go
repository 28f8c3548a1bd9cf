package signaling

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	redisclient "github.com/amogelangphejane-blip/Wuuble-sub003/internal/redis"
)

const subscriberBuffer = 100

// Subscriber receives envelopes published to one channel.
type Subscriber struct {
	Channel   string
	Envelopes chan Envelope
	Done      chan struct{}
}

// Broker fans redis pub/sub envelopes out to in-process subscribers, so
// participants on different instances share rooms transparently.
type Broker struct {
	redis       *redisclient.Client
	subscribers map[string]map[*Subscriber]bool // channel -> set of subscribers
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:       redisClient,
		subscribers: make(map[string]map[*Subscriber]bool),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (b *Broker) Subscribe(channel string) *Subscriber {
	sub := &Subscriber{
		Channel:   channel,
		Envelopes: make(chan Envelope, subscriberBuffer),
		Done:      make(chan struct{}),
	}

	b.mu.Lock()
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[*Subscriber]bool)
		go b.subscribeToRedis(channel)
	}
	b.subscribers[channel][sub] = true
	count := len(b.subscribers[channel])
	b.mu.Unlock()

	log.Debug().
		Str("channel", channel).
		Int("subscriberCount", count).
		Msg("signaling subscriber added")

	return sub
}

func (b *Broker) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subs, ok := b.subscribers[sub.Channel]; ok {
		if !subs[sub] {
			return
		}
		delete(subs, sub)
		close(sub.Done)

		if len(subs) == 0 {
			delete(b.subscribers, sub.Channel)
		}
	}
}

func (b *Broker) Publish(ctx context.Context, channel string, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	return b.redis.Publish(ctx, channel, data).Err()
}

func (b *Broker) subscribeToRedis(channel string) {
	pubsub := b.redis.Subscribe(b.ctx, channel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-b.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Error().Err(err).Str("channel", channel).Msg("failed to unmarshal envelope")
				continue
			}

			b.broadcast(channel, env)

			// Stop the redis subscription once the last subscriber is gone.
			b.mu.RLock()
			empty := len(b.subscribers[channel]) == 0
			b.mu.RUnlock()
			if empty {
				return
			}
		}
	}
}

func (b *Broker) broadcast(channel string, env Envelope) {
	b.mu.RLock()
	subs := b.subscribers[channel]
	b.mu.RUnlock()

	for sub := range subs {
		select {
		case sub.Envelopes <- env:
		default:
			log.Warn().
				Str("channel", channel).
				Str("type", env.Type).
				Msg("subscriber buffer full, dropping envelope")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, subs := range b.subscribers {
		for sub := range subs {
			close(sub.Done)
		}
	}
	b.subscribers = make(map[string]map[*Subscriber]bool)
}

func (b *Broker) SubscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[channel])
}
