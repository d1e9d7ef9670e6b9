package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

const DefaultEventChannel = "studycore:session-events"

// RedisHub relays events through a Redis channel so every instance sees
// sign-outs and role changes made on any other. Local subscribers are fed
// only from the channel, which keeps one delivery order for everyone.
type RedisHub struct {
	rdb     *redis.Client
	channel string
	pubsub  *redis.PubSub
	local   *LocalHub
	done    chan struct{}
}

func NewRedisHub(ctx context.Context, rdb *redis.Client, channel string) (*RedisHub, error) {
	if channel == "" {
		channel = DefaultEventChannel
	}

	ps := rdb.Subscribe(ctx, channel)
	// Wait for the subscription to be confirmed so no published event is missed.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", channel, err)
	}

	h := &RedisHub{
		rdb:     rdb,
		channel: channel,
		pubsub:  ps,
		local:   NewLocalHub(),
		done:    make(chan struct{}),
	}
	go h.run()
	return h, nil
}

func (h *RedisHub) run() {
	defer close(h.done)
	for msg := range h.pubsub.Channel() {
		var e Event
		if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
			log.Printf("[auth] dropping malformed event on %s: %v", h.channel, err)
			continue
		}
		h.local.dispatch(e)
	}
}

func (h *RedisHub) Publish(ctx context.Context, e Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, h.channel, raw).Err()
}

func (h *RedisHub) Subscribe(fn func(Event)) func() {
	return h.local.Subscribe(fn)
}

// Close stops the relay. Subscribers receive nothing afterwards.
func (h *RedisHub) Close() error {
	err := h.pubsub.Close()
	<-h.done
	return err
}
