package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const relayChannelPrefix = "protolab:workspace:"

type relayEnvelope struct {
	Origin      string `json:"origin"`
	WorkspaceID string `json:"workspaceId"`
	Data        []byte `json:"data"` // base64 on the wire, so frames stay byte-identical
}

// RedisRelay shares workspace frames between server instances over Redis
// pub/sub. Each instance ignores the frames it published itself.
type RedisRelay struct {
	client *redis.Client
	hub    *Hub
	origin string
}

func NewRedisRelay(client *redis.Client, hub *Hub) *RedisRelay {
	return &RedisRelay{
		client: client,
		hub:    hub,
		origin: uuid.New().String(),
	}
}

func (r *RedisRelay) Publish(ctx context.Context, workspaceID string, data []byte) error {
	env, err := json.Marshal(relayEnvelope{
		Origin:      r.origin,
		WorkspaceID: workspaceID,
		Data:        data,
	})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, relayChannelPrefix+workspaceID, env).Err()
}

// Subscribe starts listening and returns once the subscription is
// confirmed. Delivery runs until ctx is cancelled.
func (r *RedisRelay) Subscribe(ctx context.Context) error {
	sub := r.client.PSubscribe(ctx, relayChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("relay subscribe: %w", err)
	}
	log.Printf("[Relay] Subscribed to %s* as %s", relayChannelPrefix, r.origin)

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				r.handle(msg)
			}
		}
	}()
	return nil
}

func (r *RedisRelay) handle(msg *redis.Message) {
	var env relayEnvelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		log.Printf("[Relay] Dropping malformed frame on %s: %v", msg.Channel, err)
		return
	}
	if env.Origin == r.origin {
		return
	}
	workspaceID := env.WorkspaceID
	if workspaceID == "" {
		workspaceID = strings.TrimPrefix(msg.Channel, relayChannelPrefix)
	}
	r.hub.Deliver(workspaceID, env.Data, nil)
}
