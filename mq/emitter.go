package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"homecook/models"

	"github.com/redis/go-redis/v9"
)

// OrderChannel is the Redis pub/sub channel carrying order events.
const OrderChannel = "order-events"

// Handler consumes one order event.
type Handler interface {
	Handle(ctx context.Context, e models.OrderEvent) error
}

// Emitter publishes order events to Redis.
type Emitter struct {
	rdx *redis.Client
}

func NewEmitter(client *redis.Client) *Emitter {
	return &Emitter{rdx: client}
}

func (e *Emitter) Publish(ctx context.Context, event models.OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := e.rdx.Publish(ctx, OrderChannel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", OrderChannel, err)
	}
	log.Printf("[Emit] %s order=%s published to channel '%s'", event.Type, event.OrderID, OrderChannel)
	return nil
}

// StartNotificationWorker subscribes to OrderChannel and hands every event to
// h until ctx is cancelled.
func StartNotificationWorker(ctx context.Context, client *redis.Client, h Handler) {
	sub := client.Subscribe(ctx, OrderChannel)
	defer sub.Close()
	ch := sub.Channel()

	log.Println("[NotificationWorker] Listening for order events...")
	for {
		select {
		case <-ctx.Done():
			log.Println("[NotificationWorker] stopped")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event models.OrderEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("[NotificationWorker] Failed to parse event: %v", err)
				continue
			}
			dispatch(ctx, h, event)
		}
	}
}

func dispatch(ctx context.Context, h Handler, event models.OrderEvent) {
	if err := h.Handle(ctx, event); err != nil {
		log.Printf("[NotificationWorker] %s order=%s: %v", event.Type, event.OrderID, err)
	}
}
