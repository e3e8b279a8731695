package mq

import (
	"context"
	"errors"
	"log"

	"homecook/models"
)

var ErrQueueFull = errors.New("event queue full")

// Local is an in-process queue used when Redis is not configured.
type Local struct {
	events chan models.OrderEvent
}

func NewLocal(size int) *Local {
	return &Local{events: make(chan models.OrderEvent, size)}
}

// Publish never blocks. A full queue drops the event.
func (l *Local) Publish(_ context.Context, event models.OrderEvent) error {
	select {
	case l.events <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run hands queued events to h until ctx is cancelled.
func (l *Local) Run(ctx context.Context, h Handler) {
	log.Println("[NotificationWorker] Listening for local order events...")
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-l.events:
			dispatch(ctx, h, event)
		}
	}
}
