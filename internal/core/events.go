package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/gymdesk/internal/messagequeue"
	"github.com/example/gymdesk/internal/models"
)

// QueuePublisher publishes domain events as JSON onto a message queue.
type QueuePublisher struct {
	queue     messagequeue.MessageQueue
	tourQueue string
	now       func() time.Time
}

func NewQueuePublisher(queue messagequeue.MessageQueue, tourQueue string) *QueuePublisher {
	return &QueuePublisher{queue: queue, tourQueue: tourQueue, now: time.Now}
}

func (p *QueuePublisher) PublishTourRequest(ctx context.Context, req models.TourRequest) error {
	body, err := json.Marshal(models.TourRequestEvent{
		Type:        models.TourRequestCreatedEvent,
		OccurredAt:  p.now().UTC(),
		TourRequest: req,
	})
	if err != nil {
		return fmt.Errorf("encode tour request event: %w", err)
	}
	return p.queue.Publish(ctx, p.tourQueue, body)
}
