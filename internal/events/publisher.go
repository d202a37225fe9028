package events

import (
	"context"

	"github.com/grandstay/service-frontdesk/pkg/kafka"
	"github.com/grandstay/service-frontdesk/pkg/mq"
)

// RabbitPublisher sends CloudEvents to a RabbitMQ topic exchange, routed
// by event type. It satisfies application.EventPublisher.
type RabbitPublisher struct {
	publisher *mq.Publisher
}

// NewRabbitPublisher wraps an mq.Publisher.
func NewRabbitPublisher(publisher *mq.Publisher) *RabbitPublisher {
	return &RabbitPublisher{publisher: publisher}
}

// PublishEvent ignores topic; the exchange is fixed and the routing key
// is the event type.
func (p *RabbitPublisher) PublishEvent(ctx context.Context, _ string, event kafka.CloudEvent) error {
	return p.publisher.PublishJSON(ctx, event.Type, event)
}

// Close closes the underlying connection.
func (p *RabbitPublisher) Close() error {
	return p.publisher.Close()
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishEvent(context.Context, string, kafka.CloudEvent) error { return nil }
