package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/grandstay/service-frontdesk/pkg/kafka"
)

// EventPublisher sends CloudEvents to the event sink. *kafka.Producer
// satisfies it directly.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

const (
	eventSource    = "service-frontdesk"
	publishTimeout = 5 * time.Second
)

// publishEvent is fire and forget: failures are logged and never reach
// the caller.
func publishEvent(ctx context.Context, pub EventPublisher, logger *zap.Logger, topic, eventType, key string, data interface{}) {
	if pub == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	cloudEvent.Subject = key

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := pub.PublishEvent(ctx, topic, cloudEvent); err != nil {
		logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
