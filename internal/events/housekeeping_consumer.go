package events

import (
	"context"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/grandstay/service-frontdesk/internal/application"
	"github.com/grandstay/service-frontdesk/pkg/domain"
	"github.com/grandstay/service-frontdesk/pkg/events"
	"github.com/grandstay/service-frontdesk/pkg/kafka"
)

// HousekeepingEventConsumer applies maintenance events to the room registry.
type HousekeepingEventConsumer struct {
	consumer *kafka.Consumer
	service  *application.RoomService
	logger   *zap.Logger
}

// NewHousekeepingEventConsumer creates a new HousekeepingEventConsumer.
func NewHousekeepingEventConsumer(
	brokers []string,
	groupID string,
	service *application.RoomService,
	logger *zap.Logger,
) *HousekeepingEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicHousekeepingEvents, logger)
	return &HousekeepingEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming housekeeping events. This blocks until the context is cancelled.
func (c *HousekeepingEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *HousekeepingEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *HousekeepingEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from housekeeping topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.HousekeepingMaintenanceStarted:
		return c.handleMaintenance(ctx, cloudEvent, true)
	case events.HousekeepingMaintenanceFinished:
		return c.handleMaintenance(ctx, cloudEvent, false)
	default:
		c.logger.Debug("ignoring unhandled housekeeping event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *HousekeepingEventConsumer) handleMaintenance(ctx context.Context, cloudEvent kafka.CloudEvent, started bool) error {
	var evt events.MaintenanceEvent
	if err := cloudEvent.ParseData(&evt); err != nil || evt.RoomNumber == "" {
		c.logger.Error("failed to parse MaintenanceEvent data",
			zap.String("type", cloudEvent.Type),
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	var err error
	if started {
		_, err = c.service.OverrideStatus(ctx, uuid.Nil, evt.RoomNumber, application.UpdateRoomStatusRequest{
			Status: "maintenance",
			Reason: evt.Reason,
		})
	} else {
		_, err = c.service.EndMaintenance(ctx, evt.RoomNumber, evt.Reason)
	}
	if err == nil {
		return nil
	}

	// Business refusals will not change on redelivery.
	if de, ok := domain.AsDomainError(err); ok && de.Kind != domain.KindConsistency {
		c.logger.Warn("housekeeping event rejected",
			zap.String("type", cloudEvent.Type),
			zap.String("room_number", evt.RoomNumber),
			zap.String("code", de.Code),
			zap.String("message", de.Message),
		)
		return nil
	}

	c.logger.Error("failed to apply housekeeping event",
		zap.String("type", cloudEvent.Type),
		zap.String("room_number", evt.RoomNumber),
		zap.Error(err),
	)
	return err
}
