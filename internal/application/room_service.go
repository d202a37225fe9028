package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/grandstay/service-frontdesk/internal/domain/booking"
	roomDomain "github.com/grandstay/service-frontdesk/internal/domain/room"
	"github.com/grandstay/service-frontdesk/pkg/domain"
	"github.com/grandstay/service-frontdesk/pkg/events"
)

// RoomService handles room inventory use cases and status overrides.
type RoomService struct {
	rooms     roomDomain.RoomRepository
	bookings  bookingDomain.BookingRepository
	publisher EventPublisher
	currency  string
	logger    *zap.Logger
}

// NewRoomService creates a new RoomService.
func NewRoomService(
	rooms roomDomain.RoomRepository,
	bookings bookingDomain.BookingRepository,
	publisher EventPublisher,
	currency string,
	logger *zap.Logger,
) *RoomService {
	return &RoomService{
		rooms:     rooms,
		bookings:  bookings,
		publisher: publisher,
		currency:  currency,
		logger:    logger,
	}
}

// ListAvailableRooms returns the rooms that can be checked into right now.
func (s *RoomService) ListAvailableRooms(ctx context.Context) ([]RoomDTO, error) {
	rooms, err := s.rooms.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list available rooms: %w", err)
	}
	return s.toDTOs(rooms), nil
}

// ListRooms returns the full inventory.
func (s *RoomService) ListRooms(ctx context.Context) ([]RoomDTO, error) {
	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return s.toDTOs(rooms), nil
}

// GetRoom returns a single room.
func (s *RoomService) GetRoom(ctx context.Context, number string) (*RoomDTO, error) {
	rm, err := s.rooms.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	dto := toRoomDTO(rm, s.currency)
	return &dto, nil
}

// OverrideStatus changes a room's status by hand. Occupied is reserved for
// rooms holding an active booking and a room holding one cannot be set to
// anything else. The write is conditional on the status read, so a
// concurrent check-in makes it fail with status_mismatch.
func (s *RoomService) OverrideStatus(ctx context.Context, actorID uuid.UUID, number string, req UpdateRoomStatusRequest) (*RoomDTO, error) {
	target, err := roomDomain.ParseRoomStatus(req.Status)
	if err != nil {
		return nil, err
	}

	rm, err := s.rooms.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	active, err := s.bookings.FindActiveByRoom(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("failed to check active booking: %w", err)
	}

	switch {
	case target == roomDomain.StatusOccupied && active == nil:
		return nil, domain.NewInvalidStateError(string(rm.Status()), string(target)).
			WithDetail("reason", "room has no active booking")
	case target != roomDomain.StatusOccupied && active != nil:
		return nil, domain.NewInvalidStateError(string(rm.Status()), string(target)).
			WithDetail("reason", "room has an active booking")
	}

	if rm.Status() == target {
		dto := toRoomDTO(rm, s.currency)
		return &dto, nil
	}

	var nextAvailable *time.Time
	if active != nil {
		t := active.CheckOutDate()
		nextAvailable = &t
	}
	updated, err := s.rooms.TransitionStatus(ctx, number, rm.Status(), target, nextAvailable)
	if err != nil {
		return nil, err
	}

	s.statusChanged(ctx, actorID, number, rm.Status(), target, req.Reason)
	dto := toRoomDTO(updated, s.currency)
	return &dto, nil
}

// ForceStatus writes a status without consulting the ledger. It exists for
// operators repairing data by hand; ReconcileRoom is the safe alternative.
func (s *RoomService) ForceStatus(ctx context.Context, actorID uuid.UUID, number string, req UpdateRoomStatusRequest) (*RoomDTO, error) {
	target, err := roomDomain.ParseRoomStatus(req.Status)
	if err != nil {
		return nil, err
	}
	before, err := s.rooms.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	updated, err := s.rooms.SetStatus(ctx, number, target)
	if err != nil {
		return nil, err
	}

	s.logger.Warn("room status forced",
		zap.String("room_number", number),
		zap.String("actor_id", actorID.String()),
		zap.String("to", string(target)),
	)
	s.statusChanged(ctx, actorID, number, before.Status(), target, req.Reason)
	dto := toRoomDTO(updated, s.currency)
	return &dto, nil
}

// EndMaintenance returns a room under maintenance to service. A room that
// is not under maintenance is left untouched.
func (s *RoomService) EndMaintenance(ctx context.Context, number, reason string) (*RoomDTO, error) {
	updated, err := s.rooms.TransitionStatus(ctx, number, roomDomain.StatusMaintenance, roomDomain.StatusAvailable, nil)
	if err != nil {
		if domain.HasCode(err, roomDomain.CodeStatusMismatch) {
			return s.GetRoom(ctx, number)
		}
		return nil, err
	}

	s.statusChanged(ctx, uuid.Nil, number, roomDomain.StatusMaintenance, roomDomain.StatusAvailable, reason)
	dto := toRoomDTO(updated, s.currency)
	return &dto, nil
}

func (s *RoomService) statusChanged(ctx context.Context, actorID uuid.UUID, number string, from, to roomDomain.RoomStatus, reason string) {
	s.logger.Info("room status changed",
		zap.String("room_number", number),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor_id", actorID.String()),
	)
	publishEvent(ctx, s.publisher, s.logger, events.TopicFrontDeskEvents, events.RoomStatusChanged, number, events.RoomStatusChangedEvent{
		RoomNumber: number,
		From:       string(from),
		To:         string(to),
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	})
}

func (s *RoomService) toDTOs(rooms []*roomDomain.Room) []RoomDTO {
	dtos := make([]RoomDTO, len(rooms))
	for i, r := range rooms {
		dtos[i] = toRoomDTO(r, s.currency)
	}
	return dtos
}
