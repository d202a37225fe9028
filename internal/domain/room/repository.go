package room

import (
	"context"
	"time"
)

// RoomRepository defines the persistence contract for the room registry.
type RoomRepository interface {
	// FindByNumber retrieves a room or returns a NotFound error.
	FindByNumber(ctx context.Context, number string) (*Room, error)

	// ListAll returns the full inventory ordered by room number.
	ListAll(ctx context.Context) ([]*Room, error)

	// ListAvailable returns rooms whose status is available.
	ListAvailable(ctx context.Context) ([]*Room, error)

	// Save persists a new room.
	Save(ctx context.Context, room *Room) error

	// SetStatus unconditionally overwrites a room's status.
	SetStatus(ctx context.Context, number string, status RoomStatus) (*Room, error)

	// TransitionStatus atomically moves a room from one status to another.
	// It fails with a status_mismatch conflict when the stored status is not
	// from, and with NotFound when the room does not exist.
	TransitionStatus(ctx context.Context, number string, from, to RoomStatus, nextAvailableAt *time.Time) (*Room, error)
}
