package booking

import (
	"context"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for the booking ledger.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByNumber retrieves a booking by its human-readable booking number.
	FindByNumber(ctx context.Context, number string) (*Booking, error)

	// FindActiveByRoom returns the confirmed booking holding a room, or nil.
	FindActiveByRoom(ctx context.Context, roomNumber string) (*Booking, error)

	// FindByGuestID retrieves a guest's booking history with pagination.
	FindByGuestID(ctx context.Context, guestID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error

	// Complete atomically moves a confirmed booking to completed. It returns
	// NotFound when absent and already_completed when the booking is terminal.
	Complete(ctx context.Context, id uuid.UUID, settledCents int64, by uuid.UUID) (*Booking, error)

	// Delete removes a booking. Used only to undo a failed check-in.
	Delete(ctx context.Context, id uuid.UUID) error
}
