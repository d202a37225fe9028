package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grandstay/service-frontdesk/pkg/domain"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Booking is the aggregate root for a guest's stay in one room.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	guestID       uuid.UUID
	roomNumber    string
	status        BookingStatus

	checkInDate  time.Time
	checkOutDate time.Time

	rateCents    int64
	totalCents   int64
	settledCents *int64
	currency     string

	checkedInBy  uuid.UUID
	checkedInAt  *time.Time
	checkedOutBy *uuid.UUID
	checkedOutAt *time.Time
	cancelledAt  *time.Time
	cancelNote   string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBookingParams groups the inputs of NewBooking.
type NewBookingParams struct {
	GuestID      uuid.UUID
	RoomNumber   string
	CheckInDate  time.Time
	CheckOutDate time.Time
	RateCents    int64
	TotalCents   int64
	Currency     string
	CheckedInBy  uuid.UUID
	Status       BookingStatus
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// NewBooking creates a pending or confirmed booking. A confirmed booking is
// a check-in and records the receptionist and the check-in time.
func NewBooking(p NewBookingParams) (*Booking, error) {
	if p.GuestID == uuid.Nil {
		return nil, domain.NewValidationError("guest ID is required")
	}
	if strings.TrimSpace(p.RoomNumber) == "" {
		return nil, domain.NewValidationError("room number is required")
	}
	if p.CheckInDate.IsZero() || p.CheckOutDate.IsZero() {
		return nil, domain.NewValidationError("check-in and check-out dates are required")
	}
	if !p.CheckOutDate.After(p.CheckInDate) {
		return nil, domain.NewValidationError("check-out date must be after check-in date")
	}
	if p.TotalCents < 0 {
		return nil, domain.NewValidationError("total amount cannot be negative")
	}
	if p.Status == "" {
		p.Status = StatusConfirmed
	}
	if p.Status != StatusPending && p.Status != StatusConfirmed {
		return nil, domain.NewValidationError(fmt.Sprintf("a new booking cannot be %s", p.Status))
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	bk := &Booking{
		id:            uuid.New(),
		bookingNumber: bookingNumber,
		guestID:       p.GuestID,
		roomNumber:    strings.TrimSpace(p.RoomNumber),
		status:        p.Status,
		checkInDate:   p.CheckInDate.UTC(),
		checkOutDate:  p.CheckOutDate.UTC(),
		rateCents:     p.RateCents,
		totalCents:    p.TotalCents,
		currency:      p.Currency,
		checkedInBy:   p.CheckedInBy,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}
	if p.Status == StatusConfirmed {
		bk.checkedInAt = &now
	}
	return bk, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	guestID uuid.UUID,
	roomNumber string,
	status BookingStatus,
	checkInDate, checkOutDate time.Time,
	rateCents, totalCents int64,
	settledCents *int64,
	currency string,
	checkedInBy uuid.UUID,
	checkedInAt *time.Time,
	checkedOutBy *uuid.UUID,
	checkedOutAt *time.Time,
	cancelledAt *time.Time,
	cancelNote string,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:            id,
		bookingNumber: bookingNumber,
		guestID:       guestID,
		roomNumber:    roomNumber,
		status:        status,
		checkInDate:   checkInDate,
		checkOutDate:  checkOutDate,
		rateCents:     rateCents,
		totalCents:    totalCents,
		settledCents:  settledCents,
		currency:      currency,
		checkedInBy:   checkedInBy,
		checkedInAt:   checkedInAt,
		checkedOutBy:  checkedOutBy,
		checkedOutAt:  checkedOutAt,
		cancelledAt:   cancelledAt,
		cancelNote:    cancelNote,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// GuestID returns the guest's user ID.
func (b *Booking) GuestID() uuid.UUID { return b.guestID }

// RoomNumber returns the booked room.
func (b *Booking) RoomNumber() string { return b.roomNumber }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// CheckInDate returns the start of the stay.
func (b *Booking) CheckInDate() time.Time { return b.checkInDate }

// CheckOutDate returns the planned end of the stay.
func (b *Booking) CheckOutDate() time.Time { return b.checkOutDate }

// RateCents returns the nightly rate charged for the stay.
func (b *Booking) RateCents() int64 { return b.rateCents }

// TotalCents returns the computed charge for the stay.
func (b *Booking) TotalCents() int64 { return b.totalCents }

// SettledCents returns the amount settled at check-out, or nil.
func (b *Booking) SettledCents() *int64 { return b.settledCents }

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

// CheckedInBy returns the receptionist who checked the guest in.
func (b *Booking) CheckedInBy() uuid.UUID { return b.checkedInBy }

// CheckedInAt returns when the guest was checked in.
func (b *Booking) CheckedInAt() *time.Time { return b.checkedInAt }

// CheckedOutBy returns the receptionist who checked the guest out.
func (b *Booking) CheckedOutBy() *uuid.UUID { return b.checkedOutBy }

// CheckedOutAt returns when the guest was checked out.
func (b *Booking) CheckedOutAt() *time.Time { return b.checkedOutAt }

// CancelledAt returns the time the booking was cancelled.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CancelNote returns the cancellation reason.
func (b *Booking) CancelNote() string { return b.cancelNote }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// Complete closes the stay with the settled amount.
func (b *Booking) Complete(settledCents int64, by uuid.UUID) error {
	if b.status.IsTerminal() {
		return NewAlreadyCompletedError(b.id, b.status)
	}
	if !b.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	if settledCents < 0 {
		return domain.NewValidationError("settled amount cannot be negative")
	}
	now := time.Now().UTC()
	b.status = StatusCompleted
	b.settledCents = &settledCents
	if by != uuid.Nil {
		b.checkedOutBy = &by
	}
	b.checkedOutAt = &now
	b.updatedAt = now
	return nil
}

// Cancel transitions the booking to cancelled if it is not in a terminal state.
func (b *Booking) Cancel(reason string) error {
	if !b.status.CanBeCancelled() {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	b.status = StatusCancelled
	b.cancelNote = reason
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}

// Nights returns the number of calendar nights in the stay.
func (b *Booking) Nights() int64 {
	return NightsBetween(b.checkInDate, b.checkOutDate)
}

// Clone returns a deep copy safe to hand out from in-process stores.
func (b *Booking) Clone() *Booking {
	c := *b
	c.settledCents = clonePtr(b.settledCents)
	c.checkedInAt = clonePtr(b.checkedInAt)
	c.checkedOutBy = clonePtr(b.checkedOutBy)
	c.checkedOutAt = clonePtr(b.checkedOutAt)
	c.cancelledAt = clonePtr(b.cancelledAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
