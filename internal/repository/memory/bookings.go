package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	bookingDomain "github.com/grandstay/service-frontdesk/internal/domain/booking"
	"github.com/grandstay/service-frontdesk/pkg/domain"
)

// BookingStore is an in-memory BookingRepository. Like the PostgreSQL
// index it refuses a second confirmed booking for the same room.
type BookingStore struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
}

// NewBookingStore creates an empty BookingStore.
func NewBookingStore() *BookingStore {
	return &BookingStore{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

// FindByID returns a copy of the booking.
func (s *BookingStore) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return b.Clone(), nil
}

// FindByNumber returns the booking with the given booking number.
func (s *BookingStore) FindByNumber(_ context.Context, number string) (*bookingDomain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.bookings {
		if b.BookingNumber() == number {
			return b.Clone(), nil
		}
	}
	return nil, domain.NewNotFoundError("Booking", number)
}

// FindActiveByRoom returns the confirmed booking holding a room, or nil.
func (s *BookingStore) FindActiveByRoom(_ context.Context, roomNumber string) (*bookingDomain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.activeFor(roomNumber), nil
}

func (s *BookingStore) activeFor(roomNumber string) *bookingDomain.Booking {
	for _, b := range s.bookings {
		if b.RoomNumber() == roomNumber && b.Status().IsActive() {
			return b.Clone()
		}
	}
	return nil
}

// FindByGuestID returns one page of a guest's bookings, newest first.
func (s *BookingStore) FindByGuestID(_ context.Context, guestID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return s.page(func(b *bookingDomain.Booking) bool { return b.GuestID() == guestID }, page, limit)
}

// ListAll returns one page of all bookings, newest first.
func (s *BookingStore) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return s.page(func(*bookingDomain.Booking) bool { return true }, page, limit)
}

// page returns matching bookings newest first.
func (s *BookingStore) page(keep func(*bookingDomain.Booking) bool, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	s.mu.Lock()
	var all []*bookingDomain.Booking
	for _, b := range s.bookings {
		if keep(b) {
			all = append(all, b.Clone())
		}
	}
	s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt().After(all[j].CreatedAt()) })

	total := int64(len(all))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = len(all)
	}
	start := (page - 1) * limit
	if start >= len(all) {
		return []*bookingDomain.Booking{}, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// CountByStatus returns booking counts keyed by status.
func (s *BookingStore) CountByStatus(_ context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int64)
	for _, b := range s.bookings {
		counts[string(b.Status())]++
	}
	return counts, nil
}

// Save stores a new booking, refusing a second confirmed booking for a room.
func (s *BookingStore) Save(_ context.Context, b *bookingDomain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bookings[b.ID()]; exists {
		return domain.NewConflictError("booking already exists")
	}
	if b.Status().IsActive() && s.activeFor(b.RoomNumber()) != nil {
		return bookingDomain.NewRoomNotAvailableError(b.RoomNumber())
	}
	s.bookings[b.ID()] = b.Clone()
	return nil
}

// Update replaces the booking if the stored version is one behind.
func (s *BookingStore) Update(_ context.Context, b *bookingDomain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.bookings[b.ID()]
	if !ok {
		return domain.NewNotFoundError("Booking", b.ID().String())
	}
	if cur.Version() != b.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	s.bookings[b.ID()] = b.Clone()
	return nil
}

// Complete moves a confirmed booking to completed under the store lock.
func (s *BookingStore) Complete(_ context.Context, id uuid.UUID, settledCents int64, by uuid.UUID) (*bookingDomain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	next := cur.Clone()
	if err := next.Complete(settledCents, by); err != nil {
		return nil, err
	}
	next.IncrementVersion()
	s.bookings[id] = next
	return next.Clone(), nil
}

// Delete removes a booking.
func (s *BookingStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.bookings, id)
	return nil
}
