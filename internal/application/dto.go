package application

import (
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/grandstay/service-frontdesk/internal/domain/booking"
	invoiceDomain "github.com/grandstay/service-frontdesk/internal/domain/invoice"
	roomDomain "github.com/grandstay/service-frontdesk/internal/domain/room"
)

// CheckInRequest holds the data needed to check a guest into a room.
type CheckInRequest struct {
	GuestID      uuid.UUID `json:"guest_id" binding:"required"`
	RoomNumber   string    `json:"room_number" binding:"required"`
	CheckInDate  time.Time `json:"check_in_date" binding:"required"`
	CheckOutDate time.Time `json:"check_out_date" binding:"required"`
}

// CheckOutRequest optionally overrides the amount settled by the guest.
type CheckOutRequest struct {
	SettledCents *int64 `json:"settled_cents"`
}

// CancelBookingRequest carries the operator's reason for a cancellation.
type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// UpdateRoomStatusRequest is the body of a manual room status override.
type UpdateRoomStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason" binding:"max=500"`
}

// RoomDTO is the response representation of a room.
type RoomDTO struct {
	Number          string     `json:"number"`
	Category        string     `json:"category"`
	RateCents       int64      `json:"rate_cents"`
	Currency        string     `json:"currency"`
	Status          string     `json:"status"`
	Description     string     `json:"description,omitempty"`
	NextAvailableAt *time.Time `json:"next_available_at,omitempty"`
	Version         int64      `json:"version"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID            uuid.UUID  `json:"id"`
	BookingNumber string     `json:"booking_number"`
	GuestID       uuid.UUID  `json:"guest_id"`
	RoomNumber    string     `json:"room_number"`
	Status        string     `json:"status"`
	CheckInDate   time.Time  `json:"check_in_date"`
	CheckOutDate  time.Time  `json:"check_out_date"`
	Nights        int64      `json:"nights"`
	RateCents     int64      `json:"rate_cents"`
	TotalCents    int64      `json:"total_cents"`
	SettledCents  *int64     `json:"settled_cents,omitempty"`
	Currency      string     `json:"currency"`
	CheckedInBy   uuid.UUID  `json:"checked_in_by"`
	CheckedInAt   *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutBy  *uuid.UUID `json:"checked_out_by,omitempty"`
	CheckedOutAt  *time.Time `json:"checked_out_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CancelNote    string     `json:"cancel_note,omitempty"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// InvoiceDTO is the response representation of an invoice.
type InvoiceDTO struct {
	ID            uuid.UUID `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	BookingID     uuid.UUID `json:"booking_id"`
	GuestID       uuid.UUID `json:"guest_id"`
	GuestName     string    `json:"guest_name"`
	RoomNumber    string    `json:"room_number"`
	CheckInDate   time.Time `json:"check_in_date"`
	CheckOutDate  time.Time `json:"check_out_date"`
	Nights        int64     `json:"nights"`
	RateCents     int64     `json:"rate_cents"`
	TotalCents    int64     `json:"total_cents"`
	SettledCents  int64     `json:"settled_cents"`
	Currency      string    `json:"currency"`
	IssuedAt      time.Time `json:"issued_at"`
}

// CheckOutResultDTO is returned by a completed check-out.
type CheckOutResultDTO struct {
	Booking BookingDTO  `json:"booking"`
	Invoice *InvoiceDTO `json:"invoice,omitempty"`
}

// ReconcileResultDTO reports the outcome of a room repair.
type ReconcileResultDTO struct {
	Room          RoomDTO    `json:"room"`
	Repaired      bool       `json:"repaired"`
	Held          bool       `json:"held"`
	PrevStatus    string     `json:"previous_status"`
	ActiveBooking *uuid.UUID `json:"active_booking_id,omitempty"`
}

// BookingStatsDTO holds aggregate booking statistics.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

func toRoomDTO(r *roomDomain.Room, currency string) RoomDTO {
	return RoomDTO{
		Number:          r.Number(),
		Category:        string(r.Category()),
		RateCents:       r.RateCents(),
		Currency:        currency,
		Status:          string(r.Status()),
		Description:     r.Description(),
		NextAvailableAt: r.NextAvailableAt(),
		Version:         r.Version(),
		UpdatedAt:       r.UpdatedAt(),
	}
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:            bk.ID(),
		BookingNumber: bk.BookingNumber(),
		GuestID:       bk.GuestID(),
		RoomNumber:    bk.RoomNumber(),
		Status:        string(bk.Status()),
		CheckInDate:   bk.CheckInDate(),
		CheckOutDate:  bk.CheckOutDate(),
		Nights:        bk.Nights(),
		RateCents:     bk.RateCents(),
		TotalCents:    bk.TotalCents(),
		SettledCents:  bk.SettledCents(),
		Currency:      bk.Currency(),
		CheckedInBy:   bk.CheckedInBy(),
		CheckedInAt:   bk.CheckedInAt(),
		CheckedOutBy:  bk.CheckedOutBy(),
		CheckedOutAt:  bk.CheckedOutAt(),
		CancelledAt:   bk.CancelledAt(),
		CancelNote:    bk.CancelNote(),
		Version:       bk.Version(),
		CreatedAt:     bk.CreatedAt(),
		UpdatedAt:     bk.UpdatedAt(),
	}
}

func toInvoiceDTO(inv *invoiceDomain.Invoice) InvoiceDTO {
	return InvoiceDTO{
		ID:            inv.ID(),
		InvoiceNumber: inv.InvoiceNumber(),
		BookingID:     inv.BookingID(),
		GuestID:       inv.GuestID(),
		GuestName:     inv.GuestName(),
		RoomNumber:    inv.RoomNumber(),
		CheckInDate:   inv.CheckInDate(),
		CheckOutDate:  inv.CheckOutDate(),
		Nights:        inv.Nights(),
		RateCents:     inv.RateCents(),
		TotalCents:    inv.TotalCents(),
		SettledCents:  inv.SettledCents(),
		Currency:      inv.Currency(),
		IssuedAt:      inv.IssuedAt(),
	}
}
