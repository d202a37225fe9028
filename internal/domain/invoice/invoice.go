package invoice

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/grandstay/service-frontdesk/pkg/domain"
)

const invoiceNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Invoice is the settlement record issued when a guest checks out.
type Invoice struct {
	id            uuid.UUID
	invoiceNumber string
	bookingID     uuid.UUID
	guestID       uuid.UUID
	guestName     string
	roomNumber    string
	checkInDate   time.Time
	checkOutDate  time.Time
	nights        int64
	rateCents     int64
	totalCents    int64
	settledCents  int64
	currency      string
	issuedAt      time.Time
}

// Params groups the inputs of NewInvoice.
type Params struct {
	BookingID    uuid.UUID
	GuestID      uuid.UUID
	GuestName    string
	RoomNumber   string
	CheckInDate  time.Time
	CheckOutDate time.Time
	Nights       int64
	RateCents    int64
	TotalCents   int64
	SettledCents int64
	Currency     string
}

func generateInvoiceNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(invoiceNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate invoice number: %w", err)
		}
		result[i] = invoiceNumberChars[n.Int64()]
	}
	return "INV-" + string(result), nil
}

// NewInvoice creates an invoice for a completed booking.
func NewInvoice(p Params) (*Invoice, error) {
	if p.BookingID == uuid.Nil {
		return nil, domain.NewValidationError("booking ID is required")
	}
	if p.SettledCents < 0 || p.TotalCents < 0 {
		return nil, domain.NewValidationError("invoice amounts cannot be negative")
	}

	number, err := generateInvoiceNumber()
	if err != nil {
		return nil, err
	}

	return &Invoice{
		id:            uuid.New(),
		invoiceNumber: number,
		bookingID:     p.BookingID,
		guestID:       p.GuestID,
		guestName:     p.GuestName,
		roomNumber:    p.RoomNumber,
		checkInDate:   p.CheckInDate,
		checkOutDate:  p.CheckOutDate,
		nights:        p.Nights,
		rateCents:     p.RateCents,
		totalCents:    p.TotalCents,
		settledCents:  p.SettledCents,
		currency:      p.Currency,
		issuedAt:      time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds an Invoice from persistence.
func Reconstruct(id uuid.UUID, invoiceNumber string, p Params, issuedAt time.Time) *Invoice {
	return &Invoice{
		id:            id,
		invoiceNumber: invoiceNumber,
		bookingID:     p.BookingID,
		guestID:       p.GuestID,
		guestName:     p.GuestName,
		roomNumber:    p.RoomNumber,
		checkInDate:   p.CheckInDate,
		checkOutDate:  p.CheckOutDate,
		nights:        p.Nights,
		rateCents:     p.RateCents,
		totalCents:    p.TotalCents,
		settledCents:  p.SettledCents,
		currency:      p.Currency,
		issuedAt:      issuedAt,
	}
}

// Getters.
func (i *Invoice) ID() uuid.UUID           { return i.id }
func (i *Invoice) InvoiceNumber() string   { return i.invoiceNumber }
func (i *Invoice) BookingID() uuid.UUID    { return i.bookingID }
func (i *Invoice) GuestID() uuid.UUID      { return i.guestID }
func (i *Invoice) GuestName() string       { return i.guestName }
func (i *Invoice) RoomNumber() string      { return i.roomNumber }
func (i *Invoice) CheckInDate() time.Time  { return i.checkInDate }
func (i *Invoice) CheckOutDate() time.Time { return i.checkOutDate }
func (i *Invoice) Nights() int64           { return i.nights }
func (i *Invoice) RateCents() int64        { return i.rateCents }
func (i *Invoice) TotalCents() int64       { return i.totalCents }
func (i *Invoice) SettledCents() int64     { return i.settledCents }
func (i *Invoice) Currency() string        { return i.currency }
func (i *Invoice) IssuedAt() time.Time     { return i.issuedAt }
