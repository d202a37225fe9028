package invoice

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grandstay/service-frontdesk/pkg/domain"
)

func TestNewInvoice(t *testing.T) {
	bookingID := uuid.New()
	inv, err := NewInvoice(Params{
		BookingID:    bookingID,
		GuestID:      uuid.New(),
		GuestName:    "Ada Lovelace",
		RoomNumber:   "101",
		CheckInDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		CheckOutDate: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
		Nights:       3,
		RateCents:    10000,
		TotalCents:   30000,
		SettledCents: 25000,
		Currency:     "USD",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(inv.InvoiceNumber(), "INV-"))
	assert.Len(t, inv.InvoiceNumber(), 10)
	assert.Equal(t, bookingID, inv.BookingID())
	assert.Equal(t, int64(25000), inv.SettledCents())
	assert.False(t, inv.IssuedAt().IsZero())
}

func TestNewInvoice_Validation(t *testing.T) {
	_, err := NewInvoice(Params{})
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = NewInvoice(Params{BookingID: uuid.New(), SettledCents: -1})
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}
