package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grandstay/service-frontdesk/pkg/domain"
)

func newTestBooking(t *testing.T) *Booking {
	t.Helper()
	b, err := NewBooking(NewBookingParams{
		GuestID:      uuid.New(),
		RoomNumber:   "101",
		CheckInDate:  time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC),
		CheckOutDate: time.Date(2024, 1, 4, 11, 0, 0, 0, time.UTC),
		RateCents:    10000,
		TotalCents:   30000,
		Currency:     "USD",
		CheckedInBy:  uuid.New(),
	})
	require.NoError(t, err)
	return b
}

func TestNewBooking_DefaultsToConfirmed(t *testing.T) {
	b := newTestBooking(t)
	assert.Equal(t, StatusConfirmed, b.Status())
	assert.True(t, strings.HasPrefix(b.BookingNumber(), "BK-"))
	assert.Len(t, b.BookingNumber(), 9)
	assert.NotNil(t, b.CheckedInAt())
	assert.Equal(t, int64(3), b.Nights())
	assert.Equal(t, int64(1), b.Version())
}

func TestNewBooking_Validation(t *testing.T) {
	in := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	base := NewBookingParams{
		GuestID:      uuid.New(),
		RoomNumber:   "101",
		CheckInDate:  in,
		CheckOutDate: in.AddDate(0, 0, 2),
		TotalCents:   100,
	}

	cases := map[string]func(p *NewBookingParams){
		"missing guest":        func(p *NewBookingParams) { p.GuestID = uuid.Nil },
		"missing room":         func(p *NewBookingParams) { p.RoomNumber = "  " },
		"check-out equals in":  func(p *NewBookingParams) { p.CheckOutDate = in },
		"check-out before in":  func(p *NewBookingParams) { p.CheckOutDate = in.AddDate(0, 0, -1) },
		"negative total":       func(p *NewBookingParams) { p.TotalCents = -1 },
		"created as completed": func(p *NewBookingParams) { p.Status = StatusCompleted },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := base
			mutate(&p)
			_, err := NewBooking(p)
			assert.True(t, domain.IsKind(err, domain.KindValidation), "got %v", err)
		})
	}
}

func TestBooking_Complete(t *testing.T) {
	b := newTestBooking(t)
	by := uuid.New()

	require.NoError(t, b.Complete(25000, by))
	assert.Equal(t, StatusCompleted, b.Status())
	require.NotNil(t, b.SettledCents())
	assert.Equal(t, int64(25000), *b.SettledCents())
	require.NotNil(t, b.CheckedOutBy())
	assert.Equal(t, by, *b.CheckedOutBy())
	assert.NotNil(t, b.CheckedOutAt())

	err := b.Complete(25000, by)
	assert.True(t, domain.HasCode(err, CodeAlreadyCompleted))
}

func TestBooking_CompletePendingIsInvalid(t *testing.T) {
	b := newTestBooking(t)
	b.status = StatusPending

	err := b.Complete(100, uuid.New())
	assert.True(t, domain.IsKind(err, domain.KindInvalidTransition))
}

func TestBooking_Cancel(t *testing.T) {
	b := newTestBooking(t)
	require.NoError(t, b.Cancel("guest no-show"))
	assert.Equal(t, StatusCancelled, b.Status())
	assert.Equal(t, "guest no-show", b.CancelNote())
	assert.NotNil(t, b.CancelledAt())

	assert.Error(t, b.Cancel("again"))
}

func TestBooking_CloneIsIndependent(t *testing.T) {
	b := newTestBooking(t)
	require.NoError(t, b.Complete(100, uuid.New()))

	c := b.Clone()
	*c.settledCents = 1
	assert.Equal(t, int64(100), *b.SettledCents())
}
