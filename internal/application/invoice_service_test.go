package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grandstay/service-frontdesk/pkg/domain"
)

func TestInvoiceService_IssueIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewInvoiceService(f.invoices, f.guests, zap.NewNop())

	bk, err := f.svc.CheckIn(ctx, f.clerk, stay(f.guestX))
	require.NoError(t, err)

	active, err := f.bookings.FindByID(ctx, bk.ID)
	require.NoError(t, err)
	_, err = svc.IssueForBooking(ctx, active)
	assert.True(t, domain.IsKind(err, domain.KindInvalidTransition))

	res, err := f.svc.CheckOut(ctx, f.clerk, bk.ID, CheckOutRequest{})
	require.NoError(t, err)
	require.NotNil(t, res.Invoice)

	done, err := f.bookings.FindByID(ctx, bk.ID)
	require.NoError(t, err)
	again, err := svc.IssueForBooking(ctx, done)
	require.NoError(t, err)
	assert.Equal(t, res.Invoice.InvoiceNumber, again.InvoiceNumber)

	got, err := svc.GetInvoiceForBooking(ctx, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Nights)
	assert.Equal(t, "101", got.RoomNumber)

	_, err = svc.GetInvoiceForBooking(ctx, uuid.New())
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}
