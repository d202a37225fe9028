package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/grandstay/service-frontdesk/internal/domain/booking"
	"github.com/grandstay/service-frontdesk/internal/domain/guest"
	invoiceDomain "github.com/grandstay/service-frontdesk/internal/domain/invoice"
	"github.com/grandstay/service-frontdesk/pkg/domain"
)

// InvoiceService issues and serves check-out invoices.
type InvoiceService struct {
	repo   invoiceDomain.InvoiceRepository
	guests guest.Directory
	logger *zap.Logger
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(repo invoiceDomain.InvoiceRepository, guests guest.Directory, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{repo: repo, guests: guests, logger: logger}
}

// IssueForBooking creates the invoice for a completed booking. Issuing
// twice for the same booking returns the existing invoice.
func (s *InvoiceService) IssueForBooking(ctx context.Context, bk *bookingDomain.Booking) (*InvoiceDTO, error) {
	if bk.Status() != bookingDomain.StatusCompleted || bk.SettledCents() == nil {
		return nil, domain.NewInvalidStateError(string(bk.Status()), "invoiced")
	}

	if existing, err := s.repo.FindByBookingID(ctx, bk.ID()); err == nil {
		dto := toInvoiceDTO(existing)
		return &dto, nil
	} else if !domain.IsKind(err, domain.KindNotFound) {
		return nil, fmt.Errorf("failed to look up invoice: %w", err)
	}

	var guestName string
	if g, err := s.guests.Lookup(ctx, bk.GuestID()); err == nil {
		guestName = g.FullName
	} else {
		s.logger.Warn("guest lookup failed, invoice issued without name",
			zap.String("guest_id", bk.GuestID().String()),
			zap.Error(err),
		)
	}

	inv, err := invoiceDomain.NewInvoice(invoiceDomain.Params{
		BookingID:    bk.ID(),
		GuestID:      bk.GuestID(),
		GuestName:    guestName,
		RoomNumber:   bk.RoomNumber(),
		CheckInDate:  bk.CheckInDate(),
		CheckOutDate: bk.CheckOutDate(),
		Nights:       bk.Nights(),
		RateCents:    bk.RateCents(),
		TotalCents:   bk.TotalCents(),
		SettledCents: *bk.SettledCents(),
		Currency:     bk.Currency(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	s.logger.Info("invoice issued",
		zap.String("booking_id", bk.ID().String()),
		zap.String("invoice_number", inv.InvoiceNumber()),
	)

	dto := toInvoiceDTO(inv)
	return &dto, nil
}

// GetInvoiceForBooking returns the invoice issued for a booking.
func (s *InvoiceService) GetInvoiceForBooking(ctx context.Context, bookingID uuid.UUID) (*InvoiceDTO, error) {
	inv, err := s.repo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	dto := toInvoiceDTO(inv)
	return &dto, nil
}
