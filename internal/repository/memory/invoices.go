package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	invoiceDomain "github.com/grandstay/service-frontdesk/internal/domain/invoice"
	"github.com/grandstay/service-frontdesk/pkg/domain"
)

// InvoiceStore is an in-memory InvoiceRepository keyed by booking.
type InvoiceStore struct {
	mu        sync.RWMutex
	byBooking map[uuid.UUID]*invoiceDomain.Invoice
}

func NewInvoiceStore() *InvoiceStore {
	return &InvoiceStore{byBooking: make(map[uuid.UUID]*invoiceDomain.Invoice)}
}

// Save stores a new invoice, one per booking.
func (s *InvoiceStore) Save(_ context.Context, inv *invoiceDomain.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byBooking[inv.BookingID()]; exists {
		return domain.NewConflictError("invoice already issued for booking")
	}
	s.byBooking[inv.BookingID()] = inv
	return nil
}

// FindByBookingID returns the invoice issued for a booking.
func (s *InvoiceStore) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*invoiceDomain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.byBooking[bookingID]
	if !ok {
		return nil, domain.NewNotFoundError("Invoice", bookingID.String())
	}
	return inv, nil
}

// FindByID returns an invoice by ID.
func (s *InvoiceStore) FindByID(_ context.Context, id uuid.UUID) (*invoiceDomain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, inv := range s.byBooking {
		if inv.ID() == id {
			return inv, nil
		}
	}
	return nil, domain.NewNotFoundError("Invoice", id.String())
}
