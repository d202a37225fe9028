package invoice

import (
	"context"

	"github.com/google/uuid"
)

// InvoiceRepository defines persistence operations for invoices.
type InvoiceRepository interface {
	// Save stores an invoice. A second invoice for the same booking is a conflict.
	Save(ctx context.Context, inv *Invoice) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*Invoice, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
}
