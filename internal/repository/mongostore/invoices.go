package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	invoiceDomain "github.com/grandstay/service-frontdesk/internal/domain/invoice"
	"github.com/grandstay/service-frontdesk/pkg/domain"
)

type invoiceDocument struct {
	ID            string    `bson:"_id"`
	InvoiceNumber string    `bson:"invoice_number"`
	BookingID     string    `bson:"booking_id"`
	GuestID       string    `bson:"guest_id"`
	GuestName     string    `bson:"guest_name,omitempty"`
	RoomNumber    string    `bson:"room_number"`
	CheckInDate   time.Time `bson:"check_in_date"`
	CheckOutDate  time.Time `bson:"check_out_date"`
	Nights        int64     `bson:"nights"`
	RateCents     int64     `bson:"rate_cents"`
	TotalCents    int64     `bson:"total_cents"`
	SettledCents  int64     `bson:"settled_cents"`
	Currency      string    `bson:"currency"`
	IssuedAt      time.Time `bson:"issued_at"`
}

// InvoiceStore implements invoice.InvoiceRepository on MongoDB.
type InvoiceStore struct {
	coll *mongo.Collection
}

func NewInvoiceStore(db *mongo.Database) *InvoiceStore {
	return &InvoiceStore{coll: db.Collection(invoicesCollection)}
}

// Save inserts an invoice. A second invoice for a booking is a conflict.
func (s *InvoiceStore) Save(ctx context.Context, inv *invoiceDomain.Invoice) error {
	doc := invoiceDocument{
		ID:            inv.ID().String(),
		InvoiceNumber: inv.InvoiceNumber(),
		BookingID:     inv.BookingID().String(),
		GuestID:       inv.GuestID().String(),
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
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.NewConflictError("invoice already issued for booking")
		}
		return fmt.Errorf("failed to save invoice: %w", err)
	}
	return nil
}

// FindByBookingID retrieves the invoice issued for a booking.
func (s *InvoiceStore) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*invoiceDomain.Invoice, error) {
	return s.findOne(ctx, bson.M{"booking_id": bookingID.String()}, bookingID.String())
}

// FindByID retrieves an invoice by ID.
func (s *InvoiceStore) FindByID(ctx context.Context, id uuid.UUID) (*invoiceDomain.Invoice, error) {
	return s.findOne(ctx, bson.M{"_id": id.String()}, id.String())
}

func (s *InvoiceStore) findOne(ctx context.Context, filter bson.M, key string) (*invoiceDomain.Invoice, error) {
	var doc invoiceDocument
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NewNotFoundError("Invoice", key)
		}
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}

	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice id %q: %w", doc.ID, err)
	}
	bookingID, err := uuid.Parse(doc.BookingID)
	if err != nil {
		return nil, fmt.Errorf("invalid booking id %q: %w", doc.BookingID, err)
	}
	guestID, err := uuid.Parse(doc.GuestID)
	if err != nil {
		return nil, fmt.Errorf("invalid guest id %q: %w", doc.GuestID, err)
	}
	return invoiceDomain.Reconstruct(id, doc.InvoiceNumber, invoiceDomain.Params{
		BookingID:    bookingID,
		GuestID:      guestID,
		GuestName:    doc.GuestName,
		RoomNumber:   doc.RoomNumber,
		CheckInDate:  doc.CheckInDate,
		CheckOutDate: doc.CheckOutDate,
		Nights:       doc.Nights,
		RateCents:    doc.RateCents,
		TotalCents:   doc.TotalCents,
		SettledCents: doc.SettledCents,
		Currency:     doc.Currency,
	}, doc.IssuedAt), nil
}
