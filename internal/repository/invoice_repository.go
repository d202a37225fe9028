package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	invoiceDomain "github.com/grandstay/service-frontdesk/internal/domain/invoice"
	"github.com/grandstay/service-frontdesk/pkg/domain"
)

// InvoiceModel is the GORM model for the invoices table.
type InvoiceModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	InvoiceNumber string    `gorm:"type:varchar(20);uniqueIndex;not null"`
	BookingID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	GuestID       uuid.UUID `gorm:"type:uuid;not null;index"`
	GuestName     string    `gorm:"type:varchar(200)"`
	RoomNumber    string    `gorm:"type:varchar(20);not null"`
	CheckInDate   time.Time `gorm:"type:timestamptz;not null"`
	CheckOutDate  time.Time `gorm:"type:timestamptz;not null"`
	Nights        int64     `gorm:"not null"`
	RateCents     int64     `gorm:"not null"`
	TotalCents    int64     `gorm:"not null"`
	SettledCents  int64     `gorm:"not null"`
	Currency      string    `gorm:"type:varchar(3);not null"`
	IssuedAt      time.Time `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (InvoiceModel) TableName() string { return "invoices" }

// GormInvoiceRepository implements InvoiceRepository using GORM.
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository.
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Save persists a new invoice.
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *invoiceDomain.Invoice) error {
	model := toInvoiceModel(inv)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("invoice already issued for booking")
		}
		return fmt.Errorf("failed to save invoice: %w", err)
	}
	return nil
}

// FindByBookingID returns the invoice issued for a booking.
func (r *GormInvoiceRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*invoiceDomain.Invoice, error) {
	var model InvoiceModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Invoice", bookingID.String())
		}
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}
	return toInvoiceDomain(&model), nil
}

// FindByID returns a single invoice by ID.
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoiceDomain.Invoice, error) {
	var model InvoiceModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Invoice", id.String())
		}
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}
	return toInvoiceDomain(&model), nil
}

func toInvoiceModel(inv *invoiceDomain.Invoice) InvoiceModel {
	return InvoiceModel{
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

func toInvoiceDomain(m *InvoiceModel) *invoiceDomain.Invoice {
	return invoiceDomain.Reconstruct(m.ID, m.InvoiceNumber, invoiceDomain.Params{
		BookingID:    m.BookingID,
		GuestID:      m.GuestID,
		GuestName:    m.GuestName,
		RoomNumber:   m.RoomNumber,
		CheckInDate:  m.CheckInDate,
		CheckOutDate: m.CheckOutDate,
		Nights:       m.Nights,
		RateCents:    m.RateCents,
		TotalCents:   m.TotalCents,
		SettledCents: m.SettledCents,
		Currency:     m.Currency,
	}, m.IssuedAt)
}
