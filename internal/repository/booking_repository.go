package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	bookingDomain "github.com/grandstay/service-frontdesk/internal/domain/booking"
	"github.com/grandstay/service-frontdesk/pkg/domain"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingNumber string     `gorm:"uniqueIndex;not null;size:20"`
	GuestID       uuid.UUID  `gorm:"type:uuid;index;not null"`
	RoomNumber    string     `gorm:"type:varchar(20);index;not null"`
	Status        string     `gorm:"not null;size:30;index"`
	CheckInDate   time.Time  `gorm:"type:timestamptz;not null"`
	CheckOutDate  time.Time  `gorm:"type:timestamptz;not null"`
	RateCents     int64      `gorm:"not null"`
	TotalCents    int64      `gorm:"not null"`
	SettledCents  *int64     `gorm:""`
	Currency      string     `gorm:"not null;size:3;default:'USD'"`
	CheckedInBy   uuid.UUID  `gorm:"type:uuid"`
	CheckedInAt   *time.Time `gorm:""`
	CheckedOutBy  *uuid.UUID `gorm:"type:uuid"`
	CheckedOutAt  *time.Time `gorm:""`
	CancelledAt   *time.Time `gorm:""`
	CancelNote    string     `gorm:"size:500"`
	Version       int64      `gorm:"not null;default:1"`
	CreatedAt     time.Time  `gorm:"not null"`
	UpdatedAt     time.Time  `gorm:"not null"`
}

// ActiveRoomIndexDDL creates the index that allows one confirmed booking
// per room. It mirrors the SQL migration.
const ActiveRoomIndexDDL = `CREATE UNIQUE INDEX IF NOT EXISTS uq_bookings_active_room
	ON bookings (room_number) WHERE status = 'confirmed'`

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("booking_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", number)
		}
		return nil, fmt.Errorf("failed to find booking by number: %w", err)
	}
	return toDomainBooking(&model)
}

// FindActiveByRoom returns the confirmed booking for a room, or nil.
func (r *GormBookingRepository) FindActiveByRoom(ctx context.Context, roomNumber string) (*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("room_number = ? AND status = ?", roomNumber, string(bookingDomain.StatusConfirmed)).
		Limit(1).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find active booking: %w", err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	return toDomainBooking(&models[0])
}

// FindByGuestID retrieves bookings for a specific guest with pagination.
func (r *GormBookingRepository) FindByGuestID(ctx context.Context, guestID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where("guest_id = ?", guestID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count guest bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("guest_id = ?", guestID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find guest bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking. The partial unique index on confirmed
// bookings turns a second active booking for a room into room_not_available.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return bookingDomain.NewRoomNotAvailableError(bk.RoomNumber()).WithCause(err)
		}
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// Optimistic locking: only update if the version matches (current version - 1 since IncrementVersion was called)
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":         model.Status,
			"settled_cents":  model.SettledCents,
			"checked_in_by":  model.CheckedInBy,
			"checked_in_at":  model.CheckedInAt,
			"checked_out_by": model.CheckedOutBy,
			"checked_out_at": model.CheckedOutAt,
			"cancelled_at":   model.CancelledAt,
			"cancel_note":    model.CancelNote,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// Complete moves a confirmed booking to completed in one conditional UPDATE.
func (r *GormBookingRepository) Complete(ctx context.Context, id uuid.UUID, settledCents int64, by uuid.UUID) (*bookingDomain.Booking, error) {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":         string(bookingDomain.StatusCompleted),
		"settled_cents":  settledCents,
		"checked_out_at": now,
		"version":        gorm.Expr("version + 1"),
		"updated_at":     now,
	}
	if by != uuid.Nil {
		updates["checked_out_by"] = by
	}

	var model BookingModel
	result := r.db.WithContext(ctx).
		Model(&model).
		Clauses(clause.Returning{}).
		Where("id = ? AND status = ?", id, string(bookingDomain.StatusConfirmed)).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to complete booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		current, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status().IsTerminal() {
			return nil, bookingDomain.NewAlreadyCompletedError(id, current.Status())
		}
		return nil, domain.NewInvalidStateError(string(current.Status()), string(bookingDomain.StatusCompleted))
	}
	return toDomainBooking(&model)
}

// Delete removes a booking. Deleting a missing booking is not an error.
func (r *GormBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&BookingModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:            bk.ID(),
		BookingNumber: bk.BookingNumber(),
		GuestID:       bk.GuestID(),
		RoomNumber:    bk.RoomNumber(),
		Status:        string(bk.Status()),
		CheckInDate:   bk.CheckInDate(),
		CheckOutDate:  bk.CheckOutDate(),
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

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.GuestID,
		m.RoomNumber,
		status,
		m.CheckInDate,
		m.CheckOutDate,
		m.RateCents,
		m.TotalCents,
		m.SettledCents,
		m.Currency,
		m.CheckedInBy,
		m.CheckedInAt,
		m.CheckedOutBy,
		m.CheckedOutAt,
		m.CancelledAt,
		m.CancelNote,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
