package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grandstay/service-frontdesk/internal/domain/guest"
	"github.com/grandstay/service-frontdesk/pkg/domain"
)

// GuestModel is the read model of the guests table. Rows are written by
// the guest registry, not by this service.
type GuestModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName  string    `gorm:"type:varchar(200);not null"`
	Email     string    `gorm:"type:varchar(255)"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
}

func (GuestModel) TableName() string { return "guests" }

// GormGuestDirectory implements guest.Directory over the guests table.
type GormGuestDirectory struct {
	db *gorm.DB
}

func NewGormGuestDirectory(db *gorm.DB) *GormGuestDirectory {
	return &GormGuestDirectory{db: db}
}

// Exists reports whether a guest with the given ID is registered.
func (d *GormGuestDirectory) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&GuestModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check guest: %w", err)
	}
	return count > 0, nil
}

// Lookup retrieves a guest by ID.
func (d *GormGuestDirectory) Lookup(ctx context.Context, id uuid.UUID) (*guest.Guest, error) {
	var model GuestModel
	if err := d.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Guest", id.String())
		}
		return nil, fmt.Errorf("failed to find guest: %w", err)
	}
	return &guest.Guest{ID: model.ID, FullName: model.FullName, Email: model.Email}, nil
}
