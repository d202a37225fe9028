package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	roomDomain "github.com/grandstay/service-frontdesk/internal/domain/room"
	"github.com/grandstay/service-frontdesk/pkg/domain"
)

// RoomModel is the GORM model for the rooms table.
type RoomModel struct {
	RoomNumber      string     `gorm:"type:varchar(20);primaryKey"`
	Category        string     `gorm:"type:varchar(20);not null"`
	RateCents       int64      `gorm:"not null"`
	Status          string     `gorm:"type:varchar(20);not null;index"`
	Description     string     `gorm:"type:text"`
	NextAvailableAt *time.Time `gorm:"type:timestamptz"`
	Version         int64      `gorm:"not null;default:1"`
	CreatedAt       time.Time  `gorm:"type:timestamptz;not null"`
	UpdatedAt       time.Time  `gorm:"type:timestamptz;not null"`
}

func (RoomModel) TableName() string { return "rooms" }

// GormRoomRepository implements RoomRepository using GORM. Status writes
// are single UPDATE statements guarded by the expected status.
type GormRoomRepository struct {
	db *gorm.DB
}

func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

// FindByNumber retrieves a room by its number.
func (r *GormRoomRepository) FindByNumber(ctx context.Context, number string) (*roomDomain.Room, error) {
	var model RoomModel
	if err := r.db.WithContext(ctx).Where("room_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Room", number)
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return toRoomDomain(&model), nil
}

// ListAll retrieves every room ordered by number.
func (r *GormRoomRepository) ListAll(ctx context.Context) ([]*roomDomain.Room, error) {
	return r.list(r.db.WithContext(ctx))
}

// ListAvailable retrieves rooms whose status is available.
func (r *GormRoomRepository) ListAvailable(ctx context.Context) ([]*roomDomain.Room, error) {
	return r.list(r.db.WithContext(ctx).Where("status = ?", string(roomDomain.StatusAvailable)))
}

func (r *GormRoomRepository) list(q *gorm.DB) ([]*roomDomain.Room, error) {
	var models []RoomModel
	if err := q.Order("room_number ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	rooms := make([]*roomDomain.Room, len(models))
	for i := range models {
		rooms[i] = toRoomDomain(&models[i])
	}
	return rooms, nil
}

// Save inserts the room or replaces an existing one with the same number.
func (r *GormRoomRepository) Save(ctx context.Context, room *roomDomain.Room) error {
	model := toRoomModel(room)
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}
	return nil
}

// SetStatus overwrites a room's status without checking the current one.
func (r *GormRoomRepository) SetStatus(ctx context.Context, number string, status roomDomain.RoomStatus) (*roomDomain.Room, error) {
	if _, err := roomDomain.ParseRoomStatus(string(status)); err != nil {
		return nil, err
	}

	var model RoomModel
	result := r.db.WithContext(ctx).
		Model(&model).
		Clauses(clause.Returning{}).
		Where("room_number = ?", number).
		Updates(statusUpdates(status, nil))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to set room status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, domain.NewNotFoundError("Room", number)
	}
	return toRoomDomain(&model), nil
}

// TransitionStatus is the compare-and-swap on a room's status. Exactly one
// of several concurrent callers with the same from status succeeds.
func (r *GormRoomRepository) TransitionStatus(ctx context.Context, number string, from, to roomDomain.RoomStatus, nextAvailableAt *time.Time) (*roomDomain.Room, error) {
	var model RoomModel
	result := r.db.WithContext(ctx).
		Model(&model).
		Clauses(clause.Returning{}).
		Where("room_number = ? AND status = ?", number, string(from)).
		Updates(statusUpdates(to, nextAvailableAt))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to transition room status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		current, err := r.FindByNumber(ctx, number)
		if err != nil {
			return nil, err
		}
		return nil, roomDomain.NewStatusMismatchError(number, from, current.Status())
	}
	return toRoomDomain(&model), nil
}

func statusUpdates(to roomDomain.RoomStatus, nextAvailableAt *time.Time) map[string]interface{} {
	updates := map[string]interface{}{
		"status":     string(to),
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now().UTC(),
	}
	switch {
	case to == roomDomain.StatusAvailable:
		updates["next_available_at"] = nil
	case nextAvailableAt != nil:
		updates["next_available_at"] = nextAvailableAt.UTC()
	}
	return updates
}

func toRoomModel(r *roomDomain.Room) RoomModel {
	return RoomModel{
		RoomNumber:      r.Number(),
		Category:        string(r.Category()),
		RateCents:       r.RateCents(),
		Status:          string(r.Status()),
		Description:     r.Description(),
		NextAvailableAt: r.NextAvailableAt(),
		Version:         r.Version(),
		CreatedAt:       r.CreatedAt(),
		UpdatedAt:       r.UpdatedAt(),
	}
}

func toRoomDomain(m *RoomModel) *roomDomain.Room {
	return roomDomain.Reconstruct(
		m.RoomNumber,
		roomDomain.Category(m.Category),
		m.RateCents,
		roomDomain.RoomStatus(m.Status),
		m.Description,
		m.NextAvailableAt,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
