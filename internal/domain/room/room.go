package room

import (
	"strings"
	"time"

	"github.com/grandstay/service-frontdesk/pkg/domain"
)

// CodeStatusMismatch is returned when a conditional status write loses.
const CodeStatusMismatch = "status_mismatch"

// Room is the aggregate root for a sellable room. Its number is the identity.
type Room struct {
	number          string
	category        Category
	rateCents       int64
	status          RoomStatus
	description     string
	nextAvailableAt *time.Time
	version         int64
	createdAt       time.Time
	updatedAt       time.Time
}

// NewRoom creates an available room.
func NewRoom(number string, category Category, rateCents int64, description string) (*Room, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, domain.NewValidationError("room number is required")
	}
	if !category.IsValid() {
		return nil, domain.NewValidationError("invalid room category: " + string(category))
	}
	if rateCents <= 0 {
		return nil, domain.NewValidationError("nightly rate must be positive")
	}

	now := time.Now().UTC()
	return &Room{
		number:      number,
		category:    category,
		rateCents:   rateCents,
		status:      StatusAvailable,
		description: description,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct rebuilds a Room from persistence data (no validation).
func Reconstruct(
	number string,
	category Category,
	rateCents int64,
	status RoomStatus,
	description string,
	nextAvailableAt *time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *Room {
	return &Room{
		number:          number,
		category:        category,
		rateCents:       rateCents,
		status:          status,
		description:     description,
		nextAvailableAt: nextAvailableAt,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

func (r *Room) Number() string              { return r.number }
func (r *Room) Category() Category          { return r.category }
func (r *Room) RateCents() int64            { return r.rateCents }
func (r *Room) Status() RoomStatus          { return r.status }
func (r *Room) Description() string         { return r.description }
func (r *Room) NextAvailableAt() *time.Time { return r.nextAvailableAt }
func (r *Room) Version() int64              { return r.version }
func (r *Room) CreatedAt() time.Time        { return r.createdAt }
func (r *Room) UpdatedAt() time.Time        { return r.updatedAt }

// IsAvailable reports whether the room can be claimed for a check-in.
func (r *Room) IsAvailable() bool {
	return r.status == StatusAvailable
}

// ChangeStatus applies a status change in memory. Stores use it so every
// implementation derives next-available and version the same way.
func (r *Room) ChangeStatus(to RoomStatus, nextAvailableAt *time.Time) {
	r.status = to
	if to == StatusAvailable {
		r.nextAvailableAt = nil
	} else if nextAvailableAt != nil {
		t := nextAvailableAt.UTC()
		r.nextAvailableAt = &t
	}
	r.version++
	r.updatedAt = time.Now().UTC()
}

// Clone returns a copy safe to hand out from in-process stores.
func (r *Room) Clone() *Room {
	c := *r
	if r.nextAvailableAt != nil {
		t := *r.nextAvailableAt
		c.nextAvailableAt = &t
	}
	return &c
}

// NewStatusMismatchError reports a lost compare-and-swap on a room's status.
func NewStatusMismatchError(number string, expected, actual RoomStatus) *domain.DomainError {
	return domain.New(domain.KindConflict, CodeStatusMismatch,
		"room "+number+" is "+string(actual)+", expected "+string(expected)).
		WithDetail("room_number", number)
}
