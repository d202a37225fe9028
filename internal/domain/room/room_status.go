package room

import (
	"fmt"
	"strings"

	"github.com/grandstay/service-frontdesk/pkg/domain"
)

// RoomStatus is the availability state of a room.
type RoomStatus string

const (
	StatusAvailable   RoomStatus = "available"
	StatusOccupied    RoomStatus = "occupied"
	StatusMaintenance RoomStatus = "maintenance"
)

// IsValid returns true if the status is one of the known values.
func (s RoomStatus) IsValid() bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusMaintenance:
		return true
	}
	return false
}

// String returns the string representation of the status.
func (s RoomStatus) String() string {
	return string(s)
}

// ParseRoomStatus accepts any casing ("Available", "available").
func ParseRoomStatus(s string) (RoomStatus, error) {
	status := RoomStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", domain.New(domain.KindInvalidTransition, domain.CodeInvalidTransition,
			fmt.Sprintf("invalid room status: %s", s))
	}
	return status, nil
}

// Category is the room type sold at the front desk.
type Category string

const (
	CategorySingle Category = "single"
	CategoryDeluxe Category = "deluxe"
	CategorySuite  Category = "suite"
)

// IsValid returns true if the category is recognized.
func (c Category) IsValid() bool {
	switch c {
	case CategorySingle, CategoryDeluxe, CategorySuite:
		return true
	}
	return false
}

// ParseCategory accepts any casing.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", domain.NewValidationError(fmt.Sprintf("invalid room category: %s", s))
	}
	return c, nil
}
