package booking

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/grandstay/service-frontdesk/pkg/domain"
)

// Stable error codes exposed to API clients.
const (
	CodeInvalidRange        = "invalid_range"
	CodeRoomNotAvailable    = "room_not_available"
	CodeAlreadyCompleted    = "already_completed"
	CodeNotActive           = "not_active"
	CodeCheckInFailed       = "check_in_failed"
	CodePartialCheckOut     = "partial_check_out"
	CodePartialCancellation = "partial_cancellation"
)

// NewInvalidRangeError reports a stay whose check-out is not after check-in.
func NewInvalidRangeError(message string) *domain.DomainError {
	return domain.New(domain.KindValidation, CodeInvalidRange, message)
}

// NewRoomNotAvailableError reports a room that cannot be claimed.
func NewRoomNotAvailableError(roomNumber string) *domain.DomainError {
	return domain.New(domain.KindConflict, CodeRoomNotAvailable,
		fmt.Sprintf("room %s is not available", roomNumber)).
		WithDetail("room_number", roomNumber)
}

// NewAlreadyCompletedError reports a completion attempt on a terminal booking.
func NewAlreadyCompletedError(id uuid.UUID, status BookingStatus) *domain.DomainError {
	return domain.New(domain.KindConflict, CodeAlreadyCompleted,
		fmt.Sprintf("booking is already %s", status)).
		WithDetail("booking_id", id.String())
}

// NewNotActiveError reports a check-out of a booking that is not active.
func NewNotActiveError(id uuid.UUID, status BookingStatus) *domain.DomainError {
	return domain.New(domain.KindConflict, CodeNotActive,
		fmt.Sprintf("booking is %s and cannot be checked out", status)).
		WithDetail("booking_id", id.String())
}

// ConsistencyFailure describes a multi-step operation that stopped between
// its room write and its booking write.
type ConsistencyFailure struct {
	Code        string
	Message     string
	RoomNumber  string
	BookingID   uuid.UUID
	Transition  string
	Compensated bool
	Cause       error
}

// NewConsistencyError builds the operator-facing error for a partial failure.
func NewConsistencyError(f ConsistencyFailure) *domain.DomainError {
	err := domain.New(domain.KindConsistency, f.Code, f.Message).
		WithDetail("room_number", f.RoomNumber).
		WithDetail("transition", f.Transition).
		WithDetail("compensated", strconv.FormatBool(f.Compensated))
	if f.BookingID != uuid.Nil {
		err.WithDetail("booking_id", f.BookingID.String())
	}
	if f.Cause != nil {
		err.WithCause(f.Cause)
	}
	return err
}
