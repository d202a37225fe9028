// Package events defines the topics, CloudEvent types and payloads the
// front desk exchanges with other services.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicFrontDeskEvents    = "frontdesk.events"
	TopicHousekeepingEvents = "housekeeping.events"
)

// Outbound event types.
const (
	BookingCheckedIn        = "frontdesk.booking.checked_in"
	BookingCheckedOut       = "frontdesk.booking.checked_out"
	BookingCancelled        = "frontdesk.booking.cancelled"
	RoomStatusChanged       = "frontdesk.room.status_changed"
	ConsistencyRepairNeeded = "frontdesk.consistency.repair_needed"
)

// Inbound event types.
const (
	HousekeepingMaintenanceStarted  = "housekeeping.room.maintenance_started"
	HousekeepingMaintenanceFinished = "housekeeping.room.maintenance_finished"
)

// GuestCheckedInEvent is published after a successful check-in.
type GuestCheckedInEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	GuestID       uuid.UUID `json:"guest_id"`
	RoomNumber    string    `json:"room_number"`
	CheckInDate   time.Time `json:"check_in_date"`
	CheckOutDate  time.Time `json:"check_out_date"`
	TotalCents    int64     `json:"total_cents"`
	Currency      string    `json:"currency"`
	CheckedInBy   uuid.UUID `json:"checked_in_by"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// GuestCheckedOutEvent is published after the booking is completed.
type GuestCheckedOutEvent struct {
	BookingID     uuid.UUID  `json:"booking_id"`
	BookingNumber string     `json:"booking_number"`
	GuestID       uuid.UUID  `json:"guest_id"`
	RoomNumber    string     `json:"room_number"`
	SettledCents  int64      `json:"settled_cents"`
	Currency      string     `json:"currency"`
	InvoiceID     *uuid.UUID `json:"invoice_id,omitempty"`
	RoomReleased  bool       `json:"room_released"`
	CheckedOutBy  uuid.UUID  `json:"checked_out_by"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// BookingCancelledEvent is published when an operator cancels a booking.
type BookingCancelledEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	RoomNumber  string    `json:"room_number"`
	CancelledBy uuid.UUID `json:"cancelled_by"`
	Reason      string    `json:"reason"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// RoomStatusChangedEvent is published on status overrides and repairs.
type RoomStatusChangedEvent struct {
	RoomNumber string    `json:"room_number"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ConsistencyRepairNeededEvent flags a room whose status no longer matches
// the booking ledger and could not be fixed automatically.
type ConsistencyRepairNeededEvent struct {
	RoomNumber  string     `json:"room_number"`
	BookingID   *uuid.UUID `json:"booking_id,omitempty"`
	Transition  string     `json:"transition"`
	Operation   string     `json:"operation"`
	Compensated bool       `json:"compensated"`
	Error       string     `json:"error"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

// MaintenanceEvent is the payload of inbound housekeeping events.
type MaintenanceEvent struct {
	RoomNumber string    `json:"room_number"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
