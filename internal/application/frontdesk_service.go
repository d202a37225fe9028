package application

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	bookingDomain "github.com/grandstay/service-frontdesk/internal/domain/booking"
	"github.com/grandstay/service-frontdesk/internal/domain/guest"
	roomDomain "github.com/grandstay/service-frontdesk/internal/domain/room"
	"github.com/grandstay/service-frontdesk/pkg/domain"
	"github.com/grandstay/service-frontdesk/pkg/events"
)

const (
	// releaseAttempts bounds every room release: one try plus one retry.
	releaseAttempts     = 2
	defaultRetryDelay   = 100 * time.Millisecond
	compensationTimeout = 10 * time.Second
	// claimHoldWindow is how long an occupied room without a booking is
	// treated as a check-in in flight rather than an orphaned claim.
	claimHoldWindow = compensationTimeout

	transitionRelease = "occupied->available"
)

// FrontDeskService coordinates the room registry and the booking ledger.
// A room is claimed with a conditional status write before its booking is
// recorded, and every multi-step operation either completes or undoes its
// room write.
type FrontDeskService struct {
	rooms      roomDomain.RoomRepository
	bookings   bookingDomain.BookingRepository
	guests     guest.Directory
	pricing    bookingDomain.PricingStrategy
	invoices   *InvoiceService
	publisher  EventPublisher
	currency   string
	logger     *zap.Logger
	tracer     trace.Tracer
	retryDelay time.Duration
	now        func() time.Time
}

// NewFrontDeskService creates a new FrontDeskService.
func NewFrontDeskService(
	rooms roomDomain.RoomRepository,
	bookings bookingDomain.BookingRepository,
	guests guest.Directory,
	pricing bookingDomain.PricingStrategy,
	invoices *InvoiceService,
	publisher EventPublisher,
	currency string,
	logger *zap.Logger,
) *FrontDeskService {
	return &FrontDeskService{
		rooms:      rooms,
		bookings:   bookings,
		guests:     guests,
		pricing:    pricing,
		invoices:   invoices,
		publisher:  publisher,
		currency:   currency,
		logger:     logger,
		tracer:     otel.Tracer("github.com/grandstay/service-frontdesk/internal/application"),
		retryDelay: defaultRetryDelay,
		now:        time.Now,
	}
}

// CheckIn checks a guest into an available room and records a confirmed
// booking. Concurrent check-ins for the same room admit exactly one winner;
// the others get room_not_available.
func (s *FrontDeskService) CheckIn(ctx context.Context, receptionistID uuid.UUID, req CheckInRequest) (_ *BookingDTO, err error) {
	ctx, span := s.tracer.Start(ctx, "FrontDesk.CheckIn", trace.WithAttributes(
		attribute.String("room.number", req.RoomNumber),
		attribute.String("guest.id", req.GuestID.String()),
	))
	defer func() { endSpan(span, err) }()

	exists, err := s.guests.Exists(ctx, req.GuestID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up guest: %w", err)
	}
	if !exists {
		return nil, domain.NewNotFoundError("Guest", req.GuestID.String())
	}

	rm, err := s.rooms.FindByNumber(ctx, req.RoomNumber)
	if err != nil {
		return nil, err
	}
	if !rm.IsAvailable() {
		return nil, bookingDomain.NewRoomNotAvailableError(rm.Number())
	}
	active, err := s.bookings.FindActiveByRoom(ctx, rm.Number())
	if err != nil {
		return nil, fmt.Errorf("failed to check active booking: %w", err)
	}
	if active != nil {
		return nil, bookingDomain.NewRoomNotAvailableError(rm.Number())
	}

	totalCents, err := s.pricing.Calculate(bookingDomain.PricingParams{
		CheckIn:   req.CheckInDate,
		CheckOut:  req.CheckOutDate,
		RateCents: rm.RateCents(),
	})
	if err != nil {
		return nil, err
	}

	bk, err := bookingDomain.NewBooking(bookingDomain.NewBookingParams{
		GuestID:      req.GuestID,
		RoomNumber:   rm.Number(),
		CheckInDate:  req.CheckInDate,
		CheckOutDate: req.CheckOutDate,
		RateCents:    rm.RateCents(),
		TotalCents:   totalCents,
		Currency:     s.currency,
		CheckedInBy:  receptionistID,
		Status:       bookingDomain.StatusConfirmed,
	})
	if err != nil {
		return nil, err
	}

	// Claim the room. Only one caller can move it out of available.
	checkOut := bk.CheckOutDate()
	if _, err := s.rooms.TransitionStatus(ctx, rm.Number(), roomDomain.StatusAvailable, roomDomain.StatusOccupied, &checkOut); err != nil {
		if domain.HasCode(err, roomDomain.CodeStatusMismatch) {
			s.logger.Debug("room claim lost",
				zap.String("room_number", rm.Number()),
			)
			return nil, bookingDomain.NewRoomNotAvailableError(rm.Number())
		}
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to claim room: %w", err)
	}

	if err := s.bookings.Save(ctx, bk); err != nil {
		return nil, s.compensateCheckIn(ctx, bk, err)
	}

	s.logger.Info("guest checked in",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_number", bk.BookingNumber()),
		zap.String("room_number", bk.RoomNumber()),
		zap.Int64("total_cents", bk.TotalCents()),
	)

	publishEvent(ctx, s.publisher, s.logger, events.TopicFrontDeskEvents, events.BookingCheckedIn, bk.ID().String(), events.GuestCheckedInEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		GuestID:       bk.GuestID(),
		RoomNumber:    bk.RoomNumber(),
		CheckInDate:   bk.CheckInDate(),
		CheckOutDate:  bk.CheckOutDate(),
		TotalCents:    bk.TotalCents(),
		Currency:      bk.Currency(),
		CheckedInBy:   receptionistID,
		OccurredAt:    time.Now().UTC(),
	})

	dto := toBookingDTO(bk)
	return &dto, nil
}

// compensateCheckIn undoes a room claim whose booking could not be written.
func (s *FrontDeskService) compensateCheckIn(ctx context.Context, bk *bookingDomain.Booking, cause error) error {
	ctx, cancel := detached(ctx)
	defer cancel()

	// The write may have landed even though it reported an error.
	if err := s.bookings.Delete(ctx, bk.ID()); err != nil {
		s.logger.Warn("failed to remove booking of failed check-in",
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
	}

	// A rival booking may have taken the room after a reconcile freed our
	// claim. The room is then theirs and must stay occupied.
	if domain.HasCode(cause, bookingDomain.CodeRoomNotAvailable) {
		owner, err := s.bookings.FindActiveByRoom(ctx, bk.RoomNumber())
		switch {
		case err != nil:
			return s.escalateCheckIn(ctx, bk, cause, err)
		case owner != nil && owner.ID() != bk.ID():
			s.logger.Warn("check-in lost room to another booking",
				zap.String("room_number", bk.RoomNumber()),
				zap.String("booking_id", bk.ID().String()),
				zap.String("owner_booking_id", owner.ID().String()),
			)
			return bookingDomain.NewRoomNotAvailableError(bk.RoomNumber())
		}
	}

	if _, releaseErr := s.releaseRoom(ctx, bk.RoomNumber()); releaseErr != nil {
		return s.escalateCheckIn(ctx, bk, cause, releaseErr)
	}

	s.logger.Warn("check-in failed, room claim released",
		zap.String("room_number", bk.RoomNumber()),
		zap.String("booking_id", bk.ID().String()),
		zap.Error(cause),
	)
	return bookingDomain.NewConsistencyError(bookingDomain.ConsistencyFailure{
		Code:        bookingDomain.CodeCheckInFailed,
		Message:     "check-in could not be completed",
		RoomNumber:  bk.RoomNumber(),
		BookingID:   bk.ID(),
		Transition:  transitionRelease,
		Compensated: true,
		Cause:       cause,
	})
}

// escalateCheckIn reports a room claim that could not be undone.
func (s *FrontDeskService) escalateCheckIn(ctx context.Context, bk *bookingDomain.Booking, cause, releaseErr error) error {
	failure := bookingDomain.ConsistencyFailure{
		Code:        bookingDomain.CodeCheckInFailed,
		Message:     "check-in could not be completed",
		RoomNumber:  bk.RoomNumber(),
		BookingID:   bk.ID(),
		Transition:  transitionRelease,
		Compensated: false,
		Cause:       cause,
	}

	s.logger.Error("check-in compensation failed, room occupied without booking",
		zap.String("room_number", bk.RoomNumber()),
		zap.String("booking_id", bk.ID().String()),
		zap.String("transition", transitionRelease),
		zap.Bool("compensated", false),
		zap.NamedError("cause", cause),
		zap.NamedError("compensation_error", releaseErr),
	)
	s.publishRepairNeeded(ctx, "check_in", failure, releaseErr)
	return bookingDomain.NewConsistencyError(failure)
}

// CheckOut completes an active booking and releases its room. Checking out
// the same booking twice yields not_active the second time.
func (s *FrontDeskService) CheckOut(ctx context.Context, receptionistID, bookingID uuid.UUID, req CheckOutRequest) (_ *CheckOutResultDTO, err error) {
	ctx, span := s.tracer.Start(ctx, "FrontDesk.CheckOut", trace.WithAttributes(
		attribute.String("booking.id", bookingID.String()),
	))
	defer func() { endSpan(span, err) }()

	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.Status().IsActive() {
		return nil, bookingDomain.NewNotActiveError(bk.ID(), bk.Status())
	}
	span.SetAttributes(attribute.String("room.number", bk.RoomNumber()))

	settled := bk.TotalCents()
	if req.SettledCents != nil {
		if *req.SettledCents < 0 {
			return nil, domain.NewValidationError("settled amount cannot be negative")
		}
		settled = *req.SettledCents
	}

	done, err := s.bookings.Complete(ctx, bk.ID(), settled, receptionistID)
	if err != nil {
		if domain.HasCode(err, bookingDomain.CodeAlreadyCompleted) {
			s.logger.Debug("check-out lost to a concurrent completion",
				zap.String("booking_id", bk.ID().String()),
			)
			return nil, bookingDomain.NewNotActiveError(bk.ID(), bookingDomain.StatusCompleted)
		}
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to complete booking: %w", err)
	}

	releaseCtx, cancel := detached(ctx)
	released, err := s.releaseRoom(releaseCtx, done.RoomNumber())
	cancel()
	if err != nil {
		failure := bookingDomain.ConsistencyFailure{
			Code:       bookingDomain.CodePartialCheckOut,
			Message:    "booking completed but the room could not be released",
			RoomNumber: done.RoomNumber(),
			BookingID:  done.ID(),
			Transition: transitionRelease,
			Cause:      err,
		}
		s.logger.Error("check-out left room occupied",
			zap.String("room_number", done.RoomNumber()),
			zap.String("booking_id", done.ID().String()),
			zap.String("transition", transitionRelease),
			zap.Bool("compensated", false),
			zap.Error(err),
		)
		s.publishRepairNeeded(ctx, "check_out", failure, err)
		return nil, bookingDomain.NewConsistencyError(failure)
	}
	if !released {
		s.logger.Warn("room was not occupied at check-out, status left unchanged",
			zap.String("room_number", done.RoomNumber()),
			zap.String("booking_id", done.ID().String()),
		)
	}

	result := &CheckOutResultDTO{Booking: toBookingDTO(done)}
	var invoiceID *uuid.UUID
	if s.invoices != nil {
		inv, err := s.invoices.IssueForBooking(ctx, done)
		if err != nil {
			s.logger.Warn("invoice emission failed",
				zap.String("booking_id", done.ID().String()),
				zap.Error(err),
			)
		} else {
			result.Invoice = inv
			invoiceID = &inv.ID
		}
	}

	s.logger.Info("guest checked out",
		zap.String("booking_id", done.ID().String()),
		zap.String("room_number", done.RoomNumber()),
		zap.Int64("settled_cents", settled),
	)

	publishEvent(ctx, s.publisher, s.logger, events.TopicFrontDeskEvents, events.BookingCheckedOut, done.ID().String(), events.GuestCheckedOutEvent{
		BookingID:     done.ID(),
		BookingNumber: done.BookingNumber(),
		GuestID:       done.GuestID(),
		RoomNumber:    done.RoomNumber(),
		SettledCents:  settled,
		Currency:      done.Currency(),
		InvoiceID:     invoiceID,
		RoomReleased:  released,
		CheckedOutBy:  receptionistID,
		OccurredAt:    time.Now().UTC(),
	})

	return result, nil
}

// CancelBooking cancels a pending or confirmed booking. A confirmed
// booking gives its room back.
func (s *FrontDeskService) CancelBooking(ctx context.Context, actorID, bookingID uuid.UUID, reason string) (_ *BookingDTO, err error) {
	ctx, span := s.tracer.Start(ctx, "FrontDesk.CancelBooking", trace.WithAttributes(
		attribute.String("booking.id", bookingID.String()),
	))
	defer func() { endSpan(span, err) }()

	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	holdsRoom := bk.Status().IsActive()
	if err := bk.Cancel(reason); err != nil {
		return nil, err
	}
	bk.IncrementVersion()

	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	if holdsRoom {
		releaseCtx, cancel := detached(ctx)
		_, err := s.releaseRoom(releaseCtx, bk.RoomNumber())
		cancel()
		if err != nil {
			failure := bookingDomain.ConsistencyFailure{
				Code:       bookingDomain.CodePartialCancellation,
				Message:    "booking cancelled but the room could not be released",
				RoomNumber: bk.RoomNumber(),
				BookingID:  bk.ID(),
				Transition: transitionRelease,
				Cause:      err,
			}
			s.logger.Error("cancellation left room occupied",
				zap.String("room_number", bk.RoomNumber()),
				zap.String("booking_id", bk.ID().String()),
				zap.String("transition", transitionRelease),
				zap.Bool("compensated", false),
				zap.Error(err),
			)
			s.publishRepairNeeded(ctx, "cancel", failure, err)
			return nil, bookingDomain.NewConsistencyError(failure)
		}
	}

	s.logger.Info("booking cancelled",
		zap.String("booking_id", bk.ID().String()),
		zap.String("cancelled_by", actorID.String()),
	)

	publishEvent(ctx, s.publisher, s.logger, events.TopicFrontDeskEvents, events.BookingCancelled, bk.ID().String(), events.BookingCancelledEvent{
		BookingID:   bk.ID(),
		RoomNumber:  bk.RoomNumber(),
		CancelledBy: actorID,
		Reason:      reason,
		OccurredAt:  time.Now().UTC(),
	})

	dto := toBookingDTO(bk)
	return &dto, nil
}

// ReconcileRoom derives a room's status from the booking ledger and writes
// it if the two disagree.
func (s *FrontDeskService) ReconcileRoom(ctx context.Context, number string) (_ *ReconcileResultDTO, err error) {
	ctx, span := s.tracer.Start(ctx, "FrontDesk.ReconcileRoom", trace.WithAttributes(
		attribute.String("room.number", number),
	))
	defer func() { endSpan(span, err) }()

	rm, err := s.rooms.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	active, err := s.bookings.FindActiveByRoom(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("failed to check active booking: %w", err)
	}

	current := rm.Status()
	desired := current
	var nextAvailable *time.Time
	var activeID *uuid.UUID
	switch {
	case active != nil:
		desired = roomDomain.StatusOccupied
		t := active.CheckOutDate()
		nextAvailable = &t
		id := active.ID()
		activeID = &id
	case current == roomDomain.StatusOccupied:
		desired = roomDomain.StatusAvailable
	}

	result := &ReconcileResultDTO{PrevStatus: string(current), ActiveBooking: activeID}

	// A fresh claim without a booking is a check-in still writing its booking.
	if active == nil && current == roomDomain.StatusOccupied && s.now().Sub(rm.UpdatedAt()) < claimHoldWindow {
		s.logger.Info("room claim in flight, reconcile skipped",
			zap.String("room_number", number),
			zap.Time("claimed_at", rm.UpdatedAt()),
		)
		result.Room = toRoomDTO(rm, s.currency)
		result.Held = true
		return result, nil
	}
	if desired == current {
		result.Room = toRoomDTO(rm, s.currency)
		return result, nil
	}

	repaired, err := s.rooms.TransitionStatus(ctx, number, current, desired, nextAvailable)
	if err != nil {
		return nil, err
	}

	s.logger.Warn("room status repaired from ledger",
		zap.String("room_number", number),
		zap.String("from", string(current)),
		zap.String("to", string(desired)),
	)

	publishEvent(ctx, s.publisher, s.logger, events.TopicFrontDeskEvents, events.RoomStatusChanged, number, events.RoomStatusChangedEvent{
		RoomNumber: number,
		From:       string(current),
		To:         string(desired),
		Reason:     "reconcile",
		OccurredAt: time.Now().UTC(),
	})

	result.Room = toRoomDTO(repaired, s.currency)
	result.Repaired = true
	return result, nil
}

// GetBooking retrieves a booking by ID.
func (s *FrontDeskService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	dto := toBookingDTO(bk)
	return &dto, nil
}

// BookingHistory returns a guest's bookings, newest first.
func (s *FrontDeskService) BookingHistory(ctx context.Context, guestID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.bookings.FindByGuestID(ctx, guestID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get guest bookings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *FrontDeskService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.bookings.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos, total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *FrontDeskService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

// releaseRoom moves a room from occupied back to available. It reports
// false without error when the room is no longer occupied, for example
// after a maintenance override.
func (s *FrontDeskService) releaseRoom(ctx context.Context, number string) (bool, error) {
	released := false
	attempt := 0
	release := func() error {
		attempt++
		_, err := s.rooms.TransitionStatus(ctx, number, roomDomain.StatusOccupied, roomDomain.StatusAvailable, nil)
		switch {
		case err == nil:
			released = true
			return nil
		case domain.HasCode(err, roomDomain.CodeStatusMismatch), domain.IsKind(err, domain.KindNotFound):
			return nil
		}
		s.logger.Warn("room release attempt failed",
			zap.String("room_number", number),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryDelay), releaseAttempts-1),
		ctx,
	)
	if err := backoff.Retry(release, policy); err != nil {
		return false, err
	}
	return released, nil
}

func (s *FrontDeskService) publishRepairNeeded(ctx context.Context, operation string, f bookingDomain.ConsistencyFailure, err error) {
	var bookingID *uuid.UUID
	if f.BookingID != uuid.Nil {
		id := f.BookingID
		bookingID = &id
	}
	publishEvent(ctx, s.publisher, s.logger, events.TopicFrontDeskEvents, events.ConsistencyRepairNeeded, f.RoomNumber, events.ConsistencyRepairNeededEvent{
		RoomNumber:  f.RoomNumber,
		BookingID:   bookingID,
		Transition:  f.Transition,
		Operation:   operation,
		Compensated: f.Compensated,
		Error:       err.Error(),
		OccurredAt:  time.Now().UTC(),
	})
}

// detached returns a context that survives the caller's cancellation so
// compensating writes can finish.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
