package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	bookingDomain "github.com/grandstay/service-frontdesk/internal/domain/booking"
	"github.com/grandstay/service-frontdesk/internal/domain/guest"
	roomDomain "github.com/grandstay/service-frontdesk/internal/domain/room"
	"github.com/grandstay/service-frontdesk/internal/repository/memory"
	"github.com/grandstay/service-frontdesk/pkg/domain"
	"github.com/grandstay/service-frontdesk/pkg/events"
	"github.com/grandstay/service-frontdesk/pkg/kafka"
)

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// flakyRooms fails releases a configurable number of times.
type flakyRooms struct {
	*memory.RoomStore
	mu           sync.Mutex
	releaseFails int
	releaseCalls int
}

func (r *flakyRooms) TransitionStatus(ctx context.Context, number string, from, to roomDomain.RoomStatus, next *time.Time) (*roomDomain.Room, error) {
	if from == roomDomain.StatusOccupied && to == roomDomain.StatusAvailable {
		r.mu.Lock()
		r.releaseCalls++
		fail := r.releaseCalls <= r.releaseFails
		r.mu.Unlock()
		if fail {
			return nil, errors.New("connection reset by peer")
		}
	}
	return r.RoomStore.TransitionStatus(ctx, number, from, to, next)
}

// failingSaves rejects every new booking.
type failingSaves struct {
	*memory.BookingStore
}

func (failingSaves) Save(context.Context, *bookingDomain.Booking) error {
	return errors.New("ledger unavailable")
}

// interleavedSaves runs a hook once before the first booking reaches the
// store, while the room is claimed but has no booking yet.
type interleavedSaves struct {
	*memory.BookingStore
	once   sync.Once
	before func()
}

func (b *interleavedSaves) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	b.once.Do(b.before)
	return b.BookingStore.Save(ctx, bk)
}

type fixture struct {
	svc       *FrontDeskService
	rooms     *flakyRooms
	bookings  *memory.BookingStore
	invoices  *memory.InvoiceStore
	guests    *memory.GuestDirectory
	publisher *recordingPublisher
	guestX    uuid.UUID
	guestY    uuid.UUID
	clerk     uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		rooms:     &flakyRooms{RoomStore: memory.NewRoomStore()},
		bookings:  memory.NewBookingStore(),
		invoices:  memory.NewInvoiceStore(),
		guests:    memory.NewGuestDirectory(),
		publisher: &recordingPublisher{},
		guestX:    uuid.New(),
		guestY:    uuid.New(),
		clerk:     uuid.New(),
	}
	f.guests.Add(guest.Guest{ID: f.guestX, FullName: "Guest X", Email: "x@example.com"})
	f.guests.Add(guest.Guest{ID: f.guestY, FullName: "Guest Y", Email: "y@example.com"})

	rm, err := roomDomain.NewRoom("101", roomDomain.CategoryDeluxe, 10000, "")
	require.NoError(t, err)
	require.NoError(t, f.rooms.Save(context.Background(), rm))

	f.svc = f.build(f.bookings)
	return f
}

func (f *fixture) build(bookings bookingDomain.BookingRepository) *FrontDeskService {
	log := zap.NewNop()
	svc := NewFrontDeskService(
		f.rooms,
		bookings,
		f.guests,
		bookingDomain.NewNightlyPricingStrategy(),
		NewInvoiceService(f.invoices, f.guests, log),
		f.publisher,
		domain.CurrencyUSD,
		log,
	)
	svc.retryDelay = 0
	return svc
}

func (f *fixture) roomStatus(t *testing.T) roomDomain.RoomStatus {
	t.Helper()
	rm, err := f.rooms.FindByNumber(context.Background(), "101")
	require.NoError(t, err)
	return rm.Status()
}

func stay(guestID uuid.UUID) CheckInRequest {
	return CheckInRequest{
		GuestID:      guestID,
		RoomNumber:   "101",
		CheckInDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		CheckOutDate: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
	}
}

func TestCheckIn_ConfirmsBookingAndOccupiesRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bk, err := f.svc.CheckIn(ctx, f.clerk, stay(f.guestX))
	require.NoError(t, err)
	assert.Equal(t, int64(30000), bk.TotalCents)
	assert.Equal(t, "confirmed", bk.Status)
	assert.Equal(t, int64(3), bk.Nights)
	assert.Equal(t, f.clerk, bk.CheckedInBy)
	assert.Equal(t, roomDomain.StatusOccupied, f.roomStatus(t))

	rm, err := f.rooms.FindByNumber(ctx, "101")
	require.NoError(t, err)
	require.NotNil(t, rm.NextAvailableAt())
	assert.True(t, rm.NextAvailableAt().Equal(stay(f.guestX).CheckOutDate))

	active, err := f.bookings.FindActiveByRoom(ctx, "101")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, bk.ID, active.ID())

	assert.Equal(t, []string{events.BookingCheckedIn}, f.publisher.types())
}

func TestCheckIn_SecondGuestGetsRoomNotAvailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CheckIn(ctx, f.clerk, stay(f.guestX))
	require.NoError(t, err)

	_, err = f.svc.CheckIn(ctx, f.clerk, stay(f.guestY))
	assert.True(t, domain.HasCode(err, bookingDomain.CodeRoomNotAvailable), "got %v", err)

	_, total, err := f.bookings.ListAll(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestCheckIn_InvalidRangeMutatesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := stay(f.guestX)
	req.CheckOutDate = req.CheckInDate
	_, err := f.svc.CheckIn(ctx, f.clerk, req)
	assert.True(t, domain.HasCode(err, bookingDomain.CodeInvalidRange), "got %v", err)

	rm, err := f.rooms.FindByNumber(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, roomDomain.StatusAvailable, rm.Status())
	assert.Equal(t, int64(1), rm.Version())

	_, total, err := f.bookings.ListAll(ctx, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, f.publisher.types())
}

func TestCheckIn_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CheckIn(ctx, f.clerk, stay(uuid.New()))
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	req := stay(f.guestX)
	req.RoomNumber = "999"
	_, err = f.svc.CheckIn(ctx, f.clerk, req)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestCheckIn_RoomUnderMaintenance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.rooms.SetStatus(ctx, "101", roomDomain.StatusMaintenance)
	require.NoError(t, err)

	_, err = f.svc.CheckIn(ctx, f.clerk, stay(f.guestX))
	assert.True(t, domain.HasCode(err, bookingDomain.CodeRoomNotAvailable))
}

func TestCheckIn_ConcurrentClaimsHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 20
	guests := make([]uuid.UUID, n)
	for i := range guests {
		guests[i] = uuid.New()
		f.guests.Add(guest.Guest{ID: guests[i]})
	}

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		successes   int
		unavailable int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(g uuid.UUID) {
			defer wg.Done()
			<-start
			_, err := f.svc.CheckIn(ctx, f.clerk, stay(g))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case domain.HasCode(err, bookingDomain.CodeRoomNotAvailable):
				unavailable++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(guests[i])
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, unavailable)

	counts, err := f.bookings.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["confirmed"])
}

func TestCheckIn_SaveFailureReleasesRoom(t *testing.T) {
	f := newFixture(t)
	svc := f.build(failingSaves{f.bookings})

	_, err := svc.CheckIn(context.Background(), f.clerk, stay(f.guestX))
	require.Error(t, err)

	de, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindConsistency, de.Kind)
	assert.Equal(t, bookingDomain.CodeCheckInFailed, de.Code)
	assert.Equal(t, "true", de.Details["compensated"])
	assert.Equal(t, roomDomain.StatusAvailable, f.roomStatus(t))
}

func TestCheckIn_ReconcileLeavesClaimInFlight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	saves := &interleavedSaves{BookingStore: f.bookings}
	svc := f.build(saves)
	var (
		reconciled *ReconcileResultDTO
		reconErr   error
		rivalErr   error
	)
	saves.before = func() {
		reconciled, reconErr = f.svc.ReconcileRoom(ctx, "101")
		_, rivalErr = f.svc.CheckIn(ctx, f.clerk, stay(f.guestY))
	}

	bk, err := svc.CheckIn(ctx, f.clerk, stay(f.guestX))
	require.NoError(t, err)

	require.NoError(t, reconErr)
	assert.True(t, reconciled.Held)
	assert.False(t, reconciled.Repaired)
	assert.Equal(t, "occupied", reconciled.Room.Status)
	assert.True(t, domain.HasCode(rivalErr, bookingDomain.CodeRoomNotAvailable))

	assert.Equal(t, roomDomain.StatusOccupied, f.roomStatus(t))
	active, err := f.bookings.FindActiveByRoom(ctx, "101")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, bk.ID, active.ID())
}

func TestCheckIn_LostSaveLeavesRivalRoomOccupied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A repair run that no longer treats the claim as in flight.
	late := f.build(f.bookings)
	late.now = func() time.Time { return time.Now().Add(claimHoldWindow) }

	saves := &interleavedSaves{BookingStore: f.bookings}
	svc := f.build(saves)
	var (
		rival    *BookingDTO
		releases int
	)
	saves.before = func() {
		res, err := late.ReconcileRoom(ctx, "101")
		require.NoError(t, err)
		require.True(t, res.Repaired)
		rival, err = late.CheckIn(ctx, f.clerk, stay(f.guestY))
		require.NoError(t, err)
		releases = f.rooms.releaseCalls
	}

	_, err := svc.CheckIn(ctx, f.clerk, stay(f.guestX))
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, bookingDomain.CodeRoomNotAvailable))
	assert.Equal(t, releases, f.rooms.releaseCalls, "compensation must not release the rival's room")

	assert.Equal(t, roomDomain.StatusOccupied, f.roomStatus(t))
	active, err := f.bookings.FindActiveByRoom(ctx, "101")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, rival.ID, active.ID())
}

func TestCheckIn_CompensationRetriesOnce(t *testing.T) {
	f := newFixture(t)
	f.rooms.releaseFails = 1
	svc := f.build(failingSaves{f.bookings})

	_, err := svc.CheckIn(context.Background(), f.clerk, stay(f.guestX))
	de, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "true", de.Details["compensated"])
	assert.Equal(t, 2, f.rooms.releaseCalls)
	assert.Equal(t, roomDomain.StatusAvailable, f.roomStatus(t))
}

func TestCheckIn_CompensationFailureEscalates(t *testing.T) {
	f := newFixture(t)
	f.rooms.releaseFails = 5
	svc := f.build(failingSaves{f.bookings})

	_, err := svc.CheckIn(context.Background(), f.clerk, stay(f.guestX))
	de, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, bookingDomain.CodeCheckInFailed, de.Code)
	assert.Equal(t, "false", de.Details["compensated"])
	assert.Equal(t, "101", de.Details["room_number"])
	assert.Equal(t, transitionRelease, de.Details["transition"])
	assert.NotEmpty(t, de.Details["booking_id"])
	assert.Equal(t, releaseAttempts, f.rooms.releaseCalls)
	assert.Contains(t, f.publisher.types(), events.ConsistencyRepairNeeded)
}

func TestCheckOut_CompletesAndReleases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bk, err := f.svc.CheckIn(ctx, f.clerk, stay(f.guestX))
	require.NoError(t, err)

	res, err := f.svc.CheckOut(ctx, f.clerk, bk.ID, CheckOutRequest{})
	require.NoError(t, err)
	assert.Equal(t, "completed", res.Booking.Status)
	require.NotNil(t, res.Booking.SettledCents)
	assert.Equal(t, int64(30000), *res.Booking.SettledCents)
	assert.Equal(t, roomDomain.StatusAvailable, f.roomStatus(t))

	require.NotNil(t, res.Invoice)
	assert.Equal(t, "Guest X", res.Invoice.GuestName)
	assert.Equal(t, int64(30000), res.Invoice.SettledCents)

	active, err := f.bookings.FindActiveByRoom(ctx, "101")
	require.NoError(t, err)
	assert.Nil(t, active)

	assert.Equal(t, []string{events.BookingCheckedIn, events.BookingCheckedOut}, f.publisher.types())
}

func TestCheckOut_TwiceIsNotActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bk, err := f.svc.CheckIn(ctx, f.clerk, stay(f.guestX))
	require.NoError(t, err)
	_, err = f.svc.CheckOut(ctx, f.clerk, bk.ID, CheckOutRequest{})
	require.NoError(t, err)

	_, err = f.svc.CheckOut(ctx, f.clerk, bk.ID, CheckOutRequest{})
	assert.True(t, domain.HasCode(err, bookingDomain.CodeNotActive), "got %v", err)
}

func TestCheckOut_SettledOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bk, err := f.svc.CheckIn(ctx, f.clerk, stay(f.guestX))
	require.NoError(t, err)

	negative := int64(-1)
	_, err = f.svc.CheckOut(ctx, f.clerk, bk.ID, CheckOutRequest{SettledCents: &negative})
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	discounted := int64(25000)
	res, err := f.svc.CheckOut(ctx, f.clerk, bk.ID, CheckOutRequest{SettledCents: &discounted})
	require.NoError(t, err)
	assert.Equal(t, int64(25000), *res.Booking.SettledCents)
	assert.Equal(t, int64(30000), res.Booking.TotalCents)
}

func TestCheckOut_UnknownBooking(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CheckOut(context.Background(), f.clerk, uuid.New(), CheckOutRequest{})
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestCheckOut_RoomUnderMaintenanceIsLeftAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bk, err := f.svc.CheckIn(ctx, f.clerk, stay(f.guestX))
	require.NoError(t, err)
	_, err = f.rooms.SetStatus(ctx, "101", roomDomain.StatusMaintenance)
	require.NoError(t, err)

	res, err := f.svc.CheckOut(ctx, f.clerk, bk.ID, CheckOutRequest{})
	require.NoError(t, err)
	assert.Equal(t, "completed", res.Booking.Status)
	assert.Equal(t, roomDomain.StatusMaintenance, f.roomStatus(t))
}

func TestCheckOut_ReleaseFailureIsPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bk, err := f.svc.CheckIn(ctx, f.clerk, stay(f.guestX))
	require.NoError(t, err)
	f.rooms.releaseFails = 2

	_, err = f.svc.CheckOut(ctx, f.clerk, bk.ID, CheckOutRequest{})
	de, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, bookingDomain.CodePartialCheckOut, de.Code)
	assert.Equal(t, "101", de.Details["room_number"])
	assert.Equal(t, bk.ID.String(), de.Details["booking_id"])

	stored, err := f.bookings.FindByID(ctx, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusCompleted, stored.Status())
	assert.Equal(t, roomDomain.StatusOccupied, f.roomStatus(t))

	f.svc.now = func() time.Time { return time.Now().Add(claimHoldWindow) }
	repaired, err := f.svc.ReconcileRoom(ctx, "101")
	require.NoError(t, err)
	assert.True(t, repaired.Repaired)
	assert.Equal(t, "available", repaired.Room.Status)
}

func TestCheckOut_ReleaseRetriedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bk, err := f.svc.CheckIn(ctx, f.clerk, stay(f.guestX))
	require.NoError(t, err)
	f.rooms.releaseFails = 1

	_, err = f.svc.CheckOut(ctx, f.clerk, bk.ID, CheckOutRequest{})
	require.NoError(t, err)
	assert.Equal(t, roomDomain.StatusAvailable, f.roomStatus(t))
}

func TestCheckOut_PublisherFailureDoesNotAbort(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")
	ctx := context.Background()

	bk, err := f.svc.CheckIn(ctx, f.clerk, stay(f.guestX))
	require.NoError(t, err)
	_, err = f.svc.CheckOut(ctx, f.clerk, bk.ID, CheckOutRequest{})
	require.NoError(t, err)
}

func TestCheckOut_CancelledCallerStillReleases(t *testing.T) {
	f := newFixture(t)

	bk, err := f.svc.CheckIn(context.Background(), f.clerk, stay(f.guestX))
	require.NoError(t, err)

	// The memory store ignores ctx, so cancellation only affects the
	// detached release path, which must still land.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.svc.CheckOut(ctx, f.clerk, bk.ID, CheckOutRequest{})
	require.NoError(t, err)
	assert.Equal(t, roomDomain.StatusAvailable, f.roomStatus(t))
}

func TestCancelBooking_ReleasesRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bk, err := f.svc.CheckIn(ctx, f.clerk, stay(f.guestX))
	require.NoError(t, err)

	cancelled, err := f.svc.CancelBooking(ctx, f.clerk, bk.ID, "duplicate check-in")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, roomDomain.StatusAvailable, f.roomStatus(t))

	_, err = f.svc.CheckOut(ctx, f.clerk, bk.ID, CheckOutRequest{})
	assert.True(t, domain.HasCode(err, bookingDomain.CodeNotActive))

	_, err = f.svc.CancelBooking(ctx, f.clerk, bk.ID, "again")
	assert.True(t, domain.IsKind(err, domain.KindInvalidTransition))
}

func TestReconcileRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.ReconcileRoom(ctx, "101")
	require.NoError(t, err)
	assert.False(t, res.Repaired)

	bk, err := f.svc.CheckIn(ctx, f.clerk, stay(f.guestX))
	require.NoError(t, err)
	_, err = f.rooms.SetStatus(ctx, "101", roomDomain.StatusAvailable)
	require.NoError(t, err)

	res, err = f.svc.ReconcileRoom(ctx, "101")
	require.NoError(t, err)
	assert.True(t, res.Repaired)
	assert.Equal(t, "available", res.PrevStatus)
	assert.Equal(t, "occupied", res.Room.Status)
	require.NotNil(t, res.ActiveBooking)
	assert.Equal(t, bk.ID, *res.ActiveBooking)
}

func TestBookingHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bk, err := f.svc.CheckIn(ctx, f.clerk, stay(f.guestX))
	require.NoError(t, err)
	_, err = f.svc.CheckOut(ctx, f.clerk, bk.ID, CheckOutRequest{})
	require.NoError(t, err)
	_, err = f.svc.CheckIn(ctx, f.clerk, stay(f.guestX))
	require.NoError(t, err)

	page, err := f.svc.BookingHistory(ctx, f.guestX, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Items, 2)

	stats, err := f.svc.GetBookingStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalBookings)
	assert.Equal(t, int64(1), stats.ByStatus["completed"])
}
