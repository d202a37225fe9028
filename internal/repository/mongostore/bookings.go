package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingDomain "github.com/grandstay/service-frontdesk/internal/domain/booking"
	"github.com/grandstay/service-frontdesk/pkg/domain"
)

type bookingDocument struct {
	ID            string     `bson:"_id"`
	BookingNumber string     `bson:"booking_number"`
	GuestID       string     `bson:"guest_id"`
	RoomNumber    string     `bson:"room_number"`
	Status        string     `bson:"status"`
	CheckInDate   time.Time  `bson:"check_in_date"`
	CheckOutDate  time.Time  `bson:"check_out_date"`
	RateCents     int64      `bson:"rate_cents"`
	TotalCents    int64      `bson:"total_cents"`
	SettledCents  *int64     `bson:"settled_cents,omitempty"`
	Currency      string     `bson:"currency"`
	CheckedInBy   string     `bson:"checked_in_by,omitempty"`
	CheckedInAt   *time.Time `bson:"checked_in_at,omitempty"`
	CheckedOutBy  string     `bson:"checked_out_by,omitempty"`
	CheckedOutAt  *time.Time `bson:"checked_out_at,omitempty"`
	CancelledAt   *time.Time `bson:"cancelled_at,omitempty"`
	CancelNote    string     `bson:"cancel_note,omitempty"`
	Version       int64      `bson:"version"`
	CreatedAt     time.Time  `bson:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at"`
}

// BookingStore implements booking.BookingRepository on MongoDB.
type BookingStore struct {
	coll *mongo.Collection
}

func NewBookingStore(db *mongo.Database) *BookingStore {
	return &BookingStore{coll: db.Collection(bookingsCollection)}
}

// FindByID retrieves a booking by ID.
func (s *BookingStore) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return s.findOne(ctx, bson.M{"_id": id.String()}, id.String())
}

// FindByNumber retrieves a booking by booking number.
func (s *BookingStore) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	return s.findOne(ctx, bson.M{"booking_number": number}, number)
}

func (s *BookingStore) findOne(ctx context.Context, filter bson.M, key string) (*bookingDomain.Booking, error) {
	var doc bookingDocument
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NewNotFoundError("Booking", key)
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return doc.toDomain()
}

// FindActiveByRoom returns the confirmed booking for a room, or nil.
func (s *BookingStore) FindActiveByRoom(ctx context.Context, roomNumber string) (*bookingDomain.Booking, error) {
	bk, err := s.findOne(ctx, bson.M{
		"room_number": roomNumber,
		"status":      string(bookingDomain.StatusConfirmed),
	}, roomNumber)
	if domain.IsKind(err, domain.KindNotFound) {
		return nil, nil
	}
	return bk, err
}

// FindByGuestID retrieves a guest's bookings with pagination.
func (s *BookingStore) FindByGuestID(ctx context.Context, guestID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return s.page(ctx, bson.M{"guest_id": guestID.String()}, page, limit)
}

// ListAll retrieves all bookings with pagination.
func (s *BookingStore) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return s.page(ctx, bson.M{}, page, limit)
}

func (s *BookingStore) page(ctx context.Context, filter bson.M, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(docs))
	for i := range docs {
		if bookings[i], err = docs[i].toDomain(); err != nil {
			return nil, 0, err
		}
	}
	return bookings, total, nil
}

// CountByStatus groups bookings by status.
func (s *BookingStore) CountByStatus(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode status counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// Save inserts a new booking. The partial unique index on confirmed
// bookings rejects a second active booking for the same room.
func (s *BookingStore) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	if _, err := s.coll.InsertOne(ctx, toBookingDocument(bk)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingDomain.NewRoomNotAvailableError(bk.RoomNumber()).WithCause(err)
		}
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update replaces the mutable fields when the stored version is the one
// the caller loaded.
func (s *BookingStore) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	doc := toBookingDocument(bk)
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": doc.ID, "version": bk.Version() - 1},
		bson.M{"$set": bson.M{
			"status":         doc.Status,
			"settled_cents":  doc.SettledCents,
			"checked_in_by":  doc.CheckedInBy,
			"checked_in_at":  doc.CheckedInAt,
			"checked_out_by": doc.CheckedOutBy,
			"checked_out_at": doc.CheckedOutAt,
			"cancelled_at":   doc.CancelledAt,
			"cancel_note":    doc.CancelNote,
			"version":        doc.Version,
			"updated_at":     doc.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// Complete moves a confirmed booking to completed in one conditional update.
func (s *BookingStore) Complete(ctx context.Context, id uuid.UUID, settledCents int64, by uuid.UUID) (*bookingDomain.Booking, error) {
	now := time.Now().UTC()
	set := bson.M{
		"status":         string(bookingDomain.StatusCompleted),
		"settled_cents":  settledCents,
		"checked_out_at": now,
		"updated_at":     now,
	}
	if by != uuid.Nil {
		set["checked_out_by"] = by.String()
	}

	var doc bookingDocument
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id.String(), "status": string(bookingDomain.StatusConfirmed)},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return doc.toDomain()
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to complete booking: %w", err)
	}

	current, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status().IsTerminal() {
		return nil, bookingDomain.NewAlreadyCompletedError(id, current.Status())
	}
	return nil, domain.NewInvalidStateError(string(current.Status()), string(bookingDomain.StatusCompleted))
}

// Delete removes a booking.
func (s *BookingStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id.String()}); err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return nil
}

func toBookingDocument(bk *bookingDomain.Booking) bookingDocument {
	doc := bookingDocument{
		ID:            bk.ID().String(),
		BookingNumber: bk.BookingNumber(),
		GuestID:       bk.GuestID().String(),
		RoomNumber:    bk.RoomNumber(),
		Status:        string(bk.Status()),
		CheckInDate:   bk.CheckInDate(),
		CheckOutDate:  bk.CheckOutDate(),
		RateCents:     bk.RateCents(),
		TotalCents:    bk.TotalCents(),
		SettledCents:  bk.SettledCents(),
		Currency:      bk.Currency(),
		CheckedInAt:   bk.CheckedInAt(),
		CheckedOutAt:  bk.CheckedOutAt(),
		CancelledAt:   bk.CancelledAt(),
		CancelNote:    bk.CancelNote(),
		Version:       bk.Version(),
		CreatedAt:     bk.CreatedAt(),
		UpdatedAt:     bk.UpdatedAt(),
	}
	if bk.CheckedInBy() != uuid.Nil {
		doc.CheckedInBy = bk.CheckedInBy().String()
	}
	if by := bk.CheckedOutBy(); by != nil {
		doc.CheckedOutBy = by.String()
	}
	return doc
}

func (d *bookingDocument) toDomain() (*bookingDomain.Booking, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid booking id %q: %w", d.ID, err)
	}
	guestID, err := uuid.Parse(d.GuestID)
	if err != nil {
		return nil, fmt.Errorf("invalid guest id %q: %w", d.GuestID, err)
	}
	status, err := bookingDomain.ParseBookingStatus(d.Status)
	if err != nil {
		return nil, err
	}
	checkedInBy, _ := parseOptionalUUID(d.CheckedInBy)
	var checkedOutBy *uuid.UUID
	if by, ok := parseOptionalUUID(d.CheckedOutBy); ok {
		checkedOutBy = &by
	}

	return bookingDomain.ReconstructBooking(
		id,
		d.BookingNumber,
		guestID,
		d.RoomNumber,
		status,
		d.CheckInDate,
		d.CheckOutDate,
		d.RateCents,
		d.TotalCents,
		d.SettledCents,
		d.Currency,
		checkedInBy,
		d.CheckedInAt,
		checkedOutBy,
		d.CheckedOutAt,
		d.CancelledAt,
		d.CancelNote,
		d.Version,
		d.CreatedAt,
		d.UpdatedAt,
	), nil
}

func parseOptionalUUID(s string) (uuid.UUID, bool) {
	if s == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
