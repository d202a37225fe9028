package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	roomDomain "github.com/grandstay/service-frontdesk/internal/domain/room"
	"github.com/grandstay/service-frontdesk/pkg/domain"
)

type roomDocument struct {
	Number          string     `bson:"_id"`
	Category        string     `bson:"category"`
	RateCents       int64      `bson:"rate_cents"`
	Status          string     `bson:"status"`
	Description     string     `bson:"description,omitempty"`
	NextAvailableAt *time.Time `bson:"next_available_at,omitempty"`
	Version         int64      `bson:"version"`
	CreatedAt       time.Time  `bson:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at"`
}

// RoomStore implements room.RoomRepository on a MongoDB collection keyed by
// room number.
type RoomStore struct {
	coll *mongo.Collection
}

func NewRoomStore(db *mongo.Database) *RoomStore {
	return &RoomStore{coll: db.Collection(roomsCollection)}
}

// FindByNumber retrieves a room by its number.
func (s *RoomStore) FindByNumber(ctx context.Context, number string) (*roomDomain.Room, error) {
	var doc roomDocument
	if err := s.coll.FindOne(ctx, bson.M{"_id": number}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NewNotFoundError("Room", number)
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return doc.toDomain(), nil
}

// ListAll retrieves every room ordered by number.
func (s *RoomStore) ListAll(ctx context.Context) ([]*roomDomain.Room, error) {
	return s.list(ctx, bson.M{})
}

// ListAvailable retrieves rooms whose status is available.
func (s *RoomStore) ListAvailable(ctx context.Context) ([]*roomDomain.Room, error) {
	return s.list(ctx, bson.M{"status": string(roomDomain.StatusAvailable)})
}

func (s *RoomStore) list(ctx context.Context, filter bson.M) ([]*roomDomain.Room, error) {
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	var docs []roomDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode rooms: %w", err)
	}
	rooms := make([]*roomDomain.Room, len(docs))
	for i := range docs {
		rooms[i] = docs[i].toDomain()
	}
	return rooms, nil
}

// Save inserts the room or replaces an existing one with the same number.
func (s *RoomStore) Save(ctx context.Context, room *roomDomain.Room) error {
	doc := toRoomDocument(room)
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.Number}, doc, replaceUpsert())
	if err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}
	return nil
}

// SetStatus overwrites a room's status without checking the current one.
func (s *RoomStore) SetStatus(ctx context.Context, number string, status roomDomain.RoomStatus) (*roomDomain.Room, error) {
	if _, err := roomDomain.ParseRoomStatus(string(status)); err != nil {
		return nil, err
	}
	room, err := s.update(ctx, bson.M{"_id": number}, status, nil)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NewNotFoundError("Room", number)
	}
	return room, err
}

// TransitionStatus applies the status change only while the stored status
// equals from. The filter and the write are one server-side operation.
func (s *RoomStore) TransitionStatus(ctx context.Context, number string, from, to roomDomain.RoomStatus, nextAvailableAt *time.Time) (*roomDomain.Room, error) {
	room, err := s.update(ctx, bson.M{"_id": number, "status": string(from)}, to, nextAvailableAt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		current, findErr := s.FindByNumber(ctx, number)
		if findErr != nil {
			return nil, findErr
		}
		return nil, roomDomain.NewStatusMismatchError(number, from, current.Status())
	}
	return room, err
}

func (s *RoomStore) update(ctx context.Context, filter bson.M, to roomDomain.RoomStatus, nextAvailableAt *time.Time) (*roomDomain.Room, error) {
	set := bson.M{"status": string(to), "updated_at": time.Now().UTC()}
	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	switch {
	case to == roomDomain.StatusAvailable:
		update["$unset"] = bson.M{"next_available_at": ""}
	case nextAvailableAt != nil:
		set["next_available_at"] = nextAvailableAt.UTC()
	}

	var doc roomDocument
	err := s.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update room status: %w", err)
	}
	return doc.toDomain(), nil
}

func toRoomDocument(r *roomDomain.Room) roomDocument {
	return roomDocument{
		Number:          r.Number(),
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

func (d *roomDocument) toDomain() *roomDomain.Room {
	return roomDomain.Reconstruct(
		d.Number,
		roomDomain.Category(d.Category),
		d.RateCents,
		roomDomain.RoomStatus(d.Status),
		d.Description,
		d.NextAvailableAt,
		d.Version,
		d.CreatedAt,
		d.UpdatedAt,
	)
}
