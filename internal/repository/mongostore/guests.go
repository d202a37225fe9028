package mongostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/grandstay/service-frontdesk/internal/domain/guest"
	"github.com/grandstay/service-frontdesk/pkg/domain"
)

type guestDocument struct {
	ID       string `bson:"_id"`
	FullName string `bson:"full_name"`
	Email    string `bson:"email,omitempty"`
}

// GuestDirectory reads the guests collection maintained by the guest registry.
type GuestDirectory struct {
	coll *mongo.Collection
}

func NewGuestDirectory(db *mongo.Database) *GuestDirectory {
	return &GuestDirectory{coll: db.Collection(guestsCollection)}
}

// Exists reports whether the guest is registered.
func (d *GuestDirectory) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := d.coll.CountDocuments(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return false, fmt.Errorf("failed to check guest: %w", err)
	}
	return n > 0, nil
}

// Lookup retrieves a guest by ID.
func (d *GuestDirectory) Lookup(ctx context.Context, id uuid.UUID) (*guest.Guest, error) {
	var doc guestDocument
	if err := d.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NewNotFoundError("Guest", id.String())
		}
		return nil, fmt.Errorf("failed to find guest: %w", err)
	}
	return &guest.Guest{ID: id, FullName: doc.FullName, Email: doc.Email}, nil
}

// Add upserts a guest record. Used to seed the directory.
func (d *GuestDirectory) Add(ctx context.Context, g guest.Guest) error {
	_, err := d.coll.ReplaceOne(ctx, bson.M{"_id": g.ID.String()},
		guestDocument{ID: g.ID.String(), FullName: g.FullName, Email: g.Email},
		replaceUpsert(),
	)
	if err != nil {
		return fmt.Errorf("failed to save guest: %w", err)
	}
	return nil
}
