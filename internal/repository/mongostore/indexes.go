// Package mongostore implements the room registry and booking ledger on
// MongoDB. Compare-and-swap writes use FindOneAndUpdate with the expected
// state in the filter.
package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingDomain "github.com/grandstay/service-frontdesk/internal/domain/booking"
)

const (
	roomsCollection    = "rooms"
	bookingsCollection = "bookings"
	invoicesCollection = "invoices"
	guestsCollection   = "guests"
)

// EnsureIndexes creates the indexes the stores rely on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	bookingIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "booking_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "guest_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{
			// One confirmed booking per room.
			Keys: bson.D{{Key: "room_number", Value: 1}},
			Options: options.Index().
				SetName("uq_active_room").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": string(bookingDomain.StatusConfirmed)}),
		},
	}
	if _, err := db.Collection(bookingsCollection).Indexes().CreateMany(ctx, bookingIdx); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}

	invoiceIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "booking_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "invoice_number", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := db.Collection(invoicesCollection).Indexes().CreateMany(ctx, invoiceIdx); err != nil {
		return fmt.Errorf("failed to create invoice indexes: %w", err)
	}

	roomIdx := mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}}}
	if _, err := db.Collection(roomsCollection).Indexes().CreateOne(ctx, roomIdx); err != nil {
		return fmt.Errorf("failed to create room indexes: %w", err)
	}
	return nil
}

func replaceUpsert() *options.ReplaceOptions {
	return options.Replace().SetUpsert(true)
}
