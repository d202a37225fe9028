package guest

import (
	"context"

	"github.com/google/uuid"
)

// Guest is the read model the front desk needs from the guest registry.
type Guest struct {
	ID       uuid.UUID
	FullName string
	Email    string
}

// Directory resolves guests. Managing guest records happens elsewhere.
type Directory interface {
	// Exists reports whether the guest is registered.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// Lookup returns the guest or a NotFound domain error.
	Lookup(ctx context.Context, id uuid.UUID) (*Guest, error)
}
