package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/grandstay/service-frontdesk/internal/domain/guest"
	"github.com/grandstay/service-frontdesk/pkg/domain"
)

// GuestDirectory is an in-memory guest.Directory.
type GuestDirectory struct {
	mu     sync.RWMutex
	guests map[uuid.UUID]guest.Guest
}

func NewGuestDirectory() *GuestDirectory {
	return &GuestDirectory{guests: make(map[uuid.UUID]guest.Guest)}
}

// Add registers a guest.
func (d *GuestDirectory) Add(g guest.Guest) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.guests[g.ID] = g
}

// Exists reports whether the guest is registered.
func (d *GuestDirectory) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.guests[id]
	return ok, nil
}

// Lookup returns the guest with the given ID.
func (d *GuestDirectory) Lookup(_ context.Context, id uuid.UUID) (*guest.Guest, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	g, ok := d.guests[id]
	if !ok {
		return nil, domain.NewNotFoundError("Guest", id.String())
	}
	return &g, nil
}
