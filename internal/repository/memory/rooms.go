// Package memory provides in-process stores. Every conditional write runs
// under the store's mutex, which makes it atomic for all callers sharing
// the store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	roomDomain "github.com/grandstay/service-frontdesk/internal/domain/room"
	"github.com/grandstay/service-frontdesk/pkg/domain"
)

// RoomStore is an in-memory RoomRepository.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[string]*roomDomain.Room
}

// NewRoomStore creates an empty RoomStore.
func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[string]*roomDomain.Room)}
}

// FindByNumber returns a copy of the room.
func (s *RoomStore) FindByNumber(_ context.Context, number string) (*roomDomain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[number]
	if !ok {
		return nil, domain.NewNotFoundError("Room", number)
	}
	return r.Clone(), nil
}

// ListAll returns every room ordered by number.
func (s *RoomStore) ListAll(_ context.Context) ([]*roomDomain.Room, error) {
	return s.list(func(*roomDomain.Room) bool { return true }), nil
}

// ListAvailable returns rooms whose status is available.
func (s *RoomStore) ListAvailable(_ context.Context) ([]*roomDomain.Room, error) {
	return s.list(func(r *roomDomain.Room) bool { return r.IsAvailable() }), nil
}

func (s *RoomStore) list(keep func(*roomDomain.Room) bool) []*roomDomain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*roomDomain.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number() < out[j].Number() })
	return out
}

// Save inserts or replaces a room.
func (s *RoomStore) Save(_ context.Context, r *roomDomain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rooms[r.Number()] = r.Clone()
	return nil
}

// SetStatus overwrites the status unconditionally.
func (s *RoomStore) SetStatus(_ context.Context, number string, status roomDomain.RoomStatus) (*roomDomain.Room, error) {
	if _, err := roomDomain.ParseRoomStatus(string(status)); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[number]
	if !ok {
		return nil, domain.NewNotFoundError("Room", number)
	}
	r.ChangeStatus(status, r.NextAvailableAt())
	return r.Clone(), nil
}

// TransitionStatus moves the room from one status to another only if the
// stored status still equals from.
func (s *RoomStore) TransitionStatus(_ context.Context, number string, from, to roomDomain.RoomStatus, nextAvailableAt *time.Time) (*roomDomain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[number]
	if !ok {
		return nil, domain.NewNotFoundError("Room", number)
	}
	if r.Status() != from {
		return nil, roomDomain.NewStatusMismatchError(number, from, r.Status())
	}
	r.ChangeStatus(to, nextAvailableAt)
	return r.Clone(), nil
}
