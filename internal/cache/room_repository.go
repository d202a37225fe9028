package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	roomDomain "github.com/grandstay/service-frontdesk/internal/domain/room"
)

// CachedRoomRepository serves ListAvailable from an AvailabilityCache and
// drops the cached listing after every write. Cache failures degrade to
// the underlying store.
type CachedRoomRepository struct {
	roomDomain.RoomRepository
	cache  AvailabilityCache
	logger *zap.Logger
}

// NewCachedRoomRepository wraps next with the given cache.
func NewCachedRoomRepository(next roomDomain.RoomRepository, cache AvailabilityCache, logger *zap.Logger) *CachedRoomRepository {
	return &CachedRoomRepository{RoomRepository: next, cache: cache, logger: logger}
}

// ListAvailable serves the listing from the cache, filling it on a miss.
func (r *CachedRoomRepository) ListAvailable(ctx context.Context) ([]*roomDomain.Room, error) {
	rooms, ok, err := r.cache.Get(ctx)
	if err != nil {
		r.logger.Warn("availability cache read failed", zap.Error(err))
	}
	if ok {
		return rooms, nil
	}

	// Read the generation first so a write that lands during the store
	// read keeps this listing out of the cache.
	gen, genErr := r.cache.Generation(ctx)
	rooms, err = r.RoomRepository.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		r.logger.Warn("availability cache generation read failed", zap.Error(genErr))
		return rooms, nil
	}
	if _, err := r.cache.SetIfCurrent(ctx, gen, rooms); err != nil {
		r.logger.Warn("availability cache write failed", zap.Error(err))
	}
	return rooms, nil
}

// Save stores the room and drops the cached listing.
func (r *CachedRoomRepository) Save(ctx context.Context, room *roomDomain.Room) error {
	if err := r.RoomRepository.Save(ctx, room); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// SetStatus overwrites the status and drops the cached listing.
func (r *CachedRoomRepository) SetStatus(ctx context.Context, number string, status roomDomain.RoomStatus) (*roomDomain.Room, error) {
	room, err := r.RoomRepository.SetStatus(ctx, number, status)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return room, nil
}

// TransitionStatus applies the conditional write and drops the cached listing on success.
func (r *CachedRoomRepository) TransitionStatus(ctx context.Context, number string, from, to roomDomain.RoomStatus, nextAvailableAt *time.Time) (*roomDomain.Room, error) {
	room, err := r.RoomRepository.TransitionStatus(ctx, number, from, to, nextAvailableAt)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return room, nil
}

func (r *CachedRoomRepository) invalidate(ctx context.Context) {
	if err := r.cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		r.logger.Warn("availability cache invalidation failed", zap.Error(err))
	}
}
