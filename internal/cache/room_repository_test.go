package cache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	roomDomain "github.com/grandstay/service-frontdesk/internal/domain/room"
	"github.com/grandstay/service-frontdesk/internal/repository/memory"
)

// fakeCache keeps the encoded listing in memory so the JSON round trip is
// exercised as it is against Redis.
type fakeCache struct {
	mu      sync.Mutex
	data    []byte
	gen     int64
	gets    int
	failGet bool
}

func (c *fakeCache) Get(context.Context) ([]*roomDomain.Room, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failGet {
		return nil, false, errors.New("redis down")
	}
	if c.data == nil {
		return nil, false, nil
	}
	rooms, err := decodeRooms(c.data)
	return rooms, err == nil, err
}

func (c *fakeCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

func (c *fakeCache) SetIfCurrent(_ context.Context, gen int64, rooms []*roomDomain.Room) (bool, error) {
	data, err := encodeRooms(rooms)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false, nil
	}
	c.data = data
	return true, nil
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.data = nil
	return nil
}

func (c *fakeCache) cached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data != nil
}

// claimDuringList claims a room through the decorator while a listing is
// being read from the store, after the store read returned.
type claimDuringList struct {
	*memory.RoomStore
	once  sync.Once
	claim func()
}

func (s *claimDuringList) ListAvailable(ctx context.Context) ([]*roomDomain.Room, error) {
	rooms, err := s.RoomStore.ListAvailable(ctx)
	s.once.Do(s.claim)
	return rooms, err
}

func setup(t *testing.T) (*CachedRoomRepository, *memory.RoomStore, *fakeCache) {
	t.Helper()
	store := memory.NewRoomStore()
	for _, n := range []string{"101", "102"} {
		rm, err := roomDomain.NewRoom(n, roomDomain.CategoryDeluxe, 10000, "garden view")
		require.NoError(t, err)
		require.NoError(t, store.Save(context.Background(), rm))
	}
	fc := &fakeCache{}
	return NewCachedRoomRepository(store, fc, zap.NewNop()), store, fc
}

func TestCachedRoomRepository_ServesFromCache(t *testing.T) {
	repo, store, fc := setup(t)
	ctx := context.Background()

	rooms, err := repo.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.True(t, fc.cached())

	// A write that bypasses the decorator is not seen until expiry.
	_, err = store.SetStatus(ctx, "101", roomDomain.StatusMaintenance)
	require.NoError(t, err)

	rooms, err = repo.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "garden view", rooms[0].Description())
	assert.Equal(t, roomDomain.CategoryDeluxe, rooms[0].Category())
}

func TestCachedRoomRepository_WritesInvalidate(t *testing.T) {
	repo, _, fc := setup(t)
	ctx := context.Background()

	_, err := repo.ListAvailable(ctx)
	require.NoError(t, err)

	_, err = repo.TransitionStatus(ctx, "101", roomDomain.StatusAvailable, roomDomain.StatusOccupied, nil)
	require.NoError(t, err)
	assert.False(t, fc.cached())

	rooms, err := repo.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "102", rooms[0].Number())

	_, err = repo.SetStatus(ctx, "102", roomDomain.StatusMaintenance)
	require.NoError(t, err)
	assert.False(t, fc.cached())
}

func TestCachedRoomRepository_FailedCASKeepsCache(t *testing.T) {
	repo, _, fc := setup(t)
	ctx := context.Background()

	_, err := repo.ListAvailable(ctx)
	require.NoError(t, err)

	_, err = repo.TransitionStatus(ctx, "101", roomDomain.StatusOccupied, roomDomain.StatusAvailable, nil)
	require.Error(t, err)
	assert.True(t, fc.cached())
}

func TestCachedRoomRepository_CacheFailureFallsThrough(t *testing.T) {
	repo, _, fc := setup(t)
	fc.failGet = true

	rooms, err := repo.ListAvailable(context.Background())
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
}

func TestCachedRoomRepository_ListingReadBeforeClaimIsNotCached(t *testing.T) {
	store := memory.NewRoomStore()
	rm, err := roomDomain.NewRoom("101", roomDomain.CategoryDeluxe, 10000, "")
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), rm))

	ctx := context.Background()
	fc := &fakeCache{}
	slow := &claimDuringList{RoomStore: store}
	repo := NewCachedRoomRepository(slow, fc, zap.NewNop())
	slow.claim = func() {
		_, err := repo.TransitionStatus(ctx, "101", roomDomain.StatusAvailable, roomDomain.StatusOccupied, nil)
		require.NoError(t, err)
	}

	rooms, err := repo.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
	assert.False(t, fc.cached())

	rooms, err = repo.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms)
	assert.True(t, fc.cached())
}
