package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	roomDomain "github.com/grandstay/service-frontdesk/internal/domain/room"
	"github.com/grandstay/service-frontdesk/pkg/domain"
)

func seedRoom(t *testing.T, s *RoomStore, number string) {
	t.Helper()
	r, err := roomDomain.NewRoom(number, roomDomain.CategorySingle, 10000, "")
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), r))
}

func TestRoomStore_TransitionStatus(t *testing.T) {
	ctx := context.Background()
	s := NewRoomStore()
	seedRoom(t, s, "101")

	until := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	r, err := s.TransitionStatus(ctx, "101", roomDomain.StatusAvailable, roomDomain.StatusOccupied, &until)
	require.NoError(t, err)
	assert.Equal(t, roomDomain.StatusOccupied, r.Status())
	require.NotNil(t, r.NextAvailableAt())

	_, err = s.TransitionStatus(ctx, "101", roomDomain.StatusAvailable, roomDomain.StatusOccupied, &until)
	assert.True(t, domain.HasCode(err, roomDomain.CodeStatusMismatch))

	_, err = s.TransitionStatus(ctx, "999", roomDomain.StatusAvailable, roomDomain.StatusOccupied, nil)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestRoomStore_TransitionStatusIsExclusive(t *testing.T) {
	ctx := context.Background()
	s := NewRoomStore()
	seedRoom(t, s, "101")

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.TransitionStatus(ctx, "101", roomDomain.StatusAvailable, roomDomain.StatusOccupied, nil); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestRoomStore_ListAvailableAndSetStatus(t *testing.T) {
	ctx := context.Background()
	s := NewRoomStore()
	seedRoom(t, s, "102")
	seedRoom(t, s, "101")

	_, err := s.SetStatus(ctx, "102", roomDomain.StatusMaintenance)
	require.NoError(t, err)

	avail, err := s.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, "101", avail[0].Number())

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "101", all[0].Number())

	_, err = s.SetStatus(ctx, "101", roomDomain.RoomStatus("flooded"))
	assert.True(t, domain.IsKind(err, domain.KindInvalidTransition))

	_, err = s.SetStatus(ctx, "404", roomDomain.StatusAvailable)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestRoomStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewRoomStore()
	seedRoom(t, s, "101")

	r, err := s.FindByNumber(ctx, "101")
	require.NoError(t, err)
	r.ChangeStatus(roomDomain.StatusOccupied, nil)

	again, err := s.FindByNumber(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, roomDomain.StatusAvailable, again.Status())
}
