// Package cache keeps a short-lived copy of the available-rooms listing in
// Redis. Check-in never reads it: claims go through the room store's
// conditional write, so a stale listing can only advertise a room that
// then answers room_not_available. Every invalidation bumps a generation
// counter, and a listing read before a bump is never stored.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	roomDomain "github.com/grandstay/service-frontdesk/internal/domain/room"
)

const (
	availableRoomsKey = "frontdesk:rooms:available"
	generationKey     = "frontdesk:rooms:available:gen"
)

// AvailabilityCache stores the available-rooms listing.
type AvailabilityCache interface {
	// Get returns the cached listing and whether it was present.
	Get(ctx context.Context) ([]*roomDomain.Room, bool, error)
	// Generation returns the current invalidation counter.
	Generation(ctx context.Context) (int64, error)
	// SetIfCurrent stores the listing only if no invalidation happened
	// since gen was read, and reports whether it did.
	SetIfCurrent(ctx context.Context, gen int64, rooms []*roomDomain.Room) (bool, error)
	Invalidate(ctx context.Context) error
}

type roomSnapshot struct {
	Number          string     `json:"number"`
	Category        string     `json:"category"`
	RateCents       int64      `json:"rate_cents"`
	Status          string     `json:"status"`
	Description     string     `json:"description,omitempty"`
	NextAvailableAt *time.Time `json:"next_available_at,omitempty"`
	Version         int64      `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// RedisAvailabilityCache is the go-redis implementation of AvailabilityCache.
type RedisAvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAvailabilityCache creates a cache whose entries expire after ttl.
func NewRedisAvailabilityCache(client *redis.Client, ttl time.Duration) *RedisAvailabilityCache {
	return &RedisAvailabilityCache{client: client, ttl: ttl}
}

func (c *RedisAvailabilityCache) Get(ctx context.Context) ([]*roomDomain.Room, bool, error) {
	data, err := c.client.Get(ctx, availableRoomsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	rooms, err := decodeRooms(data)
	if err != nil {
		return nil, false, err
	}
	return rooms, true, nil
}

func (c *RedisAvailabilityCache) Generation(ctx context.Context) (int64, error) {
	return readGeneration(ctx, c.client)
}

func (c *RedisAvailabilityCache) SetIfCurrent(ctx context.Context, gen int64, rooms []*roomDomain.Room) (bool, error) {
	data, err := encodeRooms(rooms)
	if err != nil {
		return false, err
	}

	stored := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx)
		if err != nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, availableRoomsKey, data, c.ttl)
			return nil
		})
		stored = err == nil
		return err
	}, generationKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis set: %w", err)
	}
	return stored, nil
}

func (c *RedisAvailabilityCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, availableRoomsKey)
		return nil
	})
	return err
}

// Ping checks connectivity for readiness probes.
func (c *RedisAvailabilityCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func readGeneration(ctx context.Context, client redis.Cmdable) (int64, error) {
	gen, err := client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation: %w", err)
	}
	return gen, nil
}

func encodeRooms(rooms []*roomDomain.Room) ([]byte, error) {
	snaps := make([]roomSnapshot, len(rooms))
	for i, r := range rooms {
		snaps[i] = roomSnapshot{
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
	data, err := json.Marshal(snaps)
	if err != nil {
		return nil, fmt.Errorf("encode rooms: %w", err)
	}
	return data, nil
}

func decodeRooms(data []byte) ([]*roomDomain.Room, error) {
	var snaps []roomSnapshot
	if err := json.Unmarshal(data, &snaps); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	rooms := make([]*roomDomain.Room, len(snaps))
	for i, s := range snaps {
		rooms[i] = roomDomain.Reconstruct(
			s.Number,
			roomDomain.Category(s.Category),
			s.RateCents,
			roomDomain.RoomStatus(s.Status),
			s.Description,
			s.NextAvailableAt,
			s.Version,
			s.CreatedAt,
			s.UpdatedAt,
		)
	}
	return rooms, nil
}
