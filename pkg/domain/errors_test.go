package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_SurvivesWrapping(t *testing.T) {
	base := NewNotFoundError("Room", "101")
	wrapped := fmt.Errorf("load room: %w", base)

	de, ok := AsDomainError(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, de.Kind)
	assert.Equal(t, CodeNotFound, de.Code)
	assert.Equal(t, "Room 101 not found", de.Message)
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(wrapped, KindConflict))
	assert.True(t, HasCode(wrapped, CodeNotFound))
}

func TestDomainError_CauseAndDetails(t *testing.T) {
	cause := errors.New("connection reset")
	err := New(KindConsistency, "check_in_failed", "check-in could not be completed").
		WithCause(cause).
		WithDetail("room_number", "101")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "101", err.Details["room_number"])
	assert.Contains(t, err.Error(), "connection reset")
}

func TestAsDomainError_PlainError(t *testing.T) {
	_, ok := AsDomainError(errors.New("boom"))
	assert.False(t, ok)
	assert.False(t, HasCode(nil, CodeNotFound))
}

func TestNewPaginatedResult(t *testing.T) {
	res := NewPaginatedResult([]int{1, 2}, 41, 2, 20)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, int64(41), res.Total)

	empty := NewPaginatedResult[string](nil, 0, 1, 20)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
}
