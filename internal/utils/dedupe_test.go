package utils

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestDedupeCache_SecondSightingIsDuplicate(t *testing.T) {
	c := NewDedupeCache(time.Minute, 10, clockwork.NewFakeClock())

	assert.False(t, c.CheckAndMark("SM1"))
	assert.True(t, c.CheckAndMark("SM1"))
	assert.False(t, c.CheckAndMark("SM2"))
}

func TestDedupeCache_ExpiresAfterTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewDedupeCache(time.Minute, 10, clock)

	c.CheckAndMark("SM1")
	clock.Advance(time.Minute)
	assert.False(t, c.CheckAndMark("SM1"))
}

func TestDedupeCache_EvictsOldestBeyondMaxSize(t *testing.T) {
	c := NewDedupeCache(time.Hour, 2, clockwork.NewFakeClock())

	c.CheckAndMark("a")
	c.CheckAndMark("b")
	c.CheckAndMark("c")

	assert.Equal(t, 2, c.Len())
	assert.False(t, c.CheckAndMark("a"), "oldest key should have been forgotten")
}

func TestDedupeCache_EvictExpired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewDedupeCache(time.Minute, 10, clock)

	c.CheckAndMark("old")
	clock.Advance(2 * time.Minute)
	c.CheckAndMark("new")

	assert.Equal(t, 1, c.EvictExpired())
	assert.Equal(t, 1, c.Len())
}

func TestDedupeCache_Forget(t *testing.T) {
	c := NewDedupeCache(time.Hour, 10, clockwork.NewFakeClock())

	c.CheckAndMark("SM1")
	c.Forget("SM1")
	c.Forget("SM2")

	assert.Equal(t, 0, c.Len())
	assert.False(t, c.CheckAndMark("SM1"))
}
