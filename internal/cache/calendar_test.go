package cache

import (
	"context"
	"testing"
	"time"

	"trailerhub-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestEntryKeyIncludesVersion(t *testing.T) {
	r := domain.NewDateRange(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, "calendar:res-1:v", versionKey("res-1"))
	assert.Equal(t, "calendar:res-1:0:2024-06-01..2024-06-30", entryKey("res-1", 0, r))
	assert.NotEqual(t, entryKey("res-1", 0, r), entryKey("res-1", 1, r))
}

func TestNoop(t *testing.T) {
	var c CalendarCache = Noop{}
	ctx := context.Background()
	r := domain.NewDateRange(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC))

	assert.NoError(t, c.Set(ctx, "res-1", 0, r, []domain.BlockedInterval{{ID: "blk-1"}}))
	blocks, version, hit, err := c.Get(ctx, "res-1", r)
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.Zero(t, version)
	assert.Nil(t, blocks)
	assert.NoError(t, c.Invalidate(ctx, "res-1"))
}
