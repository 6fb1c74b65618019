package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestService(t *testing.T) Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(client)
}

func TestGetMissAndHit(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	var got payload
	assert.ErrorIs(t, svc.Get(ctx, "k", &got), ErrCacheMiss)

	require.NoError(t, svc.Set(ctx, "k", payload{Name: "concert", Count: 3}, time.Minute))
	require.NoError(t, svc.Get(ctx, "k", &got))
	assert.Equal(t, payload{Name: "concert", Count: 3}, got)
}

func TestDeletePattern(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	for _, k := range []string{"eventhub:events:list:a", "eventhub:events:list:b", "eventhub:events:detail:uuid:1"} {
		require.NoError(t, svc.Set(ctx, k, 1, time.Minute))
	}

	require.NoError(t, svc.DeletePattern(ctx, "eventhub:events:list*"))

	assert.False(t, svc.Exists(ctx, "eventhub:events:list:a"))
	assert.False(t, svc.Exists(ctx, "eventhub:events:list:b"))
	assert.True(t, svc.Exists(ctx, "eventhub:events:detail:uuid:1"))
}

func TestGetOrSetCallsFetcherOnce(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return payload{Name: "workshop", Count: 7}, nil
	}

	var first, second payload
	require.NoError(t, svc.GetOrSet(ctx, "detail", time.Minute, fetch, &first))
	require.NoError(t, svc.GetOrSet(ctx, "detail", time.Minute, fetch, &second))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestGetOrSetPropagatesFetcherError(t *testing.T) {
	boom := errors.New("boom")
	var dest payload
	err := newTestService(t).GetOrSet(context.Background(), "x", time.Minute, func() (interface{}, error) {
		return nil, boom
	}, &dest)
	assert.ErrorIs(t, err, boom)
}
