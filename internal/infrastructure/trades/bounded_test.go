package trades

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	summary "tradefeed/internal/domain/entity/summary"
	trade "tradefeed/internal/domain/entity/trade"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowStore struct {
	*MemoryStore
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *slowStore) Aggregate(ctx context.Context, w summary.TimeWindow) (summary.Aggregate, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return s.MemoryStore.Aggregate(ctx, w)
}

func TestBoundedLimitsConcurrency(t *testing.T) {
	inner := &slowStore{MemoryStore: NewMemoryStore()}
	store := NewBounded(inner, 2, 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Aggregate(context.Background(), summary.TimeWindow{End: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, inner.peak.Load(), int32(2))
}

func TestBoundedHonorsContextWhileWaiting(t *testing.T) {
	store := NewBounded(NewMemoryStore(), 1, 0)
	require.NoError(t, store.sem.Acquire(context.Background(), 1))
	defer store.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := store.FindLatest(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type blockingStore struct {
	*MemoryStore
}

func (blockingStore) Count(ctx context.Context, _ trade.Filter) (int64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestBoundedAppliesCallTimeout(t *testing.T) {
	store := NewBounded(blockingStore{NewMemoryStore()}, 1, 10*time.Millisecond)
	_, err := store.Count(context.Background(), trade.Filter{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = store.Count(context.Background(), trade.Filter{})
	assert.ErrorIs(t, err, context.DeadlineExceeded, "slot is released after a timeout")
}
