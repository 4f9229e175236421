package trades

import (
	"context"
	"time"

	summary "tradefeed/internal/domain/entity/summary"
	trade "tradefeed/internal/domain/entity/trade"
	interfaces "tradefeed/internal/domain/interfaces"

	"golang.org/x/sync/semaphore"
)

const DefaultMaxConcurrency = 64

// Bounded caps the number of store calls in flight and, when timeout is
// positive, the duration of each call. Callers beyond the cap wait for a
// slot or for their context to end.
type Bounded struct {
	next    interfaces.TradeRepository
	sem     *semaphore.Weighted
	timeout time.Duration
}

func NewBounded(next interfaces.TradeRepository, limit int, timeout time.Duration) *Bounded {
	if limit <= 0 {
		limit = DefaultMaxConcurrency
	}
	return &Bounded{next: next, sem: semaphore.NewWeighted(int64(limit)), timeout: timeout}
}

func (b *Bounded) acquire(ctx context.Context) (context.Context, func(), error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, err
	}
	if b.timeout <= 0 {
		return ctx, func() { b.sem.Release(1) }, nil
	}
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	return callCtx, func() {
		cancel()
		b.sem.Release(1)
	}, nil
}

func (b *Bounded) Index(ctx context.Context, record *trade.Record) (string, error) {
	ctx, release, err := b.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()
	return b.next.Index(ctx, record)
}

func (b *Bounded) IndexBatch(ctx context.Context, records []trade.Record) error {
	ctx, release, err := b.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return b.next.IndexBatch(ctx, records)
}

func (b *Bounded) Search(ctx context.Context, filter trade.Filter, offset, limit int) ([]trade.Record, error) {
	ctx, release, err := b.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return b.next.Search(ctx, filter, offset, limit)
}

func (b *Bounded) Count(ctx context.Context, filter trade.Filter) (int64, error) {
	ctx, release, err := b.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()
	return b.next.Count(ctx, filter)
}

func (b *Bounded) Aggregate(ctx context.Context, window summary.TimeWindow) (summary.Aggregate, error) {
	ctx, release, err := b.acquire(ctx)
	if err != nil {
		return summary.Aggregate{}, err
	}
	defer release()
	return b.next.Aggregate(ctx, window)
}

func (b *Bounded) FindLatest(ctx context.Context) (*trade.Record, error) {
	ctx, release, err := b.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return b.next.FindLatest(ctx)
}

func (b *Bounded) Close() {
	b.next.Close()
}
