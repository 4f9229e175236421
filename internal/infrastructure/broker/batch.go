package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	trade "tradefeed/internal/domain/entity/trade"

	"github.com/sirupsen/logrus"
)

var (
	errNotBuffered   = errors.New("item not buffered")
	errBufferStopped = fmt.Errorf("%w: batch buffer is not running", errNotBuffered)
)

// BatchConfig controls batching thresholds for trade ingestion.
type BatchConfig struct {
	Size    int
	Timeout time.Duration
}

// TradeSaver persists a batch of trades.
type TradeSaver interface {
	SaveBatch(ctx context.Context, records []trade.Record) error
}

// Settle is told the outcome of persisting one buffered trade: nil once its
// batch is stored, the error otherwise. It is called exactly once per trade.
type Settle func(err error)

type pendingTrade struct {
	record trade.Record
	settle Settle
}

// BatchWriter buffers trades and flushes them through the saver when the
// batch is full or the timeout expires, whichever comes first.
type BatchWriter struct {
	trades *batchBuffer[pendingTrade]
}

func NewBatchWriter(cfg BatchConfig, saver TradeSaver, logger *logrus.Logger, onFlush func(n int)) *BatchWriter {
	componentLogger := logger.WithField("component", "batch_writer")
	return &BatchWriter{
		trades: newBatchBuffer(cfg, func(ctx context.Context, batch []pendingTrade) error {
			records := make([]trade.Record, len(batch))
			for i := range batch {
				records[i] = batch[i].record
			}
			err := saver.SaveBatch(ctx, records)
			for _, p := range batch {
				if p.settle != nil {
					p.settle(err)
				}
			}
			if err != nil {
				return err
			}
			if onFlush != nil {
				onFlush(len(batch))
			}
			return nil
		}, componentLogger.WithField("entity", "trade")),
	}
}

// Run sets the base context for asynchronous flush operations.
func (b *BatchWriter) Run(ctx context.Context) {
	b.trades.setContext(ctx)
}

// Stop flushes remaining trades using the provided context.
func (b *BatchWriter) Stop(ctx context.Context) error {
	b.trades.setContext(ctx)
	return b.trades.drain(ctx)
}

// AddTrade appends a trade to the buffer. A full buffer is flushed
// synchronously and its error returned to the caller. settle, if set, learns
// whether the trade was stored; a trade that is never buffered is settled
// with the returned error.
func (b *BatchWriter) AddTrade(record *trade.Record, settle Settle) error {
	if record == nil {
		err := errors.New("trade is nil")
		if settle != nil {
			settle(err)
		}
		return err
	}
	err := b.trades.enqueue(pendingTrade{record: *record, settle: settle})
	if errors.Is(err, errNotBuffered) && settle != nil {
		settle(err)
	}
	return err
}

type batchBuffer[T any] struct {
	cfg     BatchConfig
	mu      sync.Mutex
	items   []T
	timer   *time.Timer
	flushFn func(context.Context, []T) error
	logger  *logrus.Entry
	ctx     context.Context
}

func newBatchBuffer[T any](cfg BatchConfig, flushFn func(context.Context, []T) error, logger *logrus.Entry) *batchBuffer[T] {
	return &batchBuffer[T]{
		cfg:     cfg,
		flushFn: flushFn,
		logger:  logger,
	}
}

func (bb *batchBuffer[T]) setContext(ctx context.Context) {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	bb.ctx = ctx
}

func (bb *batchBuffer[T]) enqueue(item T) error {
	bb.mu.Lock()
	ctx := bb.ctx
	if ctx == nil {
		bb.mu.Unlock()
		return errBufferStopped
	}
	if err := ctx.Err(); err != nil {
		bb.mu.Unlock()
		return fmt.Errorf("%w: %w", errNotBuffered, err)
	}
	bb.items = append(bb.items, item)
	var batch []T
	limit := max(bb.cfg.Size, 1)
	if len(bb.items) >= limit {
		batch = bb.takeBatchLocked()
	} else if bb.timer == nil && bb.cfg.Timeout > 0 {
		bb.startTimerLocked()
	}
	bb.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	return bb.flushWithContext(ctx, batch)
}

func (bb *batchBuffer[T]) startTimerLocked() {
	bb.timer = time.AfterFunc(bb.cfg.Timeout, func() {
		batch := bb.takeBatch()
		if len(batch) == 0 {
			return
		}
		if err := bb.flushWithCurrentContext(batch); err != nil && bb.logger != nil {
			bb.logger.WithError(err).WithField("size", len(batch)).Warn("batch flush failed")
		}
	})
}

func (bb *batchBuffer[T]) takeBatch() []T {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	return bb.takeBatchLocked()
}

func (bb *batchBuffer[T]) takeBatchLocked() []T {
	if bb.timer != nil {
		bb.timer.Stop()
		bb.timer = nil
	}
	if len(bb.items) == 0 {
		return nil
	}
	batch := make([]T, len(bb.items))
	copy(batch, bb.items)
	bb.items = bb.items[:0]
	return batch
}

func (bb *batchBuffer[T]) flushWithCurrentContext(batch []T) error {
	bb.mu.Lock()
	ctx := bb.ctx
	bb.mu.Unlock()
	return bb.flushWithContext(ctx, batch)
}

func (bb *batchBuffer[T]) flushWithContext(ctx context.Context, batch []T) error {
	if len(batch) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	if err := bb.flushFn(ctx, batch); err != nil {
		return err
	}
	if bb.logger != nil {
		bb.logger.WithFields(logrus.Fields{
			"size":    len(batch),
			"took_ms": time.Since(start).Milliseconds(),
		}).Debug("flushed batch")
	}
	return nil
}

func (bb *batchBuffer[T]) drain(ctx context.Context) error {
	batch := bb.takeBatch()
	if len(batch) == 0 {
		return nil
	}
	return bb.flushWithContext(ctx, batch)
}
