package trades

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	summary "tradefeed/internal/domain/entity/summary"
	trade "tradefeed/internal/domain/entity/trade"

	"github.com/google/uuid"
)

// MemoryStore keeps trades in process. It backs the memory store driver and
// the service tests.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]int
	trades []trade.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]int)}
}

func (m *MemoryStore) Index(ctx context.Context, record *trade.Record) (string, error) {
	if record == nil {
		return "", errNilRecord
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putLocked(*record), nil
}

func (m *MemoryStore) IndexBatch(ctx context.Context, records []trade.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.putLocked(r)
	}
	return nil
}

func (m *MemoryStore) putLocked(record trade.Record) string {
	if record.TradeID == "" {
		record.TradeID = uuid.NewString()
	}
	if i, ok := m.byID[record.TradeID]; ok {
		m.trades[i] = record
		return record.TradeID
	}
	m.byID[record.TradeID] = len(m.trades)
	m.trades = append(m.trades, record)
	return record.TradeID
}

func (m *MemoryStore) Search(ctx context.Context, filter trade.Filter, offset, limit int) ([]trade.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("%w: offset %d limit %d", errBadPage, offset, limit)
	}
	m.mu.RLock()
	matched := make([]trade.Record, 0)
	for i := range m.trades {
		if filter.Matches(&m.trades[i]) {
			matched = append(matched, m.trades[i])
		}
	}
	m.mu.RUnlock()

	slices.SortStableFunc(matched, compareRecent)
	if offset >= len(matched) {
		return []trade.Record{}, nil
	}
	end := min(offset+limit, len(matched))
	return matched[offset:end], nil
}

func (m *MemoryStore) Count(ctx context.Context, filter trade.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for i := range m.trades {
		if filter.Matches(&m.trades[i]) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Aggregate(ctx context.Context, window summary.TimeWindow) (summary.Aggregate, error) {
	if err := ctx.Err(); err != nil {
		return summary.Aggregate{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var (
		agg summary.Aggregate
		sum float64
	)
	for i := range m.trades {
		at := m.trades[i].ExecutedAt
		if at == nil || !window.Contains(*at) {
			continue
		}
		agg.Count++
		sum += m.trades[i].TotalAmount.InexactFloat64()
	}
	if agg.Count > 0 {
		agg.Sum = &sum
	}
	return agg, nil
}

func (m *MemoryStore) FindLatest(ctx context.Context) (*trade.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *trade.Record
	for i := range m.trades {
		r := &m.trades[i]
		if r.ExecutedAt == nil {
			continue
		}
		if latest == nil || *r.ExecutedAt > *latest.ExecutedAt {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	found := *latest
	return &found, nil
}

func (m *MemoryStore) Close() {}

// compareRecent orders by executedAt desc with unset times last, then by id.
func compareRecent(a, b trade.Record) int {
	switch {
	case a.ExecutedAt == nil && b.ExecutedAt == nil:
	case a.ExecutedAt == nil:
		return 1
	case b.ExecutedAt == nil:
		return -1
	default:
		if c := cmp.Compare(*b.ExecutedAt, *a.ExecutedAt); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.TradeID, b.TradeID)
}
