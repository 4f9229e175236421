package trades

import (
	"context"
	"errors"
	"fmt"
	"time"

	trade "tradefeed/internal/domain/entity/trade"
	interfaces "tradefeed/internal/domain/interfaces"

	"golang.org/x/sync/errgroup"
)

var ErrNilTrade = errors.New("trade is nil")

type Service struct {
	repo interfaces.TradeRepository
	now  func() time.Time
}

func NewService(repo interfaces.TradeRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Save validates the record, fills derived fields and indexes it. The
// returned record carries the id the store assigned.
func (s *Service) Save(ctx context.Context, record *trade.Record) (*trade.Record, error) {
	if record == nil {
		return nil, ErrNilTrade
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	stored := *record
	stored.FillDerived(s.now().UnixMilli())

	id, err := s.repo.Index(ctx, &stored)
	if err != nil {
		return nil, fmt.Errorf("index trade: %w", err)
	}
	stored.TradeID = id
	return &stored, nil
}

// SaveBatch stores records coming from ingestion. Invalid records fail the
// whole batch so the broker can redeliver it.
func (s *Service) SaveBatch(ctx context.Context, records []trade.Record) error {
	if len(records) == 0 {
		return nil
	}
	nowMillis := s.now().UnixMilli()
	batch := make([]trade.Record, len(records))
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return fmt.Errorf("trade %d: %w", i, err)
		}
		batch[i] = records[i]
		batch[i].FillDerived(nowMillis)
	}
	return s.repo.IndexBatch(ctx, batch)
}

// Search returns one page of trades matching criteria. Page bounds are
// clamped, never rejected, and the reported total never exceeds
// trade.MaxPageSize.
func (s *Service) Search(ctx context.Context, criteria trade.SearchCriteria, page trade.PageRequest) (*trade.SearchResult, error) {
	bounds := page.Bounds()
	filter := BuildFilter(criteria)

	var (
		records []trade.Record
		total   int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.repo.Search(gctx, filter, bounds.Offset, bounds.Size)
		if err != nil {
			return fmt.Errorf("search trades: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, filter)
		if err != nil {
			return fmt.Errorf("count trades: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if records == nil {
		records = []trade.Record{}
	}

	return &trade.SearchResult{
		Trades: records,
		Total:  trade.CapTotal(total),
		Page:   bounds.Page,
		Size:   bounds.Size,
	}, nil
}

func (s *Service) Close() {
	s.repo.Close()
}
