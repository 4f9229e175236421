package trades

import (
	"context"
	"errors"
	"fmt"

	summary "tradefeed/internal/domain/entity/summary"
	trade "tradefeed/internal/domain/entity/trade"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	errNilRecord = errors.New("nil trade record")
	errBadPage   = errors.New("negative page bounds")
)

// Repository is the PostgreSQL trade store.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() {
	if r == nil || r.pool == nil {
		return
	}
	r.pool.Close()
}

const upsertTradeQuery = `
	INSERT INTO trades (
		trade_id, user_id, symbol, side, price, quantity, fee, fee_asset,
		order_type, status, executed_at, fee_rate, realized_pnl, margin_trade,
		leverage, settle_asset, exchange, notes, total_amount, order_id,
		transaction_hash, wallet_address, tag, created_by, created_at)
	VALUES (
		$1, $2, $3, $4, $5::text::numeric, $6::text::numeric, $7::text::numeric, $8,
		$9, $10, $11, $12::text::numeric, $13::text::numeric, $14,
		$15, $16, $17, $18, $19::text::numeric, $20,
		$21, $22, $23, $24, $25)
	ON CONFLICT (trade_id) DO UPDATE SET
		user_id = EXCLUDED.user_id,
		symbol = EXCLUDED.symbol,
		side = EXCLUDED.side,
		price = EXCLUDED.price,
		quantity = EXCLUDED.quantity,
		fee = EXCLUDED.fee,
		fee_asset = EXCLUDED.fee_asset,
		order_type = EXCLUDED.order_type,
		status = EXCLUDED.status,
		executed_at = EXCLUDED.executed_at,
		fee_rate = EXCLUDED.fee_rate,
		realized_pnl = EXCLUDED.realized_pnl,
		margin_trade = EXCLUDED.margin_trade,
		leverage = EXCLUDED.leverage,
		settle_asset = EXCLUDED.settle_asset,
		exchange = EXCLUDED.exchange,
		notes = EXCLUDED.notes,
		total_amount = EXCLUDED.total_amount,
		order_id = EXCLUDED.order_id,
		transaction_hash = EXCLUDED.transaction_hash,
		wallet_address = EXCLUDED.wallet_address,
		tag = EXCLUDED.tag,
		created_by = EXCLUDED.created_by,
		created_at = EXCLUDED.created_at`

const selectTradeColumns = `
	trade_id, user_id, symbol, side, price::text, quantity::text, fee::text, fee_asset,
	order_type, status, executed_at, fee_rate::text, realized_pnl::text, margin_trade,
	leverage, settle_asset, exchange, notes, total_amount::text, order_id,
	transaction_hash, wallet_address, tag, created_by, created_at`

const recentOrder = ` ORDER BY executed_at DESC NULLS LAST, trade_id`

func (r *Repository) Index(ctx context.Context, record *trade.Record) (string, error) {
	if record == nil {
		return "", errNilRecord
	}
	stored := *record
	if stored.TradeID == "" {
		stored.TradeID = uuid.NewString()
	}
	if _, err := r.pool.Exec(ctx, upsertTradeQuery, tradeArgs(&stored)...); err != nil {
		return "", fmt.Errorf("upsert trade %s: %w", stored.TradeID, err)
	}
	return stored.TradeID, nil
}

func (r *Repository) IndexBatch(ctx context.Context, records []trade.Record) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i := range records {
		stored := records[i]
		if stored.TradeID == "" {
			stored.TradeID = uuid.NewString()
		}
		batch.Queue(upsertTradeQuery, tradeArgs(&stored)...)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert %d trades: %w", len(records), err)
	}
	return nil
}

func (r *Repository) Search(ctx context.Context, filter trade.Filter, offset, limit int) ([]trade.Record, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("%w: offset %d limit %d", errBadPage, offset, limit)
	}
	where, args, err := compileFilter(filter, 1)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM trades%s%s LIMIT $%d OFFSET $%d",
		selectTradeColumns, where, recentOrder, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trades := make([]trade.Record, 0, limit)
	for rows.Next() {
		record, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, record)
	}
	return trades, rows.Err()
}

func (r *Repository) Count(ctx context.Context, filter trade.Filter) (int64, error) {
	where, args, err := compileFilter(filter, 1)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM trades"+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

const aggregateWindowQuery = `
	SELECT COUNT(*), SUM(total_amount)::float8
	FROM trades
	WHERE executed_at >= $1 AND executed_at <= $2`

func (r *Repository) Aggregate(ctx context.Context, window summary.TimeWindow) (summary.Aggregate, error) {
	var agg summary.Aggregate
	if err := r.pool.QueryRow(ctx, aggregateWindowQuery, window.Start, window.End).Scan(&agg.Count, &agg.Sum); err != nil {
		return summary.Aggregate{}, err
	}
	return agg, nil
}

func (r *Repository) FindLatest(ctx context.Context) (*trade.Record, error) {
	query := "SELECT " + selectTradeColumns + " FROM trades WHERE executed_at IS NOT NULL" + recentOrder + " LIMIT 1"
	record, err := scanTrade(r.pool.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func tradeArgs(t *trade.Record) []any {
	return []any{
		t.TradeID,
		t.UserID,
		string(t.Symbol),
		string(t.Side),
		t.Price.String(),
		t.Quantity.String(),
		t.Fee.String(),
		t.FeeAsset,
		string(t.OrderType),
		string(t.Status),
		t.ExecutedAt,
		t.FeeRate.String(),
		t.RealizedPnl.String(),
		t.MarginTrade,
		t.Leverage,
		t.SettleAsset,
		t.Exchange,
		t.Notes,
		t.TotalAmount.String(),
		t.OrderID,
		t.TransactionHash,
		t.WalletAddress,
		t.Tag,
		t.CreatedBy,
		t.CreatedAt,
	}
}

func scanTrade(row pgx.Row) (trade.Record, error) {
	var (
		t                                                  trade.Record
		symbol, side, orderType, status                    string
		price, quantity, fee, feeRate, realizedPnl, amount string
	)
	if err := row.Scan(
		&t.TradeID,
		&t.UserID,
		&symbol,
		&side,
		&price,
		&quantity,
		&fee,
		&t.FeeAsset,
		&orderType,
		&status,
		&t.ExecutedAt,
		&feeRate,
		&realizedPnl,
		&t.MarginTrade,
		&t.Leverage,
		&t.SettleAsset,
		&t.Exchange,
		&t.Notes,
		&amount,
		&t.OrderID,
		&t.TransactionHash,
		&t.WalletAddress,
		&t.Tag,
		&t.CreatedBy,
		&t.CreatedAt,
	); err != nil {
		return trade.Record{}, err
	}
	t.Symbol = trade.Symbol(symbol)
	t.Side = trade.Side(side)
	t.OrderType = trade.OrderType(orderType)
	t.Status = trade.OrderStatus(status)

	var err error
	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&t.Price, price},
		{&t.Quantity, quantity},
		{&t.Fee, fee},
		{&t.FeeRate, feeRate},
		{&t.RealizedPnl, realizedPnl},
		{&t.TotalAmount, amount},
	} {
		if *f.dst, err = decimal.NewFromString(f.src); err != nil {
			return trade.Record{}, fmt.Errorf("parse numeric %q: %w", f.src, err)
		}
	}
	return t, nil
}
