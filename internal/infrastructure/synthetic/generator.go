// Package synthetic produces plausible trade records for load generation
// and demo seeding.
package synthetic

import (
	"math/rand/v2"
	"strconv"
	"time"

	trade "tradefeed/internal/domain/entity/trade"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	symbols    = []trade.Symbol{trade.SymbolBTC, trade.SymbolUSDT}
	sides      = []trade.Side{trade.SideBuy, trade.SideSell}
	orderTypes = []trade.OrderType{trade.OrderTypeLimit, trade.OrderTypeMarket}
	statuses   = []trade.OrderStatus{trade.OrderStatusFilled, trade.OrderStatusPartial}
	exchanges  = []string{"binance", "kraken", "coinbase"}
	notes      = []string{"rebalance", "dca buy", "stop loss hit", "take profit", ""}
	feeRate    = decimal.RequireFromString("0.001")
)

type Config struct {
	// Users is the number of distinct user ids to spread trades across.
	Users int
	// Spread is how far back from now executedAt may fall.
	Spread time.Duration
}

// Generator is not safe for concurrent use.
type Generator struct {
	cfg  Config
	rand *rand.Rand
	now  func() time.Time
}

func NewGenerator(cfg Config, seed uint64) *Generator {
	if cfg.Users <= 0 {
		cfg.Users = 10
	}
	if cfg.Spread <= 0 {
		cfg.Spread = time.Hour
	}
	return &Generator{
		cfg:  cfg,
		rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:  time.Now,
	}
}

// Next returns a fresh record with a new trade id.
func (g *Generator) Next() *trade.Record {
	symbol := pick(g.rand, symbols)
	price := g.price(symbol)
	quantity := decimal.NewFromFloat(0.001 + g.rand.Float64()*2).Round(6)
	total := price.Mul(quantity).Round(2)
	fee := total.Mul(feeRate).Round(8)

	executedAt := g.now().Add(-time.Duration(g.rand.Int64N(int64(g.cfg.Spread)))).UnixMilli()
	margin := g.rand.IntN(5) == 0

	record := &trade.Record{
		TradeID:     uuid.NewString(),
		UserID:      userID(g.rand.IntN(g.cfg.Users)),
		Symbol:      symbol,
		Side:        pick(g.rand, sides),
		Price:       price,
		Quantity:    quantity,
		Fee:         fee,
		FeeAsset:    "USDT",
		FeeRate:     feeRate,
		OrderType:   pick(g.rand, orderTypes),
		Status:      pick(g.rand, statuses),
		ExecutedAt:  trade.Millis(executedAt),
		MarginTrade: &margin,
		Exchange:    pick(g.rand, exchanges),
		Notes:       pick(g.rand, notes),
		TotalAmount: total,
		OrderID:     uuid.NewString(),
		CreatedBy:   "synthetic",
	}
	if margin {
		leverage := int32(2 + g.rand.IntN(9))
		record.Leverage = &leverage
	}
	return record
}

// Batch returns n records.
func (g *Generator) Batch(n int) []trade.Record {
	out := make([]trade.Record, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, *g.Next())
	}
	return out
}

func (g *Generator) price(symbol trade.Symbol) decimal.Decimal {
	if symbol == trade.SymbolUSDT {
		return decimal.NewFromFloat(0.995 + g.rand.Float64()*0.01).Round(4)
	}
	return decimal.NewFromFloat(55_000 + g.rand.Float64()*15_000).Round(2)
}

func userID(n int) string {
	return "user-" + strconv.Itoa(n+1)
}

func pick[T any](r *rand.Rand, values []T) T {
	return values[r.IntN(len(values))]
}
