package trade

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSymbol      = errors.New("invalid symbol")
	ErrInvalidSide        = errors.New("invalid side")
	ErrInvalidOrderType   = errors.New("invalid order type")
	ErrInvalidOrderStatus = errors.New("invalid order status")
)

// Record is a single executed crypto trade. Records are written once and
// never mutated by the service afterwards.
type Record struct {
	TradeID         string          `json:"tradeId,omitempty"`
	UserID          string          `json:"userId,omitempty"`
	Symbol          Symbol          `json:"symbol,omitempty"`
	Side            Side            `json:"side,omitempty"`
	Price           decimal.Decimal `json:"price"`
	Quantity        decimal.Decimal `json:"quantity"`
	Fee             decimal.Decimal `json:"fee"`
	FeeAsset        string          `json:"feeAsset,omitempty"`
	OrderType       OrderType       `json:"orderType,omitempty"`
	Status          OrderStatus     `json:"status,omitempty"`
	// ExecutedAt is the execution time in UTC epoch milliseconds. Records
	// without it are never counted by window aggregation.
	ExecutedAt      *int64          `json:"executedAt,omitempty"`
	FeeRate         decimal.Decimal `json:"feeRate"`
	RealizedPnl     decimal.Decimal `json:"realizedPnl"`
	MarginTrade     *bool           `json:"marginTrade,omitempty"`
	Leverage        *int32          `json:"leverage,omitempty"`
	SettleAsset     string          `json:"settleAsset,omitempty"`
	Exchange        string          `json:"exchange,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	OrderID         string          `json:"orderId,omitempty"`
	TransactionHash string          `json:"transactionHash,omitempty"`
	WalletAddress   string          `json:"walletAddress,omitempty"`
	Tag             string          `json:"tag,omitempty"`
	CreatedBy       string          `json:"createdBy,omitempty"`
	CreatedAt       *int64          `json:"createdAt,omitempty"`
}

// Validate checks enum fields that are set. Unset enums are allowed.
func (r *Record) Validate() error {
	if r.Symbol != "" && !r.Symbol.IsValid() {
		return ErrInvalidSymbol
	}
	if r.Side != "" && !r.Side.IsValid() {
		return ErrInvalidSide
	}
	if r.OrderType != "" && !r.OrderType.IsValid() {
		return ErrInvalidOrderType
	}
	if r.Status != "" && !r.Status.IsValid() {
		return ErrInvalidOrderStatus
	}
	return nil
}

// FillDerived computes totalAmount from price and quantity when it was not
// supplied, and stamps createdAt.
func (r *Record) FillDerived(nowMillis int64) {
	if r.TotalAmount.IsZero() && !r.Price.IsZero() && !r.Quantity.IsZero() {
		r.TotalAmount = r.Price.Mul(r.Quantity)
	}
	if r.CreatedAt == nil {
		created := nowMillis
		r.CreatedAt = &created
	}
}

// Millis returns a pointer to ms, handy for building records in code.
func Millis(ms int64) *int64 {
	return &ms
}
