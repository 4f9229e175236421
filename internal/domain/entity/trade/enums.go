package trade

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Symbol is the traded currency.
type Symbol string

const (
	SymbolBTC  Symbol = "BTC"
	SymbolUSDT Symbol = "USDT"
)

func (s Symbol) String() string {
	return string(s)
}

func (s Symbol) IsValid() bool {
	switch s {
	case SymbolBTC, SymbolUSDT:
		return true
	default:
		return false
	}
}

func NewSymbol(s string) (Symbol, error) {
	sym := Symbol(strings.ToUpper(strings.TrimSpace(s)))
	if !sym.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidSymbol, s)
	}
	return sym, nil
}

// Side is the trade direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

func (s Side) String() string {
	return string(s)
}

func (s Side) IsValid() bool {
	switch s {
	case SideBuy, SideSell:
		return true
	default:
		return false
	}
}

func NewSide(s string) (Side, error) {
	side := Side(strings.ToUpper(strings.TrimSpace(s)))
	if !side.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidSide, s)
	}
	return side, nil
}

type OrderType string

const (
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"
)

func (t OrderType) String() string {
	return string(t)
}

func (t OrderType) IsValid() bool {
	switch t {
	case OrderTypeLimit, OrderTypeMarket:
		return true
	default:
		return false
	}
}

func NewOrderType(s string) (OrderType, error) {
	ot := OrderType(strings.ToUpper(strings.TrimSpace(s)))
	if !ot.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidOrderType, s)
	}
	return ot, nil
}

type OrderStatus string

const (
	OrderStatusFilled  OrderStatus = "FILLED"
	OrderStatusPartial OrderStatus = "PARTIAL"
)

func (st OrderStatus) String() string {
	return string(st)
}

func (st OrderStatus) IsValid() bool {
	switch st {
	case OrderStatusFilled, OrderStatusPartial:
		return true
	default:
		return false
	}
}

func NewOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidOrderStatus, s)
	}
	return st, nil
}

// UnmarshalJSON accepts any casing and rejects unknown values.
// An empty string leaves the field unset.
func (s *Symbol) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, func(v string) error {
		parsed, err := NewSymbol(v)
		*s = parsed
		return err
	})
}

func (s *Side) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, func(v string) error {
		parsed, err := NewSide(v)
		*s = parsed
		return err
	})
}

func (t *OrderType) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, func(v string) error {
		parsed, err := NewOrderType(v)
		*t = parsed
		return err
	})
}

func (st *OrderStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, func(v string) error {
		parsed, err := NewOrderStatus(v)
		*st = parsed
		return err
	})
}

func unmarshalEnum(data []byte, set func(string) error) error {
	if string(data) == "null" {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return set(raw)
}
