package broker

import trade "tradefeed/internal/domain/entity/trade"

// TradeMessage is the body published on the trades fanout exchange.
type TradeMessage struct {
	Trade *trade.Record `json:"trade,omitempty"`
}
