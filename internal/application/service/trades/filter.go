package trades

import (
	"strings"

	trade "tradefeed/internal/domain/entity/trade"
)

// BuildFilter turns optional search criteria into one compound filter.
// Absent criteria contribute nothing: an empty or blank string and an unset
// enum never become a predicate.
func BuildFilter(criteria trade.SearchCriteria) trade.Filter {
	var filter trade.Filter

	term := func(field trade.Field, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		filter.Must = append(filter.Must, trade.Predicate{Kind: trade.PredicateTerm, Field: field, Value: value})
	}

	term(trade.FieldUserID, criteria.UserID)
	term(trade.FieldSymbol, criteria.Symbol.String())
	term(trade.FieldSide, criteria.Side.String())
	term(trade.FieldOrderType, criteria.OrderType.String())
	term(trade.FieldStatus, criteria.Status.String())
	term(trade.FieldExchange, criteria.Exchange)

	if strings.TrimSpace(criteria.NotesKeyword) != "" {
		filter.Must = append(filter.Must, trade.Predicate{
			Kind:  trade.PredicateMatch,
			Field: trade.FieldNotes,
			Value: criteria.NotesKeyword,
		})
	}
	return filter
}
