package trades

import (
	"fmt"
	"strings"

	trade "tradefeed/internal/domain/entity/trade"
)

var filterColumns = map[trade.Field]string{
	trade.FieldUserID:    "user_id",
	trade.FieldSymbol:    "symbol",
	trade.FieldSide:      "side",
	trade.FieldOrderType: "order_type",
	trade.FieldStatus:    "status",
	trade.FieldExchange:  "exchange",
	trade.FieldNotes:     "notes",
}

// compileFilter renders filter as a WHERE clause with positional arguments
// numbered from firstArg. An empty filter yields an empty clause.
func compileFilter(filter trade.Filter, firstArg int) (string, []any, error) {
	if filter.IsEmpty() {
		return "", nil, nil
	}
	conds := make([]string, 0, len(filter.Must))
	args := make([]any, 0, len(filter.Must))
	n := firstArg
	for _, p := range filter.Must {
		column, ok := filterColumns[p.Field]
		if !ok {
			return "", nil, fmt.Errorf("unsupported filter field %q", p.Field)
		}
		switch p.Kind {
		case trade.PredicateTerm:
			conds = append(conds, fmt.Sprintf("%s = $%d", column, n))
			args = append(args, p.Value)
			n++
		case trade.PredicateMatch:
			tokens := trade.Tokenize(p.Value)
			if len(tokens) == 0 {
				conds = append(conds, "FALSE")
				continue
			}
			conds = append(conds, fmt.Sprintf("to_tsvector('simple', coalesce(%s, '')) @@ to_tsquery('simple', $%d)", column, n))
			args = append(args, strings.Join(tokens, " | "))
			n++
		default:
			return "", nil, fmt.Errorf("unsupported predicate %s on %q", p.Kind, p.Field)
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}
