package trade

import (
	"strings"
	"unicode"
)

// Field names a filterable trade attribute.
type Field string

const (
	FieldUserID    Field = "userId"
	FieldSymbol    Field = "symbol"
	FieldSide      Field = "side"
	FieldOrderType Field = "orderType"
	FieldStatus    Field = "status"
	FieldExchange  Field = "exchange"
	FieldNotes     Field = "notes"
)

type PredicateKind int

const (
	// PredicateTerm is exact equality on the field value.
	PredicateTerm PredicateKind = iota + 1
	// PredicateMatch is tokenized text matching: a record matches when any
	// token of the query appears among the tokens of the field.
	PredicateMatch
)

func (k PredicateKind) String() string {
	switch k {
	case PredicateTerm:
		return "term"
	case PredicateMatch:
		return "match"
	default:
		return "unknown"
	}
}

type Predicate struct {
	Kind  PredicateKind
	Field Field
	Value string
}

// Filter is a conjunction of predicates. An empty filter matches everything.
type Filter struct {
	Must []Predicate
}

func (f Filter) IsEmpty() bool {
	return len(f.Must) == 0
}

// FieldValue returns the string value of field on r.
func (r *Record) FieldValue(field Field) (string, bool) {
	switch field {
	case FieldUserID:
		return r.UserID, true
	case FieldSymbol:
		return string(r.Symbol), true
	case FieldSide:
		return string(r.Side), true
	case FieldOrderType:
		return string(r.OrderType), true
	case FieldStatus:
		return string(r.Status), true
	case FieldExchange:
		return r.Exchange, true
	case FieldNotes:
		return r.Notes, true
	default:
		return "", false
	}
}

// Matches evaluates the filter against a record in memory.
func (f Filter) Matches(r *Record) bool {
	for _, p := range f.Must {
		value, ok := r.FieldValue(p.Field)
		if !ok {
			return false
		}
		switch p.Kind {
		case PredicateTerm:
			if value != p.Value {
				return false
			}
		case PredicateMatch:
			if !matchTokens(value, p.Value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Tokenize lowercases text and splits it on anything that is not a letter
// or digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func matchTokens(text, query string) bool {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return false
	}
	textTokens := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		textTokens[tok] = struct{}{}
	}
	for _, tok := range queryTokens {
		if _, ok := textTokens[tok]; ok {
			return true
		}
	}
	return false
}
