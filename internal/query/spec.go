package query

import (
	"cmp"
	"iter"
	"slices"
	"strings"

	"dataspace-connector/internal/metadata"
)

const (
	DefaultLimit = 50
	MaxLimit     = 1000

	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// Spec pages and orders a query on top of a store's filtered sequence.
type Spec struct {
	Offset    int                  `json:"offset"`
	Limit     int                  `json:"limit"`
	SortField string               `json:"sortField,omitempty"`
	SortOrder string               `json:"sortOrder,omitempty"`
	Filter    []metadata.Criterion `json:"filterExpression,omitempty"`
}

// Normalize clamps offset and limit and canonicalises the sort order.
func (s Spec) Normalize() Spec {
	if s.Offset < 0 {
		s.Offset = 0
	}
	if s.Limit <= 0 {
		s.Limit = DefaultLimit
	}
	if s.Limit > MaxLimit {
		s.Limit = MaxLimit
	}
	if strings.EqualFold(s.SortOrder, SortDesc) {
		s.SortOrder = SortDesc
	} else {
		s.SortOrder = SortAsc
	}
	return s
}

// Collect materialises one page of seq. Without a sort field it stops pulling
// from seq once the page is full, so an unbounded sequence is never drained.
func Collect[T metadata.Entity](seq iter.Seq2[T, error], spec Spec) ([]T, error) {
	spec = spec.Normalize()
	if spec.SortField == "" {
		out := make([]T, 0)
		skipped := 0
		for item, err := range seq {
			if err != nil {
				return nil, err
			}
			if skipped < spec.Offset {
				skipped++
				continue
			}
			out = append(out, item)
			if len(out) == spec.Limit {
				break
			}
		}
		return out, nil
	}

	var all []T
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		all = append(all, item)
	}
	SortBy(all, spec.SortField, spec.SortOrder)
	if spec.Offset >= len(all) {
		return []T{}, nil
	}
	end := min(spec.Offset+spec.Limit, len(all))
	return all[spec.Offset:end], nil
}

// SortBy orders entities by the value field resolves to. Entities lacking the
// field sort last regardless of direction.
func SortBy[T metadata.Entity](items []T, field, order string) {
	desc := strings.EqualFold(order, SortDesc)
	slices.SortStableFunc(items, func(a, b T) int {
		av, aok := Resolve(a, field)
		bv, bok := Resolve(b, field)
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		c := compareValues(av, bv)
		if desc {
			return -c
		}
		return c
	})
}

func compareValues(a, b any) int {
	if an, ok := toNumber(a); ok {
		if bn, ok := toNumber(b); ok {
			return cmp.Compare(an, bn)
		}
	}
	return strings.Compare(stringify(a), stringify(b))
}
