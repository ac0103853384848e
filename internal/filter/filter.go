// Package filter evaluates ordered column/operator/value predicates
// against a table, producing a derived table. Predicates are ANDed;
// there is no OR or grouping.
package filter

import (
	"strings"

	"github.com/tabulario/datalens/internal/dataset"
	"github.com/tabulario/datalens/internal/domain/errs"
)

// Operator is one of the fixed comparison operators.
type Operator string

const (
	OpEq       Operator = "eq"
	OpNe       Operator = "ne"
	OpGt       Operator = "gt"
	OpLt       Operator = "lt"
	OpGte      Operator = "gte"
	OpLte      Operator = "lte"
	OpContains Operator = "contains"
)

// ParseOperator validates an operator token.
func ParseOperator(s string) (Operator, bool) {
	switch Operator(s) {
	case OpEq, OpNe, OpGt, OpLt, OpGte, OpLte, OpContains:
		return Operator(s), true
	}
	return "", false
}

// Predicate is a single filter condition. Value arrives as JSON
// delivers it: string, number or bool.
type Predicate struct {
	Column   string   `json:"column"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// matcher tests one row index against one compiled predicate.
type matcher func(row int) bool

// Apply evaluates predicates in order against table and returns a new
// table holding the matching rows in their original relative order.
// An empty predicate list returns the original table unchanged.
func Apply(table *dataset.Table, predicates []Predicate) (*dataset.Table, error) {
	if len(predicates) == 0 {
		return table, nil
	}

	matchers := make([]matcher, len(predicates))
	for i, pred := range predicates {
		m, err := compile(table, i, pred)
		if err != nil {
			return nil, err
		}
		matchers[i] = m
	}

	var indices []int
	for row := 0; row < table.RowCount(); row++ {
		pass := true
		for _, m := range matchers {
			if !m(row) {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, row)
		}
	}
	return table.Derive(indices), nil
}

// compile validates one predicate against the table schema and builds
// its matcher. Missing cells never match, regardless of operator.
func compile(table *dataset.Table, index int, pred Predicate) (matcher, error) {
	col, ok := table.Column(pred.Column)
	if !ok {
		return nil, errs.NewInvalidArguments("predicate %d: column %q not found (available: %s)",
			index, pred.Column, strings.Join(table.ColumnNames(), ", ")).With("predicate", index)
	}

	op, ok := ParseOperator(string(pred.Operator))
	if !ok {
		return nil, errs.NewInvalidArguments("predicate %d: unknown operator %q",
			index, pred.Operator).With("predicate", index)
	}

	if op == OpContains && col.Type != dataset.TypeText {
		return nil, errs.NewUnsupportedOperator(index, string(op), col.Name, col.Type.String())
	}
	if col.Type == dataset.TypeBoolean && isOrdering(op) {
		return nil, errs.NewUnsupportedOperator(index, string(op), col.Name, col.Type.String())
	}

	want, ok := dataset.Coerce(pred.Value, col.Type)
	if !ok {
		return nil, errs.NewTypeMismatch(index, col.Name, pred.Value, col.Type.String())
	}

	values := col.Values
	switch col.Type {
	case dataset.TypeNumeric:
		return func(row int) bool {
			v := values[row]
			return !v.Null && compareNumeric(v.Num, want.Num, op)
		}, nil
	case dataset.TypeBoolean:
		return func(row int) bool {
			v := values[row]
			if v.Null {
				return false
			}
			if op == OpEq {
				return v.Bool == want.Bool
			}
			return v.Bool != want.Bool
		}, nil
	default:
		needle := strings.ToLower(want.Raw)
		return func(row int) bool {
			v := values[row]
			if v.Null {
				return false
			}
			if op == OpContains {
				return strings.Contains(strings.ToLower(v.Raw), needle)
			}
			return compareText(v.Raw, want.Raw, op)
		}, nil
	}
}

func isOrdering(op Operator) bool {
	switch op {
	case OpGt, OpLt, OpGte, OpLte:
		return true
	}
	return false
}

func compareNumeric(a, b float64, op Operator) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpGt:
		return a > b
	case OpLt:
		return a < b
	case OpGte:
		return a >= b
	case OpLte:
		return a <= b
	}
	return false
}

func compareText(a, b string, op Operator) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpGt:
		return a > b
	case OpLt:
		return a < b
	case OpGte:
		return a >= b
	case OpLte:
		return a <= b
	}
	return false
}
