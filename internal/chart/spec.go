// Package chart validates chart requests against a dataset schema and
// renders resolved specifications to image files.
package chart

import (
	"fmt"
	"strings"

	"github.com/tabulario/datalens/internal/dataset"
	"github.com/tabulario/datalens/internal/domain/errs"
)

// Kind is one of the supported chart kinds.
type Kind string

const (
	KindBar     Kind = "bar"
	KindLine    Kind = "line"
	KindScatter Kind = "scatter"
	KindPie     Kind = "pie"
)

// ParseKind validates a chart kind token.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindBar, KindLine, KindScatter, KindPie:
		return Kind(s), true
	}
	return "", false
}

// Request is the caller's chart description before validation.
type Request struct {
	Kind  string `json:"kind"`
	X     string `json:"x"`
	Y     string `json:"y"`
	Title string `json:"title"`
}

// Spec is a validated, normalized chart description. The resolver
// only validates and fills defaults; rendering happens elsewhere.
type Spec struct {
	Kind  Kind
	Title string
	X     string
	Y     string
	Table *dataset.Table
}

// Columns returns the axis columns in x, y order.
func (s *Spec) Columns() []string {
	if s.Y == "" {
		return []string{s.X}
	}
	return []string{s.X, s.Y}
}

// Resolve validates the requested columns against the table schema
// and the arity/type constraints of the chart kind, and selects a
// default title when none was given.
func Resolve(table *dataset.Table, req Request) (*Spec, error) {
	kind, ok := ParseKind(req.Kind)
	if !ok {
		return nil, errs.NewInvalidChartRequest(
			fmt.Sprintf("unsupported kind %q (supported: bar, line, scatter, pie)", req.Kind))
	}

	if req.X == "" {
		return nil, errs.NewInvalidChartRequest("x column is required")
	}
	xCol, ok := table.Column(req.X)
	if !ok {
		return nil, errs.NewInvalidChartRequest(
			fmt.Sprintf("x column %q not found (available: %s)", req.X, strings.Join(table.ColumnNames(), ", ")))
	}

	if req.Y == "" {
		return nil, errs.NewInvalidChartRequest(fmt.Sprintf("%s chart requires a y column", kind))
	}
	yCol, ok := table.Column(req.Y)
	if !ok {
		return nil, errs.NewInvalidChartRequest(
			fmt.Sprintf("y column %q not found (available: %s)", req.Y, strings.Join(table.ColumnNames(), ", ")))
	}

	if yCol.Type != dataset.TypeNumeric {
		return nil, errs.NewInvalidChartRequest(
			fmt.Sprintf("%s chart requires a numeric y column, %q is %s", kind, yCol.Name, yCol.Type))
	}

	switch kind {
	case KindScatter:
		if xCol.Type != dataset.TypeNumeric {
			return nil, errs.NewInvalidChartRequest(
				fmt.Sprintf("scatter chart requires a numeric x column, %q is %s", xCol.Name, xCol.Type))
		}
	case KindPie:
		if xCol.Type == dataset.TypeNumeric {
			return nil, errs.NewInvalidChartRequest(
				fmt.Sprintf("pie chart requires a categorical x column, %q is numeric", xCol.Name))
		}
	}

	spec := &Spec{
		Kind:  kind,
		Title: req.Title,
		X:     req.X,
		Y:     req.Y,
		Table: table,
	}
	if spec.Title == "" {
		spec.Title = fmt.Sprintf("%s chart: %s", kind, strings.Join(spec.Columns(), ", "))
	}
	return spec, nil
}
