package dispatch

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tabulario/datalens/internal/chart"
	"github.com/tabulario/datalens/internal/dataset"
	"github.com/tabulario/datalens/internal/domain/errs"
	"github.com/tabulario/datalens/internal/filter"
	"github.com/tabulario/datalens/internal/stats"
)

// TableSlice is a renderable excerpt of a table.
type TableSlice struct {
	Columns   []string   `json:"columns"`
	Types     []string   `json:"types"`
	Rows      [][]string `json:"rows"`
	RowCount  int        `json:"row_count"`
	TotalRows int        `json:"total_rows"`
}

// FilterSummary is the filter_table payload: match statistics plus an
// excerpt of the matching rows.
type FilterSummary struct {
	MatchedCount int        `json:"matched_count"`
	TotalCount   int        `json:"total_count"`
	Percentage   float64    `json:"percentage"`
	Table        TableSlice `json:"table"`
}

// ExportArtifact references a filtered-data CSV written to the output
// directory.
type ExportArtifact struct {
	File string `json:"file"`
	Rows int    `json:"rows"`
}

// DatasetList is the list_datasets payload.
type DatasetList struct {
	Files []string `json:"files"`
}

// defaultExcerptRows caps how many rows filter_table returns inline.
const defaultExcerptRows = 100

func (d *Dispatcher) registerOperations() {
	pathArg := ArgSpec{Name: "path", Type: ArgString, Required: true,
		Description: "Name of the CSV file in the data directory"}

	d.registry.register(Operation{
		Name:        "read_table",
		Description: "Read a CSV dataset and return its rows",
		Args: []ArgSpec{
			pathArg,
			{Name: "limit", Type: ArgNumber, Description: "Maximum rows to return (0 = all)"},
		},
		handler: d.readTable,
	})
	d.registry.register(Operation{
		Name:        "get_stats",
		Description: "Comprehensive statistics about a dataset",
		Args:        []ArgSpec{pathArg},
		handler:     d.getStats,
	})
	d.registry.register(Operation{
		Name:        "get_column_info",
		Description: "Detailed per-column profiles, optionally for one column",
		Args: []ArgSpec{
			pathArg,
			{Name: "column", Type: ArgString, Description: "Specific column name (optional)"},
		},
		handler: d.getColumnInfo,
	})
	d.registry.register(Operation{
		Name:        "filter_table",
		Description: "Filter rows by a list of column/operator/value predicates",
		Args: []ArgSpec{
			pathArg,
			{Name: "predicates", Type: ArgList, Required: true,
				Description: "List of {column, operator, value}; operators: eq, ne, gt, lt, gte, lte, contains"},
			{Name: "limit", Type: ArgNumber, Description: "Maximum rows to return (default 100)"},
		},
		handler: d.filterTable,
	})
	d.registry.register(Operation{
		Name:        "generate_chart",
		Description: "Render a chart from a dataset as a PNG artifact",
		Args: []ArgSpec{
			pathArg,
			{Name: "kind", Type: ArgString, Required: true, Description: "Chart kind: bar, line, scatter, pie"},
			{Name: "x", Type: ArgString, Required: true, Description: "Column for the x axis / categories"},
			{Name: "y", Type: ArgString, Description: "Column for the y axis / values"},
			{Name: "title", Type: ArgString, Description: "Chart title (default derived from columns)"},
		},
		handler: d.generateChart,
	})
	d.registry.register(Operation{
		Name:        "list_datasets",
		Description: "List CSV files available in the data directory",
		handler:     d.listDatasets,
	})
	d.registry.register(Operation{
		Name:        "export_table",
		Description: "Write filtered rows as a CSV artifact in the output directory",
		Args: []ArgSpec{
			pathArg,
			{Name: "predicates", Type: ArgList, Description: "Optional list of {column, operator, value}"},
		},
		handler: d.exportTable,
	})
}

func (d *Dispatcher) readTable(_ context.Context, args map[string]any) (any, error) {
	table, err := d.store.Get(args["path"].(string))
	if err != nil {
		return nil, err
	}
	return slice(table, argInt(args, "limit", 0)), nil
}

func (d *Dispatcher) getStats(_ context.Context, args map[string]any) (any, error) {
	table, err := d.store.Get(args["path"].(string))
	if err != nil {
		return nil, err
	}
	return stats.Describe(table)
}

func (d *Dispatcher) getColumnInfo(_ context.Context, args map[string]any) (any, error) {
	table, err := d.store.Get(args["path"].(string))
	if err != nil {
		return nil, err
	}
	profiles, err := stats.Summarize(table)
	if err != nil {
		return nil, err
	}
	name, ok := args["column"].(string)
	if !ok || name == "" {
		return profiles, nil
	}
	for _, p := range profiles {
		if p.Name == name {
			return []stats.Profile{p}, nil
		}
	}
	return nil, errs.NewInvalidArguments("column %q not found (available: %s)",
		name, strings.Join(table.ColumnNames(), ", ")).With("column", name)
}

func (d *Dispatcher) filterTable(_ context.Context, args map[string]any) (any, error) {
	table, err := d.store.Get(args["path"].(string))
	if err != nil {
		return nil, err
	}
	predicates, err := parsePredicates(args["predicates"])
	if err != nil {
		return nil, err
	}

	filtered, err := filter.Apply(table, predicates)
	if err != nil {
		return nil, err
	}

	total := table.RowCount()
	matched := filtered.RowCount()
	percentage := 0.0
	if total > 0 {
		percentage = float64(matched) / float64(total) * 100
	}
	return &FilterSummary{
		MatchedCount: matched,
		TotalCount:   total,
		Percentage:   percentage,
		Table:        slice(filtered, argInt(args, "limit", defaultExcerptRows)),
	}, nil
}

func (d *Dispatcher) generateChart(ctx context.Context, args map[string]any) (any, error) {
	table, err := d.store.Get(args["path"].(string))
	if err != nil {
		return nil, err
	}
	req := chart.Request{
		Kind: args["kind"].(string),
		X:    args["x"].(string),
	}
	if y, ok := args["y"].(string); ok {
		req.Y = y
	}
	if title, ok := args["title"].(string); ok {
		req.Title = title
	}

	spec, err := chart.Resolve(table, req)
	if err != nil {
		return nil, err
	}
	return d.renderer.Render(ctx, spec)
}

func (d *Dispatcher) listDatasets(_ context.Context, _ map[string]any) (any, error) {
	files, err := d.store.List()
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []string{}
	}
	return &DatasetList{Files: files}, nil
}

func (d *Dispatcher) exportTable(_ context.Context, args map[string]any) (any, error) {
	path := args["path"].(string)
	table, err := d.store.Get(path)
	if err != nil {
		return nil, err
	}

	var predicates []filter.Predicate
	if raw, ok := args["predicates"]; ok {
		predicates, err = parsePredicates(raw)
		if err != nil {
			return nil, err
		}
	}
	filtered, err := filter.Apply(table, predicates)
	if err != nil {
		return nil, err
	}

	if mkErr := os.MkdirAll(d.outputDir, 0755); mkErr != nil {
		return nil, errs.NewInternal(mkErr)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name := fmt.Sprintf("%s_filtered_%s_%s.csv",
		base, time.Now().Format("20060102_150405"), uuid.NewString()[:8])

	f, err := os.Create(filepath.Join(d.outputDir, name))
	if err != nil {
		return nil, errs.NewInternal(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(filtered.ColumnNames()); err != nil {
		return nil, errs.NewInternal(err)
	}
	for _, row := range filtered.Rows(0) {
		if err := w.Write(row); err != nil {
			return nil, errs.NewInternal(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errs.NewInternal(err)
	}

	return &ExportArtifact{File: name, Rows: filtered.RowCount()}, nil
}

// parsePredicates converts the raw JSON list into typed predicates.
func parsePredicates(raw any) ([]filter.Predicate, error) {
	list, ok := raw.([]any)
	if !ok {
		if raw == nil {
			return nil, nil
		}
		return nil, errs.NewInvalidArguments("predicates must be a list")
	}
	predicates := make([]filter.Predicate, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, errs.NewInvalidArguments("predicate %d must be an object", i).With("predicate", i)
		}
		column, _ := obj["column"].(string)
		operator, _ := obj["operator"].(string)
		if column == "" || operator == "" {
			return nil, errs.NewInvalidArguments("predicate %d requires column and operator", i).With("predicate", i)
		}
		predicates[i] = filter.Predicate{
			Column:   column,
			Operator: filter.Operator(operator),
			Value:    obj["value"],
		}
	}
	return predicates, nil
}

func slice(table *dataset.Table, limit int) TableSlice {
	types := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		types[i] = col.Type.String()
	}
	rows := table.Rows(limit)
	return TableSlice{
		Columns:   table.ColumnNames(),
		Types:     types,
		Rows:      rows,
		RowCount:  len(rows),
		TotalRows: table.RowCount(),
	}
}

func argInt(args map[string]any, name string, fallback int) int {
	if v, ok := args[name].(float64); ok {
		return int(v)
	}
	return fallback
}
