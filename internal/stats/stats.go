// Package stats computes per-column and whole-table summaries.
// Numeric aggregates use sample standard deviation (n-1) and
// linear-interpolation quantiles, matching the usual dataframe
// describe() semantics.
package stats

import (
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/tabulario/datalens/internal/dataset"
	"github.com/tabulario/datalens/internal/domain/errs"
)

// ValueCount is one entry of a categorical frequency list.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Profile is the computed summary of one column. Numeric aggregates
// are pointers: a nil aggregate means undefined (all-missing column),
// never zero.
type Profile struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Count   int    `json:"count"`
	Missing int    `json:"missing"`

	Mean   *float64 `json:"mean,omitempty"`
	Std    *float64 `json:"std,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Q25    *float64 `json:"q25,omitempty"`
	Median *float64 `json:"median,omitempty"`
	Q75    *float64 `json:"q75,omitempty"`

	Distinct  int          `json:"distinct,omitempty"`
	TopValues []ValueCount `json:"top_values,omitempty"`
}

// DatasetSummary is the whole-table report served by get_stats.
type DatasetSummary struct {
	Filename    string             `json:"filename"`
	RowCount    int                `json:"row_count"`
	ColumnCount int                `json:"column_count"`
	SizeBytes   int64              `json:"size_bytes"`
	Columns     []string           `json:"columns"`
	NullCounts  map[string]int     `json:"null_counts"`
	NullPercent map[string]float64 `json:"null_percentages"`
	Profiles    []Profile          `json:"profiles"`
}

// topN is how many frequent values a categorical profile reports.
const topN = 5

// Summarize produces one profile per column in original column order.
// Fails with EmptyTable on a zero-row table.
func Summarize(table *dataset.Table) ([]Profile, error) {
	if table.RowCount() == 0 {
		return nil, errs.NewEmptyTable()
	}

	profiles := make([]Profile, len(table.Columns))
	for i := range table.Columns {
		profiles[i] = profileColumn(&table.Columns[i])
	}
	return profiles, nil
}

// Describe builds the full dataset summary served by get_stats.
func Describe(table *dataset.Table) (*DatasetSummary, error) {
	profiles, err := Summarize(table)
	if err != nil {
		return nil, err
	}

	rows := table.RowCount()
	summary := &DatasetSummary{
		Filename:    filepath.Base(table.Source),
		RowCount:    rows,
		ColumnCount: len(table.Columns),
		Columns:     table.ColumnNames(),
		NullCounts:  make(map[string]int, len(table.Columns)),
		NullPercent: make(map[string]float64, len(table.Columns)),
		Profiles:    profiles,
	}
	if info, statErr := os.Stat(table.Source); statErr == nil {
		summary.SizeBytes = info.Size()
	}
	for i := range table.Columns {
		col := &table.Columns[i]
		nulls := col.NullCount()
		summary.NullCounts[col.Name] = nulls
		summary.NullPercent[col.Name] = round2(float64(nulls) / float64(rows) * 100)
	}
	return summary, nil
}

func profileColumn(col *dataset.Column) Profile {
	p := Profile{
		Name:    col.Name,
		Type:    col.Type.String(),
		Count:   col.NonNullCount(),
		Missing: col.NullCount(),
	}

	if col.Type == dataset.TypeNumeric {
		fillNumeric(&p, col)
	} else {
		fillCategorical(&p, col)
	}
	return p
}

func fillNumeric(p *Profile, col *dataset.Column) {
	xs := make([]float64, 0, len(col.Values))
	for _, v := range col.Values {
		if !v.Null {
			xs = append(xs, v.Num)
		}
	}
	// All-missing column: aggregates stay nil, not zero.
	if len(xs) == 0 {
		return
	}

	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	p.Mean = ptr(stat.Mean(xs, nil))
	if len(xs) > 1 {
		p.Std = ptr(stat.StdDev(xs, nil))
	}
	p.Min = ptr(sorted[0])
	p.Max = ptr(sorted[len(sorted)-1])
	p.Q25 = ptr(quantile(sorted, 0.25))
	p.Median = ptr(quantile(sorted, 0.5))
	p.Q75 = ptr(quantile(sorted, 0.75))
}

// quantile interpolates linearly between order statistics at index
// p*(n-1), the same rule pandas calls "linear".
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(pos)
	frac := pos - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func fillCategorical(p *Profile, col *dataset.Column) {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	var order []string

	for i, v := range col.Values {
		if v.Null {
			continue
		}
		key := v.Format()
		if _, ok := counts[key]; !ok {
			firstSeen[key] = i
			order = append(order, key)
		}
		counts[key]++
	}

	p.Distinct = len(counts)

	// Most frequent first; ties broken by first appearance.
	sort.SliceStable(order, func(a, b int) bool {
		if counts[order[a]] != counts[order[b]] {
			return counts[order[a]] > counts[order[b]]
		}
		return firstSeen[order[a]] < firstSeen[order[b]]
	})

	limit := topN
	if len(order) < limit {
		limit = len(order)
	}
	for _, key := range order[:limit] {
		p.TopValues = append(p.TopValues, ValueCount{Value: key, Count: counts[key]})
	}
}

func ptr(f float64) *float64 { return &f }

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
