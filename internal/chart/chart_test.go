package chart

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/tabulario/datalens/internal/dataset"
	"github.com/tabulario/datalens/internal/domain/errs"
)

const salesCSV = `region,revenue,units
north,1200,10
south,800,5
north,400,3
east,950,7
`

func loadSales(t *testing.T) *dataset.Table {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(salesCSV), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	table, err := dataset.Load(path)
	if err != nil {
		t.Fatalf("failed to load fixture: %v", err)
	}
	return table
}

func assertChartError(t *testing.T, err error, fragment string) {
	t.Helper()
	e, ok := err.(*errs.Error)
	if !ok {
		t.Fatalf("expected typed error, got %T: %v", err, err)
	}
	assert.Equal(t, errs.InvalidChartRequest, e.Kind)
	assert.ErrorContains(t, err, fragment)
}

func TestResolveBar(t *testing.T) {
	table := loadSales(t)

	spec, err := Resolve(table, Request{Kind: "bar", X: "region", Y: "revenue"})
	assert.NilError(t, err)
	assert.Equal(t, KindBar, spec.Kind)
	assert.Equal(t, "bar chart: region, revenue", spec.Title)
	assert.DeepEqual(t, []string{"region", "revenue"}, spec.Columns())
}

func TestResolveKeepsCallerTitle(t *testing.T) {
	table := loadSales(t)

	spec, err := Resolve(table, Request{Kind: "line", X: "units", Y: "revenue", Title: "Revenue by units"})
	assert.NilError(t, err)
	assert.Equal(t, "Revenue by units", spec.Title)
}

func TestResolveRejections(t *testing.T) {
	table := loadSales(t)

	t.Run("unknown kind", func(t *testing.T) {
		_, err := Resolve(table, Request{Kind: "histogram", X: "region", Y: "revenue"})
		assertChartError(t, err, "unsupported kind")
	})

	t.Run("missing x", func(t *testing.T) {
		_, err := Resolve(table, Request{Kind: "bar", Y: "revenue"})
		assertChartError(t, err, "x column is required")
	})

	t.Run("unknown x column", func(t *testing.T) {
		_, err := Resolve(table, Request{Kind: "bar", X: "country", Y: "revenue"})
		assertChartError(t, err, "not found")
	})

	t.Run("missing y", func(t *testing.T) {
		_, err := Resolve(table, Request{Kind: "bar", X: "region"})
		assertChartError(t, err, "requires a y column")
	})

	t.Run("non-numeric y", func(t *testing.T) {
		_, err := Resolve(table, Request{Kind: "bar", X: "revenue", Y: "region"})
		assertChartError(t, err, "numeric y column")
	})

	t.Run("scatter needs numeric x", func(t *testing.T) {
		_, err := Resolve(table, Request{Kind: "scatter", X: "region", Y: "revenue"})
		assertChartError(t, err, "numeric x column")
	})

	t.Run("pie rejects numeric x", func(t *testing.T) {
		_, err := Resolve(table, Request{Kind: "pie", X: "units", Y: "revenue"})
		assertChartError(t, err, "categorical x column")
	})
}

func TestResolvePieCategorical(t *testing.T) {
	table := loadSales(t)

	spec, err := Resolve(table, Request{Kind: "pie", X: "region", Y: "revenue"})
	assert.NilError(t, err)
	assert.Equal(t, KindPie, spec.Kind)
}

func TestCategoryValuesSumsPerLabel(t *testing.T) {
	table := loadSales(t)
	spec, err := Resolve(table, Request{Kind: "bar", X: "region", Y: "revenue"})
	assert.NilError(t, err)

	labels, values := categoryValues(spec)
	assert.DeepEqual(t, []string{"north", "south", "east"}, labels)
	assert.DeepEqual(t, []float64{1600, 800, 950}, values)
}

func TestRenderWritesPNG(t *testing.T) {
	table := loadSales(t)
	renderer := NewPNGRenderer(t.TempDir())

	spec, err := Resolve(table, Request{Kind: "bar", X: "region", Y: "revenue"})
	assert.NilError(t, err)

	artifact, err := renderer.Render(context.Background(), spec)
	assert.NilError(t, err)

	assert.Assert(t, strings.HasPrefix(artifact.File, "chart_bar_sales_"))
	assert.Assert(t, strings.HasSuffix(artifact.File, ".png"))

	info, statErr := os.Stat(filepath.Join(renderer.OutputDir, artifact.File))
	assert.NilError(t, statErr)
	assert.Assert(t, info.Size() > 0)
}

func TestRenderTimeout(t *testing.T) {
	table := loadSales(t)
	renderer := NewPNGRenderer(t.TempDir())

	spec, err := Resolve(table, Request{Kind: "line", X: "units", Y: "revenue"})
	assert.NilError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = renderer.Render(ctx, spec)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	e, ok := err.(*errs.Error)
	assert.Assert(t, ok)
	assert.Equal(t, errs.Timeout, e.Kind)
}
