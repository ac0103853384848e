package chart

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/tabulario/datalens/internal/dataset"
	"github.com/tabulario/datalens/internal/domain/errs"
)

// Artifact references a rendered chart image.
type Artifact struct {
	File    string   `json:"file"`
	Kind    string   `json:"kind"`
	Title   string   `json:"title"`
	Columns []string `json:"columns"`
}

// Renderer turns a resolved Spec into an image artifact. The context
// deadline bounds the call; on expiry it fails with a Timeout error.
type Renderer interface {
	Render(ctx context.Context, spec *Spec) (*Artifact, error)
}

// PNGRenderer renders charts as PNG files in an output directory.
// Each render generates a distinct artifact name, so retries never
// clobber earlier output.
type PNGRenderer struct {
	OutputDir string
	Width     int
	Height    int
}

// NewPNGRenderer creates a renderer writing into outputDir.
func NewPNGRenderer(outputDir string) *PNGRenderer {
	return &PNGRenderer{OutputDir: outputDir, Width: 1200, Height: 800}
}

func (r *PNGRenderer) Render(ctx context.Context, spec *Spec) (*Artifact, error) {
	type rendered struct {
		artifact *Artifact
		err      error
	}
	done := make(chan rendered, 1)
	go func() {
		a, err := r.render(spec)
		done <- rendered{a, err}
	}()

	select {
	case <-ctx.Done():
		return nil, errs.NewTimeout("chart rendering")
	case res := <-done:
		return res.artifact, res.err
	}
}

func (r *PNGRenderer) render(spec *Spec) (*Artifact, error) {
	var buf bytes.Buffer
	var err error

	switch spec.Kind {
	case KindBar:
		err = r.renderBar(spec, &buf)
	case KindPie:
		err = r.renderPie(spec, &buf)
	default:
		// line and scatter share the xy path
		err = r.renderXY(spec, &buf)
	}
	if err != nil {
		return nil, errs.NewInternal(err)
	}

	if mkErr := os.MkdirAll(r.OutputDir, 0755); mkErr != nil {
		return nil, errs.NewInternal(mkErr)
	}
	name := artifactName(spec)
	if writeErr := os.WriteFile(filepath.Join(r.OutputDir, name), buf.Bytes(), 0644); writeErr != nil {
		return nil, errs.NewInternal(writeErr)
	}

	return &Artifact{
		File:    name,
		Kind:    string(spec.Kind),
		Title:   spec.Title,
		Columns: spec.Columns(),
	}, nil
}

// artifactName is deterministic from dataset + kind + timestamp, with
// a short random suffix so concurrent renders cannot collide.
func artifactName(spec *Spec) string {
	base := strings.TrimSuffix(filepath.Base(spec.Table.Source), filepath.Ext(spec.Table.Source))
	ts := time.Now().Format("20060102_150405")
	return fmt.Sprintf("chart_%s_%s_%s_%s.png", spec.Kind, base, ts, uuid.NewString()[:8])
}

func (r *PNGRenderer) renderBar(spec *Spec, buf *bytes.Buffer) error {
	labels, values := categoryValues(spec)
	bars := make([]gochart.Value, len(labels))
	for i := range labels {
		bars[i] = gochart.Value{Label: labels[i], Value: values[i]}
	}

	graph := gochart.BarChart{
		Title:    spec.Title,
		Width:    r.Width,
		Height:   r.Height,
		BarWidth: 40,
		Bars:     bars,
	}
	return graph.Render(gochart.PNG, buf)
}

func (r *PNGRenderer) renderPie(spec *Spec, buf *bytes.Buffer) error {
	labels, values := categoryValues(spec)
	slices := make([]gochart.Value, len(labels))
	for i := range labels {
		slices[i] = gochart.Value{Label: labels[i], Value: values[i]}
	}

	graph := gochart.PieChart{
		Title:  spec.Title,
		Width:  r.Width,
		Height: r.Height,
		Values: slices,
	}
	return graph.Render(gochart.PNG, buf)
}

func (r *PNGRenderer) renderXY(spec *Spec, buf *bytes.Buffer) error {
	xCol, _ := spec.Table.Column(spec.X)
	yCol, _ := spec.Table.Column(spec.Y)

	var xs, ys []float64
	var ticks []gochart.Tick
	for i := range yCol.Values {
		xv, yv := xCol.Values[i], yCol.Values[i]
		if xv.Null || yv.Null {
			continue
		}
		var x float64
		if xCol.Type == dataset.TypeNumeric {
			x = xv.Num
		} else {
			// categorical x: positional values with labeled ticks
			x = float64(len(xs))
			ticks = append(ticks, gochart.Tick{Value: x, Label: xv.Format()})
		}
		xs = append(xs, x)
		ys = append(ys, yv.Num)
	}

	style := gochart.Style{}
	if spec.Kind == KindScatter {
		style = gochart.Style{
			StrokeWidth: gochart.Disabled,
			DotWidth:    5,
		}
	}

	graph := gochart.Chart{
		Title:  spec.Title,
		Width:  r.Width,
		Height: r.Height,
		XAxis:  gochart.XAxis{Name: spec.X, Ticks: ticks},
		YAxis:  gochart.YAxis{Name: spec.Y},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    spec.Y,
				XValues: xs,
				YValues: ys,
				Style:   style,
			},
		},
	}
	return graph.Render(gochart.PNG, buf)
}

// categoryValues sums y per x value, preserving first-appearance
// order of the categories. Rows with a missing cell are skipped.
func categoryValues(spec *Spec) ([]string, []float64) {
	xCol, _ := spec.Table.Column(spec.X)
	yCol, _ := spec.Table.Column(spec.Y)

	sums := make(map[string]float64)
	var order []string
	for i := range xCol.Values {
		xv, yv := xCol.Values[i], yCol.Values[i]
		if xv.Null || yv.Null {
			continue
		}
		key := xv.Format()
		if _, ok := sums[key]; !ok {
			order = append(order, key)
		}
		sums[key] += yv.Num
	}

	values := make([]float64, len(order))
	for i, key := range order {
		values[i] = sums[key]
	}
	return order, values
}
