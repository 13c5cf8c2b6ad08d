// Package chart draws the daily load trend as a stacked bar PNG.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/joefrost01/batch-report/internal/contracts"
)

// ErrNoData is returned when there is nothing to plot
var ErrNoData = errors.New("no daily counts to chart")

const (
	DefaultWidth       = 800
	DefaultHeight      = 400
	DefaultSampleEvery = 10
	labelLayout        = "01/02"

	axisFontSize = 8
	// room for the "100%" tick labels right of the plot
	yAxisAllowance = 50
)

var padding = chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 40}

var (
	loadedColor  = drawing.Color{R: 76, G: 175, B: 80, A: 255}
	missingColor = drawing.Color{R: 244, G: 67, B: 54, A: 255}
)

// Generator renders trend charts
type Generator struct {
	width       int
	height      int
	sampleEvery int
}

// Option configures a Generator
type Option func(*Generator)

// WithSize overrides the image dimensions
func WithSize(width, height int) Option {
	return func(g *Generator) {
		if width > 0 {
			g.width = width
		}
		if height > 0 {
			g.height = height
		}
	}
}

// WithSampleEvery labels every n-th day on the x axis
func WithSampleEvery(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.sampleEvery = n
		}
	}
}

// NewGenerator creates a Generator with 800x400 output labelling every 10th day
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		width:       DefaultWidth,
		height:      DefaultHeight,
		sampleEvery: DefaultSampleEvery,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Title is the chart heading for a series of the given length
func Title(days int) string {
	return fmt.Sprintf("Batch Load Status - Last %d Days", days)
}

// Render writes the PNG of counts to w
func (g *Generator) Render(w io.Writer, counts []contracts.DailyStatusCount) error {
	if len(counts) == 0 {
		return ErrNoData
	}

	l := g.layout(len(counts))
	bars := g.bars(counts, l)

	// go-chart wraps x labels inside their bar slot and breaks when a label
	// is wider than the slot, so dates are drawn by dateLabels instead
	c := chart.StackedBarChart{
		Title:  Title(len(counts)),
		Width:  g.width,
		Height: g.height,
		Background: chart.Style{
			Padding: padding,
		},
		XAxis:      chart.Style{Hidden: true},
		YAxis:      chart.Style{FontSize: axisFontSize},
		BarSpacing: l.spacing,
		Bars:       bars,
		Elements:   []chart.Renderable{dateLabels(bars, l)},
	}

	if err := c.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// PNG renders counts to memory
func (g *Generator) PNG(counts []contracts.DailyStatusCount) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.Render(&buf, counts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTemp renders counts into a new temp file and returns its path.
// The caller owns the file and must remove it.
func (g *Generator) WriteTemp(counts []contracts.DailyStatusCount) (string, error) {
	if len(counts) == 0 {
		return "", ErrNoData
	}

	f, err := os.CreateTemp("", "batch-chart-*.png")
	if err != nil {
		return "", fmt.Errorf("create chart file: %w", err)
	}

	if err := g.Render(f, counts); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close chart file: %w", err)
	}
	return f.Name(), nil
}

func (g *Generator) bars(counts []contracts.DailyStatusCount, l barLayout) []chart.StackedBar {
	bars := make([]chart.StackedBar, 0, len(counts))
	for i, c := range counts {
		bar := chart.StackedBar{Width: l.width}
		if i%g.sampleEvery == 0 {
			bar.Name = c.Date.Format(labelLayout)
		}
		if c.LoadedCount > 0 {
			bar.Values = append(bar.Values, chart.Value{
				Value: float64(c.LoadedCount),
				Style: chart.Style{FillColor: loadedColor, StrokeColor: loadedColor},
			})
		}
		if c.MissingCount > 0 {
			bar.Values = append(bar.Values, chart.Value{
				Value: float64(c.MissingCount),
				Style: chart.Style{FillColor: missingColor, StrokeColor: missingColor},
			})
		}
		bars = append(bars, bar)
	}
	return bars
}

// barLayout is the horizontal geometry shared by the bars and the date labels
type barLayout struct {
	width   int
	spacing int
}

// slot is the distance between the left edges of two neighbouring bars
func (l barLayout) slot() int {
	return l.width + l.spacing
}

// layout fits n bars into the plot area, which is the canvas minus the
// background padding and the y axis labels drawn right of the bars.
// go-chart replaces a zero width or spacing with its own wide defaults, so
// both stay at least one pixel and spacing shrinks first.
func (g *Generator) layout(n int) barLayout {
	plot := g.width - padding.Left - padding.Right - yAxisAllowance

	spacing := 4
	if n > 60 {
		spacing = 1
	}
	width := plot/n - spacing
	if width < 1 {
		spacing = 1
		width = plot/n - spacing
	}
	if width < 1 {
		width = 1
	}
	return barLayout{width: width, spacing: spacing}
}

// dateLabels draws the sampled bar names centred under their bars
func dateLabels(bars []chart.StackedBar, l barLayout) chart.Renderable {
	return func(r chart.Renderer, canvasBox chart.Box, defaults chart.Style) {
		style := chart.Style{
			Font:        defaults.Font,
			FontSize:    axisFontSize,
			FontColor:   chart.DefaultAxisColor,
			StrokeColor: chart.DefaultAxisColor,
			StrokeWidth: 1,
		}
		style.WriteToRenderer(r)

		r.MoveTo(canvasBox.Left, canvasBox.Bottom)
		r.LineTo(canvasBox.Right, canvasBox.Bottom)
		r.Stroke()

		for i, bar := range bars {
			if bar.Name == "" {
				continue
			}
			center := canvasBox.Left + i*l.slot() + l.spacing/2 + l.width/2
			r.MoveTo(center, canvasBox.Bottom)
			r.LineTo(center, canvasBox.Bottom+chart.DefaultVerticalTickHeight)
			r.Stroke()

			tb := r.MeasureText(bar.Name)
			x := center - tb.Width()/2
			if x < 0 {
				x = 0
			}
			r.Text(bar.Name, x, canvasBox.Bottom+chart.DefaultXAxisMargin+tb.Height())
		}
	}
}
