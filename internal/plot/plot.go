// Package plot renders projections onto the gender subspace as images.
package plot

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/yildizm/wordbias/internal/subspace"
)

var (
	femaleColor  = color.RGBA{R: 0xC2, G: 0x3B, B: 0x9E, A: 0xFF}
	maleColor    = color.RGBA{R: 0x2B, G: 0x6C, B: 0xD4, A: 0xFF}
	neutralColor = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
	axisColor    = color.RGBA{A: 0xFF}
)

var supportedExt = map[string]bool{
	".png": true, ".svg": true, ".pdf": true, ".jpg": true, ".jpeg": true,
	".eps": true, ".tif": true, ".tiff": true,
}

// ErrNoPoints is returned when there is nothing to draw
var ErrNoPoints = errors.New("no points to plot")

// Options controls the rendered image
type Options struct {
	Title  string
	Width  vg.Length
	Height vg.Length

	// NeutralBand draws |gender| below this value in gray
	NeutralBand float64
}

// DefaultOptions returns a 8x6 inch figure
func DefaultOptions() Options {
	return Options{
		Title:       "Projection on the gender subspace",
		Width:       8 * vg.Inch,
		Height:      6 * vg.Inch,
		NeutralBand: 0.05,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Title == "" {
		o.Title = d.Title
	}
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.NeutralBand < 0 {
		o.NeutralBand = 0
	}
	return o
}

// CheckPath reports whether path has an image extension gonum/plot can write
func CheckPath(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExt[ext] {
		return fmt.Errorf("unsupported plot format %q for %s", ext, path)
	}
	return nil
}

// Scatter places each word at (gender, second component) with its label,
// colored by the sign of its gender projection. A dashed line marks
// gender = 0.
func Scatter(path string, projs []subspace.Projection, opts Options) error {
	if len(projs) == 0 {
		return ErrNoPoints
	}
	if err := CheckPath(path); err != nil {
		return err
	}
	opts = opts.withDefaults()

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "gender direction (male - / female +)"
	p.Y.Label.Text = "second component"
	p.Add(plotter.NewGrid())

	groups := map[string]plotter.XYs{}
	var all plotter.XYs
	labels := make([]string, 0, len(projs))
	for _, pr := range projs {
		pt := plotter.XY{X: float64(pr.Gender), Y: float64(pr.Second)}
		key := lean(float64(pr.Gender), opts.NeutralBand)
		groups[key] = append(groups[key], pt)
		all = append(all, pt)
		labels = append(labels, pr.Word)
	}

	for _, key := range []string{"female", "male", "neutral"} {
		pts := groups[key]
		if len(pts) == 0 {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("failed to build scatter: %w", err)
		}
		s.GlyphStyle.Color = colorFor(key)
		s.GlyphStyle.Radius = vg.Points(3)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
		p.Legend.Add(key, s)
	}

	l, err := plotter.NewLabels(plotter.XYLabels{XYs: all, Labels: labels})
	if err != nil {
		return fmt.Errorf("failed to build labels: %w", err)
	}
	l.Offset = vg.Point{X: vg.Points(4), Y: vg.Points(2)}
	p.Add(l)

	minY, maxY := yRange(all)
	zero, err := plotter.NewLine(plotter.XYs{{X: 0, Y: minY}, {X: 0, Y: maxY}})
	if err != nil {
		return fmt.Errorf("failed to build zero line: %w", err)
	}
	zero.LineStyle.Color = axisColor
	zero.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(zero)

	// symmetric x range around the zero line
	span := math.Max(maxAbsX(all), 0.1) * 1.25
	p.X.Min, p.X.Max = -span, span
	p.Legend.Top = true

	if err := p.Save(opts.Width, opts.Height, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}

// Bar draws one horizontal bar per word, in the given order, female leaning
// bars to the right
func Bar(path string, projs []subspace.Projection, opts Options) error {
	if len(projs) == 0 {
		return ErrNoPoints
	}
	if err := CheckPath(path); err != nil {
		return err
	}
	opts = opts.withDefaults()

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "projection on the gender direction"

	n := len(projs)
	female := make(plotter.Values, n)
	male := make(plotter.Values, n)
	names := make([]string, n)
	for i, pr := range projs {
		// NominalY puts index 0 at the bottom; reverse so the list reads top down
		j := n - 1 - i
		names[j] = pr.Word
		if pr.Gender >= 0 {
			female[j] = float64(pr.Gender)
		} else {
			male[j] = float64(pr.Gender)
		}
	}

	width := vg.Points(12)
	for _, series := range []struct {
		key    string
		values plotter.Values
	}{{"female", female}, {"male", male}} {
		bars, err := plotter.NewBarChart(series.values, width)
		if err != nil {
			return fmt.Errorf("failed to build bars: %w", err)
		}
		bars.Horizontal = true
		bars.Color = colorFor(series.key)
		bars.LineStyle.Width = 0
		p.Add(bars)
		p.Legend.Add(series.key, bars)
	}
	p.NominalY(names...)

	height := opts.Height
	if minHeight := vg.Length(n) * vg.Points(16); height < minHeight {
		height = minHeight
	}
	if err := p.Save(opts.Width, height, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}

func lean(x, band float64) string {
	switch {
	case x > band:
		return "female"
	case x < -band:
		return "male"
	default:
		return "neutral"
	}
}

func colorFor(key string) color.Color {
	switch key {
	case "female":
		return femaleColor
	case "male":
		return maleColor
	default:
		return neutralColor
	}
}

func yRange(xys plotter.XYs) (float64, float64) {
	minY, maxY := 0.0, 0.0
	for _, pt := range xys {
		minY = math.Min(minY, pt.Y)
		maxY = math.Max(maxY, pt.Y)
	}
	if minY == maxY {
		minY, maxY = -0.1, 0.1
	}
	return minY, maxY
}

func maxAbsX(xys plotter.XYs) float64 {
	var m float64
	for _, pt := range xys {
		m = math.Max(m, math.Abs(pt.X))
	}
	return m
}
