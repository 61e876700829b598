package render

import (
	"bytes"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/heatmap"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

// gridXYZ adapts a heatmap.Grid to plotter.GridXYZ. Columns map to X and rows
// to Y, so zone grid_{x}_{y} sits at (x, y) with row 0 along the bottom edge.
type gridXYZ struct {
	g heatmap.Grid
}

func (g gridXYZ) Dims() (c, r int)   { return g.g.Cols(), g.g.Rows() }
func (g gridXYZ) Z(c, r int) float64 { return g.g[r][c] }
func (g gridXYZ) X(c int) float64    { return float64(c) }
func (g gridXYZ) Y(r int) float64    { return float64(r) }
func (g gridXYZ) empty() bool        { return g.g.Rows() == 0 || g.g.Cols() == 0 }

// PNGOptions sizes the rendered image.
type PNGOptions struct {
	Width  vg.Length
	Height vg.Length
	Colors int
}

// DefaultPNGOptions renders a 6 × 6 inch image with a 32-step heat palette.
var DefaultPNGOptions = PNGOptions{Width: 6 * vg.Inch, Height: 6 * vg.Inch, Colors: 32}

// HeatmapPNG renders g as a PNG heat map titled title. Values are scaled by
// the grid maximum so the hottest cell always takes the top palette colour.
func HeatmapPNG(g heatmap.Grid, title string, opts PNGOptions) ([]byte, error) {
	xyz := gridXYZ{g: heatmap.Normalize(g, 0)}
	if xyz.empty() {
		return nil, errors.NewValidation("cannot render an empty grid")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultPNGOptions.Width
	}
	if opts.Height <= 0 {
		opts.Height = DefaultPNGOptions.Height
	}
	if opts.Colors < 2 {
		opts.Colors = DefaultPNGOptions.Colors
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "column (x)"
	p.Y.Label.Text = "row (y)"

	hm := plotter.NewHeatMap(xyz, palette.Heat(opts.Colors, 1))
	hm.Min, hm.Max = 0, 1
	p.Add(hm)

	wt, err := p.WriterTo(opts.Width, opts.Height, "png")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create png canvas")
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to encode png")
	}
	return buf.Bytes(), nil
}

//Personal.AI order the ending
