// Package heatmap spreads point pest detections into smoothed per-crop
// density surfaces using a linear radial falloff, and extracts hotspots from
// raw count grids.
//
// A detection footprint spanning cells [start, end) in each axis has centre
// (start+end)/2 and radius equal to its half-diagonal. Every cell within the
// footprint plus a two-cell margin receives
//
//	max(0, 1 − distance/(radius + 3))
//
// where distance is Euclidean in cell units. Contributions are summed.
package heatmap

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/numeric"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/scouting"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

const (
	// margin is the number of cells beyond a footprint that receive influence.
	margin = 2

	// falloffPad is added to the radius in the influence denominator.
	falloffPad = 3.0
)

// Grid is a rows × cols matrix of floating point values.
type Grid [][]float64

// NewGrid allocates a zero grid.
func NewGrid(rows, cols int) Grid {
	if rows <= 0 || cols <= 0 {
		return Grid{}
	}
	g := make(Grid, rows)
	for r := range g {
		g[r] = make([]float64, cols)
	}
	return g
}

// Rows returns the number of rows.
func (g Grid) Rows() int { return len(g) }

// Cols returns the number of columns.
func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Max returns the largest cell value, 0 for an empty grid.
func (g Grid) Max() float64 {
	flat := g.Flatten()
	if len(flat) == 0 {
		return 0
	}
	return floats.Max(flat)
}

// Flatten returns the cells in row-major order.
func (g Grid) Flatten() []float64 {
	out := make([]float64, 0, g.Rows()*g.Cols())
	for _, row := range g {
		out = append(out, row...)
	}
	return out
}

// Clone returns a deep copy of g.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for r, row := range g {
		out[r] = append([]float64(nil), row...)
	}
	return out
}

// Influence is the radial contribution at distance from a footprint of the
// given radius. It lies in [0, 1].
func Influence(distance, radius float64) float64 {
	return math.Max(0, 1-distance/(radius+falloffPad))
}

// splat adds weight × influence of the footprint [r0,r1) × [c0,c1) into g.
// A cell is placed at its index plus offset: 0 puts boxes on cell corners,
// 0.5 puts single-cell footprints on cell centres.
func splat(g Grid, r0, r1, c0, c1 int, weight, offset float64) {
	rows, cols := g.Rows(), g.Cols()
	centerRow := float64(r0+r1) / 2
	centerCol := float64(c0+c1) / 2
	radius := math.Hypot(float64(c1-c0), float64(r1-r0)) / 2

	for r := max(0, r0-margin); r < min(rows, r1+margin); r++ {
		for c := max(0, c0-margin); c < min(cols, c1+margin); c++ {
			d := math.Hypot(float64(c)+offset-centerCol, float64(r)+offset-centerRow)
			g[r][c] += weight * Influence(d, radius)
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Box variant
// ─────────────────────────────────────────────────────────────────────────────

// MaxCells caps the number of cells FromBoxes will allocate.
const MaxCells = 1 << 20

// FromBoxes builds a density grid of ceil(height/cell) × ceil(width/cell)
// cells from axis-aligned boxes [x, y, w, h] in metres. Boxes without exactly
// four finite components are skipped and counted in the second return value.
// A non-positive cellSize is treated as 1 m. Non-finite or negative
// dimensions, and grids larger than MaxCells, are rejected.
func FromBoxes(boxes [][]float64, widthM, heightM, cellSize float64) (Grid, int, error) {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		cellSize = 1
	}
	if !finite(widthM, heightM) || widthM < 0 || heightM < 0 {
		return nil, 0, errors.NewValidation("field dimensions must be finite and non-negative, got %vx%v", widthM, heightM)
	}
	rowsF := math.Ceil(heightM / cellSize)
	colsF := math.Ceil(widthM / cellSize)
	if rowsF*colsF > MaxCells {
		return nil, 0, errors.NewValidation("grid of %.0fx%.0f cells exceeds the %d cell limit", rowsF, colsF, MaxCells)
	}
	rows, cols := int(rowsF), int(colsF)
	g := NewGrid(rows, cols)

	skipped := 0
	for _, b := range boxes {
		if len(b) != 4 || !finite(b...) {
			skipped++
			continue
		}
		x, y, w, h := b[0], b[1], b[2], b[3]
		c0 := int(x / cellSize)
		c1 := min(int(math.Ceil((x+w)/cellSize)), cols)
		r0 := int(y / cellSize)
		r1 := min(int(math.Ceil((y+h)/cellSize)), rows)
		splat(g, r0, r1, c0, c1, 1, 0)
	}
	return g, skipped, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// Per-cell variant
// ─────────────────────────────────────────────────────────────────────────────

// Result is the output of FromDetectionGrid.
type Result struct {
	// Density holds one smoothed surface per crop with a non-zero total.
	Density map[string]Grid

	// Counts holds the raw per-crop count grids backing Density.
	Counts map[string]Grid

	// Totals is the summed detection count per crop.
	Totals map[string]int

	// Order lists the crops by first appearance in row-major order.
	Order []string

	// Skipped counts malformed cells (negative counts).
	Skipped int
}

// Total returns the summed detection count across all crops.
func (r Result) Total() int {
	n := 0
	for _, v := range r.Totals {
		n += v
	}
	return n
}

// Crops returns the crop labels in sorted order.
func (r Result) Crops() []string {
	out := make([]string, 0, len(r.Totals))
	for c := range r.Totals {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// FromDetectionGrid treats every cell with a positive count as a one-cell
// footprint whose influence is scaled by the count, accumulated into that
// cell's crop surface only. Distances run between cell centres, so the
// detection cell itself receives the full count. Crops with no detections
// get no grid.
func FromDetectionGrid(grid scouting.DetectionGrid) Result {
	res := Result{
		Density: map[string]Grid{},
		Counts:  map[string]Grid{},
		Totals:  map[string]int{},
	}
	rows := len(grid)
	cols := 0
	if rows > 0 {
		cols = len(grid[0])
	}

	for r, row := range grid {
		for c, cell := range row {
			if cell.Count < 0 {
				res.Skipped++
				continue
			}
			if cell.Count == 0 {
				continue
			}
			crop := cell.Crop()
			if _, ok := res.Density[crop]; !ok {
				res.Density[crop] = NewGrid(rows, cols)
				res.Counts[crop] = NewGrid(rows, cols)
				res.Order = append(res.Order, crop)
			}
			res.Totals[crop] += cell.Count
			res.Counts[crop][r][c] += float64(cell.Count)
			splat(res.Density[crop], r, r+1, c, c+1, float64(cell.Count), 0.5)
		}
	}
	return res
}

// ─────────────────────────────────────────────────────────────────────────────
// Combination
// ─────────────────────────────────────────────────────────────────────────────

// Sum returns the cell-wise sum of equally shaped grids, nil when none.
func Sum(grids ...Grid) Grid {
	if len(grids) == 0 {
		return nil
	}
	out := grids[0].Clone()
	for _, g := range grids[1:] {
		for r := range out {
			floats.Add(out[r], g[r])
		}
	}
	return out
}

// SumCrops sums a per-crop map in sorted crop order, returning a zero grid of
// rows × cols when the map is empty.
func SumCrops(m map[string]Grid, rows, cols int) Grid {
	if len(m) == 0 {
		return NewGrid(rows, cols)
	}
	crops := make([]string, 0, len(m))
	for c := range m {
		crops = append(crops, c)
	}
	sort.Strings(crops)
	grids := make([]Grid, len(crops))
	for i, c := range crops {
		grids[i] = m[c]
	}
	return Sum(grids...)
}

// Normalize scales g into [0, 1] by maxValue, or by g's own maximum when
// maxValue ≤ 0. An all-zero grid is returned unchanged.
func Normalize(g Grid, maxValue float64) Grid {
	if maxValue <= 0 {
		maxValue = g.Max()
	}
	out := g.Clone()
	if maxValue == 0 {
		return out
	}
	for _, row := range out {
		floats.Scale(1/maxValue, row)
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Hotspots
// ─────────────────────────────────────────────────────────────────────────────

// Hotspot is a cell whose raw count meets the warning threshold.
type Hotspot struct {
	ZoneID    string            `json:"zone_id"`
	Position  scouting.Position `json:"position"`
	PestCount int               `json:"pest_count"`
	Density   float64           `json:"density"`
	CropType  string            `json:"crop_type,omitempty"`
}

// FindHotspots returns cells of counts with value ≥ threshold, density =
// count / cellSize² rounded to 2 decimals, sorted by density descending with
// row-major order preserved among ties.
func FindHotspots(counts Grid, threshold, cellSize float64) []Hotspot {
	if cellSize <= 0 {
		cellSize = 1
	}
	area := cellSize * cellSize
	var out []Hotspot
	for y, row := range counts {
		for x, v := range row {
			if v < threshold {
				continue
			}
			out = append(out, Hotspot{
				ZoneID:    scouting.ZoneID(x, y),
				Position:  scouting.Position{X: x, Y: y},
				PestCount: int(v),
				Density:   numeric.Round2(v / area),
			})
		}
	}
	SortHotspots(out)
	return out
}

// CropHotspots runs FindHotspots over every crop's count grid in sorted crop
// order, tags each hotspot with its crop and merges them by density.
func CropHotspots(counts map[string]Grid, threshold, cellSize float64) []Hotspot {
	crops := make([]string, 0, len(counts))
	for c := range counts {
		crops = append(crops, c)
	}
	sort.Strings(crops)

	var all []Hotspot
	for _, crop := range crops {
		for _, h := range FindHotspots(counts[crop], threshold, cellSize) {
			h.CropType = crop
			all = append(all, h)
		}
	}
	SortHotspots(all)
	return all
}

// SortHotspots orders hotspots by density descending, stable.
func SortHotspots(hs []Hotspot) {
	sort.SliceStable(hs, func(i, j int) bool { return hs[i].Density > hs[j].Density })
}

//Personal.AI order the ending
