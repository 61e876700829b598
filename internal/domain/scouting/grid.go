// Package scouting defines the per-flight sensor grids, zone identity and the
// daily record produced by one ingestion.
package scouting

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

// UnknownCrop labels detections whose crop type was not reported.
const UnknownCrop = "unknown"

// FieldWideZone is the zone id used by field-scoped alerts.
const FieldWideZone = "field_wide"

// ─────────────────────────────────────────────────────────────────────────────
// Zones
// ─────────────────────────────────────────────────────────────────────────────

// Position addresses a cell: X is the column index, Y the row index.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ZoneID returns the canonical zone identifier grid_{x}_{y}.
func ZoneID(x, y int) string {
	return fmt.Sprintf("grid_%d_%d", x, y)
}

// ID returns the zone identifier of p.
func (p Position) ID() string { return ZoneID(p.X, p.Y) }

// ParseZoneID is the inverse of ZoneID.
func ParseZoneID(id string) (Position, error) {
	var p Position
	rest, ok := strings.CutPrefix(strings.TrimSpace(id), "grid_")
	if !ok {
		return p, errors.NewValidation("zone id %q must look like grid_{x}_{y}", id)
	}
	xs, ys, ok := strings.Cut(rest, "_")
	if !ok {
		return p, errors.NewValidation("zone id %q must look like grid_{x}_{y}", id)
	}
	x, errX := strconv.Atoi(xs)
	y, errY := strconv.Atoi(ys)
	if errX != nil || errY != nil || x < 0 || y < 0 {
		return p, errors.NewValidation("zone id %q must look like grid_{x}_{y}", id)
	}
	return Position{X: x, Y: y}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Detection grid
// ─────────────────────────────────────────────────────────────────────────────

// DetectionCell is the pre-computed pest detection output for one cell.
type DetectionCell struct {
	Count    int    `json:"count"`
	CropType string `json:"crop_type"`
}

// Crop returns the normalised crop label, UnknownCrop when empty.
func (c DetectionCell) Crop() string {
	crop := strings.ToLower(strings.TrimSpace(c.CropType))
	if crop == "" {
		return UnknownCrop
	}
	return crop
}

// DetectionGrid is a rows × cols matrix of detection cells.
type DetectionGrid [][]DetectionCell

// Shape returns the grid dimensions, failing for empty or ragged grids.
func (g DetectionGrid) Shape() (rows, cols int, err error) {
	lengths := make([]int, len(g))
	for i, row := range g {
		lengths[i] = len(row)
	}
	return shape("detection grid", lengths)
}

// ─────────────────────────────────────────────────────────────────────────────
// Canopy grid
// ─────────────────────────────────────────────────────────────────────────────

// CanopyGrid is a rows × cols matrix of canopy coverage percentages.
type CanopyGrid [][]float64

// Shape returns the grid dimensions, failing for empty or ragged grids.
func (g CanopyGrid) Shape() (rows, cols int, err error) {
	lengths := make([]int, len(g))
	for i, row := range g {
		lengths[i] = len(row)
	}
	return shape("canopy grid", lengths)
}

// Values returns the cells in row-major order.
func (g CanopyGrid) Values() []float64 {
	out := make([]float64, 0, len(g)*rowLen(g))
	for _, row := range g {
		out = append(out, row...)
	}
	return out
}

func rowLen(g CanopyGrid) int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

func shape(name string, lengths []int) (int, int, error) {
	if len(lengths) == 0 || lengths[0] == 0 {
		return 0, 0, errors.NewValidation("%s is empty", name)
	}
	for i, n := range lengths {
		if n != lengths[0] {
			return 0, 0, errors.Newf(errors.ErrCodeGridNotRectangular,
				"%s row %d has %d cells, expected %d", name, i, n, lengths[0])
		}
	}
	return len(lengths), lengths[0], nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Field dimensions
// ─────────────────────────────────────────────────────────────────────────────

// FieldDimensions is the declared physical extent and cell size of a flight.
type FieldDimensions struct {
	WidthM         float64 `json:"width_m"`
	HeightM        float64 `json:"height_m"`
	GridResolution float64 `json:"grid_resolution"`
}

// IsZero reports whether no dimension was provided.
func (d FieldDimensions) IsZero() bool {
	return d.WidthM == 0 && d.HeightM == 0 && d.GridResolution == 0
}

// GridShape derives rows × cols from the declared extent. ok is false when
// the width, height or resolution is missing.
func (d FieldDimensions) GridShape() (rows, cols int, ok bool) {
	if d.WidthM <= 0 || d.HeightM <= 0 || d.GridResolution <= 0 {
		return 0, 0, false
	}
	return int(math.Ceil(d.HeightM / d.GridResolution)), int(math.Ceil(d.WidthM / d.GridResolution)), true
}

// CellSize returns the grid resolution, or fallback when unset.
func (d FieldDimensions) CellSize(fallback float64) float64 {
	if d.GridResolution > 0 {
		return d.GridResolution
	}
	return fallback
}

//Personal.AI order the ending
