// Package canopy computes field-level canopy coverage statistics, low-coverage
// zones, coverage distribution, multi-day trends and the composite field
// health score.
package canopy

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/numeric"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/scouting"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

// Zone statuses.
const (
	StatusCritical = "critical"
	StatusWarning  = "warning"
)

// Stats summarises one canopy grid. All values are rounded to 2 decimals.
type Stats struct {
	Avg    float64 `json:"avg"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
}

// Statistics returns the mean, extrema, population standard deviation and
// median of the grid. An empty grid is a validation error.
func Statistics(grid scouting.CanopyGrid) (Stats, error) {
	values := grid.Values()
	if len(values) == 0 {
		return Stats{}, errors.NewValidation("canopy grid is empty")
	}

	mean, std := stat.PopMeanStdDev(values, nil)
	return Stats{
		Avg:    numeric.Round2(mean),
		Min:    numeric.Round2(floats.Min(values)),
		Max:    numeric.Round2(floats.Max(values)),
		StdDev: numeric.Round2(std),
		Median: numeric.Round2(median(values)),
	}, nil
}

// median averages the two middle values for an even count.
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// ─────────────────────────────────────────────────────────────────────────────
// Low coverage zones
// ─────────────────────────────────────────────────────────────────────────────

// LowZone is a cell whose coverage is below the warning threshold.
type LowZone struct {
	ZoneID   string            `json:"zone_id"`
	Position scouting.Position `json:"position"`
	Coverage float64           `json:"coverage"`
	Status   string            `json:"status"`
}

// LowCoverageZones lists every cell below warning, tagged critical when below
// critical, worst first. Cells with equal coverage keep row-major order.
func LowCoverageZones(grid scouting.CanopyGrid, warning, critical float64) []LowZone {
	var out []LowZone
	for y, row := range grid {
		for x, v := range row {
			if v >= warning {
				continue
			}
			status := StatusWarning
			if v < critical {
				status = StatusCritical
			}
			out = append(out, LowZone{
				ZoneID:   scouting.ZoneID(x, y),
				Position: scouting.Position{X: x, Y: y},
				Coverage: numeric.Round2(v),
				Status:   status,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Coverage < out[j].Coverage })
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Distribution
// ─────────────────────────────────────────────────────────────────────────────

// Bucket is one coverage range [Min, Max) of a distribution.
type Bucket struct {
	Name       string  `json:"name"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

var bucketRanges = []Bucket{
	{Name: "critical", Min: 0, Max: 50},
	{Name: "low", Min: 50, Max: 60},
	{Name: "moderate", Min: 60, Max: 70},
	{Name: "good", Min: 70, Max: 80},
	{Name: "excellent", Min: 80, Max: 100},
}

// Distribution counts cells per coverage bucket. Values outside [0, 100) are
// counted in no bucket.
func Distribution(grid scouting.CanopyGrid) []Bucket {
	values := grid.Values()
	out := make([]Bucket, len(bucketRanges))
	copy(out, bucketRanges)
	for _, v := range values {
		for i := range out {
			if v >= out[i].Min && v < out[i].Max {
				out[i].Count++
				break
			}
		}
	}
	for i := range out {
		out[i].Percentage = numeric.Round2(numeric.Percent(float64(out[i].Count), float64(len(values))))
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Trend
// ─────────────────────────────────────────────────────────────────────────────

// Trend directions.
const (
	TrendImproving    = "improving"
	TrendDeclining    = "declining"
	TrendStable       = "stable"
	TrendInsufficient = "insufficient_data"
)

// trendBand is the percentage change beyond which a series is not stable.
const trendBand = 5.0

// TrendResult compares the first and last point of a series of daily averages.
type TrendResult struct {
	Trend      string  `json:"trend"`
	Change     float64 `json:"change"`
	ChangePct  float64 `json:"change_pct"`
	FirstAvg   float64 `json:"first_avg"`
	LastAvg    float64 `json:"last_avg"`
	DataPoints int     `json:"data_points"`
}

// Trend classifies a time-ordered series of averages. Fewer than two points
// yield TrendInsufficient.
func Trend(averages []float64) TrendResult {
	if len(averages) < 2 {
		return TrendResult{Trend: TrendInsufficient, DataPoints: len(averages)}
	}
	first, last := averages[0], averages[len(averages)-1]
	change := last - first
	pct := 0.0
	if first > 0 {
		pct = change / first * 100
	}

	trend := TrendStable
	switch {
	case pct > trendBand:
		trend = TrendImproving
	case pct < -trendBand:
		trend = TrendDeclining
	}
	return TrendResult{
		Trend:      trend,
		Change:     numeric.Round2(change),
		ChangePct:  numeric.Round2(pct),
		FirstAvg:   numeric.Round2(first),
		LastAvg:    numeric.Round2(last),
		DataPoints: len(averages),
	}
}

//Personal.AI order the ending
