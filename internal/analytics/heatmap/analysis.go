package heatmap

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/numeric"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/field"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/scouting"
)

// Correlation interpretations.
const (
	CorrelationNegative = "negative"
	CorrelationNeutral  = "neutral"
	CorrelationPositive = "positive"
)

// ZoneMetric is the pest and canopy reading of one cell.
type ZoneMetric struct {
	ZoneID      string            `json:"zone_id"`
	Position    scouting.Position `json:"position"`
	PestCount   int               `json:"pest_count"`
	PestDensity float64           `json:"pest_density"`
	CanopyCover float64           `json:"canopy_cover"`
	RiskLevel   string            `json:"risk_level"`
}

// CorrelationResult relates pest density to canopy coverage over a field.
type CorrelationResult struct {
	Coefficient       float64      `json:"correlation_coefficient"`
	Interpretation    string       `json:"interpretation"`
	CriticalZoneCount int          `json:"critical_zones_count"`
	CriticalZones     []ZoneMetric `json:"critical_zones"`
}

// maxCorrelationZones caps the zones listed in a CorrelationResult.
const maxCorrelationZones = 10

// Correlation computes the Pearson coefficient between pest and canopy,
// rounded to 3 decimals, and lists cells where pest exceeds the critical
// threshold while canopy is below its critical threshold. A constant input
// has no defined coefficient and reports 0.
func Correlation(pest, canopy Grid, th field.Thresholds) CorrelationResult {
	x, y := pest.Flatten(), canopy.Flatten()
	coef := 0.0
	if len(x) == len(y) && len(x) > 1 {
		coef = stat.Correlation(x, y, nil)
		if math.IsNaN(coef) {
			coef = 0
		}
	}
	coef = numeric.Round(coef, 3)

	res := CorrelationResult{Coefficient: coef, Interpretation: interpret(coef)}
	for r := 0; r < pest.Rows() && r < canopy.Rows(); r++ {
		for c := 0; c < pest.Cols() && c < canopy.Cols(); c++ {
			p, cv := pest[r][c], canopy[r][c]
			if p <= th.PestCritical || cv >= th.CanopyCritical {
				continue
			}
			res.CriticalZoneCount++
			if len(res.CriticalZones) < maxCorrelationZones {
				res.CriticalZones = append(res.CriticalZones, ZoneMetric{
					ZoneID:      scouting.ZoneID(c, r),
					Position:    scouting.Position{X: c, Y: r},
					PestCount:   int(p),
					PestDensity: numeric.Round2(p),
					CanopyCover: numeric.Round2(cv),
					RiskLevel:   scouting.RiskCritical,
				})
			}
		}
	}
	return res
}

func interpret(coef float64) string {
	switch {
	case coef < -0.3:
		return CorrelationNegative
	case coef < 0.3:
		return CorrelationNeutral
	default:
		return CorrelationPositive
	}
}

// ZoneMetrics reads the cell at column x, row y. ok is false when the cell
// lies outside the pest grid. A nil canopy grid reads as 0 % coverage.
func ZoneMetrics(pest, canopy Grid, x, y int, cellSize float64, th field.Thresholds) (ZoneMetric, bool) {
	if y < 0 || y >= pest.Rows() || x < 0 || x >= pest.Cols() {
		return ZoneMetric{}, false
	}
	if cellSize <= 0 {
		cellSize = 1
	}
	count := int(pest[y][x])
	density := float64(count) / (cellSize * cellSize)
	cover := 0.0
	if y < canopy.Rows() && x < canopy.Cols() {
		cover = canopy[y][x]
	}

	risk := "low"
	switch {
	case density > th.PestCritical || cover < th.CanopyCritical:
		risk = scouting.RiskCritical
	case density > th.PestWarning || cover < th.CanopyWarning:
		risk = "warning"
	}

	return ZoneMetric{
		ZoneID:      scouting.ZoneID(x, y),
		Position:    scouting.Position{X: x, Y: y},
		PestCount:   count,
		PestDensity: numeric.Round2(density),
		CanopyCover: numeric.Round2(cover),
		RiskLevel:   risk,
	}, true
}

//Personal.AI order the ending
