package canopy

import (
	"gonum.org/v1/gonum/stat"

	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/numeric"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/scouting"
)

const (
	canopyWeight = 60.0
	pestWeight   = 40.0

	// worstPestDensity is the mean density at which the pest component is 0.
	worstPestDensity = 20.0
)

// Health ratings.
const (
	RatingExcellent = "excellent"
	RatingGood      = "good"
	RatingFair      = "fair"
	RatingPoor      = "poor"
)

// HealthComponents breaks a score into its weighted parts.
type HealthComponents struct {
	CanopyScore float64 `json:"canopy_score"`
	PestScore   float64 `json:"pest_score"`
}

// Health is a 0–100 composite field score.
type Health struct {
	Score      float64          `json:"health_score"`
	Rating     string           `json:"rating"`
	Components HealthComponents `json:"components"`
}

// HealthScore weights mean canopy coverage at 60 points and mean pest density
// at 40 points, with 20 pests per m² or more scoring zero. A nil pest surface
// awards the full pest component. Figures are rounded to 1 decimal.
func HealthScore(canopy scouting.CanopyGrid, pest [][]float64) Health {
	canopyScore := 0.0
	if values := canopy.Values(); len(values) > 0 {
		canopyScore = stat.Mean(values, nil) / 100 * canopyWeight
	}

	pestScore := pestWeight
	if pest != nil {
		var flat []float64
		for _, row := range pest {
			flat = append(flat, row...)
		}
		meanDensity := 0.0
		if len(flat) > 0 {
			meanDensity = stat.Mean(flat, nil)
		}
		pestScore = numeric.Clamp(1-meanDensity/worstPestDensity, 0, 1) * pestWeight
	}

	total := canopyScore + pestScore
	return Health{
		Score:  numeric.Round(total, 1),
		Rating: rating(total),
		Components: HealthComponents{
			CanopyScore: numeric.Round(canopyScore, 1),
			PestScore:   numeric.Round(pestScore, 1),
		},
	}
}

func rating(score float64) string {
	switch {
	case score >= 80:
		return RatingExcellent
	case score >= 60:
		return RatingGood
	case score >= 40:
		return RatingFair
	default:
		return RatingPoor
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Zone comparison
// ─────────────────────────────────────────────────────────────────────────────

// ZoneCoverage is the coverage of one zone.
type ZoneCoverage struct {
	ZoneID      string  `json:"zone_id"`
	CanopyCover float64 `json:"canopy_cover"`
}

// Comparison contrasts two zones of the same grid.
type Comparison struct {
	Zone1         ZoneCoverage `json:"zone1"`
	Zone2         ZoneCoverage `json:"zone2"`
	Difference    float64      `json:"difference"`
	DifferencePct float64      `json:"difference_pct"`
	BetterZone    string       `json:"better_zone"`
}

// CompareZones compares the coverage of a against b. ok is false when either
// position lies outside the grid.
func CompareZones(grid scouting.CanopyGrid, a, b scouting.Position) (Comparison, bool) {
	inside := func(p scouting.Position) bool {
		return p.Y >= 0 && p.Y < len(grid) && p.X >= 0 && p.X < len(grid[p.Y])
	}
	if !inside(a) || !inside(b) {
		return Comparison{}, false
	}
	c1, c2 := grid[a.Y][a.X], grid[b.Y][b.X]
	diff := c2 - c1
	pct := 0.0
	if c1 > 0 {
		pct = diff / c1 * 100
	}
	better := "zone1"
	if c2 > c1 {
		better = "zone2"
	}
	return Comparison{
		Zone1:         ZoneCoverage{ZoneID: a.ID(), CanopyCover: numeric.Round2(c1)},
		Zone2:         ZoneCoverage{ZoneID: b.ID(), CanopyCover: numeric.Round2(c2)},
		Difference:    numeric.Round2(diff),
		DifferencePct: numeric.Round2(pct),
		BetterZone:    better,
	}, true
}

//Personal.AI order the ending
