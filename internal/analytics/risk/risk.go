// Package risk fuses pest density and canopy coverage into a per-zone risk
// classification.
//
// Critical zones are detected from raw hotspot counts and are authoritative:
// a zone flagged here is critical in the fused classification regardless of
// its smoothed density. Canopy collapse alone also makes a zone critical, so a
// merely elevated pest signal never masks it.
package risk

import (
	"sort"

	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/heatmap"
	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/numeric"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/field"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/scouting"
)

// Zone statuses.
const (
	StatusHealthy  = "healthy"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// Risk levels.
const (
	RiskLow      = "low"
	RiskWarning  = "warning"
	RiskCritical = scouting.RiskCritical
)

// CriticalZones selects the hotspots that are pest-critical (count ≥
// PestCritical) or sit on canopy-critical cells (coverage < CanopyCritical).
// Hotspots outside the canopy grid are ignored. Output order follows the
// hotspot order.
func CriticalZones(hotspots []heatmap.Hotspot, canopy scouting.CanopyGrid, th field.Thresholds) []scouting.CriticalZone {
	var out []scouting.CriticalZone
	for _, h := range hotspots {
		x, y := h.Position.X, h.Position.Y
		if y < 0 || y >= len(canopy) || x < 0 || x >= len(canopy[y]) {
			continue
		}
		cover := canopy[y][x]
		if float64(h.PestCount) < th.PestCritical && cover >= th.CanopyCritical {
			continue
		}
		crop := h.CropType
		if crop == "" {
			crop = scouting.UnknownCrop
		}
		out = append(out, scouting.CriticalZone{
			ZoneID:      h.ZoneID,
			PestDensity: h.Density,
			PestCount:   h.PestCount,
			CropType:    crop,
			CanopyCover: cover,
			RiskLevel:   RiskCritical,
		})
	}
	return out
}

// TopCritical returns the first n zones by pest density, descending. Zones of
// equal density keep their input order. n ≤ 0 returns every zone.
func TopCritical(zones []scouting.CriticalZone, n int) []scouting.CriticalZone {
	sorted := append([]scouting.CriticalZone(nil), zones...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PestDensity > sorted[j].PestDensity })
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// ─────────────────────────────────────────────────────────────────────────────
// Fusion
// ─────────────────────────────────────────────────────────────────────────────

// ZoneStatus is the fused classification of one cell.
type ZoneStatus struct {
	ZoneID      string            `json:"zone_id"`
	Position    scouting.Position `json:"position"`
	AvgCanopy   float64           `json:"avg_canopy"`
	PestDensity float64           `json:"pest_density"`
	PestCount   int               `json:"pest_count"`
	CropType    string            `json:"crop_type,omitempty"`
	RiskLevel   string            `json:"risk_level"`
	Status      string            `json:"status"`
}

// Summary counts zones per status.
type Summary struct {
	Healthy  int `json:"healthy_zones"`
	Warning  int `json:"warning_zones"`
	Critical int `json:"critical_zones"`
}

// Classification is the fused result for every cell in row-major order.
type Classification struct {
	Zones   []ZoneStatus `json:"grid_zones"`
	Summary Summary      `json:"summary"`
}

// Critical returns the zones classified critical.
func (c Classification) Critical() []ZoneStatus {
	var out []ZoneStatus
	for _, z := range c.Zones {
		if z.Status == StatusCritical {
			out = append(out, z)
		}
	}
	return out
}

// Fuse classifies every canopy cell. Precedence, first match wins:
//
//  1. listed in critical: critical, with the zone's density, count and crop
//  2. canopy < CanopyCritical: critical
//  3. summed density ≥ PestWarning or canopy < CanopyWarning: warning
//  4. healthy
//
// Critical cells not in the list are tagged with their dominant crop, the crop
// with the highest density at that cell.
func Fuse(densities map[string]heatmap.Grid, canopy scouting.CanopyGrid, critical []scouting.CriticalZone, th field.Thresholds) Classification {
	rows := len(canopy)
	cols := 0
	if rows > 0 {
		cols = len(canopy[0])
	}
	total := heatmap.SumCrops(densities, rows, cols)

	byZone := make(map[string]scouting.CriticalZone, len(critical))
	for _, z := range critical {
		if _, seen := byZone[z.ZoneID]; !seen {
			byZone[z.ZoneID] = z
		}
	}

	res := Classification{Zones: make([]ZoneStatus, 0, rows*cols)}
	for y := 0; y < rows; y++ {
		for x := 0; x < cols && x < len(canopy[y]); x++ {
			id := scouting.ZoneID(x, y)
			cover := canopy[y][x]
			density := 0.0
			if y < total.Rows() && x < total.Cols() {
				density = total[y][x]
			}

			zs := ZoneStatus{
				ZoneID:    id,
				Position:  scouting.Position{X: x, Y: y},
				AvgCanopy: numeric.Round2(cover),
			}

			if cz, ok := byZone[id]; ok {
				zs.RiskLevel, zs.Status = RiskCritical, StatusCritical
				zs.PestDensity = numeric.Round2(cz.PestDensity)
				zs.PestCount = cz.PestCount
				zs.CropType = cz.CropType
				res.Summary.Critical++
				res.Zones = append(res.Zones, zs)
				continue
			}

			zs.PestDensity = numeric.Round2(density)
			zs.PestCount = estimatedCount(density)
			switch {
			case cover < th.CanopyCritical:
				zs.RiskLevel, zs.Status = RiskCritical, StatusCritical
				zs.CropType = dominantCrop(densities, x, y)
				res.Summary.Critical++
			case density >= th.PestWarning || cover < th.CanopyWarning:
				zs.RiskLevel, zs.Status = RiskWarning, StatusWarning
				res.Summary.Warning++
			default:
				zs.RiskLevel, zs.Status = RiskLow, StatusHealthy
				res.Summary.Healthy++
			}
			res.Zones = append(res.Zones, zs)
		}
	}
	return res
}

func estimatedCount(density float64) int {
	if density < 1 {
		return 0
	}
	return int(density)
}

// dominantCrop returns the crop with the largest positive density at (x, y),
// the first in sorted order on ties, or "" when no crop contributes.
func dominantCrop(densities map[string]heatmap.Grid, x, y int) string {
	crops := make([]string, 0, len(densities))
	for c := range densities {
		crops = append(crops, c)
	}
	sort.Strings(crops)

	best, bestVal := "", 0.0
	for _, c := range crops {
		g := densities[c]
		if y >= g.Rows() || x >= g.Cols() {
			continue
		}
		if v := g[y][x]; v > bestVal {
			best, bestVal = c, v
		}
	}
	return best
}

//Personal.AI order the ending
