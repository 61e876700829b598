// Package rules turns the day's critical zones, hotspots and low-coverage
// zones into a deduplicated set of alert drafts.
//
// Rules run in a fixed cascade and each zone is claimed by at most one alert:
//
//	combined_risk      critical  count ≥ pest critical and canopy < canopy critical
//	pest_outbreak      critical  count ≥ pest critical
//	canopy_stress      warning   canopy < canopy critical
//	pest_warning       warning   pest warning ≤ count < pest critical
//	irrigation_needed  warning   low-coverage zone below canopy critical
//	crop_outbreak      warning   one crop holds more than the outbreak share of all pests
//
// The first three rules read the critical-zone list, pest_warning the hotspot
// list and irrigation_needed the low-coverage list. crop_outbreak is field
// scoped and fires at most once regardless of zone claims.
package rules

import (
	"sort"

	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/canopy"
	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/heatmap"
	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/numeric"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/alert"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/field"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/scouting"
)

const (
	// DefaultOutbreakShare is the fraction of the day's pests one crop must
	// exceed to raise a crop_outbreak alert.
	DefaultOutbreakShare = 0.4

	// TargetCanopy is the coverage irrigation alerts aim for.
	TargetCanopy = 70.0
)

// Input is everything one evaluation reads. Zone lists are expected in their
// producers' order: critical zones and hotspots by density descending,
// low-coverage zones by coverage ascending.
type Input struct {
	CriticalZones    []scouting.CriticalZone
	Hotspots         []heatmap.Hotspot
	LowZones         []canopy.LowZone
	PestCountsByCrop map[string]int
	// CropOrder lists crops by first appearance in row-major order. Crops in
	// PestCountsByCrop but missing here are considered afterwards, sorted.
	CropOrder  []string
	Thresholds field.Thresholds
}

// Engine evaluates the alert cascade. The zero value uses DefaultOutbreakShare.
type Engine struct {
	outbreakShare float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithOutbreakShare overrides the crop_outbreak share. Values outside (0, 1)
// are ignored.
func WithOutbreakShare(share float64) Option {
	return func(e *Engine) {
		if share > 0 && share < 1 {
			e.outbreakShare = share
		}
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{outbreakShare: DefaultOutbreakShare}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate runs the cascade. The result is deterministic for identical input.
func (e *Engine) Evaluate(in Input) []alert.Draft {
	share := e.outbreakShare
	if share <= 0 {
		share = DefaultOutbreakShare
	}
	th := in.Thresholds
	claimed := make(map[string]bool)
	var out []alert.Draft

	emit := func(d alert.Draft) {
		claimed[d.ZoneID] = true
		out = append(out, d)
	}

	for _, z := range in.CriticalZones {
		if claimed[z.ZoneID] {
			continue
		}
		pestCritical := float64(z.PestCount) >= th.PestCritical
		canopyCritical := z.CanopyCover < th.CanopyCritical
		crop := cropLabel(z.CropType)

		switch {
		case pestCritical && canopyCritical:
			emit(alert.Draft{
				Type:     alert.TypeCombinedRisk,
				Severity: alert.SeverityCritical,
				ZoneID:   z.ZoneID,
				Metrics:  zoneMetrics(z, crop, true),
			})
		case pestCritical:
			emit(alert.Draft{
				Type:     alert.TypePestOutbreak,
				Severity: alert.SeverityCritical,
				ZoneID:   z.ZoneID,
				Metrics:  zoneMetrics(z, crop, true),
			})
		case canopyCritical:
			emit(alert.Draft{
				Type:     alert.TypeCanopyStress,
				Severity: alert.SeverityWarning,
				ZoneID:   z.ZoneID,
				Metrics:  zoneMetrics(z, crop, false),
			})
		}
	}

	for _, h := range in.Hotspots {
		count := float64(h.PestCount)
		if count < th.PestWarning || count >= th.PestCritical || claimed[h.ZoneID] {
			continue
		}
		emit(alert.Draft{
			Type:     alert.TypePestWarning,
			Severity: alert.SeverityWarning,
			ZoneID:   h.ZoneID,
			Metrics: map[string]interface{}{
				alert.MetricPestCount:   h.PestCount,
				alert.MetricPestDensity: h.Density,
				alert.MetricCropType:    cropLabel(h.CropType),
			},
		})
	}

	for _, lz := range in.LowZones {
		if lz.Coverage >= th.CanopyCritical || claimed[lz.ZoneID] {
			continue
		}
		emit(alert.Draft{
			Type:     alert.TypeIrrigationNeeded,
			Severity: alert.SeverityWarning,
			ZoneID:   lz.ZoneID,
			Metrics: map[string]interface{}{
				alert.MetricCanopyCover:  lz.Coverage,
				alert.MetricTargetCanopy: TargetCanopy,
			},
		})
	}

	if d, ok := cropOutbreak(in.PestCountsByCrop, in.CropOrder, share); ok {
		out = append(out, d)
	}
	return out
}

func zoneMetrics(z scouting.CriticalZone, crop string, withDensity bool) map[string]interface{} {
	m := map[string]interface{}{
		alert.MetricPestCount:   z.PestCount,
		alert.MetricCanopyCover: z.CanopyCover,
		alert.MetricCropType:    crop,
	}
	if withDensity {
		m[alert.MetricPestDensity] = z.PestDensity
	}
	return m
}

// cropOutbreak picks the first crop, in order, whose count exceeds share of
// the total.
func cropOutbreak(counts map[string]int, order []string, share float64) (alert.Draft, bool) {
	total := 0
	for _, n := range counts {
		total += n
	}
	if total <= 0 {
		return alert.Draft{}, false
	}

	for _, c := range outbreakOrder(counts, order) {
		n := counts[c]
		if float64(n) <= float64(total)*share {
			continue
		}
		return alert.Draft{
			Type:     alert.TypeCropOutbreak,
			Severity: alert.SeverityWarning,
			ZoneID:   scouting.FieldWideZone,
			Metrics: map[string]interface{}{
				alert.MetricCropType:   cropLabel(c),
				alert.MetricPestCount:  n,
				alert.MetricTotalPests: total,
				alert.MetricPercentage: numeric.Round(float64(n)/float64(total)*100, 1),
			},
		}, true
	}
	return alert.Draft{}, false
}

// outbreakOrder returns the crops of counts following order, then any crops
// order does not mention in sorted order.
func outbreakOrder(counts map[string]int, order []string) []string {
	crops := make([]string, 0, len(counts))
	seen := make(map[string]bool, len(counts))
	for _, c := range order {
		if _, ok := counts[c]; ok && !seen[c] {
			seen[c] = true
			crops = append(crops, c)
		}
	}
	rest := make([]string, 0, len(counts)-len(crops))
	for c := range counts {
		if !seen[c] {
			rest = append(rest, c)
		}
	}
	sort.Strings(rest)
	return append(crops, rest...)
}

func cropLabel(crop string) string {
	return scouting.DetectionCell{CropType: crop}.Crop()
}

//Personal.AI order the ending
