package reporting

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/canopy"
	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/numeric"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/scouting"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
	"github.com/turtacn/FieldScout-Intelligence/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Pest views
// ─────────────────────────────────────────────────────────────────────────────

// PestDaily is one day's pest view, optionally narrowed to a crop.
type PestDaily struct {
	FieldID            string                   `json:"field_id"`
	Date               string                   `json:"date"`
	TotalCount         int                      `json:"total_count"`
	PestCountsByCrop   map[string]int           `json:"pest_counts_by_crop"`
	AvailableCropTypes []string                 `json:"available_crop_types"`
	SelectedCropType   string                   `json:"selected_crop_type,omitempty"`
	PestGrid           scouting.DetectionGrid   `json:"pest_grid"`
	HeatmapGrid        [][]float64              `json:"heatmap_grid"`
	HeatmapsByCrop     map[string][][]float64   `json:"heatmaps_by_crop"`
	GridDimensions     scouting.FieldDimensions `json:"grid_dimensions"`
	Hotspots           []scouting.CriticalZone  `json:"hotspots"`
	CriticalZonesCount int                      `json:"critical_zones_count"`
}

// PestDaily returns the stored pest data for date. The heat map shown is the
// requested crop's, or the first crop in sorted order when crop is empty or
// unknown; hotspots are filtered by crop only when one was requested.
func (s *Service) PestDaily(ctx context.Context, fieldID, date, crop string) (*PestDaily, error) {
	crop = strings.ToLower(strings.TrimSpace(crop))
	return cached(ctx, s, "pest_daily", fieldID, date+":"+crop, func(ctx context.Context) (*PestDaily, error) {
		rec, err := s.record(ctx, fieldID, date)
		if err != nil {
			return nil, err
		}

		crops := sortedKeys(rec.Aggregates.PestCountsByCrop)
		out := &PestDaily{
			FieldID:            fieldID,
			Date:               rec.Date,
			TotalCount:         rec.Aggregates.PestCount,
			PestCountsByCrop:   rec.Aggregates.PestCountsByCrop,
			AvailableCropTypes: crops,
			PestGrid:           rec.PestGrid,
			HeatmapGrid:        [][]float64{},
			HeatmapsByCrop:     rec.Heatmaps.PestDensityByCrop,
			GridDimensions:     rec.FieldDimensions,
			Hotspots:           []scouting.CriticalZone{},
		}
		if g, ok := rec.Heatmaps.PestDensityByCrop[crop]; ok && crop != "" {
			out.SelectedCropType, out.HeatmapGrid = crop, g
		} else if len(crops) > 0 {
			out.SelectedCropType = crops[0]
			if g, ok := rec.Heatmaps.PestDensityByCrop[crops[0]]; ok {
				out.HeatmapGrid = g
			}
		}

		for _, z := range rec.Aggregates.CriticalZones {
			if crop == "" || strings.EqualFold(z.CropType, crop) {
				out.Hotspots = append(out.Hotspots, z)
			}
		}
		out.CriticalZonesCount = len(out.Hotspots)
		return out, nil
	})
}

// DailyCount is one point of a pest series.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// PestTrend is the pest series over a window.
type PestTrend struct {
	FieldID     string       `json:"field_id"`
	StartDate   string       `json:"start_date"`
	EndDate     string       `json:"end_date"`
	CropType    string       `json:"crop_type,omitempty"`
	DailyCounts []DailyCount `json:"daily_counts"`
	Trend       string       `json:"trend"`
	ChangePct   float64      `json:"change_pct"`
}

// PestTrend returns the daily pest counts over the last days days, for one
// crop when crop is set. An empty window is not an error.
func (s *Service) PestTrend(ctx context.Context, fieldID string, days int, crop string, now time.Time) (*PestTrend, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}
	crop = strings.ToLower(strings.TrimSpace(crop))
	start, end := window(now, days)

	return cached(ctx, s, "pest_trend", fieldID, end+":"+strconv.Itoa(days)+":"+crop, func(ctx context.Context) (*PestTrend, error) {
		recs, err := s.records.ListRange(ctx, fieldID, start, end)
		if err != nil {
			return nil, err
		}
		out := &PestTrend{
			FieldID:     fieldID,
			StartDate:   start,
			EndDate:     end,
			CropType:    crop,
			DailyCounts: make([]DailyCount, 0, len(recs)),
			Trend:       TrendStable,
		}
		for _, r := range recs {
			n := r.Aggregates.PestCount
			if crop != "" {
				n = r.Aggregates.PestCountsByCrop[crop]
			}
			out.DailyCounts = append(out.DailyCounts, DailyCount{Date: r.Date, Count: n})
		}
		if len(out.DailyCounts) > 1 {
			first, last := out.DailyCounts[0].Count, out.DailyCounts[len(out.DailyCounts)-1].Count
			out.ChangePct = numeric.Round2(numeric.Percent(float64(last-first), float64(first)))
			switch {
			case last > first:
				out.Trend = TrendIncreasing
			case last < first:
				out.Trend = TrendDecreasing
			}
		}
		return out, nil
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Canopy views
// ─────────────────────────────────────────────────────────────────────────────

// CanopyDaily is one day's canopy view.
type CanopyDaily struct {
	FieldID          string           `json:"field_id"`
	Date             string           `json:"date"`
	GridData         [][]float64      `json:"grid_data"`
	Statistics       canopy.Stats     `json:"statistics"`
	Distribution     []canopy.Bucket  `json:"distribution"`
	LowCoverageZones []canopy.LowZone `json:"low_coverage_zones"`
}

// CanopyDaily recomputes statistics, distribution and low-coverage zones from
// the stored canopy grid using the field's current thresholds.
func (s *Service) CanopyDaily(ctx context.Context, fieldID, date string) (*CanopyDaily, error) {
	return cached(ctx, s, "canopy_daily", fieldID, date, func(ctx context.Context) (*CanopyDaily, error) {
		rec, err := s.record(ctx, fieldID, date)
		if err != nil {
			return nil, err
		}
		th, err := s.thresholdsFor(ctx, fieldID)
		if err != nil {
			return nil, err
		}
		stats, err := canopy.Statistics(rec.CanopyCover)
		if err != nil {
			return nil, err
		}
		low := canopy.LowCoverageZones(rec.CanopyCover, th.CanopyWarning, th.CanopyCritical)
		if low == nil {
			low = []canopy.LowZone{}
		}
		return &CanopyDaily{
			FieldID:          fieldID,
			Date:             rec.Date,
			GridData:         rec.CanopyCover,
			Statistics:       stats,
			Distribution:     canopy.Distribution(rec.CanopyCover),
			LowCoverageZones: low,
		}, nil
	})
}

// DailyAverage is one point of a canopy series.
type DailyAverage struct {
	Date      string  `json:"date"`
	AvgCanopy float64 `json:"avg_canopy"`
}

// CanopyTrend is the canopy series over a window.
type CanopyTrend struct {
	FieldID       string             `json:"field_id"`
	StartDate     string             `json:"start_date"`
	EndDate       string             `json:"end_date"`
	DailyAverages []DailyAverage     `json:"daily_averages"`
	Trend         canopy.TrendResult `json:"trend"`
}

// CanopyTrend returns the daily average canopy over the last days days,
// classified with a ±5% stability band.
func (s *Service) CanopyTrend(ctx context.Context, fieldID string, days int, now time.Time) (*CanopyTrend, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}
	start, end := window(now, days)

	return cached(ctx, s, "canopy_trend", fieldID, end+":"+strconv.Itoa(days), func(ctx context.Context) (*CanopyTrend, error) {
		recs, err := s.records.ListRange(ctx, fieldID, start, end)
		if err != nil {
			return nil, err
		}
		out := &CanopyTrend{
			FieldID:       fieldID,
			StartDate:     start,
			EndDate:       end,
			DailyAverages: make([]DailyAverage, 0, len(recs)),
		}
		series := make([]float64, 0, len(recs))
		for _, r := range recs {
			out.DailyAverages = append(out.DailyAverages, DailyAverage{Date: r.Date, AvgCanopy: r.Aggregates.AvgCanopy})
			series = append(series, r.Aggregates.AvgCanopy)
		}
		out.Trend = canopy.Trend(series)
		return out, nil
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func validateDays(days int) error {
	if days < 1 || days > MaxTrendDays {
		return errors.NewValidation("days must be between 1 and %d, got %d", MaxTrendDays, days)
	}
	return nil
}

// window returns the inclusive date range of the days days ending at now.
func window(now time.Time, days int) (start, end string) {
	return common.DateKey(now.AddDate(0, 0, -days)), common.DateKey(now)
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

//Personal.AI order the ending
