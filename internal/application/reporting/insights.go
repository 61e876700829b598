package reporting

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/canopy"
	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/heatmap"
	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/render"
	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/risk"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/scouting"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

// ZoneInsights is the fused per-cell classification of one day.
type ZoneInsights struct {
	FieldID string `json:"field_id"`
	Date    string `json:"date"`
	risk.Classification
}

// ZoneInsights classifies every cell of the stored record with the field's
// current thresholds.
func (s *Service) ZoneInsights(ctx context.Context, fieldID, date string) (*ZoneInsights, error) {
	return cached(ctx, s, "zones", fieldID, date, func(ctx context.Context) (*ZoneInsights, error) {
		rec, err := s.record(ctx, fieldID, date)
		if err != nil {
			return nil, err
		}
		th, err := s.thresholdsFor(ctx, fieldID)
		if err != nil {
			return nil, err
		}
		c := risk.Fuse(densities(rec), rec.CanopyCover, rec.Aggregates.CriticalZones, th)
		return &ZoneInsights{FieldID: fieldID, Date: rec.Date, Classification: c}, nil
	})
}

// ZoneDetail is the reading of a single cell on one day.
type ZoneDetail struct {
	FieldID string `json:"field_id"`
	Date    string `json:"date"`
	heatmap.ZoneMetric
}

// ZoneDetail reads zoneID from the stored record. The pest density is the
// detection count per square metre of the cell.
func (s *Service) ZoneDetail(ctx context.Context, fieldID, date, zoneID string) (*ZoneDetail, error) {
	pos, err := scouting.ParseZoneID(zoneID)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, "zone", fieldID, date+":"+pos.ID(), func(ctx context.Context) (*ZoneDetail, error) {
		rec, err := s.record(ctx, fieldID, date)
		if err != nil {
			return nil, err
		}
		th, err := s.thresholdsFor(ctx, fieldID)
		if err != nil {
			return nil, err
		}
		m, ok := heatmap.ZoneMetrics(detectionCounts(rec), heatmap.Grid(rec.CanopyCover), pos.X, pos.Y,
			rec.FieldDimensions.CellSize(s.cfg.DefaultCellSize), th)
		if !ok {
			return nil, errors.NewValidation("zone %s lies outside the %s grid", pos.ID(), rec.Date)
		}
		return &ZoneDetail{FieldID: fieldID, Date: rec.Date, ZoneMetric: m}, nil
	})
}

// CanopyComparison contrasts the coverage of two zones on one day.
type CanopyComparison struct {
	FieldID string `json:"field_id"`
	Date    string `json:"date"`
	canopy.Comparison
}

// CompareCanopy compares the coverage of zone2 against zone1.
func (s *Service) CompareCanopy(ctx context.Context, fieldID, date, zone1, zone2 string) (*CanopyComparison, error) {
	a, err := scouting.ParseZoneID(zone1)
	if err != nil {
		return nil, err
	}
	b, err := scouting.ParseZoneID(zone2)
	if err != nil {
		return nil, err
	}
	rec, err := s.record(ctx, fieldID, date)
	if err != nil {
		return nil, err
	}
	comparison, ok := canopy.CompareZones(rec.CanopyCover, a, b)
	if !ok {
		return nil, errors.NewValidation("zones %s and %s must both lie inside the %s grid", a.ID(), b.ID(), rec.Date)
	}
	return &CanopyComparison{FieldID: fieldID, Date: rec.Date, Comparison: comparison}, nil
}

// FieldHealth scores one day and relates pest density to canopy cover.
type FieldHealth struct {
	FieldID     string                    `json:"field_id"`
	Date        string                    `json:"date"`
	Health      canopy.Health             `json:"health"`
	Correlation heatmap.CorrelationResult `json:"correlation"`
}

// FieldHealth scores the stored record. The pest component uses detection
// counts per square metre; the correlation uses the summed crop densities.
func (s *Service) FieldHealth(ctx context.Context, fieldID, date string) (*FieldHealth, error) {
	return cached(ctx, s, "health", fieldID, date, func(ctx context.Context) (*FieldHealth, error) {
		rec, err := s.record(ctx, fieldID, date)
		if err != nil {
			return nil, err
		}
		th, err := s.thresholdsFor(ctx, fieldID)
		if err != nil {
			return nil, err
		}

		rows, cols := len(rec.CanopyCover), 0
		if rows > 0 {
			cols = len(rec.CanopyCover[0])
		}
		total := heatmap.SumCrops(densities(rec), rows, cols)

		return &FieldHealth{
			FieldID:     fieldID,
			Date:        rec.Date,
			Health:      canopy.HealthScore(rec.CanopyCover, countDensity(rec, s.cfg.DefaultCellSize)),
			Correlation: heatmap.Correlation(total, heatmap.Grid(rec.CanopyCover), th),
		}, nil
	})
}

// Ingestion states reported by IngestionStatus.
const (
	IngestionActive = "active"
	IngestionNoData = "no_data"
)

// IngestionStatus describes the latest ingestion of a field.
type IngestionStatus struct {
	FieldID         string     `json:"field_id"`
	Status          string     `json:"status"`
	Message         string     `json:"message,omitempty"`
	LatestDate      string     `json:"latest_date,omitempty"`
	LatestTimestamp *time.Time `json:"latest_timestamp,omitempty"`
	RecordID        string     `json:"record_id,omitempty"`
	PestCount       int        `json:"pest_count"`
	AvgCanopy       float64    `json:"avg_canopy"`
	CriticalZones   int        `json:"critical_zones"`
}

// IngestionStatus reports the latest record. A field without records is
// reported as no_data rather than an error.
func (s *Service) IngestionStatus(ctx context.Context, fieldID string) (*IngestionStatus, error) {
	rec, err := s.records.Latest(ctx, fieldID)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}
	if rec == nil {
		return &IngestionStatus{
			FieldID: fieldID,
			Status:  IngestionNoData,
			Message: "No data ingested yet for this field",
		}, nil
	}
	ts := rec.Timestamp
	return &IngestionStatus{
		FieldID:         fieldID,
		Status:          IngestionActive,
		LatestDate:      rec.Date,
		LatestTimestamp: &ts,
		RecordID:        rec.ID,
		PestCount:       rec.Aggregates.PestCount,
		AvgCanopy:       rec.Aggregates.AvgCanopy,
		CriticalZones:   rec.Aggregates.CriticalZoneCount,
	}, nil
}

// AllCrops selects the summed density of every crop in HeatmapPNG.
const AllCrops = "all"

// HeatmapPNG renders the density surface of crop, or of all crops summed
// when crop is empty or AllCrops, for the stored record of date.
func (s *Service) HeatmapPNG(ctx context.Context, fieldID, date, crop string) ([]byte, error) {
	crop = strings.ToLower(strings.TrimSpace(crop))
	if crop == "" {
		crop = AllCrops
	}
	return cached(ctx, s, "heatmap_png", fieldID, date+":"+crop, func(ctx context.Context) ([]byte, error) {
		rec, err := s.record(ctx, fieldID, date)
		if err != nil {
			return nil, err
		}

		var g heatmap.Grid
		if crop == AllCrops {
			rows, cols := len(rec.CanopyCover), 0
			if rows > 0 {
				cols = len(rec.CanopyCover[0])
			}
			g = heatmap.SumCrops(densities(rec), rows, cols)
		} else {
			d, ok := rec.Heatmaps.PestDensityByCrop[crop]
			if !ok {
				return nil, errors.New(errors.ErrCodeRecordNotFound, "no data").
					WithDetail("no " + crop + " detections on " + date)
			}
			g = d
		}
		return render.HeatmapPNG(g, fieldID+" "+rec.Date+" ("+crop+")", render.DefaultPNGOptions)
	})
}

// densities returns the stored crop surfaces as heatmap grids.
func densities(rec *scouting.DailyRecord) map[string]heatmap.Grid {
	out := make(map[string]heatmap.Grid, len(rec.Heatmaps.PestDensityByCrop))
	for crop, g := range rec.Heatmaps.PestDensityByCrop {
		out[crop] = g
	}
	return out
}

// detectionCounts returns the detection grid as raw counts, crops summed.
func detectionCounts(rec *scouting.DailyRecord) heatmap.Grid {
	out := make(heatmap.Grid, len(rec.PestGrid))
	for r, row := range rec.PestGrid {
		out[r] = make([]float64, len(row))
		for c, cell := range row {
			if cell.Count > 0 {
				out[r][c] = float64(cell.Count)
			}
		}
	}
	return out
}

// countDensity converts the detection grid to counts per square metre.
func countDensity(rec *scouting.DailyRecord, fallbackCell float64) [][]float64 {
	size := rec.FieldDimensions.CellSize(fallbackCell)
	area := size * size
	out := make([][]float64, len(rec.PestGrid))
	for r, row := range rec.PestGrid {
		out[r] = make([]float64, len(row))
		for c, cell := range row {
			if cell.Count > 0 {
				out[r][c] = float64(cell.Count) / area
			}
		}
	}
	return out
}

//Personal.AI order the ending
