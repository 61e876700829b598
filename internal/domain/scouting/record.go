package scouting

import (
	"context"
	"time"
)

// RiskCritical is the risk level carried by every critical zone.
const RiskCritical = "critical"

// CriticalZone is a cell flagged critical by exact pest-count or canopy logic
// during ingestion.
type CriticalZone struct {
	ZoneID      string  `json:"zone_id"`
	PestDensity float64 `json:"pest_density"`
	PestCount   int     `json:"pest_count"`
	CropType    string  `json:"crop_type"`
	CanopyCover float64 `json:"canopy_cover"`
	RiskLevel   string  `json:"risk_level"`
}

// Aggregates are the scalar results of one ingestion.
type Aggregates struct {
	PestCount        int            `json:"pest_count"`
	PestCountsByCrop map[string]int `json:"pest_counts_by_crop"`
	AvgCanopy        float64        `json:"avg_canopy"`
	MinCanopy        float64        `json:"min_canopy"`
	MaxCanopy        float64        `json:"max_canopy"`
	StdDevCanopy     float64        `json:"std_dev_canopy"`
	MedianCanopy     float64        `json:"median_canopy"`

	// CriticalZones is capped to the top N by pest density.
	CriticalZones []CriticalZone `json:"critical_zones"`

	// CriticalZoneCount counts every critical zone, including those beyond the cap.
	CriticalZoneCount int `json:"critical_zone_count"`
}

// Heatmaps holds the smoothed per-crop density surfaces and the canopy grid.
type Heatmaps struct {
	PestDensityByCrop map[string][][]float64 `json:"pest_density_by_crop"`
	CanopyGrid        [][]float64            `json:"canopy_grid"`
}

// DailyRecord is the durable output of one ingestion. There is at most one per
// (FieldID, Date); re-ingestion replaces it.
type DailyRecord struct {
	ID              string                 `json:"id"`
	FieldID         string                 `json:"field_id"`
	Date            string                 `json:"date"`
	Timestamp       time.Time              `json:"timestamp"`
	PestGrid        DetectionGrid          `json:"pest_grid"`
	CanopyCover     CanopyGrid             `json:"canopy_cover"`
	FieldDimensions FieldDimensions        `json:"field_dimensions"`
	Aggregates      Aggregates             `json:"aggregates"`
	Heatmaps        Heatmaps               `json:"heatmaps"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

// RecordRepository is the read contract for daily records. Lookups that find
// nothing return ErrCodeRecordNotFound.
type RecordRepository interface {
	GetByDate(ctx context.Context, fieldID, date string) (*DailyRecord, error)
	Latest(ctx context.Context, fieldID string) (*DailyRecord, error)

	// ListRange returns records with from ≤ date ≤ to ordered by date ascending.
	// An empty result is not an error.
	ListRange(ctx context.Context, fieldID, from, to string) ([]*DailyRecord, error)
}

//Personal.AI order the ending
