package ingestion

import (
	"strings"
	"time"

	"github.com/turtacn/FieldScout-Intelligence/internal/domain/scouting"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

// StatusSuccess is the status reported for a committed ingestion.
const StatusSuccess = "success"

// IngestRequest is one flight's pre-computed sensor output.
type IngestRequest struct {
	FieldID         string                   `json:"field_id"`
	Timestamp       time.Time                `json:"timestamp"`
	PestGrid        scouting.DetectionGrid   `json:"pest_grid"`
	CanopyCover     scouting.CanopyGrid      `json:"canopy_cover"`
	FieldDimensions scouting.FieldDimensions `json:"field_dimensions"`
	Metadata        map[string]interface{}   `json:"metadata,omitempty"`

	// Source labels the entry point for metrics ("http", "kafka", "cli").
	Source string `json:"-"`
}

// Summary is the scalar digest returned to the caller.
type Summary struct {
	PestCount       int     `json:"pest_count"`
	AvgCanopy       float64 `json:"avg_canopy"`
	AlertsGenerated int     `json:"alerts_generated"`
	CriticalZones   int     `json:"critical_zones"`
}

// IngestResult reports a committed ingestion.
type IngestResult struct {
	Status   string  `json:"status"`
	RecordID string  `json:"record_id"`
	Date     string  `json:"date"`
	Summary  Summary `json:"summary"`
}

// Validate checks identity, grid shapes and declared dimensions. It returns
// the common grid shape.
func (r *IngestRequest) Validate() (rows, cols int, err error) {
	if r == nil {
		return 0, 0, errors.NewValidation("ingest request is required")
	}
	if strings.TrimSpace(r.FieldID) == "" {
		return 0, 0, errors.NewValidation("field_id is required")
	}

	rows, cols, err = r.PestGrid.Shape()
	if err != nil {
		return 0, 0, err
	}
	cRows, cCols, err := r.CanopyCover.Shape()
	if err != nil {
		return 0, 0, err
	}
	if rows != cRows || cols != cCols {
		return 0, 0, errors.Newf(errors.ErrCodeGridShapeMismatch,
			"pest_grid is %dx%d but canopy_cover is %dx%d", rows, cols, cRows, cCols)
	}

	if r.FieldDimensions.IsZero() {
		return 0, 0, errors.NewValidation("field_dimensions is required")
	}
	if dRows, dCols, ok := r.FieldDimensions.GridShape(); ok && (dRows != rows || dCols != cols) {
		return 0, 0, errors.Newf(errors.ErrCodeGridShapeMismatch,
			"field_dimensions imply a %dx%d grid but the grids are %dx%d", dRows, dCols, rows, cols)
	}
	return rows, cols, nil
}

//Personal.AI order the ending
