// Package field defines the field configuration aggregate: descriptive
// metadata, grid geometry and the alert thresholds that drive the ingestion
// pipeline.
package field

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Thresholds value object
// ─────────────────────────────────────────────────────────────────────────────

// Thresholds holds the pest-count and canopy-percentage cut-offs used to
// classify zones and trigger alerts. Pest values are per-cell counts; canopy
// values are percentages.
type Thresholds struct {
	// PestWarning is the count at or above which a cell is a hotspot.
	PestWarning float64 `json:"pest_density_warning"`

	// PestCritical is the count at or above which a hotspot is an outbreak.
	PestCritical float64 `json:"pest_density_critical"`

	// CanopyWarning is the coverage below which a cell is low-coverage.
	CanopyWarning float64 `json:"canopy_warning"`

	// CanopyCritical is the coverage below which a cell is critical.
	CanopyCritical float64 `json:"canopy_critical"`
}

// Validate checks positivity and warning/critical ordering.
func (t Thresholds) Validate() error {
	if t.PestWarning <= 0 || t.PestCritical <= 0 || t.CanopyWarning <= 0 || t.CanopyCritical <= 0 {
		return errors.New(errors.ErrCodeThresholdsInvalid, "all thresholds must be positive")
	}
	if t.PestCritical <= t.PestWarning {
		return errors.Newf(errors.ErrCodeThresholdsInvalid,
			"pest_density_critical (%.2f) must exceed pest_density_warning (%.2f)", t.PestCritical, t.PestWarning)
	}
	if t.CanopyWarning <= t.CanopyCritical {
		return errors.Newf(errors.ErrCodeThresholdsInvalid,
			"canopy_warning (%.2f) must exceed canopy_critical (%.2f)", t.CanopyWarning, t.CanopyCritical)
	}
	return nil
}

// Over returns t with every zero field replaced by the matching field of base.
// Field-specific overrides are merged over system defaults this way.
func (t Thresholds) Over(base Thresholds) Thresholds {
	out := base
	if t.PestWarning != 0 {
		out.PestWarning = t.PestWarning
	}
	if t.PestCritical != 0 {
		out.PestCritical = t.PestCritical
	}
	if t.CanopyWarning != 0 {
		out.CanopyWarning = t.CanopyWarning
	}
	if t.CanopyCritical != 0 {
		out.CanopyCritical = t.CanopyCritical
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Config aggregate
// ─────────────────────────────────────────────────────────────────────────────

// Location is the geographic anchor of a field.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// Dimensions is the physical extent of a field in metres.
type Dimensions struct {
	WidthM       float64 `json:"width_m"`
	HeightM      float64 `json:"height_m"`
	AreaHectares float64 `json:"area_hectares,omitempty"`
}

// GridConfig describes how a field is partitioned into cells.
type GridConfig struct {
	CellSizeM  float64 `json:"cell_size_m"`
	GridWidth  int     `json:"grid_width"`
	GridHeight int     `json:"grid_height"`
}

// Config is the persisted configuration of one field.
type Config struct {
	FieldID         string     `json:"field_id"`
	Name            string     `json:"name"`
	Location        Location   `json:"location"`
	Dimensions      Dimensions `json:"dimensions"`
	Grid            GridConfig `json:"grid_config"`
	Thresholds      Thresholds `json:"thresholds"`
	CropTypes       []string   `json:"crop_types,omitempty"`
	PlantingDate    string     `json:"planting_date,omitempty"`
	ExpectedHarvest string     `json:"expected_harvest,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Validate checks identity and thresholds. Crop names are normalised to
// lower case in place.
func (c *Config) Validate() error {
	if c == nil {
		return errors.NewValidation("field config is required")
	}
	if strings.TrimSpace(c.FieldID) == "" {
		return errors.NewValidation("field_id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.NewValidation("name is required")
	}
	if c.Grid.CellSizeM < 0 {
		return errors.NewValidation("grid_config.cell_size_m must not be negative")
	}
	for i, crop := range c.CropTypes {
		c.CropTypes[i] = strings.ToLower(strings.TrimSpace(crop))
	}
	return c.Thresholds.Validate()
}

// Repository is the persistence contract for field configuration.
type Repository interface {
	// Get returns ErrCodeFieldNotFound when no configuration exists.
	Get(ctx context.Context, fieldID string) (*Config, error)

	// GetThresholds returns nil, nil when the field has no configuration.
	GetThresholds(ctx context.Context, fieldID string) (*Thresholds, error)

	// Save inserts or replaces the configuration.
	Save(ctx context.Context, cfg *Config) error
}

//Personal.AI order the ending
