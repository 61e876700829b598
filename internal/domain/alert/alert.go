// Package alert defines field alerts: the structured drafts emitted by the
// rule engine and the persisted alert entity with its acknowledgement
// lifecycle.
package alert

import (
	"context"
	"time"

	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Enumerations
// ─────────────────────────────────────────────────────────────────────────────

// Type identifies the rule that produced an alert.
type Type string

const (
	TypeCombinedRisk     Type = "combined_risk"
	TypePestOutbreak     Type = "pest_outbreak"
	TypeCanopyStress     Type = "canopy_stress"
	TypePestWarning      Type = "pest_warning"
	TypeIrrigationNeeded Type = "irrigation_needed"
	TypeCropOutbreak     Type = "crop_outbreak"
)

// Types lists every alert type in rule precedence order.
var Types = []Type{
	TypeCombinedRisk, TypePestOutbreak, TypeCanopyStress,
	TypePestWarning, TypeIrrigationNeeded, TypeCropOutbreak,
}

// Severity grades alert urgency.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Status is the acknowledgement state of an alert.
type Status string

const (
	StatusActive       Status = "active"
	StatusAcknowledged Status = "acknowledged"
	StatusResolved     Status = "resolved"
)

// Metric keys shared by the rule engine, renderer and read side.
const (
	MetricPestCount    = "pest_count"
	MetricPestDensity  = "pest_density"
	MetricCanopyCover  = "canopy_cover"
	MetricCropType     = "crop_type"
	MetricTargetCanopy = "target_canopy"
	MetricTotalPests   = "total_pests"
	MetricPercentage   = "percentage"
)

// ─────────────────────────────────────────────────────────────────────────────
// Draft
// ─────────────────────────────────────────────────────────────────────────────

// Draft is the structured output of the rule engine: the triggering rule,
// its severity, the zone it claims and the metrics that fired it. Message
// and recommendation text is rendered separately.
type Draft struct {
	Type     Type                   `json:"alert_type"`
	Severity Severity               `json:"severity"`
	ZoneID   string                 `json:"zone_id"`
	Metrics  map[string]interface{} `json:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Alert entity
// ─────────────────────────────────────────────────────────────────────────────

// Alert is a persisted, rendered alert for one field and date.
type Alert struct {
	ID             string                 `json:"id"`
	FieldID        string                 `json:"field_id"`
	Date           string                 `json:"date"`
	Timestamp      time.Time              `json:"timestamp"`
	Type           Type                   `json:"alert_type"`
	Severity       Severity               `json:"severity"`
	ZoneID         string                 `json:"zone_id"`
	Metrics        map[string]interface{} `json:"metrics"`
	Message        string                 `json:"message"`
	Recommendation string                 `json:"recommendation"`
	Status         Status                 `json:"status"`
	Acknowledged   bool                   `json:"acknowledged"`
	AcknowledgedAt *time.Time             `json:"acknowledged_at,omitempty"`
}

// New builds an active alert from a rendered draft.
func New(fieldID, date string, ts time.Time, d Draft, message, recommendation string) *Alert {
	return &Alert{
		FieldID:        fieldID,
		Date:           date,
		Timestamp:      ts.UTC(),
		Type:           d.Type,
		Severity:       d.Severity,
		ZoneID:         d.ZoneID,
		Metrics:        d.Metrics,
		Message:        message,
		Recommendation: recommendation,
		Status:         StatusActive,
	}
}

// Acknowledge marks the alert acknowledged at now. Resolved alerts cannot be
// acknowledged.
func (a *Alert) Acknowledge(now time.Time) error {
	if a.Status == StatusResolved {
		return errors.Conflict("alert already resolved").WithDetail("id=" + a.ID)
	}
	at := now.UTC()
	a.Status = StatusAcknowledged
	a.Acknowledged = true
	a.AcknowledgedAt = &at
	return nil
}

// Resolve closes the alert. An unacknowledged alert is acknowledged as well.
func (a *Alert) Resolve(now time.Time) {
	if !a.Acknowledged {
		at := now.UTC()
		a.Acknowledged = true
		a.AcknowledgedAt = &at
	}
	a.Status = StatusResolved
}

// ─────────────────────────────────────────────────────────────────────────────
// Repository
// ─────────────────────────────────────────────────────────────────────────────

// QueryOptions filters alert listings.
type QueryOptions struct {
	Statuses []Status
	Date     string
	Limit    int
}

// QueryOption is a functional option for alert queries.
type QueryOption func(*QueryOptions)

// WithStatuses restricts the listing to the given statuses.
func WithStatuses(s ...Status) QueryOption {
	return func(o *QueryOptions) { o.Statuses = s }
}

// WithDate restricts the listing to one date key.
func WithDate(date string) QueryOption {
	return func(o *QueryOptions) { o.Date = date }
}

// WithLimit caps the number of alerts returned.
func WithLimit(n int) QueryOption {
	return func(o *QueryOptions) { o.Limit = n }
}

// ApplyOptions resolves opts with a default limit of 100 and a cap of 1000.
func ApplyOptions(opts ...QueryOption) QueryOptions {
	o := QueryOptions{Limit: 100}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	return o
}

// Stats counts a field's alerts along each dimension.
type Stats struct {
	Total      int            `json:"total"`
	ByType     map[string]int `json:"by_type"`
	BySeverity map[string]int `json:"by_severity"`
	ByStatus   map[string]int `json:"by_status"`
}

// Repository is the persistence contract for alerts outside ingestion.
// Lookups that find nothing return ErrCodeAlertNotFound.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Alert, error)

	// ListByField returns alerts newest first.
	ListByField(ctx context.Context, fieldID string, opts ...QueryOption) ([]*Alert, error)

	// UpdateStatus persists Status, Acknowledged and AcknowledgedAt.
	UpdateStatus(ctx context.Context, a *Alert) error

	Stats(ctx context.Context, fieldID string) (*Stats, error)
}

//Personal.AI order the ending
