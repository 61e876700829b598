package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/FieldScout-Intelligence/internal/application/reporting"
)

// Reports is the read side consumed by the dashboard endpoints.
type Reports interface {
	TodayKPIs(ctx context.Context, fieldID string, now time.Time) (*reporting.TodayKPIs, error)
	WeeklyKPIs(ctx context.Context, fieldID string, now time.Time) (*reporting.WeeklyKPIs, error)
	PestDaily(ctx context.Context, fieldID, date, crop string) (*reporting.PestDaily, error)
	PestTrend(ctx context.Context, fieldID string, days int, crop string, now time.Time) (*reporting.PestTrend, error)
	CanopyDaily(ctx context.Context, fieldID, date string) (*reporting.CanopyDaily, error)
	CanopyTrend(ctx context.Context, fieldID string, days int, now time.Time) (*reporting.CanopyTrend, error)
	CompareCanopy(ctx context.Context, fieldID, date, zone1, zone2 string) (*reporting.CanopyComparison, error)
	Monthly(ctx context.Context, fieldID, month string) (*reporting.MonthlyReport, error)
	ZoneInsights(ctx context.Context, fieldID, date string) (*reporting.ZoneInsights, error)
	ZoneDetail(ctx context.Context, fieldID, date, zoneID string) (*reporting.ZoneDetail, error)
	FieldHealth(ctx context.Context, fieldID, date string) (*reporting.FieldHealth, error)
	IngestionStatus(ctx context.Context, fieldID string) (*reporting.IngestionStatus, error)
	HeatmapPNG(ctx context.Context, fieldID, date, crop string) ([]byte, error)
}

// DefaultTrendDays is the trend window when days is omitted.
const DefaultTrendDays = 7

// ReportHandler serves the dashboard, pest, canopy, analytics and insight
// views. Every endpoint takes the field as the field_id query parameter.
type ReportHandler struct {
	reports Reports
	now     Clock
}

// NewReportHandler creates a ReportHandler. A nil clock means time.Now in UTC.
func NewReportHandler(reports Reports, now Clock) *ReportHandler {
	if now == nil {
		now = utcNow
	}
	return &ReportHandler{reports: reports, now: now}
}

// serve resolves field_id and writes the view produced by load.
func serve[T any](c *gin.Context, load func(ctx context.Context, fieldID string) (T, error)) {
	fieldID, err := requiredQuery(c, "field_id")
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := load(c.Request.Context(), fieldID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// TodayKPIs handles GET /dashboard/kpis/today.
func (h *ReportHandler) TodayKPIs(c *gin.Context) {
	serve(c, func(ctx context.Context, fieldID string) (*reporting.TodayKPIs, error) {
		return h.reports.TodayKPIs(ctx, fieldID, h.now())
	})
}

// WeeklyKPIs handles GET /dashboard/kpis/weekly.
func (h *ReportHandler) WeeklyKPIs(c *gin.Context) {
	serve(c, func(ctx context.Context, fieldID string) (*reporting.WeeklyKPIs, error) {
		return h.reports.WeeklyKPIs(ctx, fieldID, h.now())
	})
}

// PestDaily handles GET /pests/daily?date=&crop_type=.
func (h *ReportHandler) PestDaily(c *gin.Context) {
	serve(c, func(ctx context.Context, fieldID string) (*reporting.PestDaily, error) {
		date, err := dateQuery(c, h.now())
		if err != nil {
			return nil, err
		}
		return h.reports.PestDaily(ctx, fieldID, date, c.Query("crop_type"))
	})
}

// PestTrend handles GET /pests/trend?days=&crop_type=.
func (h *ReportHandler) PestTrend(c *gin.Context) {
	serve(c, func(ctx context.Context, fieldID string) (*reporting.PestTrend, error) {
		days, err := daysQuery(c, DefaultTrendDays)
		if err != nil {
			return nil, err
		}
		return h.reports.PestTrend(ctx, fieldID, days, c.Query("crop_type"), h.now())
	})
}

// CanopyDaily handles GET /canopy/daily?date=.
func (h *ReportHandler) CanopyDaily(c *gin.Context) {
	serve(c, func(ctx context.Context, fieldID string) (*reporting.CanopyDaily, error) {
		date, err := dateQuery(c, h.now())
		if err != nil {
			return nil, err
		}
		return h.reports.CanopyDaily(ctx, fieldID, date)
	})
}

// CanopyTrend handles GET /canopy/trend?days=.
func (h *ReportHandler) CanopyTrend(c *gin.Context) {
	serve(c, func(ctx context.Context, fieldID string) (*reporting.CanopyTrend, error) {
		days, err := daysQuery(c, DefaultTrendDays)
		if err != nil {
			return nil, err
		}
		return h.reports.CanopyTrend(ctx, fieldID, days, h.now())
	})
}

// CanopyCompare handles GET /canopy/compare?date=&zone1=&zone2=.
func (h *ReportHandler) CanopyCompare(c *gin.Context) {
	serve(c, func(ctx context.Context, fieldID string) (*reporting.CanopyComparison, error) {
		date, err := dateQuery(c, h.now())
		if err != nil {
			return nil, err
		}
		zone1, err := requiredQuery(c, "zone1")
		if err != nil {
			return nil, err
		}
		zone2, err := requiredQuery(c, "zone2")
		if err != nil {
			return nil, err
		}
		return h.reports.CompareCanopy(ctx, fieldID, date, zone1, zone2)
	})
}

// Monthly handles GET /analytics/monthly?month=YYYY-MM, defaulting to the
// current month.
func (h *ReportHandler) Monthly(c *gin.Context) {
	serve(c, func(ctx context.Context, fieldID string) (*reporting.MonthlyReport, error) {
		month := strings.TrimSpace(c.Query("month"))
		if month == "" {
			month = h.now().Format(reporting.MonthLayout)
		}
		return h.reports.Monthly(ctx, fieldID, month)
	})
}

// Zones handles GET /insights/zones?date=.
func (h *ReportHandler) Zones(c *gin.Context) {
	serve(c, func(ctx context.Context, fieldID string) (*reporting.ZoneInsights, error) {
		date, err := dateQuery(c, h.now())
		if err != nil {
			return nil, err
		}
		return h.reports.ZoneInsights(ctx, fieldID, date)
	})
}

// Zone handles GET /insights/zones/:zone_id?date=.
func (h *ReportHandler) Zone(c *gin.Context) {
	serve(c, func(ctx context.Context, fieldID string) (*reporting.ZoneDetail, error) {
		date, err := dateQuery(c, h.now())
		if err != nil {
			return nil, err
		}
		return h.reports.ZoneDetail(ctx, fieldID, date, c.Param("zone_id"))
	})
}

// Health handles GET /insights/health?date=.
func (h *ReportHandler) Health(c *gin.Context) {
	serve(c, func(ctx context.Context, fieldID string) (*reporting.FieldHealth, error) {
		date, err := dateQuery(c, h.now())
		if err != nil {
			return nil, err
		}
		return h.reports.FieldHealth(ctx, fieldID, date)
	})
}

// HeatmapPNG handles GET /insights/heatmap.png?date=&crop_type=.
func (h *ReportHandler) HeatmapPNG(c *gin.Context) {
	fieldID, err := requiredQuery(c, "field_id")
	if err != nil {
		respondError(c, err)
		return
	}
	date, err := dateQuery(c, h.now())
	if err != nil {
		respondError(c, err)
		return
	}
	png, err := h.reports.HeatmapPNG(c.Request.Context(), fieldID, date, c.Query("crop_type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "max-age=300")
	c.Data(http.StatusOK, "image/png", png)
}

//Personal.AI order the ending
