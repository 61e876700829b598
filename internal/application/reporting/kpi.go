package reporting

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/canopy"
	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/numeric"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/alert"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/scouting"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
	"github.com/turtacn/FieldScout-Intelligence/pkg/types/common"
)

// Field status reported with today's KPIs.
const (
	FieldStatusHealthy  = "healthy"
	FieldStatusCritical = "critical"
)

// Series directions used by the KPI and trend views.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// DayChange compares one day with the previous one. Percentages are 0 when
// there is no previous day or its value is 0.
type DayChange struct {
	PestChange      int     `json:"pest_change"`
	PestChangePct   float64 `json:"pest_change_pct"`
	CanopyChange    float64 `json:"canopy_change"`
	CanopyChangePct float64 `json:"canopy_change_pct"`
}

// TodayKPIs is the dashboard headline for the current UTC day.
type TodayKPIs struct {
	FieldID           string    `json:"field_id"`
	Date              string    `json:"date"`
	PestCount         int       `json:"pest_count"`
	AvgCanopyCover    float64   `json:"avg_canopy_cover"`
	ChangeVsYesterday DayChange `json:"change_vs_yesterday"`
	Status            string    `json:"status"`
	ActiveAlerts      int       `json:"active_alerts"`
}

// TodayKPIs compares today's record with yesterday's and counts active
// alerts. The field is critical while any alert is active.
func (s *Service) TodayKPIs(ctx context.Context, fieldID string, now time.Time) (*TodayKPIs, error) {
	today := common.DateKey(now)
	return cached(ctx, s, "today", fieldID, today, func(ctx context.Context) (*TodayKPIs, error) {
		yesterday := common.DateKey(now.AddDate(0, 0, -1))

		var (
			cur, prev *scouting.DailyRecord
			stats     *alert.Stats
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			cur, err = s.record(gctx, fieldID, today)
			return err
		})
		g.Go(func() error {
			var err error
			prev, err = s.records.GetByDate(gctx, fieldID, yesterday)
			if errors.IsNotFound(err) {
				prev, err = nil, nil
			}
			return err
		})
		g.Go(func() error {
			var err error
			stats, err = s.alerts.Stats(gctx, fieldID)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		out := &TodayKPIs{
			FieldID:        fieldID,
			Date:           today,
			PestCount:      cur.Aggregates.PestCount,
			AvgCanopyCover: cur.Aggregates.AvgCanopy,
			Status:         FieldStatusHealthy,
		}
		if prev != nil {
			pest := cur.Aggregates.PestCount - prev.Aggregates.PestCount
			cover := cur.Aggregates.AvgCanopy - prev.Aggregates.AvgCanopy
			out.ChangeVsYesterday = DayChange{
				PestChange:      pest,
				PestChangePct:   numeric.Round2(numeric.Percent(float64(pest), float64(prev.Aggregates.PestCount))),
				CanopyChange:    numeric.Round2(cover),
				CanopyChangePct: numeric.Round2(numeric.Percent(cover, prev.Aggregates.AvgCanopy)),
			}
		}
		if stats != nil {
			out.ActiveAlerts = stats.ByStatus[string(alert.StatusActive)]
		}
		if out.ActiveAlerts > 0 {
			out.Status = FieldStatusCritical
		}
		return out, nil
	})
}

// WeeklySummary digests a week of records.
type WeeklySummary struct {
	TotalPests  int     `json:"total_pests"`
	AvgCanopy   float64 `json:"avg_canopy"`
	PestTrend   string  `json:"pest_trend"`
	CanopyTrend string  `json:"canopy_trend"`
}

// WeeklyKPIs is the daily series of the last seven days.
type WeeklyKPIs struct {
	FieldID         string        `json:"field_id"`
	WeekStart       string        `json:"week_start"`
	WeekEnd         string        `json:"week_end"`
	Dates           []string      `json:"dates"`
	DailyPestCounts []int         `json:"daily_pest_counts"`
	DailyCanopyAvg  []float64     `json:"daily_canopy_avg"`
	Summary         WeeklySummary `json:"weekly_summary"`
}

// WeeklyKPIs summarises the seven days ending at now. The pest trend is
// increasing when the last day exceeds the first and the canopy trend
// improving under the same rule.
func (s *Service) WeeklyKPIs(ctx context.Context, fieldID string, now time.Time) (*WeeklyKPIs, error) {
	start, end := common.DateKey(now.AddDate(0, 0, -7)), common.DateKey(now)
	return cached(ctx, s, "weekly", fieldID, end, func(ctx context.Context) (*WeeklyKPIs, error) {
		recs, err := s.records.ListRange(ctx, fieldID, start, end)
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, noData(fieldID, start+".."+end)
		}

		out := &WeeklyKPIs{
			FieldID:         fieldID,
			WeekStart:       start,
			WeekEnd:         end,
			Dates:           make([]string, len(recs)),
			DailyPestCounts: make([]int, len(recs)),
			DailyCanopyAvg:  make([]float64, len(recs)),
		}
		sumCanopy := 0.0
		for i, r := range recs {
			out.Dates[i] = r.Date
			out.DailyPestCounts[i] = r.Aggregates.PestCount
			out.DailyCanopyAvg[i] = r.Aggregates.AvgCanopy
			out.Summary.TotalPests += r.Aggregates.PestCount
			sumCanopy += r.Aggregates.AvgCanopy
		}
		out.Summary.AvgCanopy = numeric.Round2(sumCanopy / float64(len(recs)))

		last := len(recs) - 1
		out.Summary.PestTrend = TrendDecreasing
		if out.DailyPestCounts[last] > out.DailyPestCounts[0] {
			out.Summary.PestTrend = TrendIncreasing
		}
		out.Summary.CanopyTrend = canopy.TrendDeclining
		if out.DailyCanopyAvg[last] > out.DailyCanopyAvg[0] {
			out.Summary.CanopyTrend = canopy.TrendImproving
		}
		return out, nil
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Monthly
// ─────────────────────────────────────────────────────────────────────────────

// MonthLayout is the month key accepted by Monthly.
const MonthLayout = "2006-01"

// MonthlyReport aggregates one calendar month.
type MonthlyReport struct {
	FieldID          string  `json:"field_id"`
	Month            string  `json:"month"`
	TotalPests       int     `json:"total_pests"`
	AvgCanopy        float64 `json:"avg_canopy"`
	DataPoints       int     `json:"data_points"`
	PeakPestDate     string  `json:"peak_pest_date"`
	PeakPestCount    int     `json:"peak_pest_count"`
	LowestCanopyDate string  `json:"lowest_canopy_date"`
	LowestCanopy     float64 `json:"lowest_canopy"`
}

// Monthly aggregates the records of month (YYYY-MM). Ties for the peak and
// the lowest day go to the earliest date.
func (s *Service) Monthly(ctx context.Context, fieldID, month string) (*MonthlyReport, error) {
	first, err := time.ParseInLocation(MonthLayout, month, time.UTC)
	if err != nil {
		return nil, errors.NewValidation("month %q must be formatted YYYY-MM", month)
	}
	from := common.DateKey(first)
	to := common.DateKey(first.AddDate(0, 1, -1))

	return cached(ctx, s, "monthly", fieldID, month, func(ctx context.Context) (*MonthlyReport, error) {
		recs, err := s.records.ListRange(ctx, fieldID, from, to)
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, noData(fieldID, month)
		}

		out := &MonthlyReport{FieldID: fieldID, Month: month, DataPoints: len(recs)}
		sum := 0.0
		for i, r := range recs {
			agg := r.Aggregates
			out.TotalPests += agg.PestCount
			sum += agg.AvgCanopy
			if i == 0 || agg.PestCount > out.PeakPestCount {
				out.PeakPestDate, out.PeakPestCount = r.Date, agg.PestCount
			}
			if i == 0 || agg.AvgCanopy < out.LowestCanopy {
				out.LowestCanopyDate, out.LowestCanopy = r.Date, agg.AvgCanopy
			}
		}
		out.AvgCanopy = numeric.Round2(sum / float64(len(recs)))
		return out, nil
	})
}

//Personal.AI order the ending
