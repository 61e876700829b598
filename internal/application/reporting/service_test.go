package reporting

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FieldScout-Intelligence/internal/analytics/canopy"
	"github.com/turtacn/FieldScout-Intelligence/internal/config"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/alert"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/field"
	"github.com/turtacn/FieldScout-Intelligence/internal/domain/scouting"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

// --- Fakes ---

type fakeRecords struct {
	mu      sync.Mutex
	byDate  map[string]*scouting.DailyRecord
	lookups int
}

func newFakeRecords(recs ...*scouting.DailyRecord) *fakeRecords {
	f := &fakeRecords{byDate: map[string]*scouting.DailyRecord{}}
	for _, r := range recs {
		f.byDate[r.Date] = r
	}
	return f
}

func (f *fakeRecords) put(r *scouting.DailyRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byDate[r.Date] = r
}

func (f *fakeRecords) GetByDate(_ context.Context, fieldID, date string) (*scouting.DailyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	r, ok := f.byDate[date]
	if !ok || r.FieldID != fieldID {
		return nil, errors.New(errors.ErrCodeRecordNotFound, "no data")
	}
	return r, nil
}

func (f *fakeRecords) Latest(_ context.Context, fieldID string) (*scouting.DailyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *scouting.DailyRecord
	for _, r := range f.byDate {
		if r.FieldID == fieldID && (latest == nil || r.Date > latest.Date) {
			latest = r
		}
	}
	if latest == nil {
		return nil, errors.New(errors.ErrCodeRecordNotFound, "no data")
	}
	return latest, nil
}

func (f *fakeRecords) ListRange(_ context.Context, fieldID, from, to string) ([]*scouting.DailyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*scouting.DailyRecord{}
	for _, r := range f.byDate {
		if r.FieldID == fieldID && r.Date >= from && r.Date <= to {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

type fakeAlertStats struct{ active int }

func (f *fakeAlertStats) Stats(context.Context, string) (*alert.Stats, error) {
	return &alert.Stats{
		Total:    f.active,
		ByStatus: map[string]int{string(alert.StatusActive): f.active},
	}, nil
}

type fakeThresholds struct{ th *field.Thresholds }

func (f *fakeThresholds) GetThresholds(context.Context, string) (*field.Thresholds, error) {
	return f.th, nil
}

// --- Helpers ---

var now = time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)

func day(date string, pests int, avgCanopy float64) *scouting.DailyRecord {
	return &scouting.DailyRecord{
		ID:      "rec-" + date,
		FieldID: "field-1",
		Date:    date,
		Aggregates: scouting.Aggregates{
			PestCount:        pests,
			PestCountsByCrop: map[string]int{"corn": pests},
			AvgCanopy:        avgCanopy,
		},
	}
}

// gridDay is a 3×3 record with a corn detection of 12 in the centre, canopy
// 70 everywhere except 55 at (2,0).
func gridDay(date string) *scouting.DailyRecord {
	pest := make(scouting.DetectionGrid, 3)
	cover := make(scouting.CanopyGrid, 3)
	density := make([][]float64, 3)
	for r := range pest {
		pest[r] = make([]scouting.DetectionCell, 3)
		cover[r] = []float64{70, 70, 70}
		density[r] = make([]float64, 3)
	}
	pest[1][1] = scouting.DetectionCell{Count: 12, CropType: "corn"}
	density[1][1] = 12
	cover[0][2] = 55

	rec := day(date, 12, 68.33)
	rec.PestGrid = pest
	rec.CanopyCover = cover
	rec.FieldDimensions = scouting.FieldDimensions{WidthM: 3, HeightM: 3, GridResolution: 1}
	rec.Heatmaps = scouting.Heatmaps{
		PestDensityByCrop: map[string][][]float64{"corn": density},
		CanopyGrid:        cover,
	}
	rec.Aggregates.CriticalZones = []scouting.CriticalZone{{
		ZoneID: "grid_1_1", PestDensity: 12, PestCount: 12, CropType: "corn", CanopyCover: 70, RiskLevel: scouting.RiskCritical,
	}}
	rec.Aggregates.CriticalZoneCount = 1
	return rec
}

func newTestService(t *testing.T, records *fakeRecords, cache redis.Cache) *Service {
	t.Helper()
	svc, err := NewService(Dependencies{
		Records:    records,
		Alerts:     &fakeAlertStats{active: 2},
		Thresholds: &fakeThresholds{},
		Cache:      cache,
	}, Config{})
	require.NoError(t, err)
	return svc
}

func newMiniCache(t *testing.T) redis.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(config.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return redis.NewRedisCache(client, logging.NewNopLogger())
}

// --- KPIs ---

func TestTodayKPIs(t *testing.T) {
	svc := newTestService(t, newFakeRecords(day("2024-06-10", 12, 45), day("2024-06-09", 8, 50)), nil)

	kpi, err := svc.TodayKPIs(context.Background(), "field-1", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-10", kpi.Date)
	assert.Equal(t, 12, kpi.PestCount)
	assert.Equal(t, 45.0, kpi.AvgCanopyCover)
	assert.Equal(t, DayChange{PestChange: 4, PestChangePct: 50, CanopyChange: -5, CanopyChangePct: -10}, kpi.ChangeVsYesterday)
	assert.Equal(t, 2, kpi.ActiveAlerts)
	assert.Equal(t, FieldStatusCritical, kpi.Status)
}

func TestTodayKPIs_WithoutYesterdayOrAlerts(t *testing.T) {
	svc, err := NewService(Dependencies{
		Records:    newFakeRecords(day("2024-06-10", 3, 80)),
		Alerts:     &fakeAlertStats{},
		Thresholds: &fakeThresholds{},
	}, Config{})
	require.NoError(t, err)

	kpi, err := svc.TodayKPIs(context.Background(), "field-1", now)
	require.NoError(t, err)
	assert.Equal(t, DayChange{}, kpi.ChangeVsYesterday)
	assert.Equal(t, FieldStatusHealthy, kpi.Status)
}

func TestTodayKPIs_NoData(t *testing.T) {
	svc := newTestService(t, newFakeRecords(day("2024-06-09", 8, 50)), nil)
	_, err := svc.TodayKPIs(context.Background(), "field-1", now)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestWeeklyKPIs(t *testing.T) {
	svc := newTestService(t, newFakeRecords(
		day("2024-06-01", 50, 90),
		day("2024-06-04", 10, 60),
		day("2024-06-07", 20, 62),
		day("2024-06-10", 30, 58),
	), nil)

	w, err := svc.WeeklyKPIs(context.Background(), "field-1", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-03", w.WeekStart)
	assert.Equal(t, "2024-06-10", w.WeekEnd)
	assert.Equal(t, []string{"2024-06-04", "2024-06-07", "2024-06-10"}, w.Dates)
	assert.Equal(t, []int{10, 20, 30}, w.DailyPestCounts)
	assert.Equal(t, 60, w.Summary.TotalPests)
	assert.Equal(t, 60.0, w.Summary.AvgCanopy)
	assert.Equal(t, TrendIncreasing, w.Summary.PestTrend)
	assert.Equal(t, canopy.TrendDeclining, w.Summary.CanopyTrend)

	_, err = svc.WeeklyKPIs(context.Background(), "field-1", now.AddDate(0, 1, 0))
	assert.True(t, errors.IsNotFound(err))
}

func TestMonthly(t *testing.T) {
	svc := newTestService(t, newFakeRecords(
		day("2024-05-31", 99, 10),
		day("2024-06-02", 10, 70),
		day("2024-06-05", 30, 55),
		day("2024-06-08", 30, 55),
		day("2024-06-30", 5, 80),
	), nil)

	m, err := svc.Monthly(context.Background(), "field-1", "2024-06")
	require.NoError(t, err)
	assert.Equal(t, 75, m.TotalPests)
	assert.Equal(t, 4, m.DataPoints)
	assert.Equal(t, 65.0, m.AvgCanopy)
	assert.Equal(t, "2024-06-05", m.PeakPestDate, "ties go to the earliest day")
	assert.Equal(t, "2024-06-05", m.LowestCanopyDate)

	_, err = svc.Monthly(context.Background(), "field-1", "June")
	assert.True(t, errors.IsValidation(err))

	_, err = svc.Monthly(context.Background(), "field-1", "2024-07")
	assert.True(t, errors.IsNotFound(err))
}

// --- Pest and canopy views ---

func TestPestDaily_CropSelection(t *testing.T) {
	rec := gridDay("2024-06-10")
	rec.Aggregates.PestCountsByCrop = map[string]int{"corn": 12, "wheat": 0}
	svc := newTestService(t, newFakeRecords(rec), nil)

	all, err := svc.PestDaily(context.Background(), "field-1", "2024-06-10", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"corn", "wheat"}, all.AvailableCropTypes)
	assert.Equal(t, "corn", all.SelectedCropType)
	assert.Equal(t, 12.0, all.HeatmapGrid[1][1])
	assert.Equal(t, 1, all.CriticalZonesCount)

	wheat, err := svc.PestDaily(context.Background(), "field-1", "2024-06-10", "Wheat")
	require.NoError(t, err)
	assert.Equal(t, "corn", wheat.SelectedCropType, "crops without a surface fall back to the first")
	assert.Empty(t, wheat.Hotspots)
	assert.Zero(t, wheat.CriticalZonesCount)

	_, err = svc.PestDaily(context.Background(), "field-1", "2024-06-11", "")
	assert.True(t, errors.IsNotFound(err))
}

func TestPestTrend(t *testing.T) {
	a := day("2024-06-08", 10, 60)
	a.Aggregates.PestCountsByCrop = map[string]int{"corn": 4, "wheat": 6}
	b := day("2024-06-10", 15, 60)
	b.Aggregates.PestCountsByCrop = map[string]int{"corn": 2, "wheat": 13}
	svc := newTestService(t, newFakeRecords(a, b), nil)

	tr, err := svc.PestTrend(context.Background(), "field-1", 7, "", now)
	require.NoError(t, err)
	assert.Equal(t, []DailyCount{{"2024-06-08", 10}, {"2024-06-10", 15}}, tr.DailyCounts)
	assert.Equal(t, TrendIncreasing, tr.Trend)
	assert.Equal(t, 50.0, tr.ChangePct)

	corn, err := svc.PestTrend(context.Background(), "field-1", 7, "corn", now)
	require.NoError(t, err)
	assert.Equal(t, TrendDecreasing, corn.Trend)
	assert.Equal(t, -50.0, corn.ChangePct)

	single, err := svc.PestTrend(context.Background(), "field-1", 1, "", now)
	require.NoError(t, err)
	assert.Equal(t, TrendStable, single.Trend)

	for _, days := range []int{0, 31} {
		_, err := svc.PestTrend(context.Background(), "field-1", days, "", now)
		assert.True(t, errors.IsValidation(err), "days=%d", days)
	}
}

func TestCanopyDaily(t *testing.T) {
	svc := newTestService(t, newFakeRecords(gridDay("2024-06-10")), nil)

	c, err := svc.CanopyDaily(context.Background(), "field-1", "2024-06-10")
	require.NoError(t, err)
	assert.Equal(t, 55.0, c.Statistics.Min)
	assert.Equal(t, 70.0, c.Statistics.Max)
	assert.Equal(t, 70.0, c.Statistics.Median)
	require.Len(t, c.LowCoverageZones, 1)
	assert.Equal(t, "grid_2_0", c.LowCoverageZones[0].ZoneID)
	assert.Equal(t, canopy.StatusWarning, c.LowCoverageZones[0].Status)

	counts := map[string]int{}
	for _, b := range c.Distribution {
		counts[b.Name] = b.Count
	}
	assert.Equal(t, 1, counts["low"])
	assert.Equal(t, 8, counts["good"])
}

func TestCanopyTrend(t *testing.T) {
	svc := newTestService(t, newFakeRecords(day("2024-06-05", 0, 60), day("2024-06-10", 0, 66)), nil)

	tr, err := svc.CanopyTrend(context.Background(), "field-1", 7, now)
	require.NoError(t, err)
	assert.Len(t, tr.DailyAverages, 2)
	assert.Equal(t, canopy.TrendImproving, tr.Trend.Trend)
	assert.Equal(t, 10.0, tr.Trend.ChangePct)

	empty, err := svc.CanopyTrend(context.Background(), "field-2", 7, now)
	require.NoError(t, err)
	assert.Empty(t, empty.DailyAverages)
	assert.Equal(t, canopy.TrendInsufficient, empty.Trend.Trend)
}

// --- Insights ---

func TestZoneInsights(t *testing.T) {
	svc := newTestService(t, newFakeRecords(gridDay("2024-06-10")), nil)

	z, err := svc.ZoneInsights(context.Background(), "field-1", "2024-06-10")
	require.NoError(t, err)
	require.Len(t, z.Zones, 9)
	assert.Equal(t, 1, z.Summary.Critical)
	assert.Equal(t, 1, z.Summary.Warning)
	assert.Equal(t, 7, z.Summary.Healthy)

	centre := z.Zones[4]
	assert.Equal(t, "grid_1_1", centre.ZoneID)
	assert.Equal(t, 12, centre.PestCount)
	assert.Equal(t, "critical", centre.Status)
}

func TestZoneDetail(t *testing.T) {
	svc := newTestService(t, newFakeRecords(gridDay("2024-06-10")), nil)
	ctx := context.Background()

	z, err := svc.ZoneDetail(ctx, "field-1", "2024-06-10", "grid_1_1")
	require.NoError(t, err)
	assert.Equal(t, "field-1", z.FieldID)
	assert.Equal(t, "grid_1_1", z.ZoneID)
	assert.Equal(t, 12, z.PestCount)
	assert.Equal(t, 12.0, z.PestDensity)
	assert.Equal(t, 70.0, z.CanopyCover)
	assert.Equal(t, scouting.RiskCritical, z.RiskLevel)

	z, err = svc.ZoneDetail(ctx, "field-1", "2024-06-10", "grid_2_0")
	require.NoError(t, err)
	assert.Equal(t, 0, z.PestCount)
	assert.Equal(t, "warning", z.RiskLevel, "canopy 55 is below the warning threshold")

	_, err = svc.ZoneDetail(ctx, "field-1", "2024-06-10", "grid_5_5")
	assert.True(t, errors.IsValidation(err))
	_, err = svc.ZoneDetail(ctx, "field-1", "2024-06-10", "north")
	assert.True(t, errors.IsValidation(err))
	_, err = svc.ZoneDetail(ctx, "field-1", "2024-06-09", "grid_1_1")
	assert.True(t, errors.IsNotFound(err))
}

func TestCompareCanopy(t *testing.T) {
	svc := newTestService(t, newFakeRecords(gridDay("2024-06-10")), nil)
	ctx := context.Background()

	c, err := svc.CompareCanopy(ctx, "field-1", "2024-06-10", "grid_2_0", "grid_0_0")
	require.NoError(t, err)
	assert.Equal(t, 55.0, c.Zone1.CanopyCover)
	assert.Equal(t, 70.0, c.Zone2.CanopyCover)
	assert.Equal(t, 15.0, c.Difference)
	assert.Equal(t, 27.27, c.DifferencePct)
	assert.Equal(t, "zone2", c.BetterZone)

	_, err = svc.CompareCanopy(ctx, "field-1", "2024-06-10", "grid_0_0", "grid_3_0")
	assert.True(t, errors.IsValidation(err))
	_, err = svc.CompareCanopy(ctx, "field-1", "2024-06-10", "grid_0_0", "")
	assert.True(t, errors.IsValidation(err))
}

func TestFieldHealth(t *testing.T) {
	rec := gridDay("2024-06-10")
	svc := newTestService(t, newFakeRecords(rec), nil)

	h, err := svc.FieldHealth(context.Background(), "field-1", "2024-06-10")
	require.NoError(t, err)
	// canopy mean 68.33 → 41.0 points; pest mean 12/9 per m² → 37.3 points
	assert.Equal(t, 41.0, h.Health.Components.CanopyScore)
	assert.Equal(t, 37.3, h.Health.Components.PestScore)
	assert.Equal(t, canopy.RatingGood, h.Health.Rating)
	assert.NotEmpty(t, h.Correlation.Interpretation)
}

func TestIngestionStatus(t *testing.T) {
	svc := newTestService(t, newFakeRecords(day("2024-06-08", 4, 60), gridDay("2024-06-10")), nil)

	st, err := svc.IngestionStatus(context.Background(), "field-1")
	require.NoError(t, err)
	assert.Equal(t, IngestionActive, st.Status)
	assert.Equal(t, "2024-06-10", st.LatestDate)
	assert.Equal(t, 1, st.CriticalZones)

	none, err := svc.IngestionStatus(context.Background(), "field-9")
	require.NoError(t, err)
	assert.Equal(t, IngestionNoData, none.Status)
	assert.Nil(t, none.LatestTimestamp)
}

func TestHeatmapPNG(t *testing.T) {
	svc := newTestService(t, newFakeRecords(gridDay("2024-06-10")), nil)

	for _, crop := range []string{"", "all", "Corn"} {
		png, err := svc.HeatmapPNG(context.Background(), "field-1", "2024-06-10", crop)
		require.NoError(t, err, crop)
		assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")), crop)
	}

	_, err := svc.HeatmapPNG(context.Background(), "field-1", "2024-06-10", "rice")
	assert.True(t, errors.IsNotFound(err))
}

// --- Cache ---

func TestViewsAreCachedUntilInvalidated(t *testing.T) {
	records := newFakeRecords(day("2024-06-10", 12, 45))
	svc := newTestService(t, records, newMiniCache(t))
	ctx := context.Background()

	first, err := svc.TodayKPIs(ctx, "field-1", now)
	require.NoError(t, err)
	assert.Equal(t, 12, first.PestCount)

	records.put(day("2024-06-10", 40, 45))
	cachedKPI, err := svc.TodayKPIs(ctx, "field-1", now)
	require.NoError(t, err)
	assert.Equal(t, 12, cachedKPI.PestCount, "served from cache")

	require.NoError(t, svc.InvalidateField(ctx, "field-1"))
	fresh, err := svc.TodayKPIs(ctx, "field-1", now)
	require.NoError(t, err)
	assert.Equal(t, 40, fresh.PestCount)
}

func TestNoDataIsNotCached(t *testing.T) {
	records := newFakeRecords()
	svc := newTestService(t, records, newMiniCache(t))
	ctx := context.Background()

	_, err := svc.CanopyDaily(ctx, "field-1", "2024-06-10")
	require.True(t, errors.IsNotFound(err))

	records.put(gridDay("2024-06-10"))
	c, err := svc.CanopyDaily(ctx, "field-1", "2024-06-10")
	require.NoError(t, err)
	assert.Equal(t, 70.0, c.Statistics.Max)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "report:field-1:", FieldPrefix("field-1"))
	assert.Equal(t, "report:field-1:today:2024-06-10", CacheKey("today", "field-1", "2024-06-10"))
}

//Personal.AI order the ending
