package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

func sampleAlert() *Alert {
	ts := time.Date(2025, 10, 3, 7, 0, 0, 0, time.UTC)
	return New("field_001", "2025-10-03", ts, Draft{
		Type:     TypeCombinedRisk,
		Severity: SeverityCritical,
		ZoneID:   "grid_1_1",
		Metrics:  map[string]interface{}{MetricPestCount: 12},
	}, "msg", "rec")
}

func TestNew(t *testing.T) {
	a := sampleAlert()
	assert.Equal(t, StatusActive, a.Status)
	assert.False(t, a.Acknowledged)
	assert.Nil(t, a.AcknowledgedAt)
	assert.Equal(t, "grid_1_1", a.ZoneID)
	assert.Equal(t, 12, a.Metrics[MetricPestCount])
}

func TestAcknowledge(t *testing.T) {
	a := sampleAlert()
	now := time.Date(2025, 10, 3, 9, 0, 0, 0, time.UTC)

	require.NoError(t, a.Acknowledge(now))
	assert.Equal(t, StatusAcknowledged, a.Status)
	assert.True(t, a.Acknowledged)
	require.NotNil(t, a.AcknowledgedAt)
	assert.True(t, now.Equal(*a.AcknowledgedAt))
}

func TestResolve(t *testing.T) {
	a := sampleAlert()
	now := time.Now()
	a.Resolve(now)
	assert.Equal(t, StatusResolved, a.Status)
	assert.True(t, a.Acknowledged)

	err := a.Acknowledge(now)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
}

func TestApplyOptions(t *testing.T) {
	o := ApplyOptions()
	assert.Equal(t, 100, o.Limit)
	assert.Empty(t, o.Statuses)

	o = ApplyOptions(WithStatuses(StatusActive), WithDate("2025-10-03"), WithLimit(5000))
	assert.Equal(t, []Status{StatusActive}, o.Statuses)
	assert.Equal(t, "2025-10-03", o.Date)
	assert.Equal(t, 1000, o.Limit)
}

//Personal.AI order the ending
