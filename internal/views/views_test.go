package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina/internal/filter"
)

func TestTimelineColumns(t *testing.T) {
	cols, err := timelineColumns(IntervalMonth)
	require.NoError(t, err)
	assert.Equal(t, []string{"year", "month"}, cols)

	cols, err = timelineColumns(IntervalDay)
	require.NoError(t, err)
	assert.Equal(t, []string{"year", "month", "day"}, cols)

	cols, err = timelineColumns(IntervalHour)
	require.NoError(t, err)
	assert.Equal(t, []string{"year", "month", "day", "hour"}, cols)

	_, err = timelineColumns(Interval("century"))
	assert.Error(t, err)
}

func TestMediaFields_ParsesAgainstProductionRegistry(t *testing.T) {
	q, err := filter.Parse("liked:=true order_by:=created_at asc:=false limit:=20", MediaFields)
	require.NoError(t, err)
	require.NotNil(t, q.OrderBy)
	// SetSafeColumnFunc was wired by this package's init, so "created_at"
	// resolves to the catalog's physical column name.
	assert.Equal(t, "authored_at", q.OrderBy.Column)
}

func TestMediaFields_RejectsUnknownField(t *testing.T) {
	_, err := filter.Parse("nonexistent_field:=1", MediaFields)
	assert.Error(t, err)
}

func TestQueryMedia_CountPlanDropsTrailer(t *testing.T) {
	q, err := filter.Parse("liked:=true order_by:=created_at limit:=20 page:=1", MediaFields)
	require.NoError(t, err)

	countPlan, err := q.ToCountPlan()
	require.NoError(t, err)
	assert.NotContains(t, countPlan.Trailer, "ORDER BY")
	assert.NotContains(t, countPlan.Trailer, "LIMIT")

	listPlan, err := q.ToPlan()
	require.NoError(t, err)
	assert.Contains(t, listPlan.Trailer, "ORDER BY authored_at")
	assert.Contains(t, listPlan.Trailer, "LIMIT 20")
}
