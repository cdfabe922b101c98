package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() FieldRegistry {
	return FieldRegistry{
		"num":  TypeInt,
		"str":  TypeString,
		"date": TypeDate,
	}
}

func TestMain_IdentitySafeColumn(t *testing.T) {
	SetSafeColumnFunc(func(s string) (string, error) { return s, nil })
}

func TestParse_Scenario1(t *testing.T) {
	TestMain_IdentitySafeColumn(t)
	q, err := Parse(`num:>=10 str:%foo date:=2020-01-01`, testRegistry())
	require.NoError(t, err)
	require.Len(t, q.Predicates, 3)

	p0 := q.Predicates[0].(FieldPredicate)
	assert.Equal(t, "num", p0.Key)
	assert.Equal(t, OpGE, p0.Op)
	assert.Equal(t, int64(10), p0.Value)

	p1 := q.Predicates[1].(FieldPredicate)
	assert.Equal(t, "str", p1.Key)
	assert.Equal(t, OpLike, p1.Op)
	assert.Equal(t, "foo", p1.Value)

	p2 := q.Predicates[2].(FieldPredicate)
	assert.Equal(t, "date", p2.Key)
	assert.Equal(t, OpEQ, p2.Op)
}

func TestParse_InvalidFilterOrder(t *testing.T) {
	TestMain_IdentitySafeColumn(t)
	_, err := Parse(`order_by:=created_at created_at:>2020-01-01`, FieldRegistry{"created_at": TypeDate})
	require.Error(t, err)
	qerr, ok := err.(*MediaQueryError)
	require.True(t, ok)
	assert.Equal(t, "InvalidFilterOrder", qerr.Kind)
}

func TestParse_PageWithoutLimit(t *testing.T) {
	_, err := Parse(`page:=1`, testRegistry())
	require.Error(t, err)
	qerr, ok := err.(*MediaQueryError)
	require.True(t, ok)
	assert.Equal(t, "InvalidPage", qerr.Kind)
}

func TestParse_DuplicateFilter(t *testing.T) {
	_, err := Parse(`limit:=10 limit:=20`, testRegistry())
	require.Error(t, err)
	qerr, ok := err.(*MediaQueryError)
	require.True(t, ok)
	assert.Equal(t, "DuplicateFilter", qerr.Kind)
}

func TestParse_UnknownColumn(t *testing.T) {
	_, err := Parse(`bogus:=1`, testRegistry())
	require.Error(t, err)
	qerr, ok := err.(*MediaQueryError)
	require.True(t, ok)
	assert.Equal(t, "UnknownColumn", qerr.Kind)
}

func TestParse_RoundTrip(t *testing.T) {
	TestMain_IdentitySafeColumn(t)
	input := `num:>=10 str:%"hello world" limit:=5 page:=0`
	q, err := Parse(input, testRegistry())
	require.NoError(t, err)

	again, err := Parse(q.String(), testRegistry())
	require.NoError(t, err)
	assert.Equal(t, q.Predicates, again.Predicates)
}

func TestToCountPlan_DropsTrailer(t *testing.T) {
	TestMain_IdentitySafeColumn(t)
	q, err := Parse(`num:>=10 order_by:=num asc:=true limit:=5 page:=1`, testRegistry())
	require.NoError(t, err)

	plan, err := q.ToCountPlan()
	require.NoError(t, err)
	assert.NotContains(t, plan.SQL(), "ORDER BY")
	assert.NotContains(t, plan.SQL(), "LIMIT")
	assert.NotContains(t, plan.SQL(), "OFFSET")

	full, err := q.ToPlan()
	require.NoError(t, err)
	assert.Contains(t, full.SQL(), "ORDER BY num ASC")
	assert.Contains(t, full.SQL(), "LIMIT 5 OFFSET 5")
}

func TestHasGps_SymmetricNullChecks(t *testing.T) {
	q, err := Parse(`has_gps:=true`, testRegistry())
	require.NoError(t, err)
	plan, err := q.ToPlan()
	require.NoError(t, err)
	assert.Contains(t, plan.Where, "longitude IS NOT NULL")
	assert.Contains(t, plan.Where, "latitude IS NOT NULL")
}

func TestTagPredicates_CollapseToDisjunction(t *testing.T) {
	q, err := Parse(`tag:=cats tag:=dogs`, testRegistry())
	require.NoError(t, err)
	plan, err := q.ToPlan()
	require.NoError(t, err)
	assert.Contains(t, plan.Where, "1=2 OR")
	assert.Contains(t, plan.Where, "tags.name = ? OR tags.name = ?")
}
