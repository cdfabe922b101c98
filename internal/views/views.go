// Package views implements the derived, read-only aggregations built on top of
// the Filter DSL and Catalog (C8): a paginated media query, the timeline
// aggregation, and the directory-tree lookup. Grounded on the teacher's
// gorm_repo query style (Where/Order/Limit/Offset chaining over a shared
// *gorm.DB handle), generalized into raw SQL built from filter.Plan since the
// query shape here is dynamic rather than fixed per repository method.
package views

import (
	"context"
	"fmt"
	"strings"

	"lumina/internal/catalog"
	"lumina/internal/filter"
)

func init() {
	// Registers the catalog's ORDER BY whitelist with the filter package once,
	// at process init, so every Parse call anywhere in the binary validates
	// order_by against the real schema instead of the permissive test default.
	filter.SetSafeColumnFunc(catalog.SafeColumn)
}

// MediaFields is the production field registry for filter strings accepted
// by the media list and timeline views (§4.2/§4.3).
var MediaFields = filter.FieldRegistry{
	"id":         filter.TypeInt,
	"uuid":       filter.TypeUUID,
	"name":       filter.TypeString,
	"path":       filter.TypeString,
	"created_at": filter.TypeDate,
	"added_at":   filter.TypeDate,
	"width":      filter.TypeInt,
	"height":     filter.TypeInt,
	"size":       filter.TypeInt,
	"liked":      filter.TypeBool,
	"class":      filter.TypeString,
	"format":     filter.TypeString,
}

// QueryMedia runs q against the catalog and returns the matching page of
// Media rows alongside the total count under to_count_query semantics
// (§4.3, §4.8): the count ignores q's order_by/asc/limit/page so it stays
// stable as the caller pages through results.
func QueryMedia(ctx context.Context, cat *catalog.Catalog, q *filter.Query) ([]catalog.Media, int64, error) {
	listPlan, err := q.ToPlan()
	if err != nil {
		return nil, 0, fmt.Errorf("views: lower query: %w", err)
	}
	countPlan, err := q.ToCountPlan()
	if err != nil {
		return nil, 0, fmt.Errorf("views: lower count query: %w", err)
	}

	db := cat.DB(ctx)

	var total int64
	countSQL := fmt.Sprintf("SELECT COUNT(DISTINCT media.id) FROM media %s WHERE %s",
		strings.Join(countPlan.Joins, " "), countPlan.Where)
	if err := db.Raw(countSQL, countPlan.Args...).Scan(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("views: count media: %w", err)
	}

	// Selecting by a subquery of matching ids (rather than DISTINCT media.*)
	// keeps the outer ORDER BY free to reference any media column, which
	// Postgres forbids once DISTINCT is in play unless every ORDER BY column
	// is also in the SELECT list.
	listSQL := fmt.Sprintf(
		"SELECT media.* FROM media WHERE media.id IN (SELECT media.id FROM media %s WHERE %s)%s",
		strings.Join(listPlan.Joins, " "), listPlan.Where, listPlan.Trailer,
	)
	var results []catalog.Media
	if err := db.Raw(listSQL, listPlan.Args...).Scan(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("views: list media: %w", err)
	}
	return results, total, nil
}

// Interval is a timeline aggregation granularity (§4.8).
type Interval string

const (
	IntervalMonth Interval = "month"
	IntervalDay   Interval = "day"
	IntervalHour  Interval = "hour"
)

// TimelineBucket is one aggregated row: (year[, month, day, hour], count).
type TimelineBucket struct {
	Year  int   `json:"year"`
	Month int   `json:"month,omitempty"`
	Day   int   `json:"day,omitempty"`
	Hour  int   `json:"hour,omitempty"`
	Count int64 `json:"count"`
}

// timelineColumns returns the EXTRACT expressions (with their output aliases)
// that make up one granularity level, from coarsest to the requested depth.
func timelineColumns(interval Interval) ([]string, error) {
	switch interval {
	case IntervalMonth:
		return []string{"year", "month"}, nil
	case IntervalDay:
		return []string{"year", "month", "day"}, nil
	case IntervalHour:
		return []string{"year", "month", "day", "hour"}, nil
	default:
		return nil, fmt.Errorf("views: unknown timeline interval %q", interval)
	}
}

var timelineExtract = map[string]string{
	"year":  "EXTRACT(YEAR FROM media.authored_at)::int",
	"month": "EXTRACT(MONTH FROM media.authored_at)::int",
	"day":   "EXTRACT(DAY FROM media.authored_at)::int",
	"hour":  "EXTRACT(HOUR FROM media.authored_at)::int",
}

// Timeline groups q's matching media by formatted created_at at the given
// granularity, bypassing pagination the same way QueryMedia's count does,
// and returns buckets ordered ascending (§4.8).
func Timeline(ctx context.Context, cat *catalog.Catalog, q *filter.Query, interval Interval) ([]TimelineBucket, error) {
	cols, err := timelineColumns(interval)
	if err != nil {
		return nil, err
	}
	plan, err := q.ToCountPlan()
	if err != nil {
		return nil, fmt.Errorf("views: lower query: %w", err)
	}

	var selectExprs []string
	for _, c := range cols {
		selectExprs = append(selectExprs, fmt.Sprintf("%s AS %s", timelineExtract[c], c))
	}

	sql := fmt.Sprintf(
		"SELECT %s, COUNT(*) AS count FROM media %s WHERE %s GROUP BY %s ORDER BY %s ASC",
		strings.Join(selectExprs, ", "),
		strings.Join(plan.Joins, " "),
		plan.Where,
		strings.Join(cols, ", "),
		strings.Join(cols, ", "),
	)

	var buckets []TimelineBucket
	if err := cat.DB(ctx).Raw(sql, plan.Args...).Scan(&buckets).Error; err != nil {
		return nil, fmt.Errorf("views: timeline aggregation: %w", err)
	}
	return buckets, nil
}

// DirectoryTree loads the tree rebuilt at the end of the last scan; it is
// always served from Kv, never computed from a live query (§4.8).
func DirectoryTree(ctx context.Context, cat *catalog.Catalog) (*catalog.DirectoryTreeNode, error) {
	return cat.LoadDirectoryTree(ctx)
}
