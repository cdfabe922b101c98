package filter

import (
	"fmt"
	"strings"
)

// Plan is the lowered SQL form of a Query: a WHERE clause with positional args, a set
// of auxiliary tables to LEFT JOIN, and (unless dropped by ToCountPlan) trailing
// ORDER BY / LIMIT / OFFSET clauses (§4.3 "Plan lowering").
type Plan struct {
	Joins   []string
	Where   string
	Args    []interface{}
	Trailer string
}

// joinClauses maps an auxiliary table name to the LEFT JOIN fragment that brings it
// into scope; each is materialized at most once regardless of how many predicates
// require it.
var joinClauses = map[string]string{
	"media_extra":     "LEFT JOIN media_extra ON media_extra.media_id = media.id",
	"custom_metadata": "LEFT JOIN custom_metadata ON custom_metadata.media_id = media.id",
	"media_tags":      "LEFT JOIN media_tags ON media_tags.media_id = media.id",
	"tags":            "LEFT JOIN tags ON tags.id = media_tags.tag_id",
}

// ToPlan lowers the query to a SQL plan including ORDER BY / LIMIT / OFFSET.
func (q *Query) ToPlan() (*Plan, error) {
	return q.toPlan(true)
}

// ToCountPlan lowers the query dropping order_by/asc/limit/page, so the resulting
// count is stable under pagination (§4.3, §8).
func (q *Query) ToCountPlan() (*Plan, error) {
	return q.toPlan(false)
}

func (q *Query) toPlan(includeTrailer bool) (*Plan, error) {
	tableSet := map[string]bool{}
	var andParts []string
	var tagOps []TagPredicate
	var args []interface{}

	for _, p := range q.Predicates {
		for _, t := range p.RequiresTables() {
			tableSet[t] = true
		}

		switch v := p.(type) {
		case FieldPredicate:
			andParts = append(andParts, fmt.Sprintf("media.%s %s ?", v.Key, sqlOp(v.Op)))
			args = append(args, v.Value)
		case TagPredicate:
			tagOps = append(tagOps, v)
		case FullSearchPredicate:
			frag, fargs := fullSearchFragment(v)
			andParts = append(andParts, frag)
			args = append(args, fargs...)
		case HasGpsPredicate:
			if v.Value {
				andParts = append(andParts, "(media.longitude IS NOT NULL AND media.latitude IS NOT NULL)")
			} else {
				andParts = append(andParts, "(media.longitude IS NULL AND media.latitude IS NULL)")
			}
		case OrderByPredicate, AscPredicate, LimitPredicate, PagePredicate:
			// handled in the trailer, not the WHERE clause.
		}
	}

	if len(tagOps) > 0 {
		var tagParts []string
		for _, t := range tagOps {
			tagParts = append(tagParts, fmt.Sprintf("tags.name %s ?", sqlOp(t.Op)))
			args = append(args, t.Value)
		}
		andParts = append(andParts, fmt.Sprintf("(1=2 OR %s)", strings.Join(tagParts, " OR ")))
	}

	where := "1=1"
	if len(andParts) > 0 {
		where = where + " AND " + strings.Join(andParts, " AND ")
	}

	var joins []string
	for t := range tableSet {
		joins = append(joins, joinClauses[t])
	}

	plan := &Plan{Joins: joins, Where: where, Args: args}

	if includeTrailer {
		var sb strings.Builder
		if q.OrderBy != nil {
			sb.WriteString(fmt.Sprintf(" ORDER BY %s", q.OrderBy.Column))
			if q.Asc != nil {
				if q.Asc.Value {
					sb.WriteString(" ASC")
				} else {
					sb.WriteString(" DESC")
				}
			}
		}
		if q.Limit != nil {
			sb.WriteString(fmt.Sprintf(" LIMIT %d", q.Limit.Value))
			if q.Page != nil {
				sb.WriteString(fmt.Sprintf(" OFFSET %d", q.Page.Value*q.Limit.Value))
			}
		}
		plan.Trailer = sb.String()
	}

	return plan, nil
}

func fullSearchFragment(p FullSearchPredicate) (string, []interface{}) {
	op := sqlOp(p.Op)
	frag := fmt.Sprintf(
		"(media.name %s ? OR media_extra.whisper_transcript %s ? OR media_extra.vision_ocr_result %s ? OR (custom_metadata.value %s ? AND custom_metadata.include_search = TRUE))",
		op, op, op, op,
	)
	return frag, []interface{}{p.Value, p.Value, p.Value, p.Value}
}

func sqlOp(op Op) string {
	switch op {
	case OpLike:
		return "LIKE"
	case OpNotLike:
		return "NOT LIKE"
	default:
		return string(op)
	}
}

// SQL renders the full SELECT-ready WHERE+trailer (joins are returned separately so
// the caller can place them relative to its own FROM clause).
func (p *Plan) SQL() string {
	return "WHERE " + p.Where + p.Trailer
}
