package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// String reconstructs a filter string from a Query such that
// Parse(q.String(), fields) yields a predicate list equal to q (§8 round-trip
// property). Quoting is applied whenever a value contains whitespace.
func (q *Query) String() string {
	parts := make([]string, 0, len(q.Predicates))
	for _, p := range q.Predicates {
		parts = append(parts, p.render())
	}
	return strings.Join(parts, " ")
}

func quoteIfNeeded(v string) string {
	if strings.ContainsAny(v, " \t\"'") {
		escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v)
		return `"` + escaped + `"`
	}
	return v
}

func (p FieldPredicate) render() string {
	var val string
	switch v := p.Value.(type) {
	case int64:
		val = strconv.FormatInt(v, 10)
	case float64:
		val = strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		val = strconv.FormatBool(v)
	case time.Time:
		val = v.Format("2006-01-02")
	case string:
		val = quoteIfNeeded(v)
	default:
		val = fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf("%s:%s%s", p.Key, p.Op, val)
}

func (p TagPredicate) render() string {
	return fmt.Sprintf("%s:%s%s", keyTag, p.Op, quoteIfNeeded(p.Value))
}

func (p FullSearchPredicate) render() string {
	return fmt.Sprintf("%s:%s%s", keySearch, p.Op, quoteIfNeeded(p.Value))
}

func (p HasGpsPredicate) render() string {
	return fmt.Sprintf("%s:=%t", keyHasGps, p.Value)
}

func (p OrderByPredicate) render() string {
	return fmt.Sprintf("%s:=%s", keyOrderBy, p.Column)
}

func (p AscPredicate) render() string {
	return fmt.Sprintf("%s:=%t", keyAsc, p.Value)
}

func (p LimitPredicate) render() string {
	return fmt.Sprintf("%s:=%d", keyLimit, p.Value)
}

func (p PagePredicate) render() string {
	return fmt.Sprintf("%s:=%d", keyPage, p.Value)
}
