// Package filter implements the filter DSL and query compiler (C3): parsing a filter
// string into a typed predicate list, validating it, and lowering it to a
// parameterized SQL plan with automatic join materialization.
package filter

import (
	"github.com/google/uuid"
)

// FieldType is the DSL type of an ordinary (non-special) field.
type FieldType int

const (
	TypeInt FieldType = iota
	TypeFloat
	TypeDate
	TypeBool
	TypeString
	TypeUUID
)

// Op is a filter operator, rendered exactly as it appears in the grammar.
type Op string

const (
	OpGE     Op = ">="
	OpLE     Op = "<="
	OpGT     Op = ">"
	OpLT     Op = "<"
	OpEQ     Op = "="
	OpNE     Op = "!="
	OpLike   Op = "%"
	OpNotLike Op = "!%"
)

// operatorsFor returns the longest-first operator list for a field type.
// matchOperator picks the longest operator that prefixes the input, so e.g. "!="
// wins over "=" whatever the list order; the date word aliases "before"/"after"
// are matched separately, ahead of this list, by matchDateOperator.
func operatorsFor(t FieldType) []Op {
	switch t {
	case TypeInt, TypeFloat:
		return []Op{OpGE, OpLE, OpGT, OpLT, OpEQ}
	case TypeDate:
		return []Op{OpGE, OpLE, OpGT, OpLT, OpEQ} // "before"/"after" handled separately (word aliases)
	case TypeBool:
		return []Op{OpEQ}
	case TypeString:
		return []Op{OpNE, OpNotLike, OpEQ, OpLike}
	case TypeUUID:
		return []Op{OpNE, OpEQ}
	}
	return nil
}

// dateAliases maps the word operators "before"/"after" onto their symbolic
// equivalent, checked before the symbolic operators since they are longer matches.
var dateAliases = map[string]Op{
	"before": OpLT,
	"after":  OpGT,
}

// FieldRegistry maps DSL-facing field names to their type. The production registry
// (views.MediaFields) is separate from any test-only registry used to
// exercise the grammar with abstract field names (num/str/date, §8 scenario 1).
type FieldRegistry map[string]FieldType

// OperatorsFor exposes the grammar's per-type operator set for the self-describing
// `/info` endpoint (§6), without duplicating the ordering rule.
func OperatorsFor(t FieldType) []Op {
	return operatorsFor(t)
}

// String names a FieldType the way it appears in the DSL's type system.
func (t FieldType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeDate:
		return "date"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeUUID:
		return "uuid"
	}
	return "unknown"
}

// Predicate is the sum type produced by Parse. Each variant carries its own
// operator/value and the set of auxiliary tables its SQL lowering requires — no SQL
// fragment is shared across variants (§9).
type Predicate interface {
	RequiresTables() []string
	render() string // used by Query.String() for the round-trip property (§8)
}

// FieldPredicate is an ordinary typed comparison against a Media column.
type FieldPredicate struct {
	Key   string
	Type  FieldType
	Op    Op
	Value interface{} // int64 | float64 | time.Time | bool | string | uuid.UUID
}

func (p FieldPredicate) RequiresTables() []string { return nil }

// TagPredicate matches media carrying a named tag; multiple Tag predicates collapse
// into a single disjunction at plan-lowering time (§4.3).
type TagPredicate struct {
	Op    Op
	Value string
}

func (p TagPredicate) RequiresTables() []string { return []string{"media_tags", "tags"} }

// FullSearchPredicate expands to a disjunction over name/transcript/ocr/custom fields.
type FullSearchPredicate struct {
	Op    Op
	Value string
}

func (p FullSearchPredicate) RequiresTables() []string {
	return []string{"media_extra", "custom_metadata"}
}

// HasGpsPredicate expands to symmetric IS NULL / IS NOT NULL on longitude/latitude.
type HasGpsPredicate struct {
	Value bool
}

func (p HasGpsPredicate) RequiresTables() []string { return nil }

// OrderByPredicate, AscPredicate, LimitPredicate, PagePredicate are the four
// pagination/order predicates; they must trail every other predicate (§4.3).
type OrderByPredicate struct{ Column string }

func (p OrderByPredicate) RequiresTables() []string { return nil }

type AscPredicate struct{ Value bool }

func (p AscPredicate) RequiresTables() []string { return nil }

type LimitPredicate struct{ Value int }

func (p LimitPredicate) RequiresTables() []string { return nil }

type PagePredicate struct{ Value int }

func (p PagePredicate) RequiresTables() []string { return nil }

// Query is a parsed, validated, ordered predicate list (§4.3's "typed model").
type Query struct {
	Predicates []Predicate
	OrderBy    *OrderByPredicate
	Asc        *AscPredicate
	Limit      *LimitPredicate
	Page       *PagePredicate
}

// newUUIDValue parses a TypeUUID value for parseTypedValue.
func newUUIDValue(s string) (uuid.UUID, error) { return uuid.Parse(s) }
