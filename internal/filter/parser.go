package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	keyTag     = "tag"
	keySearch  = "search"
	keyHasGps  = "has_gps"
	keyOrderBy = "order_by"
	keyAsc     = "asc"
	keyLimit   = "limit"
	keyPage    = "page"
)

var familyKeys = map[string]bool{keyOrderBy: true, keyAsc: true, keyLimit: true, keyPage: true}

// Parse parses a filter string into a validated Query against the given field
// registry (§4.3). Validation failures return a *MediaQueryError.
func Parse(input string, fields FieldRegistry) (*Query, error) {
	q := &Query{}
	seen := map[string]bool{}
	familySeen := false
	var lastFamilyKey string

	for _, tok := range tokenize(input) {
		key, opValue, err := splitKeyOp(tok)
		if err != nil {
			return nil, err
		}

		switch key {
		case keyOrderBy, keyAsc, keyLimit, keyPage:
			if seen[key] {
				return nil, errDuplicateFilter(key)
			}
			if q.Page != nil {
				// page must be the last of the four.
				return nil, errInvalidFilterOrder(key, keyPage)
			}
			seen[key] = true
			familySeen = true

			op, rawVal, err := matchOperator(opValue, []Op{OpEQ})
			if err != nil {
				return nil, errInvalidOperator(key, opValue)
			}
			if op != OpEQ {
				return nil, errInvalidOperator(key, string(op))
			}
			val := unquoteValue(rawVal)

			switch key {
			case keyOrderBy:
				col, err := safeColumnFn(val)
				if err != nil {
					return nil, err
				}
				q.OrderBy = &OrderByPredicate{Column: col}
				q.Predicates = append(q.Predicates, *q.OrderBy)
			case keyAsc:
				b, err := parseBool(val)
				if err != nil {
					return nil, errInvalidOperator(key, val)
				}
				q.Asc = &AscPredicate{Value: b}
				q.Predicates = append(q.Predicates, *q.Asc)
			case keyLimit:
				n, err := strconv.Atoi(val)
				if err != nil {
					return nil, errInvalidPage()
				}
				q.Limit = &LimitPredicate{Value: n}
				q.Predicates = append(q.Predicates, *q.Limit)
			case keyPage:
				n, err := strconv.Atoi(val)
				if err != nil {
					return nil, errInvalidPage()
				}
				if q.Limit == nil {
					return nil, errInvalidPage()
				}
				q.Page = &PagePredicate{Value: n}
				q.Predicates = append(q.Predicates, *q.Page)
			}
			lastFamilyKey = key
			continue
		}

		// Any non-family predicate encountered after a family predicate violates the
		// "pagination trails data" rule.
		if familySeen {
			return nil, errInvalidFilterOrder(key, lastFamilyKey)
		}

		switch key {
		case keyTag:
			op, rawVal, err := matchOperator(opValue, operatorsFor(TypeString))
			if err != nil {
				return nil, errInvalidOperator(key, opValue)
			}
			q.Predicates = append(q.Predicates, TagPredicate{Op: op, Value: unquoteValue(rawVal)})
		case keySearch:
			op, rawVal, err := matchOperator(opValue, operatorsFor(TypeString))
			if err != nil {
				return nil, errInvalidOperator(key, opValue)
			}
			q.Predicates = append(q.Predicates, FullSearchPredicate{Op: op, Value: unquoteValue(rawVal)})
		case keyHasGps:
			if seen[key] {
				return nil, errDuplicateFilter(key)
			}
			seen[key] = true
			op, rawVal, err := matchOperator(opValue, []Op{OpEQ})
			if err != nil || op != OpEQ {
				return nil, errInvalidOperator(key, opValue)
			}
			b, err := parseBool(unquoteValue(rawVal))
			if err != nil {
				return nil, errInvalidOperator(key, rawVal)
			}
			q.Predicates = append(q.Predicates, HasGpsPredicate{Value: b})
		default:
			ftype, ok := fields[key]
			if !ok {
				return nil, errUnknownColumn(key)
			}
			if seen[key] {
				return nil, errDuplicateFilter(key)
			}
			seen[key] = true

			ops := operatorsFor(ftype)
			var op Op
			var rawVal string
			var err error
			if ftype == TypeDate {
				op, rawVal, err = matchDateOperator(opValue)
			} else {
				op, rawVal, err = matchOperator(opValue, ops)
			}
			if err != nil {
				return nil, errInvalidOperator(key, opValue)
			}

			value, err := parseTypedValue(ftype, unquoteValue(rawVal))
			if err != nil {
				return nil, errInvalidOperator(key, rawVal)
			}
			q.Predicates = append(q.Predicates, FieldPredicate{Key: key, Type: ftype, Op: op, Value: value})
		}
	}

	return q, nil
}

// splitKeyOp splits "key:OPvalue" at the first colon in tok.
func splitKeyOp(tok string) (key, rest string, err error) {
	idx := strings.IndexByte(tok, ':')
	if idx < 0 {
		return "", "", &MediaQueryError{Kind: "InvalidOperator", Message: fmt.Sprintf("missing ':' in filter %q", tok)}
	}
	return tok[:idx], tok[idx+1:], nil
}

// matchOperator finds the longest operator in ops that prefixes opValue.
func matchOperator(opValue string, ops []Op) (Op, string, error) {
	best := Op("")
	for _, op := range ops {
		if strings.HasPrefix(opValue, string(op)) && len(op) > len(best) {
			best = op
		}
	}
	if best == "" {
		return "", "", fmt.Errorf("no matching operator")
	}
	return best, opValue[len(best):], nil
}

// matchDateOperator additionally tries the word aliases "before"/"after", which are
// longer than any symbolic operator and so must be tried first.
func matchDateOperator(opValue string) (Op, string, error) {
	for word, op := range dateAliases {
		if strings.HasPrefix(opValue, word) {
			return op, opValue[len(word):], nil
		}
	}
	return matchOperator(opValue, operatorsFor(TypeDate))
}

func parseTypedValue(t FieldType, raw string) (interface{}, error) {
	switch t {
	case TypeInt:
		return strconv.ParseInt(raw, 10, 64)
	case TypeFloat:
		return strconv.ParseFloat(raw, 64)
	case TypeDate:
		return time.Parse("2006-01-02", raw)
	case TypeBool:
		return parseBool(raw)
	case TypeUUID:
		return newUUIDValue(raw)
	case TypeString:
		return raw, nil
	}
	return nil, fmt.Errorf("unsupported field type")
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("not a bool: %q", s)
}

// safeColumnFn is overridable in tests; production wires it to catalog.SafeColumn.
var safeColumnFn = func(name string) (string, error) {
	if name == "" {
		return "", errUnknownColumn(name)
	}
	return name, nil
}

// SetSafeColumnFunc installs the column whitelist without filter importing
// catalog; the views package, which imports both, wires it to catalog.SafeColumn.
func SetSafeColumnFunc(fn func(string) (string, error)) {
	safeColumnFn = fn
}
