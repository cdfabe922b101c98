package filter

import "fmt"

// MediaQueryError is the DSL's validation error taxonomy (§7): UnknownColumn,
// DuplicateFilter, InvalidFilterOrder, InvalidOperator, InvalidPage. The HTTP
// boundary maps every variant to 400.
type MediaQueryError struct {
	Kind    string
	Message string
}

func (e *MediaQueryError) Error() string { return e.Message }

func errUnknownColumn(key string) error {
	return &MediaQueryError{Kind: "UnknownColumn", Message: fmt.Sprintf("unknown column %q", key)}
}

func errDuplicateFilter(key string) error {
	return &MediaQueryError{Kind: "DuplicateFilter", Message: fmt.Sprintf("duplicate filter %q", key)}
}

func errInvalidFilterOrder(later, earlier string) error {
	return &MediaQueryError{Kind: "InvalidFilterOrder", Message: fmt.Sprintf("filter %q must not follow %q", later, earlier)}
}

func errInvalidOperator(key, op string) error {
	return &MediaQueryError{Kind: "InvalidOperator", Message: fmt.Sprintf("invalid operator %q for %q", op, key)}
}

func errInvalidPage() error {
	return &MediaQueryError{Kind: "InvalidPage", Message: "page requires limit and must appear last"}
}
