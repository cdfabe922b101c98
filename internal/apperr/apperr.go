// Package apperr carries an error's HTTP-relevant kind through return values so
// the HTTP boundary can translate it to a status code without re-deriving it
// from error text (§5: validation -> 400, not-found -> 404, busy -> 409,
// everything else -> 500 with a sanitized message). Grounded on the teacher's
// internal/api/response.go status-helper set (GinBadRequest/GinNotFound/...),
// generalized from one-call-site-per-status into a typed error carrying its
// own status.
package apperr

import "errors"

type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindBusy       Kind = "busy"
	KindInternal   Kind = "internal"
)

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error  { return e.Err }

func Validation(err error) error { return &Error{Kind: KindValidation, Err: err} }
func NotFound(err error) error   { return &Error{Kind: KindNotFound, Err: err} }
func Busy(err error) error       { return &Error{Kind: KindBusy, Err: err} }

// KindOf unwraps err looking for an *Error; an error that never passed through
// one of the constructors above is treated as KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
