// Package rcn holds the pure RCN engine rules: tier boundaries, earning-cap
// math, the redemption decision, session transitions and promo validation.
// Nothing in this package touches the database; the services layer wraps
// these rules in row-locked transactions.
package rcn

import "errors"

// Kind classifies expected business failures. Anything outside this taxonomy
// is an infrastructure error and propagates as-is.
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindValidation    Kind = "validation_error"
	KindLimitExceeded Kind = "limit_exceeded"
	KindConflict      Kind = "conflict"
	KindExpiredState  Kind = "expired_state"
	KindUnauthorized  Kind = "unauthorized"
)

// Error is a structured business-rule failure.
type Error struct {
	Kind    Kind           `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// WithDetail attaches a detail field and returns the error for chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

func NotFound(msg string) *Error      { return &Error{Kind: KindNotFound, Message: msg} }
func Validation(msg string) *Error    { return &Error{Kind: KindValidation, Message: msg} }
func LimitExceeded(msg string) *Error { return &Error{Kind: KindLimitExceeded, Message: msg} }
func Conflict(msg string) *Error      { return &Error{Kind: KindConflict, Message: msg} }
func ExpiredState(msg string) *Error  { return &Error{Kind: KindExpiredState, Message: msg} }
func Unauthorized(msg string) *Error  { return &Error{Kind: KindUnauthorized, Message: msg} }

// KindOf extracts the business kind of err, or "" for infrastructure errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
