// Package apperror defines the closed set of error kinds that flow out of
// the kernel, and the single error type that carries them. Business layers
// translate store errors and credential failures into one of these kinds,
// and package response maps them onto HTTP statuses. The OAuth2/OIDC
// handlers in package oauth2 do not use these kinds: they report fosite's
// own RFC 6749 errors, as a JSON 400 body or a redirect depending on where
// in the flow the error was discovered.
package apperror

import "fmt"

// Kind is a closed enum: every error the kernel returns to a caller is one
// of these. Adding a new kind means deciding its HTTP status — see statusFor
// in package response.
type Kind string

const (
	KindValidation              Kind = "validation"
	KindUnauthenticated         Kind = "unauthenticated"
	KindForbidden               Kind = "forbidden"
	KindNotFound                Kind = "not_found"
	KindConflict                Kind = "conflict"
	KindExpired                 Kind = "expired"
	KindInvalidGrant            Kind = "invalid_grant"
	KindInvalidClient           Kind = "invalid_client"
	KindUnsupportedGrantType    Kind = "unsupported_grant_type"
	KindUnsupportedResponseType Kind = "unsupported_response_type"
	KindInvalidScope            Kind = "invalid_scope"
	KindInvalidRequest          Kind = "invalid_request"
	KindInternal                Kind = "internal"
	KindUnavailable             Kind = "unavailable"
)

// Error is the single error type produced anywhere in the kernel. Message
// is deliberately coarse for anything user-visible; Cause carries the full
// context for logging and is never serialized to a caller.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches kind and a user-facing message to an underlying cause,
// keeping the cause available to logging via errors.Unwrap/As but never
// exposing it in the message returned to callers.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// As extracts an *Error from err, if any wraps one.
func As(err error) (*Error, bool) {
	ae, ok := err.(*Error)
	if ok {
		return ae, true
	}
	type unwrapper interface{ Unwrap() error }
	for u, ok := err.(unwrapper); ok; u, ok = err.(unwrapper) {
		err = u.Unwrap()
		if ae, ok := err.(*Error); ok {
			return ae, true
		}
	}
	return nil, false
}

// KindOf returns the Kind of err, defaulting to KindInternal for anything
// that isn't an *Error — an un-translated error reaching a handler boundary
// is itself a bug, but must never crash the request.
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return KindInternal
}

// Unauthenticated collapses any credential-verification failure into one
// generic outcome. Never pass along which specific check failed — spec §1.4
// requires authentication failures to be indistinguishable to the caller.
func Unauthenticated() *Error {
	return New(KindUnauthenticated, "authentication failed")
}
