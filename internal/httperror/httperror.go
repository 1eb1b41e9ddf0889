// Package httperror is the pipeline's phase-failure error type: the HTTP
// status and a stable code every phase (C1, C4, C6, C9, C10) attaches to
// the error it returns, so the orchestrator and cmd/httpd's handler never
// need to inspect a phase's internals to know what status to write.
// Grounded on the teacher's caddyhttp.HandlerError (errors.go), trimmed to
// this module's needs: no request ID/trace, since C9 already stamps every
// request with its own correlation ID (request.go).
package httperror

import "fmt"

// Error carries the status a phase failure should produce, a stable code
// for logging/metrics, and the underlying cause, if any.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with no wrapped cause, the code derived from msg.
func New(status int, msg string) error {
	return &Error{Status: status, Code: msg}
}

// Wrap builds an Error around an existing error, preserving it for
// errors.Is/As while attaching the status and code this phase wants
// reported.
func Wrap(status int, msg string, err error) error {
	return &Error{Status: status, Code: msg, Err: err}
}

// Forbidden is the common case of a symlink/directory-walk failure that
// should always surface as 403, regardless of the underlying os error.
func Forbidden(msg string, err error) error {
	return Wrap(403, msg, err)
}

// statusCarrier is any error that knows its own HTTP status through a
// method rather than this package's Error struct — basicauth's
// unauthorizedError, for one, which predates a 401 having anywhere else
// to live.
type statusCarrier interface {
	Status() int
}

// StatusOf reports the HTTP status an error should produce, defaulting to
// 500 for an error with no status information at all.
func StatusOf(err error) int {
	if err == nil {
		return 200
	}
	if he, ok := err.(*Error); ok {
		return he.Status
	}
	if sc, ok := err.(statusCarrier); ok {
		return sc.Status()
	}
	return 500
}

// CodeOf reports the stable code an error should be logged under,
// defaulting to "internal_error" for an error this package does not
// recognize.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	if he, ok := err.(*Error); ok {
		return he.Code
	}
	return "internal_error"
}
