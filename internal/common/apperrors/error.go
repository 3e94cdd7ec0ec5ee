// Package apperrors provides the application error type used across labelsrv.
// Errors form a hierarchy: a derived error created with New satisfies
// errors.Is against every ancestor, so handlers can classify failures by
// comparing against the package-level sentinel values each layer exports.
package apperrors

// Error is the error type returned by services and stores. It carries an
// HTTP status code and can wrap collaborator errors while remaining
// comparable against the sentinel it was derived from.
type Error interface {
	Error() string
	ErrorAll() string
	New(msg string) Error
	Msg(msg string) Error
	MsgErr(msg string, err ...error) Error
	Err(err ...error) Error
	Unwrap() []error
	Is(target error) bool
	SetStatusCode(code int) Error
	StatusCode() int
}
