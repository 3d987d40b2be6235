package scriptorderapi

import (
	"errors"
	"fmt"
	"strings"
)

const (
	EcodeCycleDetected      = "scriptorder-error-cycle-detected"
	EcodeInvalidReference   = "scriptorder-error-invalid-reference"
	EcodeManifestUnparsable = "scriptorder-error-manifest-unparsable"
	EcodeManifestInvalid    = "scriptorder-error-manifest-invalid"
	EcodeManifestEval       = "scriptorder-error-manifest-eval"
	EcodeUsage              = "scriptorder-error-usage"
	EcodeIO                 = "scriptorder-error-io"
)

// Sentinels for use with errors.Is.  Matching is by code only,
// so any error carrying the same code matches, whatever its details.
var (
	ErrCycleDetected    = &Error{code: EcodeCycleDetected}
	ErrInvalidReference = &Error{code: EcodeInvalidReference}
)

// Error is the error type returned by every package in scriptorder.
// It carries a stable machine-readable code, a human-readable message,
// an optional cause, and ordered key/value details.
//
// Callers should branch on the code (see Code, or errors.Is with the sentinels),
// never on the message text.
type Error struct {
	code    string
	message string
	cause   error
	details [][2]string
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.message
	}
	return e.message + ": " + e.cause.Error()
}

func (e *Error) Code() string    { return e.code }
func (e *Error) Message() string { return e.message }
func (e *Error) Unwrap() error   { return e.cause }

// Details returns the key/value pairs attached to the error, in the order they were attached.
func (e *Error) Details() [][2]string { return e.details }

// Detail looks up a single detail value by key.
func (e *Error) Detail(key string) (string, bool) {
	for _, kv := range e.details {
		if kv[0] == key {
			return kv[1], true
		}
	}
	return "", false
}

// Is reports code equality, which is what makes the sentinels work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.code == t.code
}

// Code returns the code of the first *Error in err's chain, or "" if there is none.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return ""
}

// ErrorCycleDetected is an error constructor.
// The message is fixed and does not enumerate the cycle; resolve.Cycles does that.
//
// Errors:
//
//   - scriptorder-error-cycle-detected -- always this.
func ErrorCycleDetected() error {
	return &Error{
		code:    EcodeCycleDetected,
		message: "There are circular dependencies in the scripts",
	}
}

// ErrorInvalidReference is an error constructor, for a script depending on an id that no script has.
//
// Errors:
//
//   - scriptorder-error-invalid-reference -- always this.
func ErrorInvalidReference(scriptID, dependencyID int) error {
	return &Error{
		code:    EcodeInvalidReference,
		message: fmt.Sprintf("script %d depends on unknown script %d", scriptID, dependencyID),
		details: [][2]string{
			{"script", fmt.Sprint(scriptID)},
			{"dependency", fmt.Sprint(dependencyID)},
		},
	}
}

// ErrorManifestParse is an error constructor.
//
// Errors:
//
//   - scriptorder-error-manifest-unparsable -- always this.
func ErrorManifestParse(cause error, filename string, phase string) error {
	return &Error{
		code:    EcodeManifestUnparsable,
		message: fmt.Sprintf("manifest %q unparsable (phase=%s)", filename, phase),
		cause:   cause,
		details: [][2]string{
			{"filename", filename},
			{"phase", phase},
		},
	}
}

// ErrorManifestEval is an error constructor, for manifests that parse but fail while executing.
//
// Errors:
//
//   - scriptorder-error-manifest-eval -- always this.
func ErrorManifestEval(cause error, filename string) error {
	return &Error{
		code:    EcodeManifestEval,
		message: fmt.Sprintf("manifest %q failed to evaluate", filename),
		cause:   cause,
		details: [][2]string{
			{"filename", filename},
		},
	}
}

// ErrorManifestInvalid is an error constructor, for manifests that evaluate fine
// but describe something that isn't a valid script set (duplicate ids, missing ids, unknown file kinds).
// The position is optional; pass "" when there isn't one.
//
// Errors:
//
//   - scriptorder-error-manifest-invalid -- always this.
func ErrorManifestInvalid(filename string, position string, reason string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "manifest %q", filename)
	if position != "" {
		sb.WriteString(" at ")
		sb.WriteString(position)
	}
	sb.WriteString(" is invalid: ")
	sb.WriteString(reason)
	e := &Error{
		code:    EcodeManifestInvalid,
		message: sb.String(),
		details: [][2]string{{"filename", filename}},
	}
	if position != "" {
		e.details = append(e.details, [2]string{"position", position})
	}
	return e
}

// ErrorUsage is an error constructor, for bad command line input that the CLI parser itself can't catch.
//
// Errors:
//
//   - scriptorder-error-usage -- always this.
func ErrorUsage(format string, args ...interface{}) error {
	return &Error{
		code:    EcodeUsage,
		message: fmt.Sprintf(format, args...),
	}
}

// ErrorIO is an error constructor.
//
// Errors:
//
//   - scriptorder-error-io -- always this.
func ErrorIO(cause error, op string) error {
	return &Error{
		code:    EcodeIO,
		message: "io failure during " + op,
		cause:   cause,
		details: [][2]string{{"op", op}},
	}
}
