// Package coreerrors defines the error kinds the core surfaces to callers,
// per the error handling design: most failures are recovered locally
// (fallback chains, heuristics) and only a small set of kinds ever escape
// a search.
package coreerrors

import "errors"

// Kind identifies one of the error kinds observable outside the core.
type Kind string

const (
	KindInvalidInput            Kind = "InvalidInput"
	KindPromptInjection         Kind = "PromptInjection"
	KindModelUnavailable        Kind = "ModelUnavailable"
	KindToolExecution           Kind = "ToolExecution"
	KindContentGuardAllFiltered Kind = "ContentGuardAllFiltered"
	KindMemoryDegraded          Kind = "MemoryDegraded"
	KindSearchFailed            Kind = "SearchFailed"
	KindTimeout                 Kind = "Timeout"
)

// Error wraps an underlying cause with one of the core's error kinds.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Msg + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func (k Kind) String() string { return string(k) }

// New constructs a *Error of the given kind.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap constructs a *Error of the given kind around an underlying cause.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Is reports whether err carries the given Kind, looking through wrapping.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Sentinel values for errors.Is-style comparisons where no extra context is needed.
var (
	ErrModelUnavailable = New(KindModelUnavailable, "model unavailable")
	ErrTimeout          = New(KindTimeout, "deadline exceeded")
	ErrSearchFailed     = New(KindSearchFailed, "search could not produce a best-effort solution")
)
