package model

import "time"

// Kind identifies which call line an Event produces.
type Kind int

const (
	Begin Kind = iota
	End
	Exception
)

// String returns the three-letter tag written in the kind column.
func (k Kind) String() string {
	switch k {
	case End:
		return "END"
	case Exception:
		return "EXC"
	default:
		return "BEG"
	}
}

// Event is one call line: the start, the end or the failure of an
// instrumented call. Events are written once and never retained.
type Event struct {
	Kind   Kind
	Owner  string    // owner type name
	Method string    // method name
	CallID string    // correlates the lines of one invocation
	Begin  time.Time // call start
	End    time.Time // call end, End events only

	// Message is the rendered template, nil when the method has none.
	Message *string

	ExceptionType    string
	ExceptionMessage string
	Stack            []string
}

// Signature returns "Owner#Method".
func (e Event) Signature() string {
	return e.Owner + "#" + e.Method
}

// Duration is the elapsed time between Begin and End.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Begin)
}
