// Package calltrace instruments functions so that every call is timed,
// correlated with a call id, optionally described by a message template and
// written as text lines: BEG when the call starts, END with its duration
// when it returns, EXC when it fails.
//
// Methods are declared as function fields of a struct, the method table.
// Register replaces the selected fields with instrumented versions:
//
//	type Calculator struct {
//	    Add func(a, b int) int `calltrace:"a,b"`
//	    Div func(a, b int) (int, error) `calltrace:"a,b"`
//	}
//
//	t := calltrace.New()
//	defer t.Close()
//
//	calc := &Calculator{Add: add, Div: div}
//	err := t.Register(calc,
//	    calltrace.Method("Add"), "sum of {a} and {b} is {return}",
//	    calltrace.Method("Div"),
//	)
//
// Calling calc.Add(2, 3) returns 5 and writes two lines to stdout:
//
//	2026-02-19 12:00:00:042 | 5d41a4 | BEG | Calculator#Add | sum of 2 and 3 is  |
//	2026-02-19 12:00:00:042 | 5d41a4 | END | Calculator#Add | sum of 2 and 3 is 5 | 0.000012 |
//
// (columns are padded to fixed widths in real output).
//
// A non-nil trailing error result and a panic are both written as EXC lines
// with the error type, message and stack trace. The caller still gets the
// identical error or panic value.
//
// Lines are written by a single background goroutine; calls never wait for
// them. Close flushes everything submitted so far.
package calltrace
