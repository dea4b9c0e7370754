package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hejijunhao/calltrace/internal/model"
)

const (
	commonFormat    = "%s | %-6.6s | %-3.3s | %-40s "
	beginFormat     = commonFormat + "| %-40s |"
	endFormat       = beginFormat + " %s |"
	exceptionFormat = commonFormat + "| %-40s | %-40s | \n%s |"

	timeLayout = "2006-01-02 15:04:05"
)

// FormatLine renders an event as a fixed-width, pipe-separated call line.
// Begin and Exception lines are stamped with the call start, End lines with
// the call end. Exception lines carry the stack trace on the following lines.
func FormatLine(e model.Event) string {
	switch e.Kind {
	case model.End:
		return fmt.Sprintf(endFormat,
			Timestamp(e.End), e.CallID, e.Kind, e.Signature(),
			message(e), Seconds(e.Duration()))
	case model.Exception:
		return fmt.Sprintf(exceptionFormat,
			Timestamp(e.Begin), e.CallID, e.Kind, e.Signature(),
			e.ExceptionType, e.ExceptionMessage, strings.Join(e.Stack, "\n"))
	default:
		return fmt.Sprintf(beginFormat,
			Timestamp(e.Begin), e.CallID, e.Kind, e.Signature(), message(e))
	}
}

// Timestamp formats t as "YYYY-MM-DD HH:MM:SS:mmm".
func Timestamp(t time.Time) string {
	return fmt.Sprintf("%s:%03d", t.Format(timeLayout), t.Nanosecond()/int(time.Millisecond))
}

// Seconds renders a duration as decimal seconds with no rounding.
func Seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

func message(e model.Event) string {
	if e.Message == nil {
		return ""
	}
	return *e.Message
}
