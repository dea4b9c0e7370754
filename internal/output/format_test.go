package output

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hejijunhao/calltrace/internal/model"
)

func strPtr(s string) *string { return &s }

func baseEvent() model.Event {
	begin := time.Date(2026, 2, 19, 12, 0, 0, 42*int(time.Millisecond), time.UTC)
	return model.Event{
		Kind:    model.Begin,
		Owner:   "Calculator",
		Method:  "Add",
		CallID:  "0cc175b9c0f1b6a831c399e269772661",
		Begin:   begin,
		End:     begin.Add(250 * time.Millisecond),
		Message: strPtr("sum of 2 and 3 is 5"),
	}
}

func TestTimestamp(t *testing.T) {
	ts := time.Date(2026, 2, 19, 7, 5, 9, 7*int(time.Millisecond)+999, time.UTC)
	if got, want := Timestamp(ts), "2026-02-19 07:05:09:007"; got != want {
		t.Fatalf("Timestamp = %q, want %q", got, want)
	}
}

func TestSeconds(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "0.25"},
		{2 * time.Second, "2"},
		{1500 * time.Microsecond, "0.0015"},
		{0, "0"},
	}
	for _, tt := range tests {
		if got := Seconds(tt.d); got != tt.want {
			t.Errorf("Seconds(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatBegin(t *testing.T) {
	got := FormatLine(baseEvent())
	want := "2026-02-19 12:00:00:042 | 0cc175 | BEG | " +
		fmt.Sprintf("%-40s", "Calculator#Add") +
		" | " + fmt.Sprintf("%-40s", "sum of 2 and 3 is 5") + " |"
	if got != want {
		t.Fatalf("FormatLine(begin)\n got: %q\nwant: %q", got, want)
	}
}

func TestFormatEnd(t *testing.T) {
	e := baseEvent()
	e.Kind = model.End
	got := FormatLine(e)

	if !strings.HasPrefix(got, "2026-02-19 12:00:00:292 | 0cc175 | END | ") {
		t.Fatalf("End line should be stamped with the end time, got %q", got)
	}
	if !strings.HasSuffix(got, "| "+fmt.Sprintf("%-40s", "sum of 2 and 3 is 5")+" | 0.25 |") {
		t.Fatalf("End line should end with message and duration, got %q", got)
	}
}

func TestFormatNilMessageIsBlank(t *testing.T) {
	e := baseEvent()
	e.Message = nil
	got := FormatLine(e)
	if !strings.HasSuffix(got, "| "+strings.Repeat(" ", 40)+" |") {
		t.Fatalf("expected a blank message column, got %q", got)
	}
}

func TestFormatException(t *testing.T) {
	e := baseEvent()
	e.Kind = model.Exception
	e.ExceptionType = "*errors.errorString"
	e.ExceptionMessage = "boom"
	e.Stack = []string{"main.fail /src/main.go:10", "main.main /src/main.go:3"}

	got := FormatLine(e)
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 stack lines, got %d: %q", len(lines), got)
	}
	if !strings.HasPrefix(lines[0], "2026-02-19 12:00:00:042 | 0cc175 | EXC | Calculator#Add") {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[0], "| *errors.errorString") || !strings.Contains(lines[0], "| boom ") {
		t.Fatalf("header missing exception columns: %q", lines[0])
	}
	if !strings.HasSuffix(lines[0], "| ") {
		t.Fatalf("header should end with the trailing pipe, got %q", lines[0])
	}
	if lines[2] != "main.main /src/main.go:3 |" {
		t.Fatalf("unexpected last stack line: %q", lines[2])
	}
}

func TestFormatPadsShortHash(t *testing.T) {
	e := baseEvent()
	e.CallID = "ab"
	got := FormatLine(e)
	if !strings.Contains(got, " | ab     | BEG | ") {
		t.Fatalf("short hash should be padded to 6, got %q", got)
	}
}

func TestFormatLongSignatureNotTruncated(t *testing.T) {
	e := baseEvent()
	e.Owner = strings.Repeat("X", 45)
	got := FormatLine(e)
	if !strings.Contains(got, e.Signature()+" | ") {
		t.Fatalf("signature wider than the column must be kept whole, got %q", got)
	}
}
