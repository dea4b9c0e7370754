package stdout

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hejijunhao/calltrace/internal/model"
)

func testEvent() model.Event {
	msg := "order 42 placed"
	begin := time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC)
	return model.Event{
		Kind:    model.End,
		Owner:   "OrderService",
		Method:  "Place",
		CallID:  "d41d8cd98f00b204e9800998ecf8427e",
		Begin:   begin,
		End:     begin.Add(time.Second),
		Message: &msg,
	}
}

// captureStdout redirects os.Stdout to capture output.
func captureStdout(fn func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestOutputWritesOneLine(t *testing.T) {
	result := captureStdout(func() {
		out := New()
		out.Write(context.Background(), testEvent())
	})

	lines := strings.Split(strings.TrimSuffix(result, "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "| d41d8c | END | OrderService#Place") {
		t.Fatalf("unexpected line: %q", lines[0])
	}
	if !strings.HasSuffix(lines[0], " 1 |") {
		t.Fatalf("expected duration column, got %q", lines[0])
	}
}

func TestOutputFlushesEveryLine(t *testing.T) {
	var buf bytes.Buffer
	out := New(WithWriter(&buf))

	out.Write(context.Background(), testEvent())
	if buf.Len() == 0 {
		t.Fatal("line should be flushed without waiting for Close")
	}
	first := buf.Len()

	out.Write(context.Background(), testEvent())
	if buf.Len() != 2*first {
		t.Fatalf("second line not flushed: %d bytes, want %d", buf.Len(), 2*first)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestOutputReportsWriteError(t *testing.T) {
	out := New(WithWriter(failingWriter{}))
	err := out.Write(context.Background(), testEvent())
	if err == nil {
		t.Fatal("expected error from failing writer")
	}
	if !strings.Contains(err.Error(), "stdout output") {
		t.Fatalf("error should name the output, got %v", err)
	}
}
