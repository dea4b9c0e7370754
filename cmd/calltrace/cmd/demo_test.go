package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hejijunhao/calltrace/internal/config"
)

func TestRunDemo(t *testing.T) {
	demoCalls, demoWorkers = 12, 3
	defer func() { demoCalls, demoWorkers = 20, 4 }()

	var buf bytes.Buffer
	cfg := config.Config{
		Sink:    config.SinkConfig{DrainTimeout: time.Second},
		Metrics: config.MetricsConfig{Enabled: true, Namespace: "demo"},
	}
	if err := runDemo(context.Background(), cfg, &buf); err != nil {
		t.Fatalf("runDemo: %v", err)
	}

	out := buf.String()
	for _, sig := range []string{"Calculator#Add", "Calculator#Div", "OrderService#Place", "OrderService#Audit"} {
		if !strings.Contains(out, sig) {
			t.Errorf("output missing %s lines:\n%s", sig, out)
		}
	}
	if got := strings.Count(out, "| BEG |"); got < 12 {
		t.Errorf("got %d BEG lines, want at least 12", got)
	}
}

func TestVersion(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "calltrace version dev") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
