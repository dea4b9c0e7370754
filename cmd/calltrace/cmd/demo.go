package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hejijunhao/calltrace/internal/config"
	"github.com/hejijunhao/calltrace/internal/demo"
	"github.com/hejijunhao/calltrace/internal/server"
	"github.com/hejijunhao/calltrace/pkg/calltrace"
)

var (
	demoCalls   int
	demoWorkers int
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run an instrumented demo workload",
	Long: `demo registers a Calculator and an OrderService, then calls them from
several goroutines. Some calls succeed, some return errors and some panic.
Call lines go to stdout, diagnostics to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runDemo(ctx, config.FromViper(v), cmd.OutOrStdout())
	},
}

func init() {
	flags := demoCmd.Flags()
	flags.IntVarP(&demoCalls, "calls", "n", 20, "number of calls to make")
	flags.IntVarP(&demoWorkers, "workers", "w", 4, "number of calling goroutines")
	flags.String("metrics-addr", "", "serve /metrics on this address while running (implies metrics)")
	flags.Bool("metrics", false, "record Prometheus call metrics")
	flags.String("metrics-namespace", "calltrace", "metric name prefix")
	flags.Duration("drain-timeout", 0, "max time to wait for pending lines at exit (default 5s)")

	v.BindPFlag("metrics_addr", flags.Lookup("metrics-addr"))
	v.BindPFlag("metrics", flags.Lookup("metrics"))
	v.BindPFlag("metrics_namespace", flags.Lookup("metrics-namespace"))
	v.BindPFlag("drain_timeout", flags.Lookup("drain-timeout"))

	rootCmd.AddCommand(demoCmd)
}

func runDemo(ctx context.Context, cfg config.Config, out io.Writer) error {
	opts := []calltrace.Option{
		calltrace.WithWriter(out),
		calltrace.WithDrainTimeout(cfg.Sink.DrainTimeout),
	}

	var reg *prometheus.Registry
	if cfg.Metrics.Enabled || cfg.Metrics.Addr != "" {
		reg = prometheus.NewRegistry()
		opts = append(opts, calltrace.WithMetrics(reg, cfg.Metrics.Namespace))
	}

	tracer := calltrace.New(opts...)
	defer tracer.Close()

	calc, svc := demo.NewCalculator(), demo.NewOrderService()
	if err := demo.Register(tracer, calc, svc); err != nil {
		return err
	}

	var serverDone chan error
	if cfg.Metrics.Addr != "" {
		srvCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		serverDone = make(chan error, 1)
		go func() {
			serverDone <- server.Serve(srvCtx, cfg.Metrics.Addr, server.NewRouter(reg))
		}()
	}

	log := logrus.WithFields(logrus.Fields{"calls": demoCalls, "workers": demoWorkers})
	log.Info("demo starting")
	n := demo.Run(ctx, calc, svc, demoCalls, demoWorkers)
	log.WithField("done", n).Info("demo finished")

	if serverDone != nil {
		// Keep serving until interrupted so the final metrics can be scraped.
		log.Info("serving metrics until interrupted")
		select {
		case err := <-serverDone:
			return err
		case <-ctx.Done():
		}
		return <-serverDone
	}
	return nil
}
