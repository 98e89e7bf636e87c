package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/odvcencio/livestate/inspect"
	"github.com/odvcencio/livestate/metrics"
	"github.com/odvcencio/livestate/scenario"
	"github.com/odvcencio/livestate/state"
	"github.com/odvcencio/livestate/tracing"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Color   bool
	Metrics bool
	Trace   bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario and print its lifecycle trace",
		Long: `Run builds the scenario's state graph, executes every step, and prints
each setup, update, and teardown callback in the order it fired.

Example:
  statectl run examples/scenarios/counter.yaml
  statectl run --format json --color examples/scenarios/counter.yaml
  statectl run --metrics --trace examples/scenarios/diamond.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Color, "color", rootOpts.Config.Color, "highlight JSON output")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print Prometheus metrics collected during the run")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print OpenTelemetry spans recorded during the run")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	logger := opts.newLogger(cmd.ErrOrStderr())

	sc, err := scenario.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	var observers []state.Observer
	var registry *prometheus.Registry
	if opts.Metrics {
		registry = prometheus.NewRegistry()
		observers = append(observers, metrics.New(metrics.WithRegistry(registry)))
	}
	var recorder *tracetest.SpanRecorder
	if opts.Trace {
		recorder = tracetest.NewSpanRecorder()
		provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
		defer func() {
			_ = provider.Shutdown(cmd.Context())
		}()
		observers = append(observers, tracing.New(tracing.WithTracerProvider(provider)))
	}

	runOpts := []scenario.Option{scenario.WithLogger(logger)}
	if len(observers) > 0 {
		runOpts = append(runOpts, scenario.WithObserver(state.NewMultiObserver(observers...)))
	}

	logger.Info("running scenario", "scenario", sc.Name, "states", len(sc.States), "steps", len(sc.Steps))
	result, err := scenario.Run(sc, runOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	if opts.Format == "json" {
		err = writeJSON(out, result, opts.Color)
	} else {
		err = writeTrace(out, result)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}

	if registry != nil {
		if err := writeMetrics(out, registry); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
	}
	if recorder != nil {
		writeSpans(out, recorder.Ended())
	}

	if !result.Passed() {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %q failed: %d expectation(s) did not hold", sc.Name, len(result.Failures)))
	}
	return nil
}

func writeTrace(w io.Writer, result *scenario.Result) error {
	var b strings.Builder
	for _, e := range result.Trace {
		fmt.Fprintf(&b, "%4d  step %-3d %-12s %-9s", e.Seq, e.Step, e.State, e.Type)
		switch e.Type {
		case scenario.TraceSetup:
			fmt.Fprintf(&b, " %s", inspect.FormatValue(e.Next))
		case scenario.TraceUpdate:
			fmt.Fprintf(&b, " %s <- %s", inspect.FormatValue(e.Next), inspect.FormatValue(e.Prev))
		case scenario.TraceRejected:
			fmt.Fprintf(&b, " %s", e.Error)
		}
		b.WriteString("\n")
	}
	for _, f := range result.Failures {
		fmt.Fprintf(&b, "FAIL  step %d: %s\n", f.Step, f.Message)
	}
	status := "PASS"
	if !result.Passed() {
		status = "FAIL"
	}
	fmt.Fprintf(&b, "%s  %s (%d events)\n", status, result.Scenario, len(result.Trace))
	_, err := io.WriteString(w, b.String())
	return err
}

func writeJSON(w io.Writer, result *scenario.Result, color bool) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	data = append(data, '\n')
	if !color {
		_, err = w.Write(data)
		return err
	}
	if err := quick.Highlight(w, string(data), "json", "terminal256", "monokai"); err != nil {
		return fmt.Errorf("highlight: %w", err)
	}
	return nil
}

func writeMetrics(w io.Writer, registry *prometheus.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// writeSpans prints spans in start order, indented by nesting depth.
func writeSpans(w io.Writer, spans []sdktrace.ReadOnlySpan) {
	sorted := make([]sdktrace.ReadOnlySpan, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime().Before(sorted[j].StartTime())
	})

	parents := make(map[trace.SpanID]trace.SpanID, len(sorted))
	for _, span := range sorted {
		parents[span.SpanContext().SpanID()] = span.Parent().SpanID()
	}
	depth := func(id trace.SpanID) int {
		d := 0
		for {
			parent, ok := parents[id]
			if !ok || !parent.IsValid() {
				return d
			}
			d++
			id = parent
		}
	}

	for _, span := range sorted {
		label := ""
		for _, kv := range span.Attributes() {
			if kv.Key == "state.label" {
				label = kv.Value.AsString()
			}
		}
		indent := strings.Repeat("  ", depth(span.SpanContext().SpanID()))
		fmt.Fprintf(w, "%s%s %s %s\n", indent, span.Name(), label, span.EndTime().Sub(span.StartTime()))
	}
}
