package scenario

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/odvcencio/livestate/state"
)

// Trace event types.
const (
	TraceSetup    = "setup"
	TraceUpdate   = "update"
	TraceTeardown = "teardown"
	TraceRejected = "rejected"
)

// TraceEvent is one lifecycle callback observed during a run.
// Step is 0 while the graph is being built.
type TraceEvent struct {
	Seq   int    `json:"seq"`
	Step  int    `json:"step"`
	State string `json:"state"`
	Type  string `json:"type"`
	Next  any    `json:"next,omitempty"`
	Prev  any    `json:"prev,omitempty"`
	Error string `json:"error,omitempty"`
}

// Failure is an expectation that did not hold.
type Failure struct {
	Step    int    `json:"step"`
	Message string `json:"message"`
}

// Result is the outcome of a scenario run.
type Result struct {
	Scenario string         `json:"scenario"`
	Trace    []TraceEvent   `json:"trace"`
	Final    map[string]any `json:"final"`
	Failures []Failure      `json:"failures,omitempty"`

	// States holds a snapshot of every state after the last step, in
	// declaration order.
	States []state.Info `json:"-"`
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// Option configures a run.
type Option func(*runner)

// WithLogger sets the logger used for run progress and state diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *runner) {
		r.logger = logger
	}
}

// WithObserver attaches an observer to every state of the graph.
func WithObserver(observer state.Observer) Option {
	return func(r *runner) {
		r.observer = observer
	}
}

type node struct {
	name     string
	readable state.Readable[any]
	writable state.Writable[any]
}

type runner struct {
	logger   *slog.Logger
	observer state.Observer

	nodes  map[string]*node
	order  []*node
	subs   state.Subscriptions
	step   int
	result *Result
}

// Run builds the scenario graph, executes its steps, and tears the graph
// down. Expectation mismatches are reported in Result.Failures; the error is
// reserved for scenarios that cannot run.
func Run(sc *Scenario, opts ...Option) (*Result, error) {
	if sc == nil {
		return nil, fmt.Errorf("%w: nil scenario", ErrInvalid)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	r := &runner{
		logger: slog.Default(),
		nodes:  make(map[string]*node, len(sc.States)),
		result: &Result{
			Scenario: sc.Name,
			Final:    make(map[string]any, len(sc.States)),
		},
	}
	for _, opt := range opts {
		opt(r)
	}

	r.logger.Debug("building scenario graph", "scenario", sc.Name, "states", len(sc.States))
	for _, spec := range sc.States {
		r.build(spec)
	}
	for i, step := range sc.Steps {
		r.step = i + 1
		r.run(step)
	}

	for _, n := range r.order {
		r.result.Final[n.name] = n.readable.Peek()
		r.result.States = append(r.result.States, n.readable.Describe())
	}
	r.subs.Clear()
	for _, n := range r.order {
		n.readable.Teardown()
	}
	r.logger.Debug("scenario finished", "scenario", sc.Name, "failures", len(r.result.Failures))
	return r.result, nil
}

func (r *runner) options(spec StateSpec) []state.Option {
	label := spec.Label
	if label == "" {
		label = spec.Name
	}
	opts := []state.Option{state.WithLabel(label), state.WithLogger(r.logger)}
	if r.observer != nil {
		opts = append(opts, state.WithObserver(r.observer))
	}
	return opts
}

func (r *runner) build(spec StateSpec) {
	n := &node{name: spec.Name}
	switch {
	case spec.Root != nil:
		root := state.Of[any](spec.Root, r.options(spec)...)
		n.readable, n.writable = root, root
	case spec.Map != nil:
		op := mapOps[spec.Map.Op]
		arg := spec.Map.Arg
		d := state.Map(r.nodes[spec.Map.From].readable, func(v any) any {
			return op(v, arg)
		}, r.options(spec)...)
		n.readable, n.writable = d, d
	case spec.Combine != nil:
		op := combineOps[spec.Combine.Op]
		d := state.Combine(r.nodes[spec.Combine.A].readable, r.nodes[spec.Combine.B].readable, func(a, b any) any {
			return op(a, b)
		}, r.options(spec)...)
		n.readable, n.writable = d, d
	}
	r.nodes[spec.Name] = n
	r.order = append(r.order, n)

	state.Track(&r.subs, n.readable, state.Lifecycle[any]{
		Setup: func() {
			r.record(TraceEvent{State: n.name, Type: TraceSetup, Next: n.readable.Peek()})
		},
		Update: func(next, prev any) {
			r.record(TraceEvent{State: n.name, Type: TraceUpdate, Next: next, Prev: prev})
		},
		Teardown: func() {
			r.record(TraceEvent{State: n.name, Type: TraceTeardown})
		},
	})
}

func (r *runner) run(step Step) {
	switch {
	case step.Update != "":
		n := r.nodes[step.Update]
		err := n.writable.Update(step.Value)
		if err != nil {
			r.record(TraceEvent{State: n.name, Type: TraceRejected, Next: step.Value, Error: err.Error()})
		}
		r.checkError(step, err)
	case step.Teardown != "":
		r.nodes[step.Teardown].readable.Teardown()
	}

	for _, name := range sortedKeys(step.Expect) {
		want := step.Expect[name]
		got := r.nodes[name].readable.Peek()
		if !reflect.DeepEqual(normalize(got), normalize(want)) {
			r.fail("state %q = %v, want %v", name, got, want)
		}
	}
	for _, name := range step.ExpectTornDown {
		if !r.nodes[name].readable.TornDown() {
			r.fail("state %q is active, want torn down", name)
		}
	}
}

func (r *runner) checkError(step Step, err error) {
	if step.ExpectError == "" {
		if err != nil {
			r.fail("update %q: unexpected error: %v", step.Update, err)
		}
		return
	}
	want := expectedErrors[step.ExpectError]
	if !errors.Is(err, want) {
		r.fail("update %q: error = %v, want %v", step.Update, err, want)
	}
}

func (r *runner) record(event TraceEvent) {
	event.Seq = len(r.result.Trace) + 1
	event.Step = r.step
	r.result.Trace = append(r.result.Trace, event)
}

func (r *runner) fail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.logger.Debug("expectation failed", "step", r.step, "message", msg)
	r.result.Failures = append(r.result.Failures, Failure{Step: r.step, Message: msg})
}
