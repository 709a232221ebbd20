package playground

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/kbukum/flowkit/dispatch"
	goerrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/observability"
)

// Env carries the resources scenarios run with.
type Env struct {
	// IO is the dispatcher the scheduling scenario shifts production onto.
	// nil means dispatch.IO().
	IO dispatch.Dispatcher
	// Bridge configures the callback scenario's bridge.
	Bridge flow.BridgeConfig
	// Metrics, when set, records every scenario collection.
	Metrics *observability.Metrics
}

func (e Env) io() dispatch.Dispatcher {
	if e.IO == nil {
		return dispatch.IO()
	}
	return e.IO
}

// Scenario is a named demonstration that renders as a flow of output lines.
type Scenario struct {
	Name        string
	Description string
	build       func(env Env) *flow.Flow[string]
}

// Flow returns the scenario's lines. The flow is cold: every collection
// replays the scenario from the start.
func (s Scenario) Flow(env Env) *flow.Flow[string] {
	return observability.Observe(s.build(env), "playground."+s.Name, env.Metrics)
}

var scenarios = []Scenario{
	{Name: "simple", Description: "take the first two of five values", build: simple},
	{Name: "custom", Description: "collect one cold flow three times", build: custom},
	{Name: "callback", Description: "bridge a listener API into a flow", build: callback},
	{Name: "fibonacci", Description: "slice an infinite Fibonacci flow", build: fibonacci},
	{Name: "combining", Description: "flat-map 1..100 over 1..10", build: combining},
	{Name: "zipping", Description: "pair numbers with letters", build: zipping},
	{Name: "scheduling", Description: "produce on the io dispatcher", build: scheduling},
}

// Scenarios lists every scenario in presentation order.
func Scenarios() []Scenario {
	return append([]Scenario(nil), scenarios...)
}

// Lookup returns the scenario called name.
func Lookup(name string) (Scenario, error) {
	for _, s := range scenarios {
		if s.Name == name {
			return s, nil
		}
	}
	return Scenario{}, goerrors.InvalidArgument("scenario", fmt.Sprintf("unknown scenario %q", name))
}

// Run collects s and writes each line to w.
func Run(ctx context.Context, w io.Writer, s Scenario, env Env) error {
	return flow.ForEach(ctx, s.Flow(env), func(_ context.Context, line string) error {
		_, err := fmt.Fprintln(w, line)
		return err
	})
}

func itoa(_ context.Context, i int) (string, error) { return strconv.Itoa(i), nil }

func simple(Env) *flow.Flow[string] {
	return flow.Map(flow.Take(flow.Of(1, 2, 3, 4, 5), 2), itoa)
}

func custom(Env) *flow.Flow[string] {
	return flow.New(func(ctx context.Context, e flow.Emitter[string]) error {
		var runs atomic.Int32
		cold := flow.New(func(_ context.Context, e flow.Emitter[string]) error {
			if err := e.Emit(fmt.Sprintf("producer run %d", runs.Add(1))); err != nil {
				return err
			}
			return e.Emit("1")
		})
		return flow.EmitAll(ctx, e, flow.Concat(cold, cold, cold))
	})
}

func callback(env Env) *flow.Flow[string] {
	values := flow.Callback(func(ctx context.Context, b *flow.Bridge[int]) error {
		var sendErr error
		API{}.AddListener(ListenerFunc(func(i int) {
			if sendErr == nil {
				sendErr = b.Send(ctx, i)
			}
		}))
		if sendErr != nil {
			return sendErr
		}
		return b.Close()
	}, flow.WithBridgeConfig(env.Bridge))
	return flow.Map(values, itoa)
}

type pair struct{ a, b int }

func fibonacci(Env) *flow.Flow[string] {
	fib := flow.Map(
		flow.Scan(flow.Generate(func() int { return 0 }), pair{0, 1}, func(p pair, _ int) pair {
			return pair{p.b, p.a + p.b}
		}),
		func(_ context.Context, p pair) (int, error) { return p.b, nil },
	)
	return flow.Map(flow.Take(flow.Drop(fib, 10), 10), itoa)
}

func combining(Env) *flow.Flow[string] {
	products := flow.FlatMapConcat(flow.Range(1, 100), func(_ context.Context, i int) (*flow.Flow[int], error) {
		return flow.Map(flow.Range(1, 10), func(_ context.Context, j int) (int, error) { return i * j, nil }), nil
	})
	return flow.Map(flow.Batch(products, 10, 0), func(_ context.Context, row []int) (string, error) {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = strconv.Itoa(v)
		}
		return strings.Join(cells, " "), nil
	})
}

func zipping(Env) *flow.Flow[string] {
	return flow.Zip(flow.Range(1, 10), flow.Of("a", "b", "c", "d", "e"), func(i int, s string) string {
		return strconv.Itoa(i) + s
	})
}

func scheduling(env Env) *flow.Flow[string] {
	produced := flow.FlowOn(flow.New(func(ctx context.Context, e flow.Emitter[string]) error {
		return e.Emit("flow: " + dispatch.Describe(ctx))
	}), env.io())

	return flow.New(func(ctx context.Context, e flow.Emitter[string]) error {
		if err := e.Emit("collector: " + dispatch.Describe(ctx)); err != nil {
			return err
		}
		var completedOn string
		withCompletion := flow.OnCompletion(produced, func(actx context.Context, _ error) error {
			completedOn = dispatch.Describe(actx)
			return nil
		})
		if err := flow.EmitAll(ctx, e, withCompletion); err != nil {
			return err
		}
		if err := e.Emit("completion: " + completedOn); err != nil {
			return err
		}
		return flow.EmitAll(ctx, e, flow.Map(produced, func(ctx context.Context, line string) (string, error) {
			return line + ", collect: " + dispatch.Describe(ctx), nil
		}))
	})
}
