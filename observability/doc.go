// Package observability provides OpenTelemetry tracing and metrics for flow
// collections.
//
// Tracing:
//
//	cfg := observability.DefaultTracerConfig("flowplay")
//	tp, err := observability.InitTracer(ctx, &cfg)
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mcfg := observability.DefaultMeterConfig("flowplay")
//	mp, err := observability.InitMeter(ctx, &mcfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("flowplay"))
//
// Observing a flow records one flow.collect span per collection together with
// the flow.collections, flow.emissions, flow.errors and
// flow.collection.duration instruments:
//
//	f := observability.Observe(flow.Range(1, 10), "numbers", metrics)
//
// Health Checks:
//
//	health := observability.NewServiceHealth("flowplay", "1.0.0")
//	health.AddComponent(observability.PoolChecker(dispatch.IO()).CheckHealth(ctx))
package observability
