package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	goerrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/flow"
)

// Observe wraps f so that every collection runs inside a span named
// flow.collect and, if metrics is non-nil, records collection metrics.
// Values and terminal events pass through unchanged.
func Observe[T any](f *flow.Flow[T], name string, metrics *Metrics) *flow.Flow[T] {
	return flow.New(func(ctx context.Context, e flow.Emitter[T]) error {
		ctx, span := StartSpan(ctx, SpanFlowCollect, trace.WithAttributes(
			attribute.String(AttrFlowName, name),
			attribute.String(AttrRunID, flow.RunID(ctx)),
		))
		start := time.Now()
		if metrics != nil {
			metrics.RecordStart(ctx, name)
		}

		ce := &countingEmitter[T]{Emitter: e}
		err := flow.EmitAll(ctx, ce, f)

		status := statusOf(ctx, err)
		span.SetAttributes(
			attribute.String(AttrStatus, status),
			attribute.Int64(AttrEmissions, ce.n),
		)
		if status == StatusError {
			code := errorCode(err)
			span.RecordError(err)
			span.SetAttributes(attribute.String(AttrErrorCode, code))
			span.SetStatus(codes.Error, err.Error())
			if metrics != nil {
				metrics.RecordError(ctx, name, code)
			}
		}
		span.End()
		if metrics != nil {
			metrics.RecordEnd(context.WithoutCancel(ctx), name, status, ce.n, time.Since(start))
		}
		return err
	})
}

type countingEmitter[T any] struct {
	flow.Emitter[T]
	n int64
}

func (c *countingEmitter[T]) Emit(v T) error {
	if c.Cancelled() {
		return nil
	}
	c.n++
	return c.Emitter.Emit(v)
}

func statusOf(ctx context.Context, err error) string {
	switch {
	case err == nil && ctx.Err() == nil:
		return StatusOK
	case err == nil, flow.IsCancellation(err):
		return StatusCancelled
	default:
		return StatusError
	}
}

// errorCode names the AppError code of err, or "PRODUCER_ERROR" for errors
// raised by user code.
func errorCode(err error) string {
	if appErr, ok := goerrors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	return "PRODUCER_ERROR"
}
