package tracing

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	afberrors "github.com/zjrosen/afb/internal/errors"
)

// Span attribute keys.
const (
	AttrRunID     = "afb.run.id"
	AttrClass     = "afb.class"
	AttrKey       = "afb.key"
	AttrManifest  = "afb.manifest.path"
	AttrErrorKind = "error.kind"
)

// Span names.
const (
	SpanMake = "afb.make"
	SpanLoad = "afb.manifest.load"
)

type runIDKey struct{}

// NewRunID returns a fresh id for one make invocation.
func NewRunID() string {
	return uuid.NewString()
}

// ContextWithRunID stores id in ctx. An empty id leaves ctx unchanged.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the run id stored in ctx, if any.
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// Around runs fn inside a span named name. The run id of ctx and attrs are
// attached; a failure marks the span as errored with its engine error kind.
func Around[T any](ctx context.Context, tracer trace.Tracer, name string, fn func(context.Context) (T, error), attrs ...attribute.KeyValue) (T, error) {
	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	if id := RunIDFromContext(ctx); id != "" {
		span.SetAttributes(attribute.String(AttrRunID, id))
	}
	span.SetAttributes(attrs...)

	out, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if kind := afberrors.KindOf(err); kind != nil {
			span.SetAttributes(attribute.String(AttrErrorKind, kind.Error()))
		}
		return out, err
	}
	span.SetStatus(codes.Ok, "")
	return out, nil
}
