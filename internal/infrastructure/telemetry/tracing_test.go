package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// setupTestTracer installs an in-memory span recorder as the global provider
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "counts", "count_all",
		telemetry.WithAttribute(telemetry.SpanAttrResource, "Producto"),
		telemetry.WithSpanKind(trace.SpanKindServer),
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "counts.count_all", spans[0].Name())
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())
	assert.Equal(t, "Producto", attrMap(spans[0])[telemetry.SpanAttrResource].AsString())
}

func TestSetAttributes(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "media.ingest")
	telemetry.SetAttributes(span,
		telemetry.SpanAttrStoredName, "labial.jpg",
		telemetry.SpanAttrParentIDs, []int64{1, 2},
		telemetry.SpanAttrCacheHit, true,
		42, "non-string key is skipped",
		"dangling",
	)
	span.End()

	attrs := attrMap(sr.Ended()[0])
	assert.Len(t, attrs, 3)
	assert.Equal(t, "labial.jpg", attrs[telemetry.SpanAttrStoredName].AsString())
	assert.Equal(t, []int64{1, 2}, attrs[telemetry.SpanAttrParentIDs].AsInt64Slice())
	assert.True(t, attrs[telemetry.SpanAttrCacheHit].AsBool())
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "counts.batch")
	telemetry.RecordError(span, errors.New("connection refused"))
	telemetry.RecordError(span, nil)
	telemetry.RecordError(nil, errors.New("ignored"))
	span.End()

	ended := sr.Ended()[0]
	assert.Equal(t, codes.Error, ended.Status().Code)
	assert.Equal(t, "connection refused", ended.Status().Description)
	require.Len(t, ended.Events(), 1)
	assert.Equal(t, "exception", ended.Events()[0].Name)
}

func TestAddEventAndTraceID(t *testing.T) {
	sr := setupTestTracer(t)

	assert.Empty(t, telemetry.GetTraceID(context.Background()))

	ctx, span := telemetry.StartSpan(context.Background(), "media.resolve")
	telemetry.AddEvent(span, "thumbnail_regenerated", telemetry.SpanAttrThumbnail, true)
	assert.Len(t, telemetry.GetTraceID(ctx), 32)
	span.End()

	events := sr.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "thumbnail_regenerated", events[0].Name)
}
