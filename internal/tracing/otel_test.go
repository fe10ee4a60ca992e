package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitAndShutdown(t *testing.T) {
	require.NoError(t, Init("miniagent-test"))
	require.NoError(t, Init("miniagent-test")) // second call is a no-op

	assert.NoError(t, Shutdown())
	assert.NoError(t, Shutdown()) // shutdown without a provider is fine
}

func TestStartSpan_PropagatesTraceID(t *testing.T) {
	require.NoError(t, Init("miniagent-test"))
	defer Shutdown()

	ctx, span := StartSpan(context.Background(), "test.span", attribute.String("k", "v"))
	defer span.End()

	assert.NotEmpty(t, GetTraceID(ctx))
	assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(ctx))
}

func TestStartSpan_KeepsExistingTraceID(t *testing.T) {
	require.NoError(t, Init("miniagent-test"))
	defer Shutdown()

	ctx := WithTraceID(context.Background(), "trace-preset")
	ctx, span := StartSpan(ctx, "test.span")
	defer span.End()

	assert.Equal(t, "trace-preset", GetTraceID(ctx))
}
