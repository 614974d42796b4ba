package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func TestStartReturnsSpanInContext(t *testing.T) {
	ctx, span := Start(context.Background(), "identity", "verify", attribute.String("outcome", "valid"))
	assert.Equal(t, span, trace.SpanFromContext(ctx))
	assert.NotPanics(t, func() { End(span, errors.New("boom")) })
}

func TestEndWithoutError(t *testing.T) {
	_, span := Start(context.Background(), "identity", "noop")
	assert.NotPanics(t, func() { End(span, nil) })
}
