package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInit_NoDSNIsNoop(t *testing.T) {
	shutdown, err := Init(Config{}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	shutdown()
}

func TestStartSpan_WithoutClient(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "generator.generate", SpanAttributes{
		QuestionSetID: "set-1",
		Operation:     "generate",
		MaxItems:      10,
	})
	require.NotNil(t, ctx)
	require.NotNil(t, span)

	assert.NotPanics(t, func() {
		span.SetData("items", 3)
		span.SetError(errors.New("boom"))
		span.SetError(nil)
		span.End()
	})
}

func TestSpan_NilInner(t *testing.T) {
	var span Span
	assert.NotPanics(t, func() {
		span.SetData("k", "v")
		span.SetError(errors.New("boom"))
		span.End()
	})
}
