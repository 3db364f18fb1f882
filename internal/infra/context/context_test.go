package context_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	context_ "github.com/teacherlink/webfront/internal/infra/context"
)

func TestTraceIDRoundTrip(t *testing.T) {
	t.Parallel()

	_, ok := context_.TraceIDFromContext(context.Background())
	assert.False(t, ok)

	ctx := context_.WithTraceID(context.Background(), "abc")
	id, ok := context_.TraceIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
}

func TestSessionIDIsIndependentOfTraceID(t *testing.T) {
	t.Parallel()

	ctx := context_.WithTraceID(context.Background(), "trace")
	_, ok := context_.SessionIDFromContext(ctx)
	assert.False(t, ok)

	ctx = context_.WithSessionID(ctx, "sid")
	sid, ok := context_.SessionIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "sid", sid)
}
