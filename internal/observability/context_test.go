package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDContext(t *testing.T) {
	t.Run("stores and retrieves request ID", func(t *testing.T) {
		ctx := context.Background()
		ctx = WithRequestID(ctx, "req-123")

		result := RequestIDFromContext(ctx)
		assert.Equal(t, "req-123", result)
	})

	t.Run("returns empty string when not set", func(t *testing.T) {
		ctx := context.Background()
		result := RequestIDFromContext(ctx)
		assert.Equal(t, "", result)
	})
}

func TestSessionIDContext(t *testing.T) {
	t.Run("stores and retrieves session ID", func(t *testing.T) {
		ctx := context.Background()
		ctx = WithSessionID(ctx, "sess-456")

		result := SessionIDFromContext(ctx)
		assert.Equal(t, "sess-456", result)
	})

	t.Run("returns empty string when not set", func(t *testing.T) {
		ctx := context.Background()
		result := SessionIDFromContext(ctx)
		assert.Equal(t, "", result)
	})
}
