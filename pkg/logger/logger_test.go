package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer) Logger {
	return NewWithConfig(Config{
		Name:   "test",
		Format: FormatJSON,
		Level:  slog.LevelDebug,
		Writer: buf,
	})
}

func TestErrReturnsOriginalError(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	original := errors.New("boom")
	returned := log.Err("operation failed", original, "key", "value")

	assert.Equal(t, original, returned)
	assert.Contains(t, buf.String(), "operation failed")
	assert.Contains(t, buf.String(), "boom")
}

func TestErrorWithTypeWrapsSentinel(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	sentinel := errors.New("validation error")
	err := log.ErrorWithType(sentinel, "rating out of range", "rating", 11)

	assert.True(t, errors.Is(err, sentinel))
	assert.Contains(t, err.Error(), "rating out of range")
}

func TestFunctionAndFileChaining(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf).File("rating_handler").Function("upsert")

	log.Info("processed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test", entry["package"])
	assert.Equal(t, "rating_handler", entry["file"])
	assert.Equal(t, "upsert", entry["function"])
}

func TestTraceFromContext(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	ctx := ContextWithTraceID(context.Background(), "trace-123")
	log.TraceFromContext(ctx).Info("traced")

	assert.Contains(t, buf.String(), "trace-123")
	assert.Equal(t, "trace-123", TraceIDFromContext(ctx))
}

func TestTraceFromContextWithoutTraceID(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	log.TraceFromContext(context.Background()).Info("untraced")

	assert.NotContains(t, buf.String(), "traceID")
}
