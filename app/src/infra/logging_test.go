package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerEmitsJSONWithServiceName(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, "kpi-analytics-service")
	logger.Printf(context.Background(), "started on port %s", "8080")
	logger.Sync()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "started on port 8080", entry["message"])
	assert.Equal(t, "kpi-analytics-service", entry["service"])
	assert.NotEmpty(t, entry["timestamp"])
}

func TestLoggerCarriesCorrelationID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, "test")

	ctx := WithCorrelationID(context.Background(), "req-42")
	logger.Println(ctx, "handling request")
	logger.Sync()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-42", entry["trace_id"])
}

func TestCorrelationIDRoundTrip(t *testing.T) {
	t.Parallel()

	assert.Empty(t, CorrelationIDFromContext(context.Background()))

	ctx := WithCorrelationID(context.Background(), "abc")
	assert.Equal(t, "abc", CorrelationIDFromContext(ctx))
}

func TestNilLoggerIsSafe(t *testing.T) {
	t.Parallel()

	var logger *Logger
	logger.Printf(context.Background(), "no-op")
	logger.Println(context.Background(), "no-op")
	logger.Sync()
}
