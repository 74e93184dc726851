package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
}

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{ServiceName: "shop-api", Level: zerolog.InfoLevel, Output: &buf})

	ctx := l.WithRequestID(context.Background(), "req-1")
	ctx = l.WithUserID(ctx, 42)
	l.Error(ctx, "order failed", errors.New("boom"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shop-api", line["service"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, float64(42), line["user_id"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "order failed", line["message"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: zerolog.WarnLevel, Output: &buf})

	l.Info(context.Background(), "hidden")
	assert.Zero(t, buf.Len())

	l.Warn(context.Background(), "shown", nil)
	assert.Contains(t, buf.String(), "shown")
}
