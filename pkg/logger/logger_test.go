package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "admin-service", LevelDebug)

	ctx := wrap.WithAction(context.Background(), "list_devices")
	ctx = wrap.WithDeviceID(ctx, "10")
	ctx = wrap.WithRequestID(ctx, "req-1")

	l.Info(ctx, "fetched devices", "total", 2)

	line := decodeLine(t, &buf)
	assert.Equal(t, "fetched devices", line["message"])
	assert.Equal(t, "admin-service", line["service"])
	assert.Equal(t, "list_devices", line["action"])
	assert.Equal(t, "10", line["device_id"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.EqualValues(t, 2, line["total"])
}

func TestLogger_ErrorCarriesWrappedContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "svc", LevelInfo)

	inner := wrap.WithAction(context.Background(), "save_location")
	err := wrap.Error(inner, errors.New("disk full"))

	l.Error(wrap.ErrorCtx(context.Background(), err), "failed to save", err)

	line := decodeLine(t, &buf)
	assert.Equal(t, "save_location", line["action"])
	errGroup, ok := line["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "disk full", errGroup["msg"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "svc", LevelWarn)

	l.Debug(context.Background(), "hidden")
	l.Info(context.Background(), "hidden too")
	assert.Zero(t, buf.Len())

	l.Warn(context.Background(), "shown")
	assert.NotZero(t, buf.Len())
}

func TestValidateLogLevel(t *testing.T) {
	assert.True(t, ValidateLogLevel(LevelDebug))
	assert.False(t, ValidateLogLevel("TRACE"))
}
