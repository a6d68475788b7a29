package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger(t *testing.T, format string) (*Logger, *bytes.Buffer) {
	t.Helper()
	log, err := NewLogger(&Config{Level: DebugLevel, Format: format, AppName: "BloodConnect", Version: "test"})
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	return log, buf
}

func TestJSONFormatterIncludesFields(t *testing.T) {
	log, buf := newBufferedLogger(t, "json")

	log.WithEmergencyID("req-1").WithError(errors.New("boom")).Warn("attempt failed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "attempt failed", entry["message"])
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "req-1", entry["emergency_id"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "BloodConnect", entry["app"])
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	log, buf := newBufferedLogger(t, "json")

	child := log.WithField("donor_id", "d1")
	log.Info("parent")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, ok := entry["donor_id"]
	assert.False(t, ok)
	assert.NotNil(t, child)
}

func TestTextFormatterSortsFields(t *testing.T) {
	log, buf := newBufferedLogger(t, "text")

	log.WithFields(map[string]interface{}{"b": 2, "a": 1}).Info("hello")

	line := buf.String()
	assert.Contains(t, line, "[INFO]")
	assert.Contains(t, line, "hello a=1 b=2")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestWithContextExtractsKnownKeys(t *testing.T) {
	log, buf := newBufferedLogger(t, "json")

	ctx := context.WithValue(context.Background(), RequestIDKey, "rid-9")
	ctx = context.WithValue(ctx, UserIDKey, "user-3")
	log.WithContext(ctx).Info("ctx")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "rid-9", entry["request_id"])
	assert.Equal(t, "user-3", entry["user_id"])
}

func TestLogAPIRequestLevelFollowsStatus(t *testing.T) {
	log, buf := newBufferedLogger(t, "json")

	log.LogAPIRequest("POST", "/api/v1/emergency-requests", 503, 0, "")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, float64(503), entry["status_code"])
}
