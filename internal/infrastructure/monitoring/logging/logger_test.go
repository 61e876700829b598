package logging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(t *testing.T) (Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewLoggerFromCore(core), logs
}

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := NewLogger(LogConfig{Level: "debug", Format: format})
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}
}

func TestNewLogger_BadOutputPath(t *testing.T) {
	l, err := NewLogger(LogConfig{OutputPaths: []string{"/nonexistent-dir/fieldscout/out.log"}})
	assert.Error(t, err)
	assert.Nil(t, l)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestZapLogger_LevelsAndFields(t *testing.T) {
	l, logs := newObservedLogger(t)

	l.Debug("grid parsed", Int("rows", 3), Int("cols", 3))
	l.Info("ingest done", String("field_id", "field_001"), Float64("avg_canopy", 45.0))
	l.Warn("box skipped", Strings("reasons", []string{"arity"}))
	l.Error("replace failed", Err(errors.New("tx aborted")), Duration("took", time.Second))

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, int64(3), entries[0].ContextMap()["rows"])
	assert.Equal(t, "field_001", entries[1].ContextMap()["field_id"])
	assert.Equal(t, 45.0, entries[1].ContextMap()["avg_canopy"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "tx aborted", entries[3].ContextMap()["error"])
}

func TestZapLogger_WithAndNamed(t *testing.T) {
	l, logs := newObservedLogger(t)

	l.Named("ingest").With(String("field_id", "f1"), Bool("dry_run", true)).Info("start")

	require.Equal(t, 1, logs.Len())
	e := logs.All()[0]
	assert.Equal(t, "ingest", e.LoggerName)
	assert.Equal(t, "f1", e.ContextMap()["field_id"])
	assert.Equal(t, true, e.ContextMap()["dry_run"])
}

func TestErr_Nil(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")
	assert.Equal(t, l, l.With(String("k", "v")))
	assert.Equal(t, l, l.Named("n"))
	assert.NoError(t, l.Sync())
}

func TestDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	l, _ := newObservedLogger(t)
	SetDefault(l)
	assert.Equal(t, l, Default())

	SetDefault(nil)
	assert.Equal(t, l, Default())
}

func TestContextLogger(t *testing.T) {
	l, logs := newObservedLogger(t)
	fallback := NewNopLogger()

	assert.Equal(t, fallback, FromContext(context.Background(), fallback))

	ctx := WithContext(context.Background(), l.With(String("request_id", "req-1")))
	FromContext(ctx, fallback).Info("handled")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-1", logs.All()[0].ContextMap()["request_id"])
}

//Personal.AI order the ending
