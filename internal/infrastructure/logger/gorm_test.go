package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGorm(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), logs
}

func stmt(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLoggerLogModeCopies(t *testing.T) {
	gl, _ := newObservedGorm(gormlogger.Warn)
	quiet := gl.LogMode(gormlogger.Silent).(*GormLogger)

	assert.Equal(t, gormlogger.Warn, gl.level)
	assert.Equal(t, gormlogger.Silent, quiet.level)
}

func TestGormLoggerTrace(t *testing.T) {
	const sql = "UPDATE batches SET remaining_quantity = 12 WHERE id = 'b1'"

	t.Run("failed statement", func(t *testing.T) {
		gl, logs := newObservedGorm(gormlogger.Error)
		gl.Trace(context.Background(), time.Now(), stmt(sql, 0), errors.New("deadlock"))

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, zapcore.ErrorLevel, entry.Level)
		assert.Equal(t, "gorm", entry.LoggerName)
		assert.Equal(t, sql, entry.ContextMap()["sql"])
		assert.Equal(t, "deadlock", entry.ContextMap()["error"])
	})

	t.Run("record not found is dropped", func(t *testing.T) {
		gl, logs := newObservedGorm(gormlogger.Info)
		gl.Trace(context.Background(), time.Now(), stmt(sql, 0), gormlogger.ErrRecordNotFound)
		assert.Zero(t, logs.Len())
	})

	t.Run("record not found kept on request", func(t *testing.T) {
		gl, logs := newObservedGorm(gormlogger.Error, WithNotFoundErrors())
		gl.Trace(context.Background(), time.Now(), stmt(sql, 0), gormlogger.ErrRecordNotFound)
		assert.Equal(t, 1, logs.FilterMessage("Statement failed").Len())
	})

	t.Run("slow statement", func(t *testing.T) {
		gl, logs := newObservedGorm(gormlogger.Warn, WithSlowThreshold(time.Millisecond))
		gl.Trace(context.Background(), time.Now().Add(-time.Second), stmt(sql, 1), nil)

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, zapcore.WarnLevel, entry.Level)
		assert.Equal(t, "Slow statement", entry.Message)
		assert.Equal(t, int64(1), entry.ContextMap()["rows"])
	})

	t.Run("slow logging disabled", func(t *testing.T) {
		gl, logs := newObservedGorm(gormlogger.Warn, WithSlowThreshold(0))
		gl.Trace(context.Background(), time.Now().Add(-time.Second), stmt(sql, 1), nil)
		assert.Zero(t, logs.Len())
	})

	t.Run("debug statements only at info", func(t *testing.T) {
		gl, logs := newObservedGorm(gormlogger.Warn)
		gl.Trace(context.Background(), time.Now(), stmt(sql, 1), nil)
		assert.Zero(t, logs.Len())

		gl, logs = newObservedGorm(gormlogger.Info)
		gl.Trace(context.Background(), time.Now(), stmt(sql, -1), nil)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.DebugLevel, logs.All()[0].Level)
		assert.NotContains(t, logs.All()[0].ContextMap(), "rows")
	})

	t.Run("silent", func(t *testing.T) {
		gl, logs := newObservedGorm(gormlogger.Silent)
		gl.Trace(context.Background(), time.Now(), stmt(sql, 1), errors.New("ignored"))
		assert.Zero(t, logs.Len())
	})
}

func TestGormLoggerCarriesRequestScope(t *testing.T) {
	gl, logs := newObservedGorm(gormlogger.Info)
	ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-42")
	ctx, _ = WithUserID(ctx, zap.NewNop(), "driver-7")

	gl.Trace(ctx, time.Now(), stmt("SELECT 1", 1), nil)
	gl.Warn(ctx, "pool %s", "saturated")

	require.Equal(t, 2, logs.Len())
	for _, entry := range logs.All() {
		assert.Equal(t, "req-42", entry.ContextMap()["request_id"])
		assert.Equal(t, "driver-7", entry.ContextMap()["user_id"])
	}
	assert.Equal(t, "pool saturated", logs.All()[1].Message)
}

func TestGormLoggerPrintfLevels(t *testing.T) {
	gl, logs := newObservedGorm(gormlogger.Warn)
	gl.Info(context.Background(), "info %d", 1)
	gl.Warn(context.Background(), "warn %d", 2)
	gl.Error(context.Background(), "error %d", 3)

	assert.Equal(t, []string{"warn 2", "error 3"}, []string{logs.All()[0].Message, logs.All()[1].Message})
}

func TestMapGormLogLevel(t *testing.T) {
	tests := map[string]gormlogger.LogLevel{
		"debug":   gormlogger.Info,
		"info":    gormlogger.Warn,
		"warn":    gormlogger.Warn,
		"error":   gormlogger.Error,
		"silent":  gormlogger.Silent,
		"unknown": gormlogger.Warn,
	}
	for in, want := range tests {
		assert.Equal(t, want, MapGormLogLevel(in), in)
	}
}
