package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"propadmin/internal/config"
	"propadmin/internal/reqctx"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	require.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	require.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	require.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestInitLogger_WritesIntoLogDir(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	dir := filepath.Join(t.TempDir(), "logs")
	InitLogger(&config.Config{LogDir: dir, LogLevel: "info"})
	Log.Info("hello")
	_ = Log.Sync()

	_, err := os.Stat(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
}

func TestWithCtx_AddsRequestID(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	core, logs := observer.New(zap.InfoLevel)
	Log = zap.New(core)

	ctx := reqctx.WithRequestID(context.Background(), "req-42")
	WithCtx(ctx).Info("with id")
	WithCtx(context.Background()).Info("without id")

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
	require.NotContains(t, entries[1].ContextMap(), "request_id")
}
