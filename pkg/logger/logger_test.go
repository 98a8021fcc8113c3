package logger

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)

	mu.Lock()
	prevBase, prevSugar := globalBase, globalSugar
	globalBase = zap.New(core, zap.AddCaller())
	globalSugar = globalBase.Sugar()
	mu.Unlock()

	t.Cleanup(func() {
		mu.Lock()
		globalBase, globalSugar = prevBase, prevSugar
		mu.Unlock()
	})
	return logs
}

func TestContextHelpers_ReportCallingSite(t *testing.T) {
	logs := observeLogs(t)
	ctx := WithRequestID(context.Background(), "req-1")

	Debug(ctx, "debug")
	Info(ctx, "info", zap.String("k", "v"))
	Warn(ctx, "warn")
	Error(ctx, "error")

	entries := logs.All()
	require.Len(t, entries, 4)
	for _, e := range entries {
		require.True(t, e.Caller.Defined)
		assert.True(t, strings.HasSuffix(e.Caller.File, "logger_test.go"), e.Caller.File)
		assert.Equal(t, "req-1", e.ContextMap()["request_id"])
	}
	assert.Equal(t, "v", entries[1].ContextMap()["k"])
}

func TestContextHelpers_NoRequestID(t *testing.T) {
	logs := observeLogs(t)

	Info(context.Background(), "plain")

	require.Equal(t, 1, logs.Len())
	_, ok := logs.All()[0].ContextMap()["request_id"]
	assert.False(t, ok)
}

func TestGORMWriter(t *testing.T) {
	logs := observeLogs(t)

	NewGORMWriter().Printf("slow sql %dms\n", 800)

	require.Equal(t, 1, logs.Len())
	e := logs.All()[0]
	assert.Equal(t, "slow sql 800ms", e.Message)
	assert.Equal(t, "gorm", e.ContextMap()["component"])
}
