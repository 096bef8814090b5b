package system

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetupLoggerModes(t *testing.T) {
	require.NotNil(t, SetupLogger(false))
	require.NotNil(t, SetupLogger(true))
}

func TestGetReqLoggerFallbackWhenContextNil(t *testing.T) {
	fallback := zap.NewNop().Sugar()
	require.Same(t, fallback, GetReqLogger(nil, fallback))
}

func TestGetReqLoggerFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	fallback := zap.NewNop().Sugar()
	stored := zap.NewNop().Sugar()
	ctx.Set(ReqLoggerKey, stored)
	require.Same(t, stored, GetReqLogger(ctx, fallback))
}

func TestGetReqLoggerIgnoresInvalidTypes(t *testing.T) {
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	fallback := zap.NewNop().Sugar()
	ctx.Set(ReqLoggerKey, "not-a-logger")
	require.Same(t, fallback, GetReqLogger(ctx, fallback))
}

func TestPrintfRoutesToDebug(t *testing.T) {
	core, recorded := observer.New(zap.DebugLevel)
	logf := Printf(zap.New(core).Sugar())
	logf("navigated to %s", "https://example.test")

	entries := recorded.All()
	require.Len(t, entries, 1)
	require.Equal(t, zap.DebugLevel, entries[0].Level)
	require.Equal(t, "navigated to https://example.test", entries[0].Message)
}

func TestErrorfRoutesToError(t *testing.T) {
	core, recorded := observer.New(zap.DebugLevel)
	Errorf(zap.New(core).Sugar())("boom %d", 1)
	require.Equal(t, zap.ErrorLevel, recorded.All()[0].Level)
}

func TestPrintfNilLogger(t *testing.T) {
	require.NotPanics(t, func() {
		Printf(nil)("ignored")
		Errorf(nil)("ignored")
	})
}

func TestScenarioFields(t *testing.T) {
	require.Equal(t, []interface{}{"class", "WebHooks", "scenario", "assign"}, ScenarioFields("WebHooks", "assign", 0))
	require.Equal(t, []interface{}{"class", "WebHooks", "scenario", "assign", "attempt", 2}, ScenarioFields("WebHooks", "assign", 2))
}
