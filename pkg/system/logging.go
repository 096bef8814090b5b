package system

import (
	"fmt"
	stdlog "log"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ReqLoggerKey is the gin context key holding the request-scoped logger.
const ReqLoggerKey = "reqLogger"

// SetupLogger builds the process logger. Debug mode switches to the development
// encoder and level; production output uses RFC3339 UTC timestamps under "ts".
func SetupLogger(debug bool) *zap.SugaredLogger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.UTC().Format(time.RFC3339))
		}
	}
	cfg.DisableStacktrace = true

	zlog, err := cfg.Build()
	if err != nil {
		stdlog.Fatalf("failed to set up logger: %v", err)
	}
	return zlog.Sugar()
}

// GetReqLogger returns the request-scoped sugared logger from gin.Context if present,
// otherwise the fallback.
func GetReqLogger(c *gin.Context, fallback *zap.SugaredLogger) *zap.SugaredLogger {
	if c == nil {
		return fallback
	}
	if v, ok := c.Get(ReqLoggerKey); ok {
		if l, ok2 := v.(*zap.SugaredLogger); ok2 {
			return l
		}
	}
	return fallback
}

// Printf adapts a sugared logger to the printf-style hooks some libraries expose
// (chromedp.WithLogf, kafka.LoggerFunc). Output goes to debug level.
func Printf(log *zap.SugaredLogger) func(string, ...interface{}) {
	if log == nil {
		return func(string, ...interface{}) {}
	}
	return func(format string, args ...interface{}) {
		log.Debug(fmt.Sprintf(format, args...))
	}
}

// Errorf is Printf at error level.
func Errorf(log *zap.SugaredLogger) func(string, ...interface{}) {
	if log == nil {
		return func(string, ...interface{}) {}
	}
	return func(format string, args ...interface{}) {
		log.Error(fmt.Sprintf(format, args...))
	}
}

// ScenarioFields returns key/value pairs for logging a scenario. Attempt is left
// out when zero.
func ScenarioFields(class, scenario string, attempt int) []interface{} {
	if attempt == 0 {
		return []interface{}{"class", class, "scenario", scenario}
	}
	return []interface{}{"class", class, "scenario", scenario, "attempt", attempt}
}
