// Package logging builds the zap logger shared by the server, gorm and gin.
package logging

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// UserIDKey is set on the gin context by the auth middleware so request lines carry the user.
const UserIDKey = "log_user_id"

// New creates a sugared logger. Development gets a colored console encoder,
// production gets JSON.
func New(env string) (*zap.SugaredLogger, error) {
	if env == "production" {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		logger, err := cfg.Build()
		if err != nil {
			return nil, err
		}
		return logger.Sugar(), nil
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(os.Stdout),
		zapcore.DebugLevel,
	)
	return zap.New(core).Sugar(), nil
}

// GormLogger routes gorm's SQL logging through zap.
func GormLogger(l *zap.SugaredLogger, level gormlogger.LogLevel) gormlogger.Interface {
	return gormlogger.New(
		zap.NewStdLog(l.Desugar()),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// GinLogger writes one structured line per request.
func GinLogger(l *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		}
		if uid, ok := c.Get(UserIDKey); ok {
			fields = append(fields, "user_id", uid)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			l.Errorw("request", fields...)
		case status >= 400:
			l.Warnw("request", fields...)
		default:
			l.Infow("request", fields...)
		}
	}
}
