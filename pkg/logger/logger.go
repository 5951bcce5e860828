package logger

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type key string

var (
	Key       = key("logger")
	RequestID = "request_id"
)

type Logger struct {
	log *zap.Logger
}

func New(ctx context.Context, outputPaths []string, env string) context.Context {
	var cfg zap.Config

	switch env {
	case "local":
		cfg = zap.Config{
			Encoding:         "console",
			Level:            zap.NewAtomicLevelAt(zap.DebugLevel),
			OutputPaths:      outputPaths,
			ErrorOutputPaths: []string{"stderr"},
			EncoderConfig: zapcore.EncoderConfig{
				MessageKey: "msg",
				LevelKey:   "level",
				TimeKey:    "ts",
				EncodeTime: zapcore.ISO8601TimeEncoder,
			},
		}
	case "dev":
		cfg = zap.Config{
			Encoding:         "json",
			Level:            zap.NewAtomicLevelAt(zap.DebugLevel),
			OutputPaths:      outputPaths,
			ErrorOutputPaths: []string{"stderr"},
			EncoderConfig:    zap.NewProductionEncoderConfig(),
		}
	default:
		cfg = zap.Config{
			Encoding:         "json",
			Level:            zap.NewAtomicLevelAt(zap.InfoLevel),
			OutputPaths:      outputPaths,
			ErrorOutputPaths: []string{"stderr"},
			EncoderConfig:    zap.NewProductionEncoderConfig(),
		}
	}

	log, err := cfg.Build()
	if err != nil {
		panic("can't init logger: " + err.Error())
	}

	return context.WithValue(ctx, Key, &Logger{log: log})
}

func GetFromCtx(ctx context.Context) *Logger {
	log, ok := ctx.Value(Key).(*Logger)
	if !ok {
		return &Logger{log: zap.NewNop()}
	}
	return log
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	if ctx.Value(RequestID) != nil {
		fields = append(fields, zap.String(RequestID, ctx.Value(RequestID).(string)))
	}
	l.log.Info(msg, fields...)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...zap.Field) {
	if ctx.Value(RequestID) != nil {
		fields = append(fields, zap.String(RequestID, ctx.Value(RequestID).(string)))
	}
	l.log.Error(msg, fields...)
}

func (l *Logger) Fatal(ctx context.Context, msg string, fields ...zap.Field) {
	if ctx.Value(RequestID) != nil {
		fields = append(fields, zap.String(RequestID, ctx.Value(RequestID).(string)))
	}
	l.log.Fatal(msg, fields...)
}

func (l *Logger) With(ctx context.Context, fields ...zap.Field) context.Context {
	if ctx.Value(RequestID) != nil {
		fields = append(fields, zap.String(RequestID, ctx.Value(RequestID).(string)))
	}
	return context.WithValue(ctx, Key, &Logger{log: l.log.With(fields...)})
}

// Middleware puts the logger into every request context and tags each
// request with an id, so handlers can log through GetFromCtx.
func Middleware(ctx context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetFromCtx(ctx)

		reqID := c.GetHeader("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}

		reqCtx := context.WithValue(c.Request.Context(), Key, log)
		reqCtx = context.WithValue(reqCtx, RequestID, reqID)
		c.Request = c.Request.WithContext(reqCtx)

		c.Next()

		GetFromCtx(reqCtx).Info(reqCtx, "request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
		)
	}
}
