// internal/logger/logger.go

// Package logger builds the zap logger used by the command line tools.
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps zap.Logger with the helpers the client layer uses.
type Logger struct {
	*zap.Logger
	config *Config
}

// New builds a logger that writes a readable console stream to stdout and
// JSON lines to a rotated file. An empty LogFile disables the file core.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level := zapcore.InfoLevel
	if cfg.Development {
		level = zapcore.DebugLevel
	}

	cores := []zapcore.Core{
		zapcore.NewCore(PrettyEncoder(), zapcore.Lock(os.Stdout), level),
	}

	if cfg.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}

		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
		encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotator), level))
	}

	return &Logger{
		Logger: zap.New(zapcore.NewTee(cores...),
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		),
		config: cfg,
	}, nil
}

// FromZap wraps an existing zap logger, mostly for tests.
func FromZap(l *zap.Logger) *Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &Logger{Logger: l, config: DefaultConfig()}
}

// WithTransaction tags entries with a transaction signature.
func (l *Logger) WithTransaction(signature string) *zap.Logger {
	return l.With(
		zap.String("signature", signature),
		zap.Time("tx_time", time.Now().UTC()),
	)
}

// WithOperation returns a logger scoped to one operation with a fresh
// correlation id.
func (l *Logger) WithOperation(operation string) *zap.Logger {
	return l.With(
		zap.String("operation", operation),
		zap.String("correlation_id", uuid.New().String()),
		zap.Time("start_time", time.Now().UTC()),
	)
}

// WithComponent tags entries with a component name.
func (l *Logger) WithComponent(component string) *zap.Logger {
	return l.With(zap.String("component", component))
}

// WithRoute tags entries with the hop layout of a route.
func (l *Logger) WithRoute(hops []string, amountIn uint64) *zap.Logger {
	return l.With(
		zap.String("route", strings.Join(hops, "->")),
		zap.Uint64("amount_in", amountIn),
	)
}

// LogError logs err with extra context; a nil err is logged as-is.
func (l *Logger) LogError(msg string, err error, fields ...zap.Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	l.Error(msg, fields...)
}

// Sync flushes buffered entries, ignoring the errors terminals return for
// stdout and stderr.
func (l *Logger) Sync() error {
	err := l.Logger.Sync()
	if err != nil && (strings.Contains(err.Error(), "invalid argument") ||
		strings.Contains(err.Error(), "inappropriate ioctl for device")) {
		return nil
	}
	return err
}

// TrackPerformance logs the start of operation and returns a func that logs
// its duration.
func (l *Logger) TrackPerformance(operation string) (end func()) {
	start := time.Now()
	opLogger := l.WithOperation(operation)

	opLogger.Debug("Starting operation")

	return func() {
		duration := time.Since(start)
		opLogger.Debug("Operation completed",
			zap.Duration("duration", duration),
			zap.Float64("duration_ms", float64(duration.Microseconds())/1000),
		)
	}
}
