// internal/logger/pretty.go
package logger

import (
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"
)

// Terminal colors.
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

// PrettyEncoder returns the console encoder: short timestamps, colored
// levels, no caller.
func PrettyEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    levelEncoder,
		EncodeTime:     timeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	})
}

func levelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(colorLevel(level))
}

func colorLevel(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return fmt.Sprintf("%s[DEBUG]%s", ColorCyan, ColorReset)
	case zapcore.InfoLevel:
		return fmt.Sprintf("%s[INFO]%s", ColorGreen, ColorReset)
	case zapcore.WarnLevel:
		return fmt.Sprintf("%s[WARN]%s", ColorYellow, ColorReset)
	case zapcore.ErrorLevel:
		return fmt.Sprintf("%s[ERROR]%s", ColorRed, ColorReset)
	case zapcore.FatalLevel, zapcore.PanicLevel, zapcore.DPanicLevel:
		return fmt.Sprintf("%s[%s]%s", ColorRed+ColorBold, level.CapitalString(), ColorReset)
	default:
		return fmt.Sprintf("[%s]", level.CapitalString())
	}
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05.000"))
}

// ShortAddress abbreviates a base58 key for console output.
func ShortAddress(addr string) string {
	if len(addr) > 8 {
		return addr[:4] + "..." + addr[len(addr)-4:]
	}
	return addr
}

// ShortSignature abbreviates a transaction signature for console output.
func ShortSignature(sig string) string {
	if len(sig) > 16 {
		return sig[:8] + "..." + sig[len(sig)-8:]
	}
	return sig
}
