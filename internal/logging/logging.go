// Package logging wraps zap to produce the plain, timestamped, severity
// tagged lines streameye has always written to stderr: no JSON, no
// structured fields in the rendered line, just "YYYY-MM-DD HH:MM:SS LEVEL
// message".
package logging

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors the three levels recognized by Config.LogLevel.
type Level int

const (
	LevelInfo Level = iota
	LevelQuiet
	LevelDebug
)

func ParseLevel(s string) Level {
	switch s {
	case "quiet":
		return LevelQuiet
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelQuiet:
		return zapcore.ErrorLevel
	case LevelDebug:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05"))
}

func levelEncoder(lvl zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch lvl {
	case zapcore.DebugLevel:
		enc.AppendString("DEBUG")
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		enc.AppendString("ERROR")
	default:
		enc.AppendString("INFO")
	}
}

// New builds the process-wide logger for the given level, writing to
// stderr in streameye's traditional format.
func New(level Level) *zap.SugaredLogger {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		MessageKey:     "M",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    levelEncoder,
		EncodeTime:     timeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(os.Stderr)),
		zap.NewAtomicLevelAt(level.zapLevel()),
	)
	return zap.New(core).Sugar()
}
