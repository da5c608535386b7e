package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the cli logger. quiet keeps only warnings and errors and wins over
// debug.
func New(json, debug, quiet bool) (*zap.Logger, error) {
	cfg := zap.Config{
		Encoding:         encoding(json),
		Level:            zap.NewAtomicLevelAt(Level(debug, quiet)),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "step",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	return logger, nil
}

// Level resolves the log level for the debug and quiet flags.
func Level(debug, quiet bool) zapcore.Level {
	switch {
	case quiet:
		return zapcore.WarnLevel
	case debug:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

func encoding(json bool) string {
	if json {
		return "json"
	}
	return "console"
}
