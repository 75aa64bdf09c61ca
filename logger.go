// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.14
//

package gpsekf

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/mat"
)

// Log is silent until InitLogger is called, so library users get no output by default.
var Log = zap.NewNop().Sugar()

// InitLogger replaces Log with a console logger on stderr.
// stdout is reserved for the filter frame and the position trail.
// An empty level falls back to the LOG_LEVEL environment variable.
func InitLogger(level string) (*zap.SugaredLogger, error) {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	lvl, err := zapLevel(level)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		lvl,
	)
	Log = zap.New(core).Sugar()
	return Log, nil
}

func zapLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// SyncLogger flushes buffered log entries
func SyncLogger() {
	if Log != nil {
		_ = Log.Sync()
	}
}

func debugEnabled() bool {
	return Log.Desugar().Core().Enabled(zapcore.DebugLevel)
}

// LogMat writes a matrix at debug level
func LogMat(name string, X mat.Matrix) {
	if !debugEnabled() {
		return
	}
	r, c := X.Dims()
	fa := mat.Formatted(X, mat.Prefix("\t"), mat.Squeeze())
	Log.Debugf("%s (%d x %d)\n\t%v", name, r, c, fa)
}
