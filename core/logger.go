package core

import (
	"fmt"
	"os"
	"time"

	"export-tracking-service/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func NewLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	writeSyncer := zapcore.Lock(zapcore.AddSync(os.Stdout))
	if cfg.LogsDirectory != "" {
		// Get the current UTC date to create a new file per run
		runTimestamp := time.Now().UTC().Format("2006-01-02T15-04-05")
		logFile := fmt.Sprintf("%v/export-tracking-service-%s.log", cfg.LogsDirectory, runTimestamp)

		lumberjackLogger := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // MB before it rolls
			MaxBackups: 7,
			MaxAge:     30, // Days
			Compress:   true,
		}
		writeSyncer = zapcore.AddSync(lumberjackLogger)
	}

	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		MessageKey:   "msg",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.CapitalLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	})

	core := zapcore.NewCore(encoder, writeSyncer, level)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	return logger, nil
}
