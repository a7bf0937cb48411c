// Package logger собирает zap-логгер клиента по уровню из конфигурации.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New возвращает консольный цветной логгер для уровня debug и JSON-логгер для остальных уровней.
func New(level string) (*zap.Logger, error) {
	return build(level, zapcore.Lock(os.Stderr))
}

func build(level string, sink zapcore.WriteSyncer) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	if lvl.Level() == zapcore.DebugLevel {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

		core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), sink, lvl)
		return zap.New(core, zap.AddCaller(), zap.Development()), nil
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), sink, lvl)
	return zap.New(core, zap.AddCaller()), nil
}
