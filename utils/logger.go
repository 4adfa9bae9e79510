package utils

import (
	"log"
	"os"

	"therapy/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Global logger instance
var Logger *zap.Logger

// InitializeLogger sets up the logging configuration
func InitializeLogger() {
	Logger = NewLogger(config.AppConfig)
}

// NewLogger builds a zap logger for cfg. Production writes JSON, everything
// else writes colored console output. LOG_FILE adds a rotated file sink.
func NewLogger(cfg config.Config) *zap.Logger {
	var zcfg zap.Config
	if cfg.Env == "production" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level := zapcore.InfoLevel
	if cfg.LogLevel != "" {
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			log.Printf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
			level = zapcore.InfoLevel
		}
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	if cfg.LogFile == "" {
		logger, err := zcfg.Build()
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		return logger
	}

	consoleEncoder := zapcore.NewConsoleEncoder(zcfg.EncoderConfig)
	fileEncoderCfg := zap.NewProductionEncoderConfig()
	fileEncoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	fileEncoder := zapcore.NewJSONEncoder(fileEncoderCfg)

	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}

	core := zapcore.NewTee(
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), zcfg.Level),
		zapcore.NewCore(fileEncoder, zapcore.AddSync(rotator), zcfg.Level),
	)
	return zap.New(core, zap.AddCaller())
}

// GetLogger retrieves the global logger
func GetLogger() *zap.Logger {
	if Logger == nil {
		InitializeLogger()
	}
	return Logger
}
