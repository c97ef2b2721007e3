package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level names a log verbosity.
type Level string

const (
	Debug   Level = "debug"
	Info    Level = "info"
	Warning Level = "warning"
	Error   Level = "error"
)

// Config controls the logger built by NewLogger.
type Config struct {
	// Level is the minimum level that gets emitted. Defaults to info.
	Level Level `yaml:"level" env:"LOG_LEVEL"`

	// ServiceName is attached to every entry as the "service" field.
	ServiceName string `yaml:"service_name" env:"LOG_SERVICE_NAME"`

	// Development switches to the human-readable console encoder.
	Development bool `yaml:"development" env:"LOG_DEVELOPMENT"`
}

// NewConfig reads from environment variables.
func NewConfig() Config {
	return Config{
		Level:       Level(os.Getenv("LOG_LEVEL")),
		ServiceName: os.Getenv("LOG_SERVICE_NAME"),
		Development: os.Getenv("LOG_DEVELOPMENT") == "true",
	}
}

// NewLogger builds a structured zap logger from the configuration.
//
// Production mode emits JSON to stderr with ISO8601 timestamps, caller
// information, the process ID and the service name on every entry.
func NewLogger(cfg Config) (*zap.Logger, error) {
	logLevel := zap.InfoLevel
	switch cfg.Level {
	case Debug:
		logLevel = zap.DebugLevel
	case Info:
		logLevel = zap.InfoLevel
	case Warning:
		logLevel = zap.WarnLevel
	case Error:
		logLevel = zap.ErrorLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderCfg.EncodeDuration = zapcore.MillisDurationEncoder

	encoding := "json"
	if cfg.Development {
		encoding = "console"
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	initialFields := map[string]interface{}{
		"pid": os.Getpid(),
	}
	if cfg.ServiceName != "" {
		initialFields["service"] = cfg.ServiceName
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(logLevel),
		Development:      cfg.Development,
		Encoding:         encoding,
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    initialFields,
	}

	log, err := config.Build(zap.AddCaller())
	if err != nil {
		return nil, fmt.Errorf("logger: build: %w", err)
	}
	return log, nil
}
