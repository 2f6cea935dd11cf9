package obslog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger = zap.NewNop()

// L returns the process logger. It is a no-op logger until InitFromEnv runs.
func L() *zap.Logger { return globalLogger }

type Options struct {
	Level   string
	Format  string // legacy, json or console
	Console bool
	File    string // empty disables file output
	Caller  bool
}

// OptionsFromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_TO_CONSOLE, LOG_TO_FILE,
// LOG_FILE and LOG_CALLER.
func OptionsFromEnv() Options {
	opts := Options{
		Level:   getenvDefault("LOG_LEVEL", "info"),
		Format:  getenvDefault("LOG_FORMAT", "legacy"),
		Console: strings.EqualFold(getenvDefault("LOG_TO_CONSOLE", "true"), "true"),
		Caller:  strings.EqualFold(getenvDefault("LOG_CALLER", "false"), "true"),
	}
	if strings.EqualFold(getenvDefault("LOG_TO_FILE", "false"), "true") {
		opts.File = strings.TrimSpace(getenvDefault("LOG_FILE", filepath.Join("logs", "llm-chess.log")))
	}
	return opts
}

// InitFromEnv builds the global logger from the environment.
func InitFromEnv() error {
	logger, err := New(OptionsFromEnv())
	if err != nil {
		return err
	}
	globalLogger = logger
	return nil
}

func New(opts Options) (*zap.Logger, error) {
	level := parseLevel(opts.Level)
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format != "legacy" && format != "json" && format != "console" {
		format = "legacy"
	}

	var cores []zapcore.Core
	if opts.Console {
		cores = append(cores, zapcore.NewCore(newEncoder(format), zapcore.AddSync(os.Stdout), level))
	}
	if opts.File != "" {
		if err := ensureDir(filepath.Dir(opts.File)); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(newEncoder(format), zapcore.AddSync(f), level))
	}
	if len(cores) == 0 {
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), level))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	if opts.Caller || format == "legacy" {
		logger = logger.WithOptions(zap.AddCaller())
	}
	return logger.WithOptions(zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func newEncoder(format string) zapcore.Encoder {
	switch format {
	case "json":
		return zapcore.NewJSONEncoder(jsonEncoderConfig())
	case "console":
		return zapcore.NewConsoleEncoder(consoleEncoderConfig())
	default:
		return zapcore.NewConsoleEncoder(legacyEncoderConfig())
	}
}

func ensureDir(dir string) error {
	if strings.TrimSpace(dir) == "" || dir == "." {
		return nil
	}
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func legacyEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.ConsoleSeparator = " | "
	return cfg
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return cfg
}
