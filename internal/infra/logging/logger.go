package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Log levels, equal to their slog counterparts.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

type (
	Logger  = *slog.Logger
	Handler = slog.Handler
	Level   = slog.Level
)

//nolint:gochecknoglobals
var levelNames = map[string]Level{
	"debug": LevelDebug,
	"info":  LevelInfo,
	"warn":  LevelWarn,
	"error": LevelError,
}

// LoggerConfig holds configuration parameters for logging.
type LoggerConfig struct {
	// AppName is added to every record as "app".
	AppName string

	// Output is "stdout", "stderr", "discard" or a file path.
	Output string `env:"OUTPUT" default:"stderr"`

	// Level is the minimum level: debug, info, warn or error.
	Level string `env:"LEVEL" default:"info"`

	// Filter overrides the level per logger name prefix, e.g. "svc.websvc:debug,repo:warn".
	Filter string `env:"FILTER" default:""`

	// JSON switches from the console format to slog's JSON handler.
	JSON bool `env:"JSON" default:"false"`

	// OutputHandle overrides Output when set. Tests use it to capture records.
	OutputHandle io.Writer
}

//nolint:gochecknoglobals
var (
	Group      = slog.Group
	GroupValue = slog.GroupValue

	current     LoggerConfig
	currentLock sync.RWMutex
)

// Configure installs cfg as the configuration for loggers created afterwards.
func Configure(ctx context.Context, cfg LoggerConfig, appName string) {
	cfg.AppName = appName
	cfg.OutputHandle = openOutput(cfg)

	currentLock.Lock()
	current = cfg
	currentLock.Unlock()

	slog.SetLogLoggerLevel(parseLevel(cfg.Level, LevelInfo))

	GetLogger("infra.logging").DebugContext(ctx, "logging configured", Group("config",
		"app", cfg.AppName,
		"output", cfg.Output,
		"level", cfg.Level,
		"filter", cfg.Filter,
		"json", cfg.JSON,
	))
}

func openOutput(cfg LoggerConfig) io.Writer {
	if cfg.OutputHandle != nil {
		return cfg.OutputHandle
	}

	switch cfg.Output {
	case "", "discard":
		return io.Discard
	case "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}

	file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		panic(fmt.Errorf("open log file: %w", err))
	}

	return file
}

// GetLogger returns a logger tagged with name. Names are dotted package paths below
// internal/, which is what LOG_FILTER matches against.
func GetLogger(name string) Logger {
	currentLock.RLock()
	cfg := current
	currentLock.RUnlock()

	if cfg.OutputHandle == nil || cfg.OutputHandle == io.Discard {
		return NewNopLogger()
	}

	level := parseLevel(cfg.Level, LevelInfo)

	var handler Handler

	// the filter handler gates levels, so the formatters accept everything
	if cfg.JSON {
		handler = slog.NewJSONHandler(cfg.OutputHandle, &slog.HandlerOptions{
			AddSource: true,
			Level:     LevelDebug,
		})
	} else {
		handler = NewConsoleHandler(cfg.OutputHandle)
	}

	handler = NewFilterHandler(handler, level, cfg.pkgLevels())
	logger := slog.New(NewTracingHandler(handler))

	if cfg.AppName != "" {
		logger = logger.With("app", cfg.AppName)
	}

	return logger.With("logger", name)
}

// GetLogLogger adapts logger for code that wants a *log.Logger, such as http.Server.
func GetLogLogger(logger Logger, level Level) *log.Logger {
	return slog.NewLogLogger(logger.With("stdlog", true).Handler(), level)
}

func (cfg LoggerConfig) pkgLevels() map[string]Level {
	levels := make(map[string]Level)

	for _, entry := range strings.Split(cfg.Filter, ",") {
		name, level, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || name == "" {
			continue
		}

		levels[name] = parseLevel(level, LevelDebug)
	}

	return levels
}

func parseLevel(s string, fallback Level) Level {
	if level, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return level
	}

	return fallback
}
