// Package logging provides config-driven categorized file logging for the
// CSV agent. Logs land in <workspace>/.csvagent/logs with one file per
// category per day. When debug mode is off every call is a no-op.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category names one logging subsystem.
type Category string

const (
	CategoryBoot    Category = "boot"    // startup, config, wiring
	CategorySession Category = "session" // uploads, table store, history
	CategoryRouting Category = "routing" // stage 0 decisions
	CategorySynth   Category = "synth"   // stage 1 prompt/snippet
	CategoryExec    Category = "exec"    // stage 2 plan execution
	CategoryCompose Category = "compose" // stage 3 formatting/phrasing
	CategoryAPI     Category = "api"     // LLM round-trips
	CategoryStore   Category = "store"   // trace persistence
)

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Config controls whether and what gets logged. It mirrors the logging
// section of the agent config so this package has no config dependency.
type Config struct {
	DebugMode  bool
	Level      string
	Categories map[string]bool
}

// Logger writes to one category's log file.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	cfg       Config
	cfgMu     sync.RWMutex
	logLevel  int
)

// Initialize sets up the log directory from the agent config. Safe to call
// once at startup; a disabled debug mode makes the whole package inert.
func Initialize(workspace string, c Config) error {
	cfgMu.Lock()
	cfg = c
	switch c.Level {
	case "debug":
		logLevel = LevelDebug
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}
	cfgMu.Unlock()

	if !c.DebugMode {
		return nil
	}
	if workspace == "" {
		return fmt.Errorf("workspace path required")
	}
	logsDir = filepath.Join(workspace, ".csvagent", "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	Boot("=== csvagent logging initialized (level=%s) ===", c.Level)
	return nil
}

// IsCategoryEnabled reports whether a category currently logs.
func IsCategoryEnabled(category Category) bool {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	if !cfg.DebugMode {
		return false
	}
	if cfg.Categories == nil {
		return true
	}
	enabled, known := cfg.Categories[string(category)]
	if !known {
		return true
	}
	return enabled
}

// Get returns (or creates) the logger for a category. Disabled categories
// get a no-op logger.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) || logsDir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	filename := fmt.Sprintf("%s_%s.log", time.Now().Format("2006-01-02"), category)
	file, err := os.OpenFile(filepath.Join(logsDir, filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] could not open log file: %v\n", err)
		return &Logger{category: category}
	}
	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...any) {
	if l.logger == nil || logLevel > LevelDebug {
		return
	}
	l.logger.Printf("[DEBUG] %s", fmt.Sprintf(format, args...))
}

// Info logs at info level.
func (l *Logger) Info(format string, args ...any) {
	if l.logger == nil || logLevel > LevelInfo {
		return
	}
	l.logger.Printf("[INFO] %s", fmt.Sprintf(format, args...))
}

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...any) {
	if l.logger == nil || logLevel > LevelWarn {
		return
	}
	l.logger.Printf("[WARN] %s", fmt.Sprintf(format, args...))
}

// Error always logs if the category is enabled.
func (l *Logger) Error(format string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] %s", fmt.Sprintf(format, args...))
}

// CloseAll closes every open log file. Call at shutdown.
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// Timer measures one operation's duration.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop logs the elapsed time at debug level and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// Convenience wrappers, one pair per category.

func Boot(format string, args ...any)         { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...any)    { Get(CategoryBoot).Debug(format, args...) }
func Session(format string, args ...any)      { Get(CategorySession).Info(format, args...) }
func SessionDebug(format string, args ...any) { Get(CategorySession).Debug(format, args...) }
func Routing(format string, args ...any)      { Get(CategoryRouting).Info(format, args...) }
func RoutingDebug(format string, args ...any) { Get(CategoryRouting).Debug(format, args...) }
func Synth(format string, args ...any)        { Get(CategorySynth).Info(format, args...) }
func SynthDebug(format string, args ...any)   { Get(CategorySynth).Debug(format, args...) }
func Exec(format string, args ...any)         { Get(CategoryExec).Info(format, args...) }
func ExecDebug(format string, args ...any)    { Get(CategoryExec).Debug(format, args...) }
func Compose(format string, args ...any)      { Get(CategoryCompose).Info(format, args...) }
func ComposeDebug(format string, args ...any) { Get(CategoryCompose).Debug(format, args...) }
func API(format string, args ...any)          { Get(CategoryAPI).Info(format, args...) }
func APIDebug(format string, args ...any)     { Get(CategoryAPI).Debug(format, args...) }
func StoreLog(format string, args ...any)     { Get(CategoryStore).Info(format, args...) }
func StoreError(format string, args ...any)   { Get(CategoryStore).Error(format, args...) }
