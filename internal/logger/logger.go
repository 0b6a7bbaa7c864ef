// Package logger provides leveled logging for sercha-kb.
// Debug, Info and Warn messages are printed to stderr only in verbose mode
// (the --verbose flag) to trace the ingestion and answer pipelines.
// Error messages are always printed.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Level is the severity of a log line.
type Level int

// Levels in increasing severity.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelPrefix = [...]string{
	LevelDebug: "[DEBUG] ",
	LevelInfo:  "[INFO] ",
	LevelWarn:  "[WARN] ",
	LevelError: "[ERROR] ",
}

// String returns the level name without brackets.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	verbose = v
	mu.Unlock()
}

// IsVerbose reports whether verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects all log output. Tests pass a buffer.
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
}

// Enabled reports whether a message at l would be printed.
func Enabled(l Level) bool {
	return l >= LevelError || IsVerbose()
}

func logf(l Level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if l < LevelError && !verbose {
		return
	}
	fmt.Fprintf(output, levelPrefix[l]+format+"\n", args...)
}

// Debug traces pipeline steps.
func Debug(format string, args ...any) { logf(LevelDebug, format, args...) }

// Info reports progress such as stored document counts.
func Info(format string, args ...any) { logf(LevelInfo, format, args...) }

// Warn reports recoverable problems such as a retried request.
func Warn(format string, args ...any) { logf(LevelWarn, format, args...) }

// Error reports skipped pages and provider outages. Always printed.
func Error(format string, args ...any) { logf(LevelError, format, args...) }

// Section prints a header separating pipeline runs in verbose output.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
