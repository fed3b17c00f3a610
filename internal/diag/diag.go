// Package diag provides stderr-only diagnostic logging, generalized from
// the teacher's debug-file logger into leveled helpers. stdout is reserved
// for MCP protocol traffic and CLI command output; nothing in this package
// ever writes there.
package diag

import (
	"fmt"
	"log"
	"os"
	"sync"
)

var (
	mu      sync.Mutex
	logger  = log.New(os.Stderr, "", log.LstdFlags)
	verbose bool
	file    *os.File
)

// SetVerbose toggles Debug-level output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// EnableFileSink additionally tees diagnostics to filename, for deep
// troubleshooting sessions. Mirrors the teacher's InitDebugLogger.
func EnableFileSink(filename string) error {
	mu.Lock()
	defer mu.Unlock()
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	file = f
	return nil
}

func CloseFileSink() {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
		file = nil
	}
}

func emit(level, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	logger.Printf("[%s] %s", level, msg)
	if file != nil {
		fmt.Fprintf(file, "[%s] %s\n", level, msg)
	}
}

func Info(format string, args ...interface{}) {
	emit("INFO", format, args...)
}

func Warn(format string, args ...interface{}) {
	emit("WARN", format, args...)
}

func Error(format string, args ...interface{}) {
	emit("ERROR", format, args...)
}

func Debug(format string, args ...interface{}) {
	mu.Lock()
	on := verbose
	mu.Unlock()
	if !on {
		return
	}
	emit("DEBUG", format, args...)
}
