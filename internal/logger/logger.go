package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"devcollab/internal/config"
)

// Level names a log stream. Each level has its own file in the log directory.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Levels lists every level in increasing severity.
var Levels = []Level{LevelInfo, LevelWarning, LevelError}

// FileName returns the log file name for the level, e.g. "info.log".
func (l Level) FileName() string {
	return string(l) + ".log"
}

// ParseLevel maps a level name to a Level.
func ParseLevel(name string) (Level, bool) {
	for _, lvl := range Levels {
		if string(lvl) == name {
			return lvl, true
		}
	}
	return "", false
}

// Logger provides leveled logging (info/warning/error) to files and stdout/stderr.
type Logger struct {
	loggers map[Level]*log.Logger
	files   map[Level]*os.File
	logDir  string
	mu      sync.Mutex
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(config *config.Config) *Logger {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	logger := &Logger{
		loggers: make(map[Level]*log.Logger, len(Levels)),
		files:   make(map[Level]*os.File, len(Levels)),
		logDir:  config.LogDirectory,
	}

	logger.setupLoggers()
	return logger
}

func (l *Logger) setupLoggers() {
	prefixes := map[Level]string{
		LevelInfo:    "ℹ️  INFO    ",
		LevelWarning: "⚠️  WARNING ",
		LevelError:   "❌ ERROR   ",
	}

	for _, lvl := range Levels {
		file := l.openLogFile(l.Path(lvl))
		l.files[lvl] = file

		var console io.Writer = os.Stdout
		if lvl == LevelError {
			console = os.Stderr
		}

		l.loggers[lvl] = log.New(io.MultiWriter(console, file), prefixes[lvl], log.Ldate|log.Ltime|log.Lshortfile)
	}
}

func (l *Logger) openLogFile(filename string) *os.File {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file %s: %v", filename, err)
	}
	return file
}

// Path returns the file path backing the given level.
func (l *Logger) Path(level Level) string {
	return filepath.Join(l.logDir, level.FileName())
}

func (l *Logger) write(level Level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	// calldepth 3: write -> Info/Warning/Error -> caller
	l.loggers[level].Output(3, fmt.Sprintf(format, v...))
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.write(LevelInfo, format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.write(LevelWarning, format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.write(LevelError, format, v...)
}

// CleanLogs truncates the file of the given level.
func (l *Logger) CleanLogs(level Level) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, ok := l.files[level]
	if !ok {
		return fmt.Errorf("unknown log level %q", level)
	}
	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("truncate %s: %w", level.FileName(), err)
	}
	return nil
}

// Close closes all log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, file := range l.files {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
