// Package logging writes operator-facing progress to the console and a
// rotating log file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fatih/color"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/example/dotscaffold/internal/exec"
)

// Options configures a Logger.
type Options struct {
	Console  io.Writer // defaults to os.Stdout
	FilePath string    // rotating log file; empty disables the file log
	Verbose  bool      // echo debug messages to the console
	Quiet    bool      // console shows only warnings, errors and results
}

// Logger is the single sink for progress messages and tool output.
type Logger struct {
	mu      sync.Mutex
	console io.Writer
	file    *log.Logger
	closer  io.Closer
	verbose bool
	quiet   bool
}

var (
	stepColor    = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	toolColor    = color.New(color.Faint)
)

// New creates a Logger. The log file's directory is created if needed;
// if that fails the logger falls back to console only.
func New(opts Options) *Logger {
	l := &Logger{
		console: opts.Console,
		verbose: opts.Verbose,
		quiet:   opts.Quiet,
	}
	if l.console == nil {
		l.console = os.Stdout
	}

	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0755); err == nil {
			rotating := &lumberjack.Logger{
				Filename:   opts.FilePath,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
			}
			l.file = log.New(rotating, "", log.LstdFlags)
			l.closer = rotating
		} else {
			fmt.Fprintf(l.console, "warning: file log disabled: %v\n", err)
		}
	}
	return l
}

// Discard returns a Logger that writes nowhere.
func Discard() *Logger {
	return &Logger{console: io.Discard}
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// Step announces a new stage of work.
func (l *Logger) Step(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.routine("STEP", stepColor.Sprint("==> ")+stepColor.Sprint(msg), msg)
}

// Info reports routine progress.
func (l *Logger) Info(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.routine("INFO", msg, msg)
}

// Success reports a result. It is shown even in quiet mode.
func (l *Logger) Success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.write("INFO", successColor.Sprint("✓ ")+msg, msg)
}

// Warn reports something the operator should look at.
func (l *Logger) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.write("WARN", warnColor.Sprint("! ")+msg, msg)
}

// Error reports a failed item. Failures never stop the logger.
func (l *Logger) Error(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.write("ERROR", errorColor.Sprint("✗ ")+msg, msg)
}

// Debug goes to the file log, and to the console only in verbose mode.
func (l *Logger) Debug(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if l.verbose && !l.quiet {
		l.write("DEBUG", toolColor.Sprint(msg), msg)
		return
	}
	l.writeFile("DEBUG", msg)
}

// Line forwards one line of external tool output. Implements exec.OutputSink.
func (l *Logger) Line(stream exec.Stream, text string) {
	l.routine(string(stream), toolColor.Sprint("    │ ")+text, text)
}

// routine writes progress that quiet mode keeps off the console.
func (l *Logger) routine(level, console, plain string) {
	if l.quiet {
		l.writeFile(level, plain)
		return
	}
	l.write(level, console, plain)
}

func (l *Logger) write(level, console, plain string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console, console)
	if l.file != nil {
		l.file.Printf("[%s] %s", level, plain)
	}
}

func (l *Logger) writeFile(level, plain string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Printf("[%s] %s", level, plain)
	}
}
