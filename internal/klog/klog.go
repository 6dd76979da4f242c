// Package klog is the kernel's logger: tagged lines like "[INFO]",
// "[trap]", "[proc]", "[VMM]" written through a thin Fprintf wrapper over
// an io.Writer. There is no structured or leveled logging framework here,
// since kernel log output is a polled UART line, not a multiplexed sink.
package klog

import (
	"fmt"
	"io"
	"os"
)

// Logger writes tagged kernel log lines to an underlying writer.
type Logger struct {
	w io.Writer
}

// Default writes to os.Stderr; used by tests and host tooling. The kernel
// binary rebinds it to the UART driver once uart.Init has run.
var Default = &Logger{w: os.Stderr}

// SetWriter redirects the default logger's output.
func SetWriter(w io.Writer) {
	Default.w = w
}

func (l *Logger) printf(tag, format string, args ...any) {
	fmt.Fprintf(l.w, "["+tag+"]: \t"+format+"\n", args...)
}

// Info logs an informational message under the given subsystem tag.
func Info(tag, format string, args ...any) { Default.printf(tag, format, args...) }

// Error logs an error message under the given subsystem tag.
func Error(tag, format string, args ...any) { Default.printf(tag, format, args...) }

// Debug logs a debug message under the given subsystem tag.
func Debug(tag, format string, args ...any) { Default.printf(tag, format, args...) }
