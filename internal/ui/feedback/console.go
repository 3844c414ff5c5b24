// Package feedback prints the guard's non-blocking recovery messages
// to the console with severity coloring.
package feedback

import (
	"io"
	"os"

	"github.com/fatih/color"

	"workbreak/internal/core/guard"
)

// Console writes feedback messages with severity coloring.
type Console struct {
	out     io.Writer
	success *color.Color
	warning *color.Color
	info    *color.Color
}

// NewConsole returns a console sink writing to stderr.
func NewConsole() *Console {
	return &Console{
		out:     os.Stderr,
		success: color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		info:    color.New(color.FgCyan),
	}
}

// Write prints one feedback message.
func (console *Console) Write(message guard.Feedback) {
	painter := console.info
	switch message.Severity {
	case guard.SeveritySuccess:
		painter = console.success
	case guard.SeverityWarning:
		painter = console.warning
	}
	_, _ = painter.Fprintf(console.out, "[%s] %s\n", message.Severity, message.Message)
}

// Drain consumes the channel until it closes, printing every message.
// Run it on its own goroutine.
func (console *Console) Drain(messages <-chan guard.Feedback) {
	for message := range messages {
		console.Write(message)
	}
}
