// Package logging defines the logger contract used across dishcalc and a
// no-op implementation for tests and library callers.
package logging

import "context"

// Logger is a leveled structured logger. args are alternating key/value
// pairs.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	WithFields(fields map[string]any) Logger
	WithContext(ctx context.Context) Logger
}

// Provider hands out named loggers.
type Provider interface {
	GetLogger(name string) Logger
}

// Module names.
const (
	RootModule     = "dishcalc"
	PlanModule     = "dishcalc.plan"
	PipelineModule = "dishcalc.pipeline"
	OutputModule   = "dishcalc.output"
	HistoryModule  = "dishcalc.history"
	PDFModule      = "dishcalc.pdf"
)

// ModuleLogger returns the provider's logger for module with a "module"
// field attached. A nil provider yields a no-op logger.
func ModuleLogger(provider Provider, module string) Logger {
	if module == "" {
		module = RootModule
	}
	var logger Logger = NoOp()
	if provider != nil {
		if l := provider.GetLogger(module); l != nil {
			logger = l
		}
	}
	return logger.WithFields(map[string]any{"module": module})
}

// NoOp returns a logger that discards everything.
func NoOp() Logger { return noop{} }

type noop struct{}

func (noop) Trace(string, ...any)                 {}
func (noop) Debug(string, ...any)                 {}
func (noop) Info(string, ...any)                  {}
func (noop) Warn(string, ...any)                  {}
func (noop) Error(string, ...any)                 {}
func (n noop) WithFields(map[string]any) Logger   { return n }
func (n noop) WithContext(context.Context) Logger { return n }
