package view

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/delaneyj/stitch/signals"
)

// Handler is a state method callable from event bindings and expressions.
// It receives the instance state followed by the call arguments; a bare
// reference such as @click="increment" passes the event as the only argument.
type Handler func(state *signals.Object, args ...any) any

// Diagnostic records one binding failure. Failures never abort a patch pass;
// the binding degrades to an empty value instead.
type Diagnostic struct {
	Directive string
	Expr      string
	Err       error
}

func (d Diagnostic) Error() string {
	if d.Expr == "" {
		return fmt.Sprintf("%s: %v", d.Directive, d.Err)
	}
	return fmt.Sprintf("%s %q: %v", d.Directive, d.Expr, d.Err)
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}

type Option func(*config)

type config struct {
	logger       *zap.Logger
	rs           *signals.ReactiveSystem
	onDiagnostic func(Diagnostic)
	maxRuns      int
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithReactiveSystem mounts into an existing system instead of creating one.
// Effect errors are then reported through that system's own handler.
func WithReactiveSystem(rs *signals.ReactiveSystem) Option {
	return func(c *config) {
		c.rs = rs
	}
}

func WithDiagnosticHandler(fn func(Diagnostic)) Option {
	return func(c *config) {
		c.onDiagnostic = fn
	}
}

// WithMaxEffectRuns bounds a single patch pass. It only applies when the
// instance creates its own reactive system.
func WithMaxEffectRuns(n int) Option {
	return func(c *config) {
		c.maxRuns = n
	}
}
