package router

import "context"

// Transition describes one route change as seen by middleware.
type Transition struct {
	// Context carries request-scoped values such as trace spans.
	Context context.Context

	// Cause is what triggered the transition.
	Cause Cause

	// Target is the requested path (base stripped).
	Target string

	// From is the route before the transition.
	From ResolvedRoute

	// To is the route after the transition. It is set once next returns.
	To ResolvedRoute

	resolved bool
}

// Resolved reports whether To has been set.
func (t *Transition) Resolved() bool {
	return t.resolved
}

// Middleware wraps transitions for instrumentation.
//
// Middleware observes; it does not decide. A middleware that returns
// without calling next does not cancel the transition: the router applies
// it after the chain returns.
type Middleware interface {
	Handle(t *Transition, next func() error) error
}

// MiddlewareFunc is a function adapter for Middleware.
type MiddlewareFunc func(t *Transition, next func() error) error

// Handle implements Middleware.
func (f MiddlewareFunc) Handle(t *Transition, next func() error) error {
	return f(t, next)
}

// ComposeMiddleware builds a chain from middleware and a final handler.
// Middleware runs in order (first to last), with the handler at the end.
func ComposeMiddleware(t *Transition, mw []Middleware, handler func() error) error {
	chain := handler
	for i := len(mw) - 1; i >= 0; i-- {
		m := mw[i]
		next := chain
		chain = func() error {
			return m.Handle(t, next)
		}
	}
	return chain()
}

// Chain combines multiple middleware into one.
func Chain(middleware ...Middleware) Middleware {
	return MiddlewareFunc(func(t *Transition, next func() error) error {
		return ComposeMiddleware(t, middleware, next)
	})
}

// Only runs mw for transitions where condition holds.
func Only(condition func(t *Transition) bool, mw Middleware) Middleware {
	return MiddlewareFunc(func(t *Transition, next func() error) error {
		if !condition(t) {
			return next()
		}
		return mw.Handle(t, next)
	})
}
