package router

import (
	"context"
	"log/slog"
	"sync"

	"go.uber.org/atomic"

	"github.com/espfs/webnav/internal/errors"
	"github.com/espfs/webnav/pkg/history"
	"github.com/espfs/webnav/pkg/routepath"
)

// Router is the navigation facade held by the rest of the application.
//
// It resolves the history adapter's current path once at construction and
// again on every Navigate call and every back/forward notification. State
// is updated before Navigate returns; subscribers are then notified
// synchronously on the calling goroutine, outside the router's lock, so a
// subscriber may navigate again. A notification superseded by a newer
// transition is dropped.
type Router struct {
	matcher *Matcher
	history history.Adapter
	logger  *slog.Logger

	// transitionMu pairs each history write with the resolution it causes.
	transitionMu sync.Mutex

	mu         sync.Mutex
	current    ResolvedRoute
	subs       []*subscription
	middleware []Middleware

	generation *atomic.Uint64
	detach     func()
	closeOnce  sync.Once
}

type subscription struct {
	fn     func(ResolvedRoute)
	active *atomic.Bool
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger.With("component", "router")
	}
}

// WithMiddleware installs transition middleware before the initial
// resolution, so it observes that transition too.
func WithMiddleware(mw ...Middleware) Option {
	return func(r *Router) {
		r.middleware = append(r.middleware, mw...)
	}
}

// New validates the registry, attaches to h, and resolves h's current path.
//
// Construction fails with a configuration error when the table is empty,
// a pattern is malformed, or no history adapter is available.
func New(reg *Registry, h history.Adapter, opts ...Option) (*Router, error) {
	if reg == nil {
		return nil, errors.New(errors.CodeEmptyRouteTable)
	}
	if h == nil {
		return nil, errors.New(errors.CodeHistoryUnavailable).WithDetail("no history adapter")
	}
	m, err := NewMatcher(reg)
	if err != nil {
		return nil, err
	}

	r := &Router{
		matcher:    m,
		history:    h,
		logger:     slog.Default().With("component", "router"),
		generation: atomic.NewUint64(0),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.transition(context.Background(), CauseInitial, h.CurrentPath(), nil); err != nil {
		return nil, err
	}
	r.detach = h.OnChange(r.handleHistoryChange)
	return r, nil
}

// Navigate moves to path, which is relative to the base and may carry a
// query string. An empty or malformed path returns a navigation argument
// error and leaves the state unchanged.
func (r *Router) Navigate(path string, opts ...NavigateOption) error {
	req := NewNavigationRequest(path, opts...)
	target, err := req.BuildURL()
	if err != nil {
		r.logger.Warn("navigation rejected", "path", path, "error", err)
		return err
	}

	cause := CausePush
	if req.Options.Replace {
		cause = CauseReplace
	}

	return r.transition(req.Options.Context, cause, target, func() error {
		var err error
		if cause == CauseReplace {
			err = r.history.Replace(target)
		} else {
			err = r.history.Push(target)
		}
		if err != nil {
			return errors.FromError(err, errors.CodeHistoryWrite)
		}
		return nil
	})
}

// Current returns the latest resolved route.
func (r *Router) Current() ResolvedRoute {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.clone()
}

// Subscribe registers fn to receive every new resolved route. The returned
// function removes the subscription; calling it again is a no-op.
func (r *Router) Subscribe(fn func(ResolvedRoute)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	sub := &subscription{fn: fn, active: atomic.NewBool(true)}

	r.mu.Lock()
	r.subs = append(r.subs, sub)
	r.mu.Unlock()

	return func() {
		if !sub.active.CompareAndSwap(true, false) {
			return
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, s := range r.subs {
			if s == sub {
				r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
				break
			}
		}
	}
}

// Use appends transition middleware.
func (r *Router) Use(mw ...Middleware) {
	r.mu.Lock()
	r.middleware = append(r.middleware, mw...)
	r.mu.Unlock()
}

// Back moves one entry back in history.
func (r *Router) Back() error { return r.Go(-1) }

// Forward moves one entry forward in history.
func (r *Router) Forward() error { return r.Go(1) }

// Go moves delta entries through history. The resulting change arrives
// through the adapter's change notification.
func (r *Router) Go(delta int) error {
	t, ok := r.history.(history.Traverser)
	if !ok {
		return errors.New(errors.CodeCannotTraverse).WithDetailf("%T", r.history)
	}
	return t.Go(delta)
}

// Href returns the browser-visible location for path.
func (r *Router) Href(path string) string {
	return routepath.JoinBase(r.history.Base(), path)
}

// Base returns the base path the router is served under.
func (r *Router) Base() string {
	return r.history.Base()
}

// Routes returns the route table in match order.
func (r *Router) Routes() []RouteDefinition {
	return r.matcher.Routes()
}

// Close stops listening to history changes.
func (r *Router) Close() {
	r.closeOnce.Do(func() {
		if r.detach != nil {
			r.detach()
		}
	})
}

func (r *Router) handleHistoryChange(path string) {
	if err := r.transition(context.Background(), CausePop, path, nil); err != nil {
		r.logger.Error("history transition failed", "path", path, "error", err)
	}
}

// transition runs the middleware chain around mutate, resolution, and
// publication.
func (r *Router) transition(ctx context.Context, cause Cause, target string, mutate func() error) error {
	t := &Transition{
		Context: ctx,
		Cause:   cause,
		Target:  target,
		From:    r.Current(),
	}

	applied := false
	apply := func() error {
		if applied {
			return nil
		}
		applied = true

		r.transitionMu.Lock()
		if mutate != nil {
			if err := mutate(); err != nil {
				r.transitionMu.Unlock()
				return err
			}
		}
		resolved := r.resolve(target)
		gen := r.commit(resolved)
		r.transitionMu.Unlock()
		t.To = resolved.clone()
		t.resolved = true

		r.logger.Debug("route resolved",
			"cause", cause.String(),
			"path", resolved.FullPath,
			"route", resolved.Name())
		if !resolved.Found() {
			r.logger.Info("no route matches", "path", resolved.Path)
		}

		r.publish(gen, resolved)
		return nil
	}

	r.mu.Lock()
	mw := append([]Middleware(nil), r.middleware...)
	r.mu.Unlock()

	err := ComposeMiddleware(t, mw, apply)
	if !applied {
		if applyErr := apply(); applyErr != nil {
			return applyErr
		}
	}
	return err
}

// resolve matches target, or reports not-found when the browser is at a
// location outside the base.
func (r *Router) resolve(target string) ResolvedRoute {
	if l, ok := r.history.(history.Locator); ok {
		if location := l.Location(); !routepath.HasBase(r.history.Base(), location) {
			r.logger.Info("location outside base", "location", location, "base", r.history.Base())
			return resolve(nil, target)
		}
	}
	return r.matcher.Match(target)
}

func (r *Router) commit(resolved ResolvedRoute) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = resolved
	return r.generation.Inc()
}

func (r *Router) publish(gen uint64, resolved ResolvedRoute) {
	r.mu.Lock()
	subs := append([]*subscription(nil), r.subs...)
	r.mu.Unlock()

	for _, sub := range subs {
		if r.generation.Load() != gen {
			return
		}
		if !sub.active.Load() {
			continue
		}
		sub.fn(resolved.clone())
	}
}
