package router

import (
	"log/slog"
	"sync"
)

// Navigator is the capability handed to views: navigate, read the current
// route, and watch for changes. *Router implements it.
type Navigator interface {
	Navigate(path string, opts ...NavigateOption) error
	Current() ResolvedRoute
	Subscribe(fn func(ResolvedRoute)) (unsubscribe func())
}

var _ Navigator = (*Router)(nil)

// Mounter receives the resolved route after every transition.
type Mounter interface {
	Mount(route ResolvedRoute)
}

// MounterFunc is a function adapter for Mounter.
type MounterFunc func(route ResolvedRoute)

// Mount implements Mounter.
func (f MounterFunc) Mount(route ResolvedRoute) { f(route) }

// Attach mounts nav's current route into m and keeps it in sync.
// The returned function stops further mounts.
func Attach(nav Navigator, m Mounter) (detach func()) {
	unsubscribe := nav.Subscribe(m.Mount)
	m.Mount(nav.Current())
	return unsubscribe
}

// View is a mounted view instance.
type View interface {
	Unmount()
}

// RouteUpdater is implemented by views that stay mounted when the route
// changes but the view does not (e.g., a query string change).
type RouteUpdater interface {
	UpdateRoute(route ResolvedRoute)
}

// ViewFactory creates a view for a route. nav lets the view navigate.
type ViewFactory func(nav Navigator, route ResolvedRoute) View

// OutletOption configures a ViewOutlet.
type OutletOption func(*ViewOutlet)

// WithFallback mounts view whenever no route matches.
func WithFallback(view ViewID) OutletOption {
	return func(o *ViewOutlet) {
		o.fallback = view
	}
}

// WithOutletLogger sets the outlet's logger.
func WithOutletLogger(logger *slog.Logger) OutletOption {
	return func(o *ViewOutlet) {
		o.logger = logger.With("component", "outlet")
	}
}

// ViewOutlet is a Mounter that instantiates views from factories.
//
// When the resolved view changes, the previous view is unmounted before
// the next one is created. Unmatched routes mount the fallback view if one
// is configured, otherwise nothing.
type ViewOutlet struct {
	nav       Navigator
	factories map[ViewID]ViewFactory
	fallback  ViewID
	logger    *slog.Logger

	mu       sync.Mutex
	active   View
	activeID ViewID
	gen      uint64
}

// NewViewOutlet creates an outlet over factories.
func NewViewOutlet(nav Navigator, factories map[ViewID]ViewFactory, opts ...OutletOption) *ViewOutlet {
	o := &ViewOutlet{
		nav:       nav,
		factories: factories,
		logger:    slog.Default().With("component", "outlet"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Mount implements Mounter.
func (o *ViewOutlet) Mount(route ResolvedRoute) {
	id := route.View()
	if !route.Found() {
		id = o.fallback
	}
	factory := o.factories[id]
	if id != "" && factory == nil {
		o.logger.Warn("no factory for view", "view", id, "path", route.Path)
	}

	o.mu.Lock()
	if id != "" && id == o.activeID && o.active != nil {
		view := o.active
		o.mu.Unlock()
		if u, ok := view.(RouteUpdater); ok {
			u.UpdateRoute(route)
		}
		return
	}
	prev := o.active
	o.active, o.activeID = nil, ""
	o.gen++
	gen := o.gen
	o.mu.Unlock()

	if prev != nil {
		prev.Unmount()
	}
	if factory == nil {
		return
	}

	// The factory may navigate, which re-enters Mount.
	view := factory(o.nav, route)

	o.mu.Lock()
	if o.gen != gen {
		o.mu.Unlock()
		if view != nil {
			view.Unmount()
		}
		return
	}
	o.active, o.activeID = view, id
	o.mu.Unlock()
}

// Active returns the mounted view and its ID.
func (o *ViewOutlet) Active() (ViewID, View) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activeID, o.active
}

// Close unmounts the active view.
func (o *ViewOutlet) Close() {
	o.mu.Lock()
	prev := o.active
	o.active, o.activeID = nil, ""
	o.gen++
	o.mu.Unlock()
	if prev != nil {
		prev.Unmount()
	}
}
