package router

import (
	"github.com/espfs/webnav/internal/errors"
	"github.com/espfs/webnav/pkg/routepath"
)

// Registry is the ordered route table. Registration order is match order.
type Registry struct {
	routes []RouteDefinition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegistryFrom creates a registry from a static route list.
func RegistryFrom(routes []RouteDefinition) *Registry {
	return &Registry{routes: append([]RouteDefinition(nil), routes...)}
}

// Register appends a route. Patterns are validated when the router is
// constructed, not here, so a table can be built fluently.
func (r *Registry) Register(path, name string, view ViewID) *Registry {
	r.routes = append(r.routes, RouteDefinition{Path: path, Name: name, View: view})
	return r
}

// All returns the registered routes in order.
func (r *Registry) All() []RouteDefinition {
	return append([]RouteDefinition(nil), r.routes...)
}

// Len returns the number of registered routes.
func (r *Registry) Len() int {
	return len(r.routes)
}

// Validate reports a configuration error for an empty table or a
// malformed pattern.
func (r *Registry) Validate() error {
	_, err := compile(r.routes)
	return err
}

// compiledRoute pairs a definition with its parsed pattern.
type compiledRoute struct {
	def     RouteDefinition
	pattern routepath.Pattern
}

func compile(routes []RouteDefinition) ([]compiledRoute, error) {
	if len(routes) == 0 {
		return nil, errors.New(errors.CodeEmptyRouteTable)
	}
	out := make([]compiledRoute, 0, len(routes))
	for _, def := range routes {
		p, err := routepath.ParsePattern(def.Path)
		if err != nil {
			return nil, errors.New(errors.CodeMalformedPattern).
				WithDetailf("route %q (%s)", def.Path, def.Name).
				Wrap(err)
		}
		out = append(out, compiledRoute{def: def, pattern: p})
	}
	return out, nil
}
