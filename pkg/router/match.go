package router

import (
	"net/url"

	"github.com/espfs/webnav/pkg/routepath"
)

// Matcher resolves paths against a validated route table.
type Matcher struct {
	routes []compiledRoute
}

// NewMatcher compiles the registry's patterns.
func NewMatcher(reg *Registry) (*Matcher, error) {
	routes, err := compile(reg.routes)
	if err != nil {
		return nil, err
	}
	return &Matcher{routes: routes}, nil
}

// Match resolves requestedPath. The first route whose pattern matches
// wins; when none does, the result has no Matched definition.
func (m *Matcher) Match(requestedPath string) ResolvedRoute {
	return resolve(m.routes, requestedPath)
}

// Routes returns the definitions in match order.
func (m *Matcher) Routes() []RouteDefinition {
	defs := make([]RouteDefinition, len(m.routes))
	for i, r := range m.routes {
		defs[i] = r.def
	}
	return defs
}

// Match resolves requestedPath against definitions in order.
// Definitions with malformed patterns never match.
func Match(definitions []RouteDefinition, requestedPath string) ResolvedRoute {
	routes := make([]compiledRoute, 0, len(definitions))
	for _, def := range definitions {
		if p, err := routepath.ParsePattern(def.Path); err == nil {
			routes = append(routes, compiledRoute{def: def, pattern: p})
		}
	}
	return resolve(routes, requestedPath)
}

func resolve(routes []compiledRoute, requestedPath string) ResolvedRoute {
	res, err := routepath.Canonicalize(requestedPath)
	if err != nil {
		// Uncanonicalizable input cannot match any pattern.
		path, _ := routepath.SplitPathAndQuery(requestedPath)
		return ResolvedRoute{Path: path, FullPath: requestedPath, Params: map[string]string{}}
	}

	resolved := ResolvedRoute{
		Path:     res.Path,
		FullPath: res.Path,
		Params:   map[string]string{},
	}
	if res.Query != "" {
		resolved.FullPath += "?" + res.Query
		// Malformed pairs are dropped; the rest are kept.
		resolved.Query, _ = url.ParseQuery(res.Query)
	}

	for i := range routes {
		if params, ok := routes[i].pattern.Match(res.Path); ok {
			def := routes[i].def
			resolved.Matched = &def
			resolved.Params = params
			return resolved
		}
	}
	return resolved
}
