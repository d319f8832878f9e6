package router

import (
	"maps"
	"net/url"
)

// ViewID is an opaque identifier for a renderable view. The router only
// carries it; the mounting layer gives it meaning.
type ViewID string

// RouteDefinition associates a path pattern with a named view.
type RouteDefinition struct {
	// Path is the route pattern (e.g., "/config").
	Path string `json:"path" toml:"path"`

	// Name is the logical route name (e.g., "Config").
	Name string `json:"name" toml:"name"`

	// View identifies the view mounted for this route.
	View ViewID `json:"view" toml:"view"`
}

// ResolvedRoute is the outcome of matching a path against the registry.
type ResolvedRoute struct {
	// Matched is the winning definition, or nil when nothing matched.
	Matched *RouteDefinition

	// Path is the canonical path that was matched (base stripped).
	Path string

	// FullPath is Path plus the query string, if any.
	FullPath string

	// Params are the captured pattern parameters.
	Params map[string]string

	// Query holds the parsed query string.
	Query url.Values
}

// Found reports whether a route matched.
func (r ResolvedRoute) Found() bool {
	return r.Matched != nil
}

// Name returns the matched route name, or "" when unmatched.
func (r ResolvedRoute) Name() string {
	if r.Matched == nil {
		return ""
	}
	return r.Matched.Name
}

// View returns the matched view, or "" when unmatched.
func (r ResolvedRoute) View() ViewID {
	if r.Matched == nil {
		return ""
	}
	return r.Matched.View
}

// Param returns a captured parameter.
func (r ResolvedRoute) Param(name string) (string, bool) {
	v, ok := r.Params[name]
	return v, ok
}

// Equal compares two resolved routes by value.
func (r ResolvedRoute) Equal(o ResolvedRoute) bool {
	if (r.Matched == nil) != (o.Matched == nil) {
		return false
	}
	if r.Matched != nil && *r.Matched != *o.Matched {
		return false
	}
	if r.Path != o.Path || r.FullPath != o.FullPath {
		return false
	}
	if !maps.Equal(r.Params, o.Params) || len(r.Query) != len(o.Query) {
		return false
	}
	for k, vs := range r.Query {
		ovs, ok := o.Query[k]
		if !ok || len(vs) != len(ovs) {
			return false
		}
		for i := range vs {
			if vs[i] != ovs[i] {
				return false
			}
		}
	}
	return true
}

// clone returns a deep copy so callers never share maps with the router.
func (r ResolvedRoute) clone() ResolvedRoute {
	c := r
	if r.Matched != nil {
		def := *r.Matched
		c.Matched = &def
	}
	c.Params = maps.Clone(r.Params)
	if c.Params == nil {
		c.Params = map[string]string{}
	}
	if r.Query != nil {
		c.Query = make(url.Values, len(r.Query))
		for k, vs := range r.Query {
			c.Query[k] = append([]string(nil), vs...)
		}
	}
	return c
}

// Cause identifies what triggered a transition.
type Cause int

const (
	// CauseInitial is the first resolution at construction.
	CauseInitial Cause = iota
	// CausePush is Navigate adding a history entry.
	CausePush
	// CauseReplace is Navigate overwriting the current entry.
	CauseReplace
	// CausePop is back/forward navigation reported by history.
	CausePop
)

// String returns the cause name.
func (c Cause) String() string {
	switch c {
	case CauseInitial:
		return "initial"
	case CausePush:
		return "push"
	case CauseReplace:
		return "replace"
	case CausePop:
		return "pop"
	default:
		return "unknown"
	}
}
