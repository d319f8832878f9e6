package router

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"

	"github.com/espfs/webnav/internal/errors"
	"github.com/espfs/webnav/pkg/routepath"
)

// NavigateOptions configures navigation behavior.
type NavigateOptions struct {
	// Replace replaces the current history entry instead of pushing.
	Replace bool

	// Params are query parameters to add to the URL.
	Params map[string]any

	// Context is passed to transition middleware (tracing, deadlines).
	Context context.Context
}

// NavigateOption is a functional option for Navigate.
type NavigateOption func(*NavigateOptions)

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() NavigateOption {
	return func(o *NavigateOptions) {
		o.Replace = true
	}
}

// WithParams adds query parameters to the navigation URL.
func WithParams(params map[string]any) NavigateOption {
	return func(o *NavigateOptions) {
		o.Params = params
	}
}

// WithContext sets the context seen by transition middleware.
func WithContext(ctx context.Context) NavigateOption {
	return func(o *NavigateOptions) {
		o.Context = ctx
	}
}

// NavigationRequest is a validated-on-demand navigation target.
type NavigationRequest struct {
	Path    string
	Options NavigateOptions
}

// NewNavigationRequest applies opts to a request for path.
func NewNavigationRequest(path string, opts ...NavigateOption) NavigationRequest {
	var options NavigateOptions
	for _, opt := range opts {
		opt(&options)
	}
	if options.Context == nil {
		options.Context = context.Background()
	}
	return NavigationRequest{Path: path, Options: options}
}

// BuildURL validates the path and returns it canonicalized, relative to
// the base, with any query parameters merged in (sorted by key).
//
// An empty or malformed path yields a navigation argument error.
func (nr NavigationRequest) BuildURL() (string, error) {
	target, err := routepath.ValidateNavPath(nr.Path)
	if err != nil {
		if stderrors.Is(err, routepath.ErrEmptyPath) {
			return "", errors.New(errors.CodeEmptyPath)
		}
		return "", errors.New(errors.CodeMalformedPath).WithDetailf("%q", nr.Path).Wrap(err)
	}
	if len(nr.Options.Params) == 0 {
		return target, nil
	}

	path, rawQuery := routepath.SplitPathAndQuery(target)
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", errors.New(errors.CodeMalformedPath).WithDetailf("query of %q", nr.Path).Wrap(err)
	}
	for k, v := range nr.Options.Params {
		q.Set(k, fmt.Sprintf("%v", v))
	}
	return path + "?" + q.Encode(), nil
}
