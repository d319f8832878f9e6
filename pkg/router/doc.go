// Package router implements client-side navigation for a single-page
// application served in history mode.
//
// The router provides:
//   - A view registry: an ordered table of (pattern, name, view) routes
//   - A path matcher: first registered pattern wins
//   - A facade that tracks the resolved route, navigates through a
//     history adapter, and notifies subscribers on every transition
//   - An outlet that turns transitions into view mounts
//
// # Patterns
//
//	/              literal root
//	/config        literal
//	/files/:name   one captured segment, Params["name"]
//	/files/*       remaining segments, Params["pathMatch"]
//	*              every path (a catch-all fallback route)
//
// # Usage
//
//	reg := router.NewRegistry().
//	    Register("/", "File Explorer", "file-explorer").
//	    Register("/config", "Config", "config")
//
//	hist, _ := history.NewMemory(os.Getenv("BASE_URL"), "")
//	r, err := router.New(reg, hist)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	unsubscribe := r.Subscribe(func(route router.ResolvedRoute) {
//	    fmt.Println("now showing", route.Name())
//	})
//	defer unsubscribe()
//
//	r.Navigate("/config")
//
// Unmatched paths are not errors: the resolved route has no Matched
// definition and the host decides what to show.
package router
