// Package server serves a webnav single-page application in history mode.
//
// The server has three jobs:
//
//   - Static assets: a GET for a file that exists in the asset source is
//     answered with that file.
//   - History fallback: any other GET under the base path is answered with
//     the index document, so deep links such as /app/config load the
//     application. The status is 200 when the path matches a route and
//     404 when it does not.
//   - History bridge: GET {base}/_nav upgrades to a WebSocket. Each
//     connection gets its own router over a history.Socket, and every
//     resolved route is sent to the browser as a route frame.
//
// Prometheus metrics are exposed on /metrics when enabled.
//
//	srv, err := server.New(server.DefaultConfig(), app.Registry(), fsys)
//	if err != nil {
//	    return err
//	}
//	return srv.Run(ctx)
//
// # Graceful Shutdown
//
// Run returns when ctx is canceled. Open bridge connections are closed and
// in-flight requests are given ShutdownTimeout to finish.
package server
