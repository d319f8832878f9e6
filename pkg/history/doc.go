// Package history keeps the router's notion of the current path in sync
// with a session history stack.
//
// Two adapters are provided:
//
//   - Memory: an in-process history stack (entries plus a cursor), used by
//     tests, the CLI, and headless hosts.
//   - Socket: a bridge to a real browser's session history over a
//     WebSocket. The browser reports its location on connect and on every
//     popstate; the server asks it to push, replace, or traverse entries.
//
// Both operate in history mode: paths are real paths (no "#" prefix) and
// the configured base path is prepended for the browser and stripped for
// the router.
//
// # Bridge Frames
//
// Frames are JSON objects keyed by "t":
//
//	client → server  {"t":"init","path":"/app/config"}
//	client → server  {"t":"pop","path":"/app/"}
//	client → server  {"t":"navigate","path":"/config","replace":false}
//	server → client  {"t":"push","path":"/app/config"}
//	server → client  {"t":"replace","path":"/app/config"}
//	server → client  {"t":"go","delta":-1}
//	server → client  {"t":"route","route":{...}}
package history
