// Package routepath implements the path syntax shared by the router and
// the history adapters: canonicalization of requested paths, validation of
// navigation targets, route pattern parsing, and base-path handling.
//
// # Canonical Paths
//
// A canonical path starts with "/", has no empty, "." or ".." segments, and
// no trailing slash unless it is the root:
//
//	/config/          → /config
//	//files///a       → /files/a
//	/files/./a/../b   → /files/b
//
// # Base Paths
//
// History mode lets an application be served from a sub-path. The base is
// prepended when a path is shown to the browser and stripped when reading
// the browser location back:
//
//	base := routepath.NormalizeBase("app/")      // "/app"
//	routepath.JoinBase(base, "/config")          // "/app/config"
//	routepath.StripBase(base, "/app/config")     // "/config"
package routepath
