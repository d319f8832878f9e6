// Package app defines the application's route table.
package app

import "github.com/espfs/webnav/pkg/router"

// Views mounted by the application.
const (
	ViewFileExplorer router.ViewID = "file-explorer"
	ViewConfig       router.ViewID = "config"
)

// Routes returns the default route table: the file explorer at "/" and
// the configuration view at "/config".
func Routes() []router.RouteDefinition {
	return []router.RouteDefinition{
		{Path: "/", Name: "File Explorer", View: ViewFileExplorer},
		{Path: "/config", Name: "Config", View: ViewConfig},
	}
}

// Registry returns a registry for override, or for the default table
// when override is empty.
func Registry(override []router.RouteDefinition) *router.Registry {
	if len(override) == 0 {
		return router.RegistryFrom(Routes())
	}
	return router.RegistryFrom(override)
}
