// Package clientdist holds the browser side of the history bridge.
package clientdist

import _ "embed"

// BridgeJS is the bridge client script.
//
// It is served next to the bridge endpoint, at "{base}/_nav.js".
//
//go:embed webnav.js
var BridgeJS []byte
