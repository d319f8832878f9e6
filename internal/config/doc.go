// Package config provides configuration loading for webnav servers.
//
// Configuration lives in webnav.toml or webnav.json at the project root;
// when both exist the TOML file wins. Every field is optional. Values are
// applied in order: defaults, then the file, then environment variables
// (BASE_URL, WEBNAV_ADDR), then command-line flags.
//
// # Configuration File Structure
//
//	base = "/app"
//	address = ":8080"
//	logLevel = "info"
//
//	[static]
//	dir = "dist"
//	index = "index.html"
//
//	[metrics]
//	path = "/metrics"
//
//	[bridge]
//	handshakeTimeout = "5s"
//	writeTimeout = "10s"
//
//	[[routes]]
//	path = "/"
//	name = "File Explorer"
//	view = "file-explorer"
//
// Assets may come from a bucket instead of a directory:
//
//	[s3]
//	bucket = "my-site"
//	prefix = "releases/v3"
//	region = "eu-central-1"
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    return err
//	}
//	cfg.ApplyEnv(os.Getenv)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
