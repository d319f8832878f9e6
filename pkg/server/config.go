package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/espfs/webnav/pkg/history"
)

// Defaults for Config.
const (
	DefaultAddress     = ":8080"
	DefaultIndex       = "index.html"
	DefaultBridgePath  = "/_nav"
	DefaultMetricsPath = "/metrics"
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Address is the address to listen on (e.g., ":8080" or "localhost:3000").
	// Default: ":8080".
	Address string

	// Base is the path prefix the application is deployed under.
	// Default: "" (domain root).
	Base string

	// Index is the name of the index document in the asset source.
	// Default: "index.html".
	Index string

	// BridgePath is the history bridge endpoint, relative to Base.
	// Default: "/_nav".
	BridgePath string

	// MetricsPath is where Prometheus metrics are exposed. Empty
	// disables the endpoint.
	// Default: "/metrics".
	MetricsPath string

	// CheckOrigin is called to validate the bridge request origin.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// ReadBufferSize and WriteBufferSize size the WebSocket buffers.
	// Default: 4096.
	ReadBufferSize  int
	WriteBufferSize int

	// MaxMessageSize is the largest bridge frame accepted from a browser.
	// Default: 16KB.
	MaxMessageSize int64

	// Socket configures the per-connection history bridge.
	Socket history.SocketConfig

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 30 seconds.
	ShutdownTimeout time.Duration

	// HTTP server timeouts.
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           DefaultAddress,
		Index:             DefaultIndex,
		BridgePath:        DefaultBridgePath,
		MetricsPath:       DefaultMetricsPath,
		CheckOrigin:       SameOriginCheck,
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		MaxMessageSize:    16 * 1024,
		Socket:            history.DefaultSocketConfig(),
		ShutdownTimeout:   30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// withDefaults returns a copy of c with unset fields filled in.
// MetricsPath is left alone so that "" can disable the endpoint.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.Index == "" {
		out.Index = d.Index
	}
	if out.BridgePath == "" {
		out.BridgePath = d.BridgePath
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = d.CheckOrigin
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = d.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = d.WriteBufferSize
	}
	if out.MaxMessageSize == 0 {
		out.MaxMessageSize = d.MaxMessageSize
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if out.ReadTimeout == 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.IdleTimeout == 0 {
		out.IdleTimeout = d.IdleTimeout
	}
	return &out
}

// SameOriginCheck validates that the WebSocket request origin matches the host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// No Origin header (e.g., same-origin request or curl)
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := r.Host
	if host == "" {
		return false
	}
	return originURL.Host == host
}
