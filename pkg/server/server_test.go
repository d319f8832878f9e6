package server

import (
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/espfs/webnav/internal/errors"
	"github.com/espfs/webnav/pkg/assets"
	"github.com/espfs/webnav/pkg/router"
)

const testIndex = "<!doctype html><div id=app></div>"

func testRoutes() *router.Registry {
	return router.NewRegistry().
		Register("/", "File Explorer", "file-explorer").
		Register("/config", "Config", "config")
}

func testAssets() fstest.MapFS {
	return fstest.MapFS{
		"index.html":           {Data: []byte(testIndex)},
		"assets/app.abc123.js": {Data: []byte("console.log('app')")},
		"favicon.ico":          {Data: []byte{0, 0, 1, 0}},
		"assets/img":           {Mode: fs.ModeDir | 0o755},
	}
}

func newTestServer(t *testing.T, base string, opts ...Option) *Server {
	t.Helper()
	config := DefaultConfig()
	config.Base = base
	s, err := New(config, testRoutes(), testAssets(), opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { s.cancel() })
	return s
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		routes *router.Registry
		fsys   fs.FS
		code   string
	}{
		{"invalid base", "/app?x", testRoutes(), testAssets(), errors.CodeInvalidBase},
		{"nil routes", "", nil, testAssets(), errors.CodeEmptyRouteTable},
		{"empty routes", "", router.NewRegistry(), testAssets(), errors.CodeEmptyRouteTable},
		{"malformed pattern", "", router.NewRegistry().Register("/:", "Bad", "bad"), testAssets(), errors.CodeMalformedPattern},
		{"no assets", "", testRoutes(), nil, errors.CodeInvalidAssets},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.Base = tt.base
			_, err := New(config, tt.routes, tt.fsys)
			if !stderrors.Is(err, errors.ErrConfiguration) {
				t.Fatalf("New() error = %v, want configuration error", err)
			}
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Code != tt.code {
				t.Errorf("New() code = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	c := (&Config{Address: ":9999"}).withDefaults()
	if c.Address != ":9999" {
		t.Errorf("Address = %q, want :9999", c.Address)
	}
	if c.Index != DefaultIndex || c.BridgePath != DefaultBridgePath {
		t.Errorf("Index/BridgePath = %q/%q", c.Index, c.BridgePath)
	}
	if c.MetricsPath != "" {
		t.Errorf("MetricsPath = %q, want empty to stay disabled", c.MetricsPath)
	}
	if c.CheckOrigin == nil || c.ShutdownTimeout == 0 || c.MaxMessageSize == 0 {
		t.Error("withDefaults left required fields unset")
	}

	var nilConfig *Config
	if got := nilConfig.withDefaults(); got.MetricsPath != DefaultMetricsPath {
		t.Errorf("nil config MetricsPath = %q, want %q", got.MetricsPath, DefaultMetricsPath)
	}
}

func TestSameOriginCheck(t *testing.T) {
	tests := []struct {
		name   string
		host   string
		origin string
		want   bool
	}{
		{"no origin", "example.com", "", true},
		{"same origin", "example.com", "https://example.com", true},
		{"same origin with port", "localhost:8080", "http://localhost:8080", true},
		{"cross origin", "example.com", "https://evil.com", false},
		{"port mismatch", "localhost:8080", "http://localhost:9090", false},
		{"bad origin", "example.com", "://bad", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/_nav", nil)
			req.Host = tt.host
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := SameOriginCheck(req); got != tt.want {
				t.Errorf("SameOriginCheck() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := newTestServer(t, "", WithMetricsRegistry(reg))
	s.Metrics().BridgeOpened()

	rec := get(t, s, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "webnav_bridge_sessions 1") {
		t.Errorf("metrics body missing bridge gauge:\n%s", rec.Body.String())
	}
}

func TestMetricsDisabled(t *testing.T) {
	config := DefaultConfig()
	config.MetricsPath = ""
	s, err := New(config, testRoutes(), testAssets())
	if err != nil {
		t.Fatal(err)
	}
	if s.Metrics() != nil {
		t.Error("Metrics() should be nil when disabled")
	}
	// Falls through to the history fallback, which matches nothing.
	if rec := get(t, s, "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("GET /metrics status = %d, want 404", rec.Code)
	}
}

func TestServeAndShutdown(t *testing.T) {
	s := newTestServer(t, "/app")
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/app/config"
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != testIndex {
		t.Errorf("GET %s = %d %q", url, resp.StatusCode, body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestWithManifestCacheHeaders(t *testing.T) {
	m := assets.NewManifest()
	m.Set("assets/app.js", "assets/app.abc123.js")
	s := newTestServer(t, "", WithManifest(m))

	tests := []struct {
		path string
		want string
	}{
		{"/assets/app.abc123.js", cacheImmutable},
		{"/favicon.ico", cacheRevalidate},
		{"/config", cacheRevalidate},
	}
	for _, tt := range tests {
		rec := get(t, s, tt.path)
		if got := rec.Header().Get("Cache-Control"); got != tt.want {
			t.Errorf("GET %s Cache-Control = %q, want %q", tt.path, got, tt.want)
		}
	}
}
