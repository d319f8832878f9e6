package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	dto "github.com/prometheus/client_model/go"

	"github.com/espfs/webnav/pkg/history"
	"github.com/espfs/webnav/pkg/router"
)

func dialBridge(t *testing.T, s *Server, location string) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + s.BridgePath()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := conn.WriteJSON(history.Frame{Type: history.FrameInit, Path: location}); err != nil {
		t.Fatalf("write init: %v", err)
	}
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) history.Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f history.Frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func expectRoute(t *testing.T, conn *websocket.Conn, name, path string, matched bool) {
	t.Helper()
	f := readFrame(t, conn)
	if f.Type != history.FrameRoute || f.Route == nil {
		t.Fatalf("frame = %+v, want route frame", f)
	}
	if f.Route.Name != name || f.Route.Path != path || f.Route.Matched != matched {
		t.Errorf("route = %+v, want name=%q path=%q matched=%v", *f.Route, name, path, matched)
	}
}

func TestBridge_InitialRoute(t *testing.T) {
	s := newTestServer(t, "/app")
	conn := dialBridge(t, s, "/app/config")

	expectRoute(t, conn, "Config", "/config", true)
}

func TestBridge_NavigateAndPop(t *testing.T) {
	s := newTestServer(t, "")
	conn := dialBridge(t, s, "/")
	expectRoute(t, conn, "File Explorer", "/", true)

	if err := conn.WriteJSON(history.Frame{Type: history.FrameNavigate, Path: "/config"}); err != nil {
		t.Fatal(err)
	}
	if f := readFrame(t, conn); f.Type != history.FramePush || f.Path != "/config" {
		t.Fatalf("frame = %+v, want push /config", f)
	}
	expectRoute(t, conn, "Config", "/config", true)

	if err := conn.WriteJSON(history.Frame{Type: history.FrameNavigate, Path: "/missing", Replace: true}); err != nil {
		t.Fatal(err)
	}
	if f := readFrame(t, conn); f.Type != history.FrameReplace || f.Path != "/missing" {
		t.Fatalf("frame = %+v, want replace /missing", f)
	}
	expectRoute(t, conn, "", "/missing", false)

	if err := conn.WriteJSON(history.Frame{Type: history.FramePop, Path: "/"}); err != nil {
		t.Fatal(err)
	}
	expectRoute(t, conn, "File Explorer", "/", true)
}

func TestBridge_InvalidNavigationIgnored(t *testing.T) {
	s := newTestServer(t, "")
	conn := dialBridge(t, s, "/config")
	expectRoute(t, conn, "Config", "/config", true)

	// Rejected navigations produce no frames; the next valid one does.
	if err := conn.WriteJSON(history.Frame{Type: history.FrameNavigate, Path: ""}); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(history.Frame{Type: history.FrameNavigate, Path: "/"}); err != nil {
		t.Fatal(err)
	}
	if f := readFrame(t, conn); f.Type != history.FramePush || f.Path != "/" {
		t.Fatalf("frame = %+v, want push /", f)
	}
	expectRoute(t, conn, "File Explorer", "/", true)
}

func TestBridge_MiddlewareAndMetrics(t *testing.T) {
	var (
		mu     sync.Mutex
		causes []string
	)
	probe := router.MiddlewareFunc(func(tr *router.Transition, next func() error) error {
		mu.Lock()
		causes = append(causes, tr.Cause.String())
		mu.Unlock()
		return next()
	})
	s := newTestServer(t, "", WithRouterMiddleware(probe))
	conn := dialBridge(t, s, "/")
	expectRoute(t, conn, "File Explorer", "/", true)

	families, err := s.registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	var sessions *dto.Metric
	for _, f := range families {
		if f.GetName() == "webnav_bridge_sessions" {
			sessions = f.GetMetric()[0]
		}
	}
	if got := sessions.GetGauge().GetValue(); got != 1 {
		t.Errorf("webnav_bridge_sessions = %v, want 1", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(causes) != 1 || causes[0] != "initial" {
		t.Errorf("middleware saw %v, want [initial]", causes)
	}
}

func TestBridge_HandshakeFailure(t *testing.T) {
	s := newTestServer(t, "")
	ts := httptest.NewServer(s)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/_nav", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(history.Frame{Type: history.FramePop, Path: "/"}); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection to close after a bad handshake")
	}
}

func TestBridge_ClosedOnShutdown(t *testing.T) {
	s := newTestServer(t, "")
	conn := dialBridge(t, s, "/")
	expectRoute(t, conn, "File Explorer", "/", true)

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected bridge to close on shutdown")
	}
}

func TestRouteFrame(t *testing.T) {
	def := router.RouteDefinition{Path: "/files/:id", Name: "File", View: "file"}
	got := RouteFrame(router.ResolvedRoute{
		Matched:  &def,
		Path:     "/files/7",
		FullPath: "/files/7?x=1",
		Params:   map[string]string{"id": "7"},
	})
	if !got.Matched || got.Name != "File" || got.View != "file" || got.FullPath != "/files/7?x=1" || got.Params["id"] != "7" {
		t.Errorf("RouteFrame() = %+v", got)
	}

	none := RouteFrame(router.ResolvedRoute{Path: "/x", FullPath: "/x", Params: map[string]string{}})
	if none.Matched || none.Name != "" || none.Params != nil {
		t.Errorf("RouteFrame(unmatched) = %+v", none)
	}
}
