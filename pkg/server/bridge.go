package server

import (
	"net/http"

	"github.com/espfs/webnav/pkg/history"
	"github.com/espfs/webnav/pkg/router"
)

// HandleBridge upgrades to a history bridge and runs a router over it
// until the browser disconnects or the server shuts down.
func (s *Server) HandleBridge(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(s.config.MaxMessageSize)

	s.bridges.Add(1)
	defer s.bridges.Done()

	logger := s.logger.With("remote", r.RemoteAddr)
	socketConfig := s.config.Socket
	socketConfig.Logger = logger

	sock, err := history.NewSocket(conn, s.base, socketConfig)
	if err != nil {
		logger.Warn("bridge handshake failed", "error", err)
		conn.Close()
		return
	}
	defer sock.Close()

	if s.metrics != nil {
		s.metrics.BridgeOpened()
		defer s.metrics.BridgeClosed()
	}

	rt, err := router.New(s.routes, sock,
		router.WithLogger(logger),
		router.WithMiddleware(s.middleware...),
	)
	if err != nil {
		logger.Error("bridge router failed", "error", err)
		return
	}
	defer rt.Close()

	send := func(route router.ResolvedRoute) {
		if err := sock.SendRoute(RouteFrame(route)); err != nil {
			logger.Warn("route frame not sent", "path", route.FullPath, "error", err)
		}
	}
	unsubscribe := rt.Subscribe(send)
	defer unsubscribe()
	send(rt.Current())

	sock.OnNavigate(func(path string, replace bool) {
		var opts []router.NavigateOption
		if replace {
			opts = append(opts, router.WithReplace())
		}
		opts = append(opts, router.WithContext(r.Context()))
		if err := rt.Navigate(path, opts...); err != nil {
			logger.Warn("browser navigation rejected", "path", path, "error", err)
		}
	})

	logger.Info("bridge connected", "location", sock.Location())
	if err := sock.Run(s.ctx); err != nil {
		logger.Error("bridge read failed", "error", err)
	}
	logger.Info("bridge disconnected")
}

// RouteFrame converts a resolved route into its wire form.
func RouteFrame(route router.ResolvedRoute) history.RouteFrame {
	f := history.RouteFrame{
		Matched:  route.Found(),
		Name:     route.Name(),
		View:     string(route.View()),
		Path:     route.Path,
		FullPath: route.FullPath,
	}
	if len(route.Params) > 0 {
		f.Params = route.Params
	}
	return f
}
