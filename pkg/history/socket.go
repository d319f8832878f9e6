package history

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/espfs/webnav/internal/errors"
	"github.com/espfs/webnav/pkg/routepath"
)

// Frame types exchanged over the bridge.
const (
	FrameInit     = "init"
	FramePop      = "pop"
	FrameNavigate = "navigate"
	FramePush     = "push"
	FrameReplace  = "replace"
	FrameGo       = "go"
	FrameRoute    = "route"
)

// Frame is a single bridge message.
type Frame struct {
	Type    string      `json:"t"`
	Path    string      `json:"path,omitempty"`
	Delta   int         `json:"delta,omitempty"`
	Replace bool        `json:"replace,omitempty"`
	Route   *RouteFrame `json:"route,omitempty"`
}

// RouteFrame tells the browser which view to mount.
type RouteFrame struct {
	Matched  bool              `json:"matched"`
	Name     string            `json:"name,omitempty"`
	View     string            `json:"view,omitempty"`
	Path     string            `json:"path"`
	FullPath string            `json:"fullPath"`
	Params   map[string]string `json:"params,omitempty"`
}

// Conn is the subset of *websocket.Conn the bridge uses.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// SocketConfig configures a Socket.
type SocketConfig struct {
	// HandshakeTimeout bounds the wait for the browser's init frame.
	HandshakeTimeout time.Duration

	// WriteTimeout bounds each frame write.
	WriteTimeout time.Duration

	// Logger receives bridge diagnostics.
	Logger *slog.Logger
}

// DefaultSocketConfig returns the default bridge configuration.
func DefaultSocketConfig() SocketConfig {
	return SocketConfig{
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// Socket is a history adapter backed by a browser over a WebSocket.
type Socket struct {
	conn   Conn
	base   string
	config SocketConfig
	logger *slog.Logger

	mu       sync.Mutex
	location string

	writeMu sync.Mutex

	changes    listeners
	navMu      sync.Mutex
	onNavigate func(path string, replace bool)

	closeOnce sync.Once
}

// NewSocket performs the bridge handshake on conn and returns an adapter
// positioned at the browser's reported location.
//
// A nil conn, or one that does not deliver an init frame within the
// handshake timeout, means there is no navigable history: the error is a
// configuration error.
func NewSocket(conn Conn, base string, config SocketConfig) (*Socket, error) {
	if conn == nil {
		return nil, errors.New(errors.CodeHistoryUnavailable).WithDetail("no bridge connection")
	}
	nb, err := routepath.NormalizeBase(base)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidBase).WithDetailf("%q", base).Wrap(err)
	}

	defaults := DefaultSocketConfig()
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := conn.SetReadDeadline(time.Now().Add(config.HandshakeTimeout)); err != nil {
		return nil, errors.New(errors.CodeHistoryUnavailable).Wrap(err)
	}
	var hello Frame
	if err := conn.ReadJSON(&hello); err != nil {
		return nil, errors.New(errors.CodeHistoryUnavailable).WithDetail("bridge handshake failed").Wrap(err)
	}
	if hello.Type != FrameInit {
		return nil, errors.New(errors.CodeHistoryUnavailable).
			WithDetailf("expected %q frame, got %q", FrameInit, hello.Type)
	}
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return nil, errors.New(errors.CodeHistoryUnavailable).Wrap(err)
	}

	location := hello.Path
	if location == "" {
		location = routepath.JoinBase(nb, "/")
	}

	return &Socket{
		conn:     conn,
		base:     nb,
		config:   config,
		logger:   logger.With("component", "history"),
		location: location,
	}, nil
}

// Base implements Adapter.
func (s *Socket) Base() string {
	return s.base
}

// CurrentPath implements Adapter.
func (s *Socket) CurrentPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return routepath.StripBase(s.base, s.location)
}

// Location returns the last browser-visible location known to the bridge.
func (s *Socket) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

// Push implements Adapter.
func (s *Socket) Push(path string) error {
	return s.setLocation(FramePush, path)
}

// Replace implements Adapter.
func (s *Socket) Replace(path string) error {
	return s.setLocation(FrameReplace, path)
}

func (s *Socket) setLocation(kind, path string) error {
	location := routepath.JoinBase(s.base, path)
	if err := s.write(Frame{Type: kind, Path: location}); err != nil {
		return err
	}
	s.mu.Lock()
	s.location = location
	s.mu.Unlock()
	return nil
}

// Go implements Traverser. The browser answers with a pop frame, which
// triggers the change listeners.
func (s *Socket) Go(delta int) error {
	if delta == 0 {
		return nil
	}
	return s.write(Frame{Type: FrameGo, Delta: delta})
}

// SendRoute tells the browser which view to mount.
func (s *Socket) SendRoute(route RouteFrame) error {
	return s.write(Frame{Type: FrameRoute, Route: &route})
}

// OnChange implements Adapter.
func (s *Socket) OnChange(fn func(path string)) func() {
	return s.changes.add(fn)
}

// OnNavigate sets the handler for navigations requested by the browser,
// such as link clicks inside a view.
func (s *Socket) OnNavigate(fn func(path string, replace bool)) {
	s.navMu.Lock()
	s.onNavigate = fn
	s.navMu.Unlock()
}

func (s *Socket) write(f Frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout)); err != nil {
		return errors.New(errors.CodeHistoryWrite).Wrap(err)
	}
	if err := s.conn.WriteJSON(f); err != nil {
		return errors.New(errors.CodeHistoryWrite).WithDetailf("%s frame", f.Type).Wrap(err)
	}
	return nil
}

// Run reads frames from the browser until the connection closes or ctx is
// canceled. It returns nil on a normal close or cancellation.
func (s *Socket) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-done:
		}
	}()

	for {
		var f Frame
		err := s.conn.ReadJSON(&f)
		switch {
		case err == nil:
			s.dispatch(f)
		case ctx.Err() != nil:
			return nil
		case isDecodeError(err):
			s.logger.Warn("frame decode error", "error", err)
		default:
			var ce *websocket.CloseError
			if stderrors.As(err, &ce) {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseNormalClosure) {
					s.logger.Error("bridge closed", "code", ce.Code, "error", err)
				}
				return nil
			}
			s.logger.Error("read error", "error", err)
			return err
		}
	}
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return stderrors.As(err, &syntaxErr) || stderrors.As(err, &typeErr)
}

func (s *Socket) dispatch(f Frame) {
	switch f.Type {
	case FramePop:
		s.mu.Lock()
		same := f.Path == s.location
		s.location = f.Path
		s.mu.Unlock()
		if same {
			s.logger.Debug("pop to current location ignored", "path", f.Path)
			return
		}
		s.changes.notify(routepath.StripBase(s.base, f.Path))

	case FrameNavigate:
		s.navMu.Lock()
		fn := s.onNavigate
		s.navMu.Unlock()
		if fn == nil {
			s.logger.Warn("navigate frame ignored, no handler", "path", f.Path)
			return
		}
		fn(f.Path, f.Replace)

	default:
		s.logger.Warn("unknown frame type", "type", f.Type)
	}
}

// Close closes the underlying connection.
func (s *Socket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return err
}

var (
	_ Adapter   = (*Socket)(nil)
	_ Traverser = (*Socket)(nil)
	_ Locator   = (*Socket)(nil)
)
