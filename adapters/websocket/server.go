package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mcosta74/opstack/adapters"
	"github.com/mcosta74/opstack/ports"
)

// Server exposes a transport as a WebSocket endpoint speaking the frame
// protocol of [Transport].
type Server struct {
	t            ports.Transport
	upgrader     websocket.Upgrader
	errorHandler adapters.ErrorHandler
}

// ServerOption sets optional parameter for the server.
type ServerOption func(s *Server)

// WithServerErrorHandler sets the error handler for the server.
func WithServerErrorHandler(eh adapters.ErrorHandler) ServerOption {
	return func(s *Server) {
		s.errorHandler = eh
	}
}

// WithServerErrorLogger sets a error handler for the server that logs errors.
func WithServerErrorLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.errorHandler = adapters.NewSlogErrorHandler(logger)
	}
}

// WithCheckOrigin sets the origin policy of the upgrader. All origins are
// accepted by default.
func WithCheckOrigin(f func(r *http.Request) bool) ServerOption {
	return func(s *Server) {
		s.upgrader.CheckOrigin = f
	}
}

func NewServer(t ports.Transport, options ...ServerOption) *Server {
	s := &Server{
		t: t,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		errorHandler: adapters.NewNoOpErrorHandler(),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.errorHandler.Handle(r.Context(), err)
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var (
		writeMu sync.Mutex
		wg      sync.WaitGroup
	)
	reply := func(f responseFrame) {
		data, err := marshal(f)
		if err != nil {
			s.errorHandler.Handle(ctx, err)
			return
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
			s.errorHandler.Handle(ctx, err)
		}
	}

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.errorHandler.Handle(ctx, err)
			}
			break
		}

		var f requestFrame
		if err := unmarshal(data, &f); err != nil {
			s.errorHandler.Handle(ctx, err)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			reply(s.serve(ctx, r.Host, f))
		}()
	}

	cancel()
	wg.Wait()
}

func (s *Server) serve(ctx context.Context, host string, f requestFrame) responseFrame {
	req, err := f.request(host)
	if err != nil {
		s.errorHandler.Handle(ctx, err)
		return responseFrame{ID: f.ID, Error: err.Error()}
	}
	resp, err := s.t.RoundTrip(ctx, req)
	if err != nil {
		s.errorHandler.Handle(ctx, err)
		resp = ports.NewResponse(http.StatusInternalServerError, []byte(err.Error()))
		resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	}
	return newResponseFrame(f.ID, resp)
}
