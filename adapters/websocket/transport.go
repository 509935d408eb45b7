package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcosta74/opstack/adapters"
	"github.com/mcosta74/opstack/ports"
)

// ErrClosed is returned by calls pending or started after the connection closed.
var ErrClosed = errors.New("websocket transport closed")

// Transport is a [ports.Transport] over one WebSocket connection.
type Transport struct {
	ws           *websocket.Conn
	errorHandler adapters.ErrorHandler

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan responseFrame
	closed  bool
	done    chan struct{}
}

// TransportOption sets optional parameter for the transport.
type TransportOption func(t *Transport)

// WithErrorHandler sets the handler notified of connection level failures.
func WithErrorHandler(eh adapters.ErrorHandler) TransportOption {
	return func(t *Transport) {
		t.errorHandler = eh
	}
}

// Dial connects to the WebSocket endpoint at url.
func Dial(ctx context.Context, url string, header http.Header, options ...TransportOption) (*Transport, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewTransport(ws, options...), nil
}

// NewTransport wraps an established connection. The transport owns ws from
// now on.
func NewTransport(ws *websocket.Conn, options ...TransportOption) *Transport {
	t := &Transport{
		ws:           ws,
		errorHandler: adapters.NewNoOpErrorHandler(),
		pending:      make(map[string]chan responseFrame),
		done:         make(chan struct{}),
	}
	for _, o := range options {
		o(t)
	}
	go t.readPump()
	return t
}

// RoundTrip implements ports.Transport.
func (t *Transport) RoundTrip(ctx context.Context, req *ports.Request) (*ports.Response, error) {
	id := uuid.NewString()
	ch := make(chan responseFrame, 1)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrClosed
	}
	t.pending[id] = ch
	t.mu.Unlock()
	defer t.forget(id)

	data, err := marshal(newRequestFrame(id, req))
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	if err := t.write(data); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.done:
		return nil, ErrClosed
	case f := <-ch:
		if f.Error != "" {
			return nil, errors.New(f.Error)
		}
		return f.response(), nil
	}
}

// Close closes the connection and fails every pending call.
func (t *Transport) Close() error {
	t.writeMu.Lock()
	_ = t.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	t.writeMu.Unlock()
	t.shutdown()
	return t.ws.Close()
}

func (t *Transport) write(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.ws.WriteMessage(websocket.TextMessage, data)
}

func (t *Transport) forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, id)
}

func (t *Transport) shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.done)
	}
}

// readPump dispatches response frames to the pending calls.
func (t *Transport) readPump() {
	defer t.shutdown()

	for {
		_, data, err := t.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.errorHandler.Handle(context.Background(), err)
			}
			return
		}

		var f responseFrame
		if err := unmarshal(data, &f); err != nil {
			t.errorHandler.Handle(context.Background(), fmt.Errorf("decode frame: %w", err))
			continue
		}

		t.mu.Lock()
		ch, ok := t.pending[f.ID]
		t.mu.Unlock()
		if !ok {
			continue
		}
		select {
		case ch <- f:
		default:
			t.errorHandler.Handle(context.Background(), fmt.Errorf("duplicate response frame %s", f.ID))
		}
	}
}
