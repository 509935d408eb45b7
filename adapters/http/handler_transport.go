package http

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/mcosta74/opstack/ports"
)

// HandlerTransport returns a transport serving every request with h in
// process. It lets an HTTP router answer requests received by the NATS or
// WebSocket adapters.
func HandlerTransport(h http.Handler) ports.Transport {
	return ports.TransportFunc(func(ctx context.Context, req *ports.Request) (*ports.Response, error) {
		r, err := EncodeRequest(ctx, req)
		if err != nil {
			return nil, err
		}
		r.RequestURI = r.URL.RequestURI()
		r.RemoteAddr = "pipe"

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return DecodeResponse(rec.Result())
	})
}
