// Package testing holds helpers shared by the package tests of this module.
package testing

import (
	"context"
	"net/http"
	"sync"

	"github.com/mcosta74/opstack/ports"
)

// EchoTransport answers every request with 200 OK, echoing the request
// headers and body back in the response.
type EchoTransport struct{}

func (EchoTransport) RoundTrip(ctx context.Context, req *ports.Request) (*ports.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp := ports.NewResponse(http.StatusOK, req.Body)
	resp.Header = req.Header.Clone()
	return resp, nil
}

// BuildResponse returns a response with the given status, headers and body.
func BuildResponse(statusCode int, header map[string]string, body string) *ports.Response {
	resp := ports.NewResponse(statusCode, []byte(body))
	for k, v := range header {
		resp.Header.Set(k, v)
	}
	return resp
}

// StubTransport replays Responses in order and records the requests it sees.
// The last response is repeated once the list is exhausted. A nil entry in
// Errors at the same index makes that round trip succeed.
type StubTransport struct {
	Responses []*ports.Response
	Errors    []error

	mu       sync.Mutex
	requests []*ports.Request
}

func (s *StubTransport) RoundTrip(_ context.Context, req *ports.Request) (*ports.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := len(s.requests)
	s.requests = append(s.requests, req)

	if i < len(s.Errors) && s.Errors[i] != nil {
		return nil, s.Errors[i]
	}
	if len(s.Responses) == 0 {
		return ports.NewResponse(http.StatusOK, nil), nil
	}
	return s.Responses[min(i, len(s.Responses)-1)], nil
}

// Requests returns the requests received so far.
func (s *StubTransport) Requests() []*ports.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*ports.Request(nil), s.requests...)
}
