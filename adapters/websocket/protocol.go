// Package websocket multiplexes pipeline requests over a single WebSocket
// connection. Each request frame carries an id echoed by its response frame,
// so any number of calls may be in flight at once.
package websocket

import (
	"net/http"
	"net/url"

	"github.com/go-json-experiment/json"

	"github.com/mcosta74/opstack/ports"
)

type requestFrame struct {
	ID     string      `json:"id"`
	Method string      `json:"method"`
	Path   string      `json:"path"`
	Query  string      `json:"query,omitempty"`
	Header http.Header `json:"header,omitempty"`
	Body   []byte      `json:"body,omitempty"`
}

type responseFrame struct {
	ID     string      `json:"id"`
	Status int         `json:"status"`
	Header http.Header `json:"header,omitempty"`
	Body   []byte      `json:"body,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func newRequestFrame(id string, req *ports.Request) requestFrame {
	return requestFrame{
		ID:     id,
		Method: req.Method,
		Path:   req.Path,
		Query:  req.Query.Encode(),
		Header: req.Header,
		Body:   req.Body,
	}
}

func (f requestFrame) request(host string) (*ports.Request, error) {
	query, err := url.ParseQuery(f.Query)
	if err != nil {
		return nil, err
	}
	header := f.Header
	if header == nil {
		header = http.Header{}
	}
	return &ports.Request{
		Method: f.Method,
		Scheme: "ws",
		Host:   host,
		Path:   f.Path,
		Query:  query,
		Header: header,
		Body:   f.Body,
	}, nil
}

func newResponseFrame(id string, resp *ports.Response) responseFrame {
	return responseFrame{
		ID:     id,
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   resp.Body,
	}
}

func (f responseFrame) response() *ports.Response {
	resp := ports.NewResponse(f.Status, f.Body)
	if f.Header != nil {
		resp.Header = f.Header
	}
	return resp
}

func marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
