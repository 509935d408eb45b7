package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/mcosta74/opstack/ports"
)

// DecodeRequestFunc turns an incoming HTTP request into a pipeline request.
type DecodeRequestFunc func(ctx context.Context, r *http.Request) (*ports.Request, error)

// EncodeResponseFunc writes a pipeline response to the HTTP response writer.
type EncodeResponseFunc func(ctx context.Context, rw http.ResponseWriter, resp *ports.Response) error

// DefaultMaxBodySize bounds the bodies read by [DecodeRequest] and [Client].
const DefaultMaxBodySize = 10 << 20

// DecodeRequest is the default [DecodeRequestFunc].
func DecodeRequest(_ context.Context, r *http.Request) (*ports.Request, error) {
	body, err := ReadBody(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host, port := splitHostPort(r.Host)

	req := &ports.Request{
		Method: r.Method,
		Scheme: scheme,
		Host:   host,
		Port:   port,
		Path:   r.URL.EscapedPath(),
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	}
	return req, nil
}

// EncodeResponse is the default [EncodeResponseFunc].
func EncodeResponse(_ context.Context, rw http.ResponseWriter, resp *ports.Response) error {
	for k, vs := range resp.Header {
		for _, v := range vs {
			rw.Header().Add(k, v)
		}
	}
	rw.WriteHeader(resp.StatusCode)
	_, err := rw.Write(resp.Body)
	return err
}

// EncodeRequest turns a pipeline request into an outgoing HTTP request.
func EncodeRequest(ctx context.Context, req *ports.Request) (*http.Request, error) {
	r, err := http.NewRequestWithContext(ctx, req.Method, req.URL().String(), bytes.NewReader(req.Body))
	if err != nil {
		return nil, err
	}
	r.Header = req.Header.Clone()
	if r.Header == nil {
		r.Header = http.Header{}
	}
	r.ContentLength = int64(len(req.Body))
	r.Header.Del("Content-Length")
	return r, nil
}

// DecodeResponse turns an HTTP response into a pipeline response and closes its body.
func DecodeResponse(r *http.Response) (*ports.Response, error) {
	defer r.Body.Close()

	body, err := ReadBody(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp := ports.NewResponse(r.StatusCode, body)
	resp.Header = r.Header.Clone()
	return resp, nil
}

// ErrBodyTooLarge is returned when a body exceeds [DefaultMaxBodySize].
var ErrBodyTooLarge = errors.New("body exceeds maximum size")

// ReadBody reads r up to [DefaultMaxBodySize] bytes. Longer bodies fail with
// [ErrBodyTooLarge] instead of being truncated.
func ReadBody(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r, DefaultMaxBodySize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > DefaultMaxBodySize {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}

func splitHostPort(hostport string) (string, int) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport, 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 0
	}
	return host, port
}
