package nats

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"

	"github.com/mcosta74/opstack/ports"
)

// Headers carrying the parts of a request or response that have no NATS
// equivalent.
const (
	HeaderMethod = "Opstack-Method"
	HeaderPath   = "Opstack-Path"
	HeaderQuery  = "Opstack-Query"
	HeaderStatus = "Opstack-Status"
)

// DecodeRequestFunc extracts a pipeline request from a NATS message.
type DecodeRequestFunc func(ctx context.Context, msg *nats.Msg) (*ports.Request, error)

// EncodeResponseFunc publishes a pipeline response to the subscriber reply subject.
type EncodeResponseFunc func(ctx context.Context, reply string, nc *nats.Conn, resp *ports.Response) error

// SubjectFunc maps a request to the subject it is published on.
type SubjectFunc func(req *ports.Request) string

// PathSubject returns a [SubjectFunc] appending the request path segments to
// prefix: with prefix "svc.widgets", "/widgets/w1" maps to "svc.widgets.widgets.w1".
func PathSubject(prefix string) SubjectFunc {
	return func(req *ports.Request) string {
		parts := []string{}
		if prefix != "" {
			parts = append(parts, prefix)
		}
		for seg := range strings.SplitSeq(strings.Trim(req.Path, "/"), "/") {
			if seg != "" {
				parts = append(parts, seg)
			}
		}
		return strings.Join(parts, ".")
	}
}

// EncodeRequest turns a pipeline request into a NATS message.
func EncodeRequest(subject string, req *ports.Request) *nats.Msg {
	msg := nats.NewMsg(subject)
	for k, vs := range req.Header {
		for _, v := range vs {
			msg.Header.Add(k, v)
		}
	}
	msg.Header.Set(HeaderMethod, req.Method)
	msg.Header.Set(HeaderPath, req.Path)
	if len(req.Query) > 0 {
		msg.Header.Set(HeaderQuery, req.Query.Encode())
	}
	msg.Data = req.Body
	return msg
}

// DecodeRequest is the default [DecodeRequestFunc]. Messages published by a
// plain NATS client are decoded as POST requests to the subject.
func DecodeRequest(_ context.Context, msg *nats.Msg) (*ports.Request, error) {
	return decodeRequest(msg.Subject, http.Header(msg.Header), msg.Data)
}

func decodeRequest(subject string, h http.Header, body []byte) (*ports.Request, error) {
	header := h.Clone()
	if header == nil {
		header = http.Header{}
	}

	method := header.Get(HeaderMethod)
	if method == "" {
		method = http.MethodPost
	}
	path := header.Get(HeaderPath)
	if path == "" {
		path = "/" + strings.ReplaceAll(subject, ".", "/")
	}
	query, err := url.ParseQuery(header.Get(HeaderQuery))
	if err != nil {
		return nil, err
	}
	for _, k := range []string{HeaderMethod, HeaderPath, HeaderQuery} {
		header.Del(k)
	}

	return &ports.Request{
		Method: method,
		Scheme: "nats",
		Host:   subject,
		Path:   path,
		Query:  query,
		Header: header,
		Body:   body,
	}, nil
}

// EncodeResponse is the default [EncodeResponseFunc].
func EncodeResponse(_ context.Context, reply string, nc *nats.Conn, resp *ports.Response) error {
	return nc.PublishMsg(responseMsg(reply, resp))
}

func responseMsg(reply string, resp *ports.Response) *nats.Msg {
	msg := nats.NewMsg(reply)
	for k, vs := range resp.Header {
		for _, v := range vs {
			msg.Header.Add(k, v)
		}
	}
	msg.Header.Set(HeaderStatus, strconv.Itoa(resp.StatusCode))
	msg.Data = resp.Body
	return msg
}

// DecodeResponse turns a reply message into a pipeline response. Replies
// without a status header are successful, unless they carry a NATS micro
// service error.
func DecodeResponse(msg *nats.Msg) (*ports.Response, error) {
	header := http.Header(msg.Header).Clone()
	if header == nil {
		header = http.Header{}
	}

	status := http.StatusOK
	if s := header.Get(HeaderStatus); s != "" {
		code, err := strconv.Atoi(s)
		if err != nil {
			return nil, err
		}
		status = code
	} else if s := header.Get(micro.ErrorCodeHeader); s != "" {
		status = http.StatusInternalServerError
		if code, err := strconv.Atoi(s); err == nil {
			status = code
		}
	}
	header.Del(HeaderStatus)

	resp := ports.NewResponse(status, msg.Data)
	resp.Header = header
	return resp, nil
}

// DecodeMicroRequest extracts a pipeline request from a NATS micro request.
func DecodeMicroRequest(_ context.Context, r micro.Request) (*ports.Request, error) {
	return decodeRequest(r.Subject(), http.Header(r.Headers()), r.Data())
}
