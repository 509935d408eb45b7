package ports

import (
	"bytes"
	"maps"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// RequestBuilder is the mutable, in-progress wire request populated by the
// Serialize, Build and Finalize steps. It is owned by a single in-flight call.
type RequestBuilder struct {
	method string
	scheme string
	host   string
	port   int
	path   string
	query  url.Values
	header http.Header
	body   []byte
}

// NewRequestBuilder returns an empty builder for a GET request over https.
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{
		method: http.MethodGet,
		scheme: "https",
		path:   "/",
		query:  url.Values{},
		header: http.Header{},
	}
}

// WithMethod sets the request method.
func (b *RequestBuilder) WithMethod(method string) *RequestBuilder {
	b.method = method
	return b
}

// WithScheme sets the URL scheme.
func (b *RequestBuilder) WithScheme(scheme string) *RequestBuilder {
	b.scheme = scheme
	return b
}

// WithHost sets the request host, without port.
func (b *RequestBuilder) WithHost(host string) *RequestBuilder {
	b.host = host
	return b
}

// WithPort sets an explicit port. Zero means the scheme default.
func (b *RequestBuilder) WithPort(port int) *RequestBuilder {
	b.port = port
	return b
}

// WithPath sets the request path in its escaped form: path labels are
// expected to be escaped with [url.PathEscape].
func (b *RequestBuilder) WithPath(path string) *RequestBuilder {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	b.path = path
	return b
}

// WithHeader appends value to the values of the named header.
func (b *RequestBuilder) WithHeader(name, value string) *RequestBuilder {
	b.header.Add(name, value)
	return b
}

// UpdateHeader replaces all the values of the named header.
func (b *RequestBuilder) UpdateHeader(name, value string) *RequestBuilder {
	b.header.Set(name, value)
	return b
}

// WithHeaders appends every value in h.
func (b *RequestBuilder) WithHeaders(h http.Header) *RequestBuilder {
	for name, values := range h {
		for _, v := range values {
			b.header.Add(name, v)
		}
	}
	return b
}

// RemoveHeader deletes the named header.
func (b *RequestBuilder) RemoveHeader(name string) *RequestBuilder {
	b.header.Del(name)
	return b
}

// WithQueryItem appends a query parameter.
func (b *RequestBuilder) WithQueryItem(name, value string) *RequestBuilder {
	b.query.Add(name, value)
	return b
}

// WithBody sets the request body.
func (b *RequestBuilder) WithBody(body []byte) *RequestBuilder {
	b.body = body
	return b
}

func (b *RequestBuilder) Method() string      { return b.method }
func (b *RequestBuilder) Scheme() string      { return b.scheme }
func (b *RequestBuilder) Host() string        { return b.host }
func (b *RequestBuilder) Port() int           { return b.port }
func (b *RequestBuilder) Path() string        { return b.path }
func (b *RequestBuilder) Query() url.Values   { return b.query }
func (b *RequestBuilder) Header() http.Header { return b.header }
func (b *RequestBuilder) Body() []byte        { return b.body }

// Clone returns a deep copy of the builder.
func (b *RequestBuilder) Clone() *RequestBuilder {
	c := *b
	c.query = cloneValues(b.query)
	c.header = b.header.Clone()
	c.body = bytes.Clone(b.body)
	return &c
}

// Build freezes the current state into a [Request]. The builder stays usable.
func (b *RequestBuilder) Build() *Request {
	return &Request{
		Method: b.method,
		Scheme: b.scheme,
		Host:   b.host,
		Port:   b.port,
		Path:   b.path,
		Query:  cloneValues(b.query),
		Header: b.header.Clone(),
		Body:   bytes.Clone(b.body),
	}
}

// Request is the immutable wire request handed to a [Transport].
type Request struct {
	Method string
	Scheme string
	Host   string
	Port   int
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// URL returns the absolute request URL.
func (r *Request) URL() *url.URL {
	host := r.Host
	if r.Port != 0 {
		host = net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
	}
	u := &url.URL{
		Scheme:   r.Scheme,
		Host:     host,
		Path:     r.Path,
		RawQuery: r.Query.Encode(),
	}
	if p, err := url.PathUnescape(r.Path); err == nil {
		u.Path, u.RawPath = p, r.Path
	}
	return u
}

// Builder returns a new builder seeded with the request state.
func (r *Request) Builder() *RequestBuilder {
	b := NewRequestBuilder().
		WithMethod(r.Method).
		WithScheme(r.Scheme).
		WithHost(r.Host).
		WithPort(r.Port).
		WithPath(r.Path).
		WithBody(bytes.Clone(r.Body))
	b.query = cloneValues(r.Query)
	if r.Header != nil {
		b.header = r.Header.Clone()
	}
	return b
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return url.Values{}
	}
	c := make(url.Values, len(v))
	for k, vs := range maps.All(v) {
		c[k] = append([]string(nil), vs...)
	}
	return c
}
