package widgets

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/mcosta74/opstack/codec"
	"github.com/mcosta74/opstack/interceptors"
	"github.com/mcosta74/opstack/middleware"
	"github.com/mcosta74/opstack/ports"
)

const defaultUserAgent = "opstack-widgets/1.0"

// Client calls the Widgets service. It is safe for concurrent use.
type Client struct {
	o         options
	transport ports.Transport

	getWidget    *middleware.Stack[*GetWidgetInput, *GetWidgetOutput]
	putWidget    *middleware.Stack[*PutWidgetInput, *PutWidgetOutput]
	deleteWidget *middleware.Stack[*DeleteWidgetInput, *DeleteWidgetOutput]
}

// New returns a client sending its requests through transport.
func New(transport ports.Transport, opts ...Option) (*Client, error) {
	if transport == nil {
		return nil, errors.New("widgets: nil transport")
	}

	o := options{
		endpoint:  interceptors.EndpointOverride{Scheme: "https", Host: "localhost"},
		codec:     codec.JSON{},
		logger:    slog.New(slog.DiscardHandler),
		logLevel:  slog.LevelDebug,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if len(o.transportMiddleware) > 0 {
		transport = ports.Chain(o.transportMiddleware[0], o.transportMiddleware[1:]...)(transport)
	}

	c := &Client{o: o, transport: transport}

	var err error
	if c.getWidget, err = newGetWidgetStack(&o); err != nil {
		return nil, fmt.Errorf("widgets: GetWidget stack: %w", err)
	}
	if c.putWidget, err = newPutWidgetStack(&o); err != nil {
		return nil, fmt.Errorf("widgets: PutWidget stack: %w", err)
	}
	if c.deleteWidget, err = newDeleteWidgetStack(&o); err != nil {
		return nil, fmt.Errorf("widgets: DeleteWidget stack: %w", err)
	}
	return c, nil
}

func (c *Client) operationContext(operation, method string) *middleware.OperationContext {
	b := middleware.NewOperationContextBuilder().
		WithServiceName(ServiceName).
		WithOperation(operation).
		WithMethod(method).
		WithScheme(c.o.endpoint.Scheme).
		WithHost(c.o.endpoint.Host).
		WithCodec(c.o.codec).
		WithLogger(c.o.logger).
		WithLogMode(c.o.logMode).
		WithLogLevel(c.o.logLevel)
	if c.o.tokenGenerator != nil {
		b.WithIdempotencyTokenGenerator(c.o.tokenGenerator)
	}
	return b.Build()
}

// addCommon inserts the middleware shared by every operation. Operation
// specific middleware must already be in place.
func addCommon[In, Out any](s *middleware.Stack[In, Out], o *options, deserialize *interceptors.Deserialize[Out]) error {
	errs := []error{
		s.Initialize.InsertAtHead(interceptors.NewTracing[In, Out](o.tracer)),
		s.Build.InsertAtHead(interceptors.NewEndpoint[Out](interceptors.EndpointOverride{Port: o.endpoint.Port})),
		s.Build.InsertAfter("EndpointMiddleware", &interceptors.MutateHeaders[Out]{
			ConditionallySet: map[string]string{"User-Agent": o.userAgent},
		}),
	}
	if o.compressionThreshold > 0 {
		errs = append(errs, s.Build.InsertAtTail(interceptors.NewCompression[Out](o.compressionThreshold)))
	}
	if o.retry != nil {
		errs = append(errs, s.Finalize.InsertAtTail(interceptors.NewRetry[Out](o.retry, o.endpoint.Host)))
	}
	if o.signer != nil {
		errs = append(errs, s.Finalize.InsertAtTail(interceptors.NewSigning[Out](o.signer)))
	}
	errs = append(errs,
		s.Finalize.InsertAtTail(interceptors.NewContentLength[Out]()),
		s.Deserialize.InsertAtHead(interceptors.NewLogger[Out]()),
		s.Deserialize.InsertAtTail(deserialize),
	)
	return errors.Join(errs...)
}

func widgetPath(id string) (string, error) {
	if id == "" {
		return "", &ValidationError{Message: "widget id is required", Field: "ID"}
	}
	return "/widgets/" + url.PathEscape(id), nil
}

func decodeError(resp *ports.Response, dec codec.Decoder) error {
	if dec == nil {
		return nil
	}
	var shape error
	switch resp.Header.Get(ErrorTypeHeader) {
	case "WidgetNotFound":
		shape = &WidgetNotFound{}
	case "ValidationError":
		shape = &ValidationError{}
	default:
		return nil
	}
	if err := dec.Decode(resp.Body, shape); err != nil {
		return nil
	}
	return shape
}

func setClientToken(h http.Header, token string) {
	if token != "" {
		h.Set(ClientTokenHeader, token)
	}
}
