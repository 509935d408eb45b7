package middleware

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"net/http"

	"github.com/mcosta74/opstack/codec"
	"github.com/mcosta74/opstack/retry"
)

// OperationContext is the per-call metadata bag threaded through every step.
//
// The set of fields is fixed by [OperationContextBuilder.Build]. Path, host,
// host prefix, retry token and attributes may be written by a step and read by
// later ones. An OperationContext belongs to a single call and must not be
// shared between concurrent calls.
type OperationContext struct {
	method         string
	scheme         string
	path           string
	host           string
	hostPrefix     string
	serviceName    string
	operationName  string
	encoder        codec.Encoder
	decoder        codec.Decoder
	logger         *slog.Logger
	logMode        ClientLogMode
	logLevel       *slog.Level
	tokenGenerator IdempotencyTokenGenerator
	retryToken     retry.Token
	attributes     map[string]any
}

// Method returns the HTTP method, GET when unset.
func (c *OperationContext) Method() string {
	if c.method == "" {
		return http.MethodGet
	}
	return c.method
}

// Scheme returns the URL scheme, https when unset.
func (c *OperationContext) Scheme() string {
	if c.scheme == "" {
		return "https"
	}
	return c.scheme
}

// Path returns the request path, "/" when unset.
func (c *OperationContext) Path() string {
	if c.path == "" {
		return "/"
	}
	return c.path
}

// SetPath records the resolved request path.
func (c *OperationContext) SetPath(path string) { c.path = path }

// Host returns the resolved host and whether one was set.
func (c *OperationContext) Host() (string, bool) { return c.host, c.host != "" }

// SetHost records the resolved host.
func (c *OperationContext) SetHost(host string) { c.host = host }

// HostPrefix returns the host prefix, empty when unset.
func (c *OperationContext) HostPrefix() string { return c.hostPrefix }

// SetHostPrefix records a prefix prepended to the host by endpoint middleware.
func (c *OperationContext) SetHostPrefix(prefix string) { c.hostPrefix = prefix }

func (c *OperationContext) ServiceName() string   { return c.serviceName }
func (c *OperationContext) OperationName() string { return c.operationName }

// Encoder returns the payload encoder and whether one was configured.
func (c *OperationContext) Encoder() (codec.Encoder, bool) { return c.encoder, c.encoder != nil }

// Decoder returns the payload decoder and whether one was configured.
func (c *OperationContext) Decoder() (codec.Decoder, bool) { return c.decoder, c.decoder != nil }

// Logger returns the operation logger. It discards everything when unset.
func (c *OperationContext) Logger() *slog.Logger {
	if c.logger == nil {
		return discardLogger
	}
	return c.logger
}

func (c *OperationContext) LogMode() ClientLogMode { return c.logMode }

// LogLevel returns the level used for request/response logs, debug when unset.
func (c *OperationContext) LogLevel() slog.Level {
	if c.logLevel == nil {
		return slog.LevelDebug
	}
	return *c.logLevel
}

// IdempotencyTokenGenerator returns the configured generator, UUID based when unset.
func (c *OperationContext) IdempotencyTokenGenerator() IdempotencyTokenGenerator {
	if c.tokenGenerator == nil {
		return UUIDTokenGenerator{}
	}
	return c.tokenGenerator
}

// RetryToken returns the token of the attempt in flight, if any.
func (c *OperationContext) RetryToken() (retry.Token, bool) { return c.retryToken, c.retryToken != nil }

// SetRetryToken stores the token of the attempt in flight.
func (c *OperationContext) SetRetryToken(token retry.Token) { c.retryToken = token }

// Attribute returns a free-form value stored under key.
func (c *OperationContext) Attribute(key string) (any, bool) {
	v, ok := c.attributes[key]
	return v, ok
}

// SetAttribute stores a free-form value under key.
func (c *OperationContext) SetAttribute(key string, value any) {
	if c.attributes == nil {
		c.attributes = make(map[string]any)
	}
	c.attributes[key] = value
}

// GetAttribute returns the attribute stored under key when it has type T.
func GetAttribute[T any](c *OperationContext, key string) (T, bool) {
	v, ok := c.Attribute(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// OperationContextBuilder accumulates the settings of an [OperationContext].
// A builder may be kept as a template: every Build returns an independent context.
type OperationContextBuilder struct {
	c OperationContext
}

// NewOperationContextBuilder returns an empty builder.
func NewOperationContextBuilder() *OperationContextBuilder {
	return &OperationContextBuilder{}
}

func (b *OperationContextBuilder) WithMethod(method string) *OperationContextBuilder {
	b.c.method = method
	return b
}

func (b *OperationContextBuilder) WithScheme(scheme string) *OperationContextBuilder {
	b.c.scheme = scheme
	return b
}

func (b *OperationContextBuilder) WithPath(path string) *OperationContextBuilder {
	b.c.path = path
	return b
}

func (b *OperationContextBuilder) WithHost(host string) *OperationContextBuilder {
	b.c.host = host
	return b
}

func (b *OperationContextBuilder) WithHostPrefix(prefix string) *OperationContextBuilder {
	b.c.hostPrefix = prefix
	return b
}

func (b *OperationContextBuilder) WithServiceName(name string) *OperationContextBuilder {
	b.c.serviceName = name
	return b
}

func (b *OperationContextBuilder) WithOperation(name string) *OperationContextBuilder {
	b.c.operationName = name
	return b
}

func (b *OperationContextBuilder) WithEncoder(enc codec.Encoder) *OperationContextBuilder {
	b.c.encoder = enc
	return b
}

func (b *OperationContextBuilder) WithDecoder(dec codec.Decoder) *OperationContextBuilder {
	b.c.decoder = dec
	return b
}

// WithCodec sets both the encoder and the decoder.
func (b *OperationContextBuilder) WithCodec(c codec.Codec) *OperationContextBuilder {
	b.c.encoder = c
	b.c.decoder = c
	return b
}

func (b *OperationContextBuilder) WithLogger(logger *slog.Logger) *OperationContextBuilder {
	b.c.logger = logger
	return b
}

func (b *OperationContextBuilder) WithLogMode(mode ClientLogMode) *OperationContextBuilder {
	b.c.logMode = mode
	return b
}

func (b *OperationContextBuilder) WithLogLevel(level slog.Level) *OperationContextBuilder {
	b.c.logLevel = &level
	return b
}

func (b *OperationContextBuilder) WithIdempotencyTokenGenerator(g IdempotencyTokenGenerator) *OperationContextBuilder {
	b.c.tokenGenerator = g
	return b
}

func (b *OperationContextBuilder) WithAttribute(key string, value any) *OperationContextBuilder {
	if b.c.attributes == nil {
		b.c.attributes = make(map[string]any)
	}
	b.c.attributes[key] = value
	return b
}

// Build returns a new context holding the accumulated settings.
func (b *OperationContextBuilder) Build() *OperationContext {
	c := b.c
	c.attributes = maps.Clone(b.c.attributes)
	c.retryToken = nil
	return &c
}

type operationContextKey struct{}

// WithOperationContext returns a copy of ctx carrying opctx.
func WithOperationContext(ctx context.Context, opctx *OperationContext) context.Context {
	return context.WithValue(ctx, operationContextKey{}, opctx)
}

// OperationContextFrom returns the operation context carried by ctx, or an
// empty one holding only defaults. It never returns nil.
func OperationContextFrom(ctx context.Context) *OperationContext {
	if c, ok := ctx.Value(operationContextKey{}).(*OperationContext); ok && c != nil {
		return c
	}
	return &OperationContext{}
}
