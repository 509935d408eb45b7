package widgets

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/mcosta74/opstack/codec"
	"github.com/mcosta74/opstack/interceptors"
	"github.com/mcosta74/opstack/middleware"
	"github.com/mcosta74/opstack/ports"
	"github.com/mcosta74/opstack/retry"
)

type options struct {
	endpoint             interceptors.EndpointOverride
	codec                codec.Codec
	logger               *slog.Logger
	logMode              middleware.ClientLogMode
	logLevel             slog.Level
	retry                retry.Strategy
	signer               interceptors.Signer
	tokenGenerator       middleware.IdempotencyTokenGenerator
	compressionThreshold int
	transportMiddleware  []ports.Middleware
	tracer               trace.Tracer
	userAgent            string
}

// Option sets optional parameter for the client.
type Option func(o *options)

// WithEndpoint sets the service endpoint. A zero port keeps the scheme default.
func WithEndpoint(scheme, host string, port int) Option {
	return func(o *options) {
		o.endpoint = interceptors.EndpointOverride{Scheme: scheme, Host: host, Port: port}
	}
}

// WithCodec replaces the JSON payload codec.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithLogger sets the logger used by the logging middleware and the retries.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogMode selects what the logging middleware records and at which level.
func WithLogMode(mode middleware.ClientLogMode, level slog.Level) Option {
	return func(o *options) {
		o.logMode = mode
		o.logLevel = level
	}
}

// WithRetryStrategy enables retries. Calls are attempted once by default.
func WithRetryStrategy(s retry.Strategy) Option {
	return func(o *options) {
		o.retry = s
	}
}

// WithSigner signs every request.
func WithSigner(s interceptors.Signer) Option {
	return func(o *options) {
		o.signer = s
	}
}

// WithIdempotencyTokenGenerator sets the generator of client tokens.
func WithIdempotencyTokenGenerator(g middleware.IdempotencyTokenGenerator) Option {
	return func(o *options) {
		o.tokenGenerator = g
	}
}

// WithCompression gzips request bodies of at least threshold bytes.
func WithCompression(threshold int) Option {
	return func(o *options) {
		if threshold <= 0 {
			threshold = interceptors.DefaultCompressionThreshold
		}
		o.compressionThreshold = threshold
	}
}

// WithTransportMiddleware wraps the transport of every call.
func WithTransportMiddleware(mws ...ports.Middleware) Option {
	return func(o *options) {
		o.transportMiddleware = append(o.transportMiddleware, mws...)
	}
}

// WithTracer sets the tracer of the operation spans. The global provider is
// used by default.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithUserAgent sets the User-Agent header when the request has none.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}
