package interceptors

import (
	"bytes"
	"context"
	"fmt"

	"github.com/klauspost/compress/gzip"

	"github.com/mcosta74/opstack/middleware"
	"github.com/mcosta74/opstack/ports"
)

// DefaultCompressionThreshold is the minimum body size, in bytes, compressed
// by [NewCompression] when given a non positive threshold.
const DefaultCompressionThreshold = 10240

// Compression gzips request bodies at least threshold bytes long.
// Bodies that already carry a Content-Encoding are left untouched.
type Compression[Out any] struct {
	threshold int
	level     int
}

func NewCompression[Out any](threshold int) *Compression[Out] {
	if threshold <= 0 {
		threshold = DefaultCompressionThreshold
	}
	return &Compression[Out]{threshold: threshold, level: gzip.DefaultCompression}
}

func (*Compression[Out]) ID() string { return "Compression" }

func (m *Compression[Out]) HandleMiddleware(ctx context.Context, b *ports.RequestBuilder, next middleware.Handler[*ports.RequestBuilder, *middleware.OperationOutput[Out]]) (*middleware.OperationOutput[Out], error) {
	if len(b.Body()) < m.threshold || b.Header().Get("Content-Encoding") != "" {
		return next.Handle(ctx, b)
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, m.level)
	if err != nil {
		return nil, fmt.Errorf("gzip writer: %w", err)
	}
	if _, err := zw.Write(b.Body()); err != nil {
		return nil, fmt.Errorf("gzip body: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip body: %w", err)
	}

	b.WithBody(buf.Bytes()).UpdateHeader("Content-Encoding", "gzip")
	return next.Handle(ctx, b)
}
