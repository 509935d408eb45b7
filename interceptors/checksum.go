package interceptors

import (
	"context"
	"crypto/md5"
	"encoding/base64"

	"github.com/mcosta74/opstack/middleware"
	"github.com/mcosta74/opstack/ports"
)

// ContentMD5 sets the Content-MD5 header from the request body unless the
// header is already present.
type ContentMD5[Out any] struct{}

func NewContentMD5[Out any]() *ContentMD5[Out] {
	return &ContentMD5[Out]{}
}

func (*ContentMD5[Out]) ID() string { return "ContentMD5" }

func (*ContentMD5[Out]) HandleMiddleware(ctx context.Context, b *ports.RequestBuilder, next middleware.Handler[*ports.RequestBuilder, *middleware.OperationOutput[Out]]) (*middleware.OperationOutput[Out], error) {
	if len(b.Body()) > 0 && b.Header().Get("Content-MD5") == "" {
		sum := md5.Sum(b.Body())
		b.UpdateHeader("Content-MD5", base64.StdEncoding.EncodeToString(sum[:]))
	}
	return next.Handle(ctx, b)
}
