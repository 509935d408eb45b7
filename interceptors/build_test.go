package interceptors_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcosta74/opstack/interceptors"
	kittesting "github.com/mcosta74/opstack/internal/testing"
	"github.com/mcosta74/opstack/middleware"
	"github.com/mcosta74/opstack/ports"
)

func withBody(method string, body []byte) middleware.Middleware[*middleware.SerializeInput[empty], *middleware.OperationOutput[empty]] {
	return middleware.NewMiddleware("WithBody", func(ctx context.Context, in *middleware.SerializeInput[empty], next middleware.Handler[*middleware.SerializeInput[empty], *middleware.OperationOutput[empty]]) (*middleware.OperationOutput[empty], error) {
		in.Builder.WithMethod(method).WithBody(body)
		return next.Handle(ctx, in)
	})
}

func sendOne(t *testing.T, s *middleware.Stack[empty, empty]) *ports.Request {
	t.Helper()

	transport := &kittesting.StubTransport{}
	_, err := s.Execute(context.Background(), nil, empty{}, transport)
	require.NoError(t, err)
	require.Len(t, transport.Requests(), 1)
	return transport.Requests()[0]
}

func TestContentMD5(t *testing.T) {
	s := middleware.NewStack[empty, empty]("Checksum")
	require.NoError(t, s.Serialize.InsertAtTail(withBody(http.MethodPut, []byte("hello"))))
	require.NoError(t, s.Build.InsertAtTail(interceptors.NewContentMD5[empty]()))

	req := sendOne(t, s)

	assert.Equal(t, "XUFAKrxLKna5cZ2REBfFkg==", req.Header.Get("Content-MD5"))
}

func TestContentMD5KeepsExistingHeader(t *testing.T) {
	s := middleware.NewStack[empty, empty]("Checksum")
	require.NoError(t, s.Serialize.InsertAtTail(withBody(http.MethodPut, []byte("hello"))))
	require.NoError(t, s.Build.InsertAtTail(&interceptors.MutateHeaders[empty]{Overrides: map[string]string{"Content-MD5": "precomputed"}}))
	require.NoError(t, s.Build.InsertAtTail(interceptors.NewContentMD5[empty]()))

	req := sendOne(t, s)

	assert.Equal(t, "precomputed", req.Header.Get("Content-MD5"))
}

func TestCompression(t *testing.T) {
	body := []byte(strings.Repeat("widget ", 100))

	t.Run("above threshold", func(t *testing.T) {
		s := middleware.NewStack[empty, empty]("Compression")
		require.NoError(t, s.Serialize.InsertAtTail(withBody(http.MethodPost, body)))
		require.NoError(t, s.Build.InsertAtTail(interceptors.NewCompression[empty](128)))

		req := sendOne(t, s)

		assert.Equal(t, "gzip", req.Header.Get("Content-Encoding"))
		zr, err := gzip.NewReader(bytes.NewReader(req.Body))
		require.NoError(t, err)
		got, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.Equal(t, body, got)
	})

	t.Run("below threshold", func(t *testing.T) {
		s := middleware.NewStack[empty, empty]("Compression")
		require.NoError(t, s.Serialize.InsertAtTail(withBody(http.MethodPost, body)))
		require.NoError(t, s.Build.InsertAtTail(interceptors.NewCompression[empty](0)))

		req := sendOne(t, s)

		assert.Empty(t, req.Header.Get("Content-Encoding"))
		assert.Equal(t, body, req.Body)
	})
}

func TestContentLength(t *testing.T) {
	for name, tc := range map[string]struct {
		method string
		body   []byte
		want   string
	}{
		"body":           {method: http.MethodPut, body: []byte("hello"), want: "5"},
		"empty post":     {method: http.MethodPost, want: "0"},
		"empty get":      {method: http.MethodGet, want: ""},
		"body on delete": {method: http.MethodDelete, body: []byte("{}"), want: "2"},
	} {
		t.Run(name, func(t *testing.T) {
			s := middleware.NewStack[empty, empty]("ContentLength")
			require.NoError(t, s.Serialize.InsertAtTail(withBody(tc.method, tc.body)))
			require.NoError(t, s.Finalize.InsertAtTail(interceptors.NewContentLength[empty]()))

			req := sendOne(t, s)

			assert.Equal(t, tc.want, req.Header.Get("Content-Length"))
		})
	}
}
