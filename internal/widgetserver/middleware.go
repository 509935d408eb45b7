package widgetserver

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"encoding/base64"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzip"

	kithttp "github.com/mcosta74/opstack/adapters/http"
	"github.com/mcosta74/opstack/interceptors"
)

// loggingMiddleware logs every request with its outcome.
func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.LogAttrs(r.Context(), slog.LevelInfo, "request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (rw *statusWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket endpoint take over the connection.
func (rw *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(rw.ResponseWriter).Hijack()
}

// verifySignature rejects requests without a valid nkey signature. When
// allowed is not empty, the signer must be one of the listed public keys.
// The signature covers the body as sent, so it runs before decompression.
func verifySignature(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req, err := kithttp.DecodeRequest(r.Context(), r)
			if err != nil {
				writeError(w, http.StatusBadRequest, "ValidationError", validationBody(err.Error(), ""))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(req.Body))

			pub, err := interceptors.VerifyNKeySignature(req)
			if err != nil || (len(allowed) > 0 && !contains(allowed, pub)) {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// decompress inflates gzip request bodies.
func decompress(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Encoding") != "gzip" {
			next.ServeHTTP(w, r)
			return
		}
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "ValidationError", validationBody("malformed gzip body", ""))
			return
		}
		defer zr.Close()

		body, err := kithttp.ReadBody(zr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "ValidationError", validationBody("malformed gzip body", ""))
			return
		}
		r.Header.Del("Content-Encoding")
		r.Body = io.NopCloser(bytes.NewReader(body))
		r.ContentLength = int64(len(body))
		next.ServeHTTP(w, r)
	})
}

// checkContentMD5 rejects bodies not matching their Content-MD5 header. It
// runs after decompression: the digest is computed on the plain body.
func checkContentMD5(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := r.Header.Get("Content-MD5")
		if want == "" {
			next.ServeHTTP(w, r)
			return
		}
		body, err := kithttp.ReadBody(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "ValidationError", validationBody("unreadable body", ""))
			return
		}
		sum := md5.Sum(body)
		if base64.StdEncoding.EncodeToString(sum[:]) != want {
			writeError(w, http.StatusBadRequest, "ValidationError", validationBody("Content-MD5 mismatch", "Content-MD5"))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}
