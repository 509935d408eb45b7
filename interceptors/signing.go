package interceptors

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nkeys"

	"github.com/mcosta74/opstack/middleware"
	"github.com/mcosta74/opstack/ports"
)

// Signature headers written by [NKeySigner].
const (
	HeaderSignatureDate = "X-Opstack-Date"
	HeaderPublicKey     = "X-Opstack-Public-Key"
	HeaderSignature     = "X-Opstack-Signature"
)

// ErrInvalidSignature is returned by [VerifyNKeySignature].
var ErrInvalidSignature = errors.New("invalid request signature")

// Signer authenticates a fully built request.
type Signer interface {
	Sign(ctx context.Context, b *ports.RequestBuilder, at time.Time) error
}

// SignerFunc is an adapter to allow the use of ordinary functions as signers.
type SignerFunc func(ctx context.Context, b *ports.RequestBuilder, at time.Time) error

func (f SignerFunc) Sign(ctx context.Context, b *ports.RequestBuilder, at time.Time) error {
	return f(ctx, b, at)
}

// Signing signs the request. Insert it after every middleware that changes
// the request and before ContentLength.
type Signing[Out any] struct {
	signer Signer
	now    func() time.Time
}

func NewSigning[Out any](signer Signer) *Signing[Out] {
	return &Signing[Out]{signer: signer, now: time.Now}
}

func (*Signing[Out]) ID() string { return "Signing" }

func (m *Signing[Out]) HandleMiddleware(ctx context.Context, b *ports.RequestBuilder, next middleware.Handler[*ports.RequestBuilder, *middleware.OperationOutput[Out]]) (*middleware.OperationOutput[Out], error) {
	if err := m.signer.Sign(ctx, b, m.now().UTC()); err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}
	return next.Handle(ctx, b)
}

// NKeySigner signs requests with an ed25519 NATS nkey.
type NKeySigner struct {
	kp nkeys.KeyPair
}

// NewNKeySigner returns a signer for the given nkey seed.
func NewNKeySigner(seed []byte) (*NKeySigner, error) {
	kp, err := nkeys.FromSeed(seed)
	if err != nil {
		return nil, fmt.Errorf("parse nkey seed: %w", err)
	}
	return &NKeySigner{kp: kp}, nil
}

func (s *NKeySigner) Sign(_ context.Context, b *ports.RequestBuilder, at time.Time) error {
	pub, err := s.kp.PublicKey()
	if err != nil {
		return err
	}
	date := at.Format(time.RFC3339)
	b.UpdateHeader(HeaderSignatureDate, date)
	b.UpdateHeader(HeaderPublicKey, pub)

	sig, err := s.kp.Sign(canonicalRequest(b.Method(), b.Path(), b.Query().Encode(), date, b.Body()))
	if err != nil {
		return err
	}
	b.UpdateHeader(HeaderSignature, base64.RawURLEncoding.EncodeToString(sig))
	return nil
}

// VerifyNKeySignature checks a request signed by [NKeySigner] and returns the
// signer public key.
func VerifyNKeySignature(req *ports.Request) (string, error) {
	pub := req.Header.Get(HeaderPublicKey)
	date := req.Header.Get(HeaderSignatureDate)
	sig, err := base64.RawURLEncoding.DecodeString(req.Header.Get(HeaderSignature))
	if pub == "" || date == "" || err != nil {
		return "", ErrInvalidSignature
	}

	kp, err := nkeys.FromPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if err := kp.Verify(canonicalRequest(req.Method, req.Path, req.Query.Encode(), date, req.Body), sig); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return pub, nil
}

func canonicalRequest(method, path, query, date string, body []byte) []byte {
	sum := sha256.Sum256(body)
	return []byte(strings.Join([]string{method, path, query, date, hex.EncodeToString(sum[:])}, "\n"))
}
