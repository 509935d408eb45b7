package middleware

import (
	"github.com/google/uuid"
	"github.com/nats-io/nuid"
)

// IdempotencyTokenGenerator produces tokens for operation members that must be
// unique per logical request.
type IdempotencyTokenGenerator interface {
	GenerateToken() string
}

// UUIDTokenGenerator generates random UUIDv4 tokens. It is the default.
type UUIDTokenGenerator struct{}

func (UUIDTokenGenerator) GenerateToken() string {
	return uuid.NewString()
}

// NUIDTokenGenerator generates short NATS unique identifiers.
type NUIDTokenGenerator struct{}

func (NUIDTokenGenerator) GenerateToken() string {
	return nuid.Next()
}

// StaticTokenGenerator always returns the same token. Useful in tests.
type StaticTokenGenerator string

func (g StaticTokenGenerator) GenerateToken() string {
	return string(g)
}
