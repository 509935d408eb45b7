// Package codec provides the payload encoders and decoders carried by an
// operation context. The pipeline never depends on a concrete format.
package codec

// Encoder turns a value into a request payload.
type Encoder interface {
	Encode(v any) ([]byte, error)
	ContentType() string
}

// Decoder fills v from a response payload.
type Decoder interface {
	Decode(data []byte, v any) error
	ContentType() string
}

// Codec is both an [Encoder] and a [Decoder] for the same format.
type Codec interface {
	Encoder
	Decoder
}
