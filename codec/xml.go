package codec

import (
	"encoding/xml"
)

// XML encodes and decodes application/xml payloads.
type XML struct{}

func (XML) Encode(v any) ([]byte, error) {
	return xml.Marshal(v)
}

func (XML) Decode(data []byte, v any) error {
	return xml.Unmarshal(data, v)
}

func (XML) ContentType() string { return "application/xml" }
