package codec

import (
	"github.com/go-json-experiment/json"
)

// JSON encodes and decodes application/json payloads.
type JSON struct {
	Options []json.Options
}

func (c JSON) Encode(v any) ([]byte, error) {
	return json.Marshal(v, c.Options...)
}

func (c JSON) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v, c.Options...)
}

func (JSON) ContentType() string { return "application/json" }
