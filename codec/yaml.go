package codec

import (
	"gopkg.in/yaml.v3"
)

// YAML encodes and decodes application/yaml payloads.
type YAML struct{}

func (YAML) Encode(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

func (YAML) Decode(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

func (YAML) ContentType() string { return "application/yaml" }
