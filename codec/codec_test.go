package codec_test

import (
	"testing"

	"github.com/mcosta74/opstack/codec"
)

type widget struct {
	ID   string `json:"id" xml:"id" yaml:"id"`
	Name string `json:"name,omitempty" xml:"name,omitempty" yaml:"name,omitempty"`
}

func TestCodecs(t *testing.T) {
	for _, tc := range []struct {
		name  string
		codec codec.Codec
		ctype string
	}{
		{name: "json", codec: codec.JSON{}, ctype: "application/json"},
		{name: "xml", codec: codec.XML{}, ctype: "application/xml"},
		{name: "yaml", codec: codec.YAML{}, ctype: "application/yaml"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if want, got := tc.ctype, tc.codec.ContentType(); want != got {
				t.Errorf("unexpected content type: want=%q, got=%q", want, got)
			}

			data, err := tc.codec.Encode(widget{ID: "w-1", Name: "sprocket"})
			if err != nil {
				t.Fatal(err)
			}

			var out widget
			if err := tc.codec.Decode(data, &out); err != nil {
				t.Fatal(err)
			}
			if want, got := "sprocket", out.Name; want != got {
				t.Errorf("unexpected name: want=%q, got=%q", want, got)
			}
		})
	}
}

func TestJSONDecodeError(t *testing.T) {
	var out widget
	if err := (codec.JSON{}).Decode([]byte("{"), &out); err == nil {
		t.Error("expected error on truncated payload")
	}
}
