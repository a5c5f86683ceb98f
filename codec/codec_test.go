package codec

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// body uses json struct tags only; CBOR falls back to them.
type body struct {
	Op    string   `json:"op"`
	LaTeX string   `json:"latex,omitempty"`
	Vars  []string `json:"variables,omitempty"`
}

func TestMarshalDeterministic(t *testing.T) {
	v := body{Op: "gradient", LaTeX: "x y", Vars: []string{"x", "y"}}
	first, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Marshal(v)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding %d differs: %x vs %x", i, again, first)
		}
	}
}

func TestUnmarshalRejectsUnknownField(t *testing.T) {
	data, err := Marshal(map[string]any{"op": "factor", "bogus": 1})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var b body
	if err := Unmarshal(data, &b); err == nil {
		t.Fatal("expected an unknown field error")
	}
}

func TestForContentType(t *testing.T) {
	tests := []struct {
		ct      string
		want    Format
		wantErr bool
	}{
		{"", JSON, false},
		{"*/*", JSON, false},
		{"application/json", JSON, false},
		{"application/json; charset=utf-8", JSON, false},
		{"text/json", JSON, false},
		{"application/cbor", CBOR, false},
		{"text/plain", JSON, true},
		{"not a media type;;", JSON, true},
	}
	for _, tt := range tests {
		got, err := ForContentType(tt.ct)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedType) {
				t.Errorf("ForContentType(%q): want ErrUnsupportedType, got %v", tt.ct, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ForContentType(%q): %v", tt.ct, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ForContentType(%q) = %s, want %s", tt.ct, got, tt.want)
		}
	}
}

func TestFormatRoundtrip(t *testing.T) {
	want := body{Op: "sum", LaTeX: "i", Vars: []string{"i"}}
	for _, f := range []Format{JSON, CBOR} {
		data, err := f.Bytes(want)
		if err != nil {
			t.Fatalf("%s: Bytes: %v", f, err)
		}
		var got body
		if err := f.Decode(bytes.NewReader(data), &got); err != nil {
			t.Fatalf("%s: Decode: %v", f, err)
		}
		if got.Op != want.Op || got.LaTeX != want.LaTeX || len(got.Vars) != 1 || got.Vars[0] != "i" {
			t.Errorf("%s: roundtrip mismatch: got %+v, want %+v", f, got, want)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	var b body
	if err := JSON.Decode(strings.NewReader(`{"op": "factor", "extra": true}`), &b); err == nil {
		t.Error("unknown field: expected an error")
	}
	if err := JSON.Decode(strings.NewReader(`{"op": "factor"} {"op": "expand"}`), &b); err == nil {
		t.Error("trailing value: expected an error")
	}
	if err := JSON.Decode(strings.NewReader("{\"op\": \"factor\"}\n"), &b); err != nil {
		t.Errorf("trailing newline: %v", err)
	}
}

func TestContentType(t *testing.T) {
	if JSON.ContentType() != JSONType || CBOR.ContentType() != CBORType {
		t.Errorf("ContentType: got %q and %q", JSON.ContentType(), CBOR.ContentType())
	}
}
