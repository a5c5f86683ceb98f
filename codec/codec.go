// Package codec encodes and decodes request and response bodies as JSON or
// CBOR, selected by media type.
//
// CBOR uses Core Deterministic Encoding (RFC 8949 §4.2): the same value
// always produces the same bytes, which makes Marshal suitable for cache
// keys.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

const (
	JSONType = "application/json"
	CBORType = "application/cbor"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType:    reflect.TypeOf(map[string]any(nil)),
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v as deterministic CBOR.
func Marshal(v any) ([]byte, error) { return encMode.Marshal(v) }

// Unmarshal decodes CBOR data into v, rejecting unknown struct fields.
func Unmarshal(data []byte, v any) error { return decMode.Unmarshal(data, v) }

// Format is a body encoding.
type Format int

const (
	JSON Format = iota
	CBOR
)

// ErrUnsupportedType is returned for media types other than JSON and CBOR.
var ErrUnsupportedType = errors.New("unsupported media type")

// ForContentType picks the format for a Content-Type or Accept value. An
// empty value means JSON.
func ForContentType(ct string) (Format, error) {
	if ct == "" || ct == "*/*" {
		return JSON, nil
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return JSON, fmt.Errorf("%w: %q", ErrUnsupportedType, ct)
	}
	switch mt {
	case JSONType, "text/json", "*/*":
		return JSON, nil
	case CBORType:
		return CBOR, nil
	}
	return JSON, fmt.Errorf("%w: %q", ErrUnsupportedType, mt)
}

func (f Format) ContentType() string {
	if f == CBOR {
		return CBORType
	}
	return JSONType
}

func (f Format) String() string {
	if f == CBOR {
		return "cbor"
	}
	return "json"
}

// Decode reads exactly one value from r into v. Unknown fields and
// trailing data are errors.
func (f Format) Decode(r io.Reader, v any) error {
	if f == CBOR {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		return Unmarshal(data, v)
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("invalid JSON: trailing data")
	}
	return nil
}

// Encode writes v to w.
func (f Format) Encode(w io.Writer, v any) error {
	if f == CBOR {
		return encMode.NewEncoder(w).Encode(v)
	}
	return json.NewEncoder(w).Encode(v)
}

// Bytes encodes v in memory.
func (f Format) Bytes(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
