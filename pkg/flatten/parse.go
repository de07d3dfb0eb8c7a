package flatten

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/audiencekit/vendorlens/pkg/errors"
)

// Parse decodes a JSON document into a Value, preserving object key order.
// The standard library map decoder randomizes key order, which would make
// flattened column order nondeterministic across runs, so Parse walks the
// token stream instead. Numbers decode as float64.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := parseValue(dec)
	if err != nil {
		return Value{}, errors.WrapParse("json", "", err)
	}

	// Trailing content after the first document is malformed input.
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, errors.NewParseError("json", "", "trailing data after document", nil)
	}
	return v, nil
}

// parseValue consumes one JSON value from the decoder.
func parseValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return parseToken(dec, tok)
}

func parseToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return parseObject(dec)
		case '[':
			return parseArray(dec)
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		return String(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			// Out-of-range literal; keep the textual form.
			return String(t.String()), nil
		}
		return Number(f), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return Value{}, fmt.Errorf("unexpected token %v", tok)
	}
}

func parseObject(dec *json.Decoder) (Value, error) {
	obj := Object()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key is not a string: %v", keyTok)
		}
		child, err := parseValue(dec)
		if err != nil {
			return Value{}, err
		}
		obj.set(key, child)
	}
	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return obj, nil
}

func parseArray(dec *json.Decoder) (Value, error) {
	var elems []Value
	for dec.More() {
		child, err := parseValue(dec)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, child)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return List(elems...), nil
}
