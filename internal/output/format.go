package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const indentUnit = "  "

// jsonValue is a decoded json value that keeps the key order of objects.
type jsonValue struct {
	raw     []byte // scalars, already encoded
	isArray bool
	isObj   bool
	keys    []string
	members []*jsonValue // object values (parallel to keys) or array elements
}

// MarshalRecords serializes items as an indented json array in the layout of
// the history file:
//
//   - top level elements are separated by "},{" instead of starting a new line
//   - arrays holding exactly one element are written on a single line
//   - html characters are not escaped
//
// items must marshal to a json array.
func MarshalRecords(items any) ([]byte, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(items); err != nil {
		return nil, fmt.Errorf("error while encoding items: %w", err)
	}

	dec := json.NewDecoder(buffer)
	dec.UseNumber()
	root, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if !root.isArray {
		return nil, errors.New("records must be serialized as a json array")
	}

	var out bytes.Buffer
	if len(root.members) == 0 {
		out.WriteString("[]")
		return out.Bytes(), nil
	}
	out.WriteString("[\n")
	out.WriteString(indentUnit)
	for i, m := range root.members {
		if i > 0 {
			out.WriteString(",")
		}
		writeIndented(&out, m, 1)
	}
	out.WriteString("\n]")
	return out.Bytes(), nil
}

func decodeValue(dec *json.Decoder) (*jsonValue, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("error while decoding json: %w", err)
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			v := &jsonValue{isArray: true}
			for dec.More() {
				m, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				v.members = append(v.members, m)
			}
			_, err := dec.Token() // ]
			return v, err
		case '{':
			v := &jsonValue{isObj: true}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				m, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				v.keys = append(v.keys, key)
				v.members = append(v.members, m)
			}
			_, err := dec.Token() // }
			return v, err
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	default:
		raw, err := encodeScalar(t)
		if err != nil {
			return nil, err
		}
		return &jsonValue{raw: raw}, nil
	}
}

func encodeScalar(v any) ([]byte, error) {
	if n, ok := v.(json.Number); ok {
		return []byte(n.String()), nil
	}
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buffer.Bytes(), "\n"), nil
}

// writeIndented writes v assuming the cursor is already placed at the
// indentation of depth.
func writeIndented(w io.Writer, v *jsonValue, depth int) {
	switch {
	case v.isArray:
		switch len(v.members) {
		case 0:
			io.WriteString(w, "[]")
		case 1:
			io.WriteString(w, "[")
			writeInline(w, v.members[0])
			io.WriteString(w, "]")
		default:
			io.WriteString(w, "[")
			for i, m := range v.members {
				if i > 0 {
					io.WriteString(w, ",")
				}
				io.WriteString(w, "\n"+strings.Repeat(indentUnit, depth+1))
				writeIndented(w, m, depth+1)
			}
			io.WriteString(w, "\n"+strings.Repeat(indentUnit, depth)+"]")
		}
	case v.isObj:
		if len(v.members) == 0 {
			io.WriteString(w, "{}")
			return
		}
		io.WriteString(w, "{")
		for i, key := range v.keys {
			if i > 0 {
				io.WriteString(w, ",")
			}
			io.WriteString(w, "\n"+strings.Repeat(indentUnit, depth+1))
			k, _ := encodeScalar(key)
			w.Write(k)
			io.WriteString(w, ": ")
			writeIndented(w, v.members[i], depth+1)
		}
		io.WriteString(w, "\n"+strings.Repeat(indentUnit, depth)+"}")
	default:
		w.Write(v.raw)
	}
}

// writeInline writes v on one line with ", " and ": " separators.
func writeInline(w io.Writer, v *jsonValue) {
	switch {
	case v.isArray:
		io.WriteString(w, "[")
		for i, m := range v.members {
			if i > 0 {
				io.WriteString(w, ", ")
			}
			writeInline(w, m)
		}
		io.WriteString(w, "]")
	case v.isObj:
		io.WriteString(w, "{")
		for i, key := range v.keys {
			if i > 0 {
				io.WriteString(w, ", ")
			}
			k, _ := encodeScalar(key)
			w.Write(k)
			io.WriteString(w, ": ")
			writeInline(w, v.members[i])
		}
		io.WriteString(w, "}")
	default:
		w.Write(v.raw)
	}
}
