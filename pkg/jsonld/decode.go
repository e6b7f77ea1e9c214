package jsonld

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/matzehuels/cratetree/pkg/errors"
)

// =============================================================================
// Document Decoding API
// =============================================================================

// Parse decodes a JSON-LD document from bytes.
func Parse(data []byte) (*Graph, error) {
	return Decode(bytes.NewReader(data))
}

// ReadFile decodes a JSON-LD document from a file.
func ReadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a JSON-LD document. The document may be:
//
//   - an object with an "@graph" array (the usual flattened form)
//   - a top-level array of records
//   - a single object, which becomes a one-record graph
//
// Field order is preserved. Array elements of "@graph" that are not
// objects are skipped.
func Decode(r io.Reader) (*Graph, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode JSON-LD document")
	}

	switch doc := v.(type) {
	case *Record:
		if items, ok := doc.fields[KeyGraph].([]Value); ok {
			g := NewGraph(recordsOf(items)...)
			g.context, _ = doc.Get(KeyContext)
			return g, nil
		}
		return NewGraph(doc), nil
	case []Value:
		return NewGraph(recordsOf(doc)...), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "JSON-LD document must be an object or array, got %T", v)
	}
}

// =============================================================================
// Internal Implementation
// =============================================================================

func recordsOf(items []Value) []*Record {
	out := make([]*Record, 0, len(items))
	for _, it := range items {
		if r, ok := it.(*Record); ok {
			out = append(out, r)
		}
	}
	return out
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	case string, bool, json.Number, nil:
		return t, nil
	case float64:
		return json.Number(strconv.FormatFloat(t, 'f', -1, 64)), nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func decodeObject(dec *json.Decoder) (*Record, error) {
	r := NewRecord()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %v", tok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		r.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return r, nil
}

func decodeArray(dec *json.Decoder) ([]Value, error) {
	out := []Value{}
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}
