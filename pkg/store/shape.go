package store

import (
	"bytes"
	"encoding/json"
	"errors"
)

type shape int

const (
	shapeCorrupt shape = iota
	shapeKeyed
	shapeList
)

func (s shape) String() string {
	switch s {
	case shapeKeyed:
		return "keyed"
	case shapeList:
		return "list"
	default:
		return "corrupt"
	}
}

// errCorrupt marks content that is not a JSON object or array. Callers
// recover from it by discarding the content.
var errCorrupt = errors.New("document content is not a JSON object or array")

// classify reports the document shape of data without decoding it.
// Invalid JSON and JSON scalars (including null) are corrupt.
func classify(data []byte) shape {
	if !json.Valid(data) {
		return shapeCorrupt
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return shapeCorrupt
	}
	switch trimmed[0] {
	case '{':
		return shapeKeyed
	case '[':
		return shapeList
	default:
		return shapeCorrupt
	}
}

// decodeExact decodes data keeping numbers as json.Number so values
// survive a read-modify-write cycle unchanged.
func decodeExact(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// normalize round-trips v through JSON so that every sequence becomes
// []any and every mapping map[string]any.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := decodeExact(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
