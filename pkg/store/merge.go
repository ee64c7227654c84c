package store

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// union returns the elements of existing followed by the elements of
// incoming, each value kept once. Values are compared by their canonical
// JSON encoding, so 1 and 1.0 are equal while 1 and "1" are not.
func union(existing, incoming []any) []any {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	out := make([]any, 0, len(existing)+len(incoming))

	for _, group := range [][]any{existing, incoming} {
		for _, v := range group {
			key := canonicalKey(v)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func canonicalKey(v any) string {
	data, err := json.Marshal(canonicalize(v))
	if err != nil {
		return fmt.Sprintf("%T:%v", v, v)
	}
	return string(data)
}

// canonicalize rewrites numbers into their shortest decimal form.
// encoding/json already sorts map keys.
func canonicalize(v any) any {
	switch val := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return val
		}
		return json.Number(d.String())
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = canonicalize(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = canonicalize(elem)
		}
		return out
	default:
		return v
	}
}
