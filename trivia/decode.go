package trivia

import (
	"encoding/base64"
	"fmt"
)

// DecodeStrings walks a decoded JSON value and base64-decodes every string
// in it. Arrays and objects are walked element-wise and key-wise; any other
// value passes through unchanged.
func DecodeStrings(v any) (any, error) {
	switch val := v.(type) {
	case string:
		decoded, err := base64.StdEncoding.DecodeString(val)
		if err != nil {
			return nil, fmt.Errorf("decode %q: %w", val, err)
		}
		return string(decoded), nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			decoded, err := DecodeStrings(elem)
			if err != nil {
				return nil, err
			}
			out[i] = decoded
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			decoded, err := DecodeStrings(elem)
			if err != nil {
				return nil, err
			}
			out[k] = decoded
		}
		return out, nil
	default:
		return v, nil
	}
}
