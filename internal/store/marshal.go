package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/narrate/internal/ir"
)

// marshalStrings stores a string list as canonical JSON TEXT.
func marshalStrings(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := ir.MarshalCanonical(items)
	if err != nil {
		return "", fmt.Errorf("marshal strings: %w", err)
	}
	return string(data), nil
}

func unmarshalStrings(data string) ([]string, error) {
	out := []string{}
	if data == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal strings: %w", err)
	}
	return out, nil
}

// marshalParams stores parameters as canonical JSON TEXT so equal
// parameter sets are byte-identical.
func marshalParams(params map[string]ir.Value) (string, error) {
	obj := make(map[string]any, len(params))
	for k, v := range params {
		obj[k] = v
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return string(data), nil
}

func unmarshalParams(data string) (map[string]ir.Value, error) {
	raw := map[string]any{}
	if data != "" {
		if err := json.Unmarshal([]byte(data), &raw); err != nil {
			return nil, fmt.Errorf("unmarshal params: %w", err)
		}
	}
	out := make(map[string]ir.Value, len(raw))
	for k, v := range raw {
		val, err := ir.FromGo(v)
		if err != nil {
			return nil, fmt.Errorf("unmarshal params: %s: %w", k, err)
		}
		out[k] = val
	}
	return out, nil
}
