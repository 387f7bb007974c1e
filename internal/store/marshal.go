package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gradient-ai/jax-gradient/internal/ir"
)

// marshalProgram converts a Program to JSON TEXT for storage.
// HTML escaping is disabled so names round-trip byte for byte.
func marshalProgram(p ir.Program) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("marshal program: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

func unmarshalProgram(data string) (ir.Program, error) {
	var p ir.Program
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return ir.Program{}, fmt.Errorf("unmarshal program: %w", err)
	}
	return p, nil
}

// marshalFloats stores values as decimal strings so NaN and infinities
// produced by a run survive the round trip.
func marshalFloats(values []float64) (string, error) {
	strs := make([]string, len(values))
	for i, v := range values {
		strs[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	data, err := json.Marshal(strs)
	if err != nil {
		return "", fmt.Errorf("marshal values: %w", err)
	}
	return string(data), nil
}

func unmarshalFloats(data string) ([]float64, error) {
	if data == "" || data == "[]" {
		return []float64{}, nil
	}
	var strs []string
	if err := json.Unmarshal([]byte(data), &strs); err != nil {
		return nil, fmt.Errorf("unmarshal values: %w", err)
	}
	values := make([]float64, len(strs))
	for i, s := range strs {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("unmarshal values[%d]: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}

// marshalBindings stores constvar overrides as a JSON object of decimal
// strings. encoding/json sorts map keys, so equal bindings store equal text.
func marshalBindings(b ir.Bindings) (string, error) {
	if len(b) == 0 {
		return "{}", nil
	}
	strs := make(map[string]string, len(b))
	for name, v := range b {
		strs[name] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	data, err := json.Marshal(strs)
	if err != nil {
		return "", fmt.Errorf("marshal consts: %w", err)
	}
	return string(data), nil
}

// unmarshalBindings returns nil for an empty object.
func unmarshalBindings(data string) (ir.Bindings, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var strs map[string]string
	if err := json.Unmarshal([]byte(data), &strs); err != nil {
		return nil, fmt.Errorf("unmarshal consts: %w", err)
	}
	b := make(ir.Bindings, len(strs))
	for name, s := range strs {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("unmarshal consts[%q]: %w", name, err)
		}
		b[name] = v
	}
	return b, nil
}
