package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces canonical JSON for hashing and storage.
// CRITICAL: This is the ONLY serialization that should be used for
// content-addressed identity computation.
//
// Key differences from standard json.Marshal:
//  1. Object keys sorted by UTF-16 code units (RFC 8785), not UTF-8 bytes
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Floats are encoded as strings holding the shortest round-trip decimal,
//     so the encoding never depends on a JSON number formatter
//  5. No null, NaN or infinities (returns error)
func MarshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return marshalCanonicalString(val)
	case OpID:
		return marshalCanonicalString(string(val))
	case int:
		return []byte(strconv.FormatInt(int64(val), 10)), nil
	case int64:
		return []byte(strconv.FormatInt(val, 10)), nil
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case float64:
		s, err := canonicalFloat(val)
		if err != nil {
			return nil, err
		}
		return marshalCanonicalString(s)
	case []float64:
		arr := make([]any, len(val))
		for i, f := range val {
			arr[i] = f
		}
		return marshalCanonicalArray(arr)
	case []string:
		arr := make([]any, len(val))
		for i, s := range val {
			arr[i] = s
		}
		return marshalCanonicalArray(arr)
	case []any:
		return marshalCanonicalArray(val)
	case map[string]any:
		return marshalCanonicalObject(val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// canonicalFloat renders f with the shortest decimal that round-trips.
// Negative zero keeps its sign: mul by -0 and by 0 differ in the sign of
// a zero result, so they are different programs.
func canonicalFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("non-finite float is forbidden in canonical JSON: %v", f)
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

// marshalCanonicalString produces a canonical JSON string with NFC normalization.
// Only control characters, backslash and quote are escaped.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // CRITICAL: <, >, & must NOT be escaped
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds trailing newline, remove it
	result := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})

	// Go escapes U+2028/U+2029 for JavaScript; canonical JSON keeps them literal.
	return unescapeLineSeparators(result), nil
}

// unescapeLineSeparators turns \u2028 and \u2029 escapes back into literal
// characters, leaving \\u2028 (an escaped backslash followed by text) alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+1 < len(data) {
			if data[i+1] == 'u' && i+5 < len(data) &&
				string(data[i+2:i+5]) == "202" && (data[i+5] == '8' || data[i+5] == '9') {
				if data[i+5] == '8' {
					out = append(out, "\u2028"...)
				} else {
					out = append(out, "\u2029"...)
				}
				i += 5
				continue
			}
			// Any other escape pair is copied as-is so \\ never starts a match.
			out = append(out, data[i], data[i+1])
			i++
			continue
		}
		out = append(out, data[i])
	}
	return out
}

func marshalCanonicalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := MarshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}

	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalCanonicalObject(obj map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range sortedKeys(obj) {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyBytes, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := MarshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// sortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// CRITICAL: Go's string ordering uses UTF-8 bytes which produces a DIFFERENT order
// for characters outside the BMP.
func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

// canonicalRef is the canonical form of a Ref.
func canonicalRef(r Ref) map[string]any {
	if r.Lit {
		return map[string]any{"lit": r.Value}
	}
	return map[string]any{"var": r.Name}
}

func canonicalRefs(refs []Ref) []any {
	out := make([]any, len(refs))
	for i, r := range refs {
		out[i] = canonicalRef(r)
	}
	return out
}

// Canonical returns the structural form of the program used for identity.
// Name and Examples are excluded: two programs computing the same thing with
// the same variable layout share an ID regardless of what they were called or
// where they were traced.
func (p *Program) Canonical() map[string]any {
	instructions := make([]any, len(p.Instructions))
	for i, ins := range p.Instructions {
		instructions[i] = map[string]any{
			"op":     ins.Op,
			"inputs": canonicalRefs(ins.Inputs),
			"output": canonicalRef(ins.Output),
		}
	}
	consts := make([]any, len(p.Consts))
	for i, c := range p.Consts {
		consts[i] = map[string]any{"name": c.Name, "value": c.Value}
	}
	return map[string]any{
		"inputs":       canonicalRefs(p.Inputs),
		"consts":       consts,
		"instructions": instructions,
		"outputs":      canonicalRefs(p.Outputs),
	}
}
