package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Args are decoded tool arguments. Decoding is best-effort: providers send
// numbers as strings, strings padded with whitespace, or nothing at all.
type Args map[string]any

// ParseArgs decodes a JSON object. It never fails; malformed input yields an
// empty Args and ok=false.
func ParseArgs(raw string) (args Args, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return Args{}, true
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return Args{}, false
	}
	if m == nil {
		return Args{}, true
	}
	return Args(m), true
}

// String returns a trimmed string argument. Non-string scalars are
// formatted; missing keys yield "".
func (a Args) String(key string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return ""
	}
	switch vv := v.(type) {
	case string:
		return strings.TrimSpace(vv)
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(vv)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Float returns a numeric argument, coercing numeric strings.
func (a Args) Float(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Int returns an integral argument. Fractional numbers are rejected.
func (a Args) Int(key string) (int, bool) {
	f, ok := a.Float(key)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// Has reports whether key is present and not null.
func (a Args) Has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

// Strings returns a list argument. A JSON array of strings or a single
// comma-separated string are both accepted; blanks are dropped.
func (a Args) Strings(key string) []string {
	var raw []string
	switch v := a[key].(type) {
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				raw = append(raw, s)
			}
		}
	case []string:
		raw = v
	case string:
		raw = strings.Split(v, ",")
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Sanitize returns the argument JSON with strings trimmed. It keeps the
// original text when the input is not a JSON object.
func Sanitize(raw string) string {
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil || m == nil {
		return raw
	}
	for k, v := range m {
		if s, ok := v.(string); ok {
			m[k] = strings.TrimSpace(s)
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return raw
	}
	return string(b)
}
