// Package decode turns the string-typed values of ERP records into typed
// values. Each decoder receives the result of a map lookup: the value and
// whether the key was present at all.
package decode

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// DateTimeLayout is the ERP wire format for full timestamps.
const DateTimeLayout = "2006-01-02 15:04:05"

// Supported calendar range for timestamp-derived dates: years -262143 to 262142.
const (
	minTimestamp = -8334601315200
	maxTimestamp = 8210266876799
	maxYear      = 262142
)

var (
	boolTokens         = []string{"1", "true", "0", "false"}
	optionalBoolTokens = []string{"", "none", "1", "true", "0", "false"}
)

// Text returns the textual form of a scalar wire value. nil and composite
// values have no text.
func Text(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int8:
		return strconv.FormatInt(int64(t), 10), true
	case int16:
		return strconv.FormatInt(int64(t), 10), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint:
		return strconv.FormatUint(uint64(t), 10), true
	case uint8:
		return strconv.FormatUint(uint64(t), 10), true
	case uint16:
		return strconv.FormatUint(uint64(t), 10), true
	case uint32:
		return strconv.FormatUint(uint64(t), 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// Required decodes a mandatory field. Absence and parse failures are fatal.
func Required[T any](field string, v any, present bool, parse func(string) (T, error)) (T, error) {
	var zero T
	if !present {
		return zero, fieldError(field, "", ErrMissing)
	}
	s, ok := Text(v)
	if !ok {
		return zero, fieldError(field, "", ErrInvalid)
	}
	out, err := parse(s)
	if err != nil {
		return zero, fieldError(field, s, ErrInvalid)
	}
	return out, nil
}

// Float decodes a numeric field that falls back to 0 instead of failing.
func Float(v any, present bool) float64 {
	if !present {
		return 0
	}
	s, ok := Text(v)
	if !ok {
		return 0
	}
	f, err := ParseFloat(s)
	if err != nil {
		return 0
	}
	return f
}

// Optional decodes a field where "", "null" and absence all mean no value.
// Any other text must parse.
func Optional[T any](field string, v any, present bool, parse func(string) (T, error)) (*T, error) {
	if !present {
		return nil, nil
	}
	s, ok := Text(v)
	if !ok || s == "" || s == "null" {
		return nil, nil
	}
	out, err := parse(s)
	if err != nil {
		return nil, fieldError(field, s, ErrInvalid)
	}
	return &out, nil
}

// OptionalString returns the text of a plain optional field. An empty string
// is kept as a value.
func OptionalString(v any, present bool) *string {
	if !present {
		return nil
	}
	s, ok := Text(v)
	if !ok {
		return nil
	}
	return &s
}

// Bool decodes a strict boolean token. A missing or non-text value is false.
func Bool(field string, v any, present bool) (bool, error) {
	if !present {
		return false, nil
	}
	s, ok := Text(v)
	if !ok {
		return false, nil
	}
	switch s {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	default:
		return false, fieldError(field, s, ErrUnknownToken, boolTokens...)
	}
}

// OptionalBool decodes a tri-state flag. An explicit false token yields no
// value rather than false: the ERP rejects false on these fields and expects
// them cleared instead.
func OptionalBool(field string, v any, present bool) (*bool, error) {
	if !present {
		return nil, nil
	}
	s, ok := Text(v)
	if !ok {
		return nil, nil
	}
	switch s {
	case "", "none", "0", "false":
		return nil, nil
	case "1", "true":
		b := true
		return &b, nil
	default:
		return nil, fieldError(field, s, ErrUnknownToken, optionalBoolTokens...)
	}
}

// OptionalTimestamp decodes an integer Unix timestamp into a UTC calendar
// date shifted forward by one day. Non-integer values yield no value.
func OptionalTimestamp(field string, v any, present bool) (*time.Time, error) {
	if !present {
		return nil, nil
	}
	ts, ok := integer(v)
	if !ok {
		return nil, nil
	}
	if ts < minTimestamp || ts > maxTimestamp {
		return nil, fieldError(field, strconv.FormatInt(ts, 10), ErrOverflow)
	}
	t := time.Unix(ts, 0).UTC()
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	if d.Year() > maxYear {
		return nil, fieldError(field, strconv.FormatInt(ts, 10), ErrOverflow)
	}
	return &d, nil
}

// OptionalDateTime decodes a "YYYY-MM-DD HH:MM:SS" text value as UTC.
func OptionalDateTime(field string, v any, present bool) (*time.Time, error) {
	if !present {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateTimeLayout, s, time.UTC)
	if err != nil {
		return nil, fieldError(field, s, ErrInvalid)
	}
	return &t, nil
}

func integer(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		i, err := t.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(t, 10, 64)
		return i, err == nil
	case float64:
		if t != math.Trunc(t) || t < math.MinInt64 || t >= math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint32:
		return int64(t), true
	default:
		return 0, false
	}
}
