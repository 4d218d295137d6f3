package docstore

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ErrUnsupportedType is returned by Encode for native types with no wire form.
var ErrUnsupportedType = errors.New("docstore: unsupported native type")

// Fields maps field names to typed values. Field names are unique by construction.
type Fields map[string]Value

// Document is one stored document. ID is empty until the store has assigned one.
type Document struct {
	ID     string
	Name   string
	Fields Fields
}

// Encode converts a native Go value to its wire value.
func Encode(v any) (Value, error) {
	switch x := v.(type) {
	case Value:
		return x, nil
	case string:
		return StringValue(x), nil
	case int:
		return IntegerValue(int64(x)), nil
	case int8:
		return IntegerValue(int64(x)), nil
	case int16:
		return IntegerValue(int64(x)), nil
	case int32:
		return IntegerValue(int64(x)), nil
	case int64:
		return IntegerValue(x), nil
	case uint8:
		return IntegerValue(int64(x)), nil
	case uint16:
		return IntegerValue(int64(x)), nil
	case uint32:
		return IntegerValue(int64(x)), nil
	case float32:
		return DoubleValue(float64(x)), nil
	case float64:
		return DoubleValue(x), nil
	case time.Time:
		return TimestampValue(x), nil
	case []string:
		values := make([]Value, len(x))
		for i, s := range x {
			values[i] = StringValue(s)
		}
		return ArrayValue(values...), nil
	case []any:
		values := make([]Value, len(x))
		for i, item := range x {
			enc, err := Encode(item)
			if err != nil {
				return Value{}, fmt.Errorf("array element %d: %w", i, err)
			}
			values[i] = enc
		}
		return ArrayValue(values...), nil
	}
	return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
}

// Decode converts a wire value back to its native Go form: string, int64, float64,
// time.Time or []any. Raw values decode to their JSON text.
func Decode(v Value) any {
	switch v.kind {
	case KindString, KindRaw:
		return v.text
	case KindInteger:
		return v.i
	case KindDouble:
		return v.f
	case KindTimestamp:
		t, _ := v.Time()
		return t
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = Decode(item)
		}
		return out
	}
	return nil
}

// EncodeMap encodes every entry of a native map.
func EncodeMap(m map[string]any) (Fields, error) {
	fields := make(Fields, len(m))
	for name, native := range m {
		v, err := Encode(native)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		fields[name] = v
	}
	return fields, nil
}

// String returns a string or timestamp field's text, or "" when absent.
func (f Fields) String(name string) string {
	v, ok := f[name]
	if !ok {
		return ""
	}
	switch v.kind {
	case KindString, KindTimestamp:
		return v.text
	}
	return ""
}

// Int returns an integer field. Doubles are truncated and numeric strings are parsed;
// anything else is 0.
func (f Fields) Int(name string) int64 {
	v, ok := f[name]
	if !ok {
		return 0
	}
	switch v.kind {
	case KindInteger:
		return v.i
	case KindDouble:
		return int64(v.f)
	case KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.text), 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// Float returns a numeric field and whether it was present.
func (f Fields) Float(name string) (float64, bool) {
	v, ok := f[name]
	if !ok {
		return 0, false
	}
	switch v.kind {
	case KindDouble:
		return v.f, true
	case KindInteger:
		return float64(v.i), true
	}
	return 0, false
}

// Time returns a timestamp field, or the zero time when absent or malformed.
func (f Fields) Time(name string) time.Time {
	v, ok := f[name]
	if !ok {
		return time.Time{}
	}
	t, _ := v.Time()
	return t
}

// Strings returns the string elements of an array field. Non-string elements are skipped.
func (f Fields) Strings(name string) []string {
	v, ok := f[name]
	if !ok || v.kind != KindArray {
		return nil
	}
	out := make([]string, 0, len(v.arr))
	for _, item := range v.arr {
		if item.kind == KindString {
			out = append(out, item.text)
		}
	}
	return out
}

// Names returns the field names in sorted order.
func (f Fields) Names() []string {
	return slices.Sorted(maps.Keys(f))
}

// Native decodes every field.
func (f Fields) Native() map[string]any {
	out := make(map[string]any, len(f))
	for name, v := range f {
		out[name] = Decode(v)
	}
	return out
}
