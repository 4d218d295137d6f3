package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindInteger
	KindDouble
	KindTimestamp
	KindArray
	// KindRaw holds the JSON text of a wire value whose tag this package does not model
	// (booleanValue, mapValue, nullValue, ...). It is never produced by Encode.
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindDouble:
		return "double"
	case KindTimestamp:
		return "timestamp"
	case KindArray:
		return "array"
	case KindRaw:
		return "raw"
	}
	return "invalid"
}

// Value is a single typed field value in the document store's wire format.
// Construct one with StringValue, IntegerValue, DoubleValue, TimestampValue,
// ArrayValue or RawValue.
type Value struct {
	kind Kind
	text string
	i    int64
	f    float64
	arr  []Value
}

func StringValue(s string) Value { return Value{kind: KindString, text: s} }

func IntegerValue(i int64) Value { return Value{kind: KindInteger, i: i} }

func DoubleValue(f float64) Value { return Value{kind: KindDouble, f: f} }

// TimestampValue stores t as a zoneless UTC instant in RFC3339 form.
func TimestampValue(t time.Time) Value {
	return Value{kind: KindTimestamp, text: t.UTC().Format(time.RFC3339Nano)}
}

// TimestampText keeps the wire text exactly as received.
func TimestampText(s string) Value { return Value{kind: KindTimestamp, text: s} }

func ArrayValue(values ...Value) Value {
	arr := make([]Value, len(values))
	copy(arr, values)
	return Value{kind: KindArray, arr: arr}
}

func RawValue(text string) Value { return Value{kind: KindRaw, text: text} }

func (v Value) Kind() Kind { return v.kind }

// Text returns the payload of a string, timestamp or raw value.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindString, KindTimestamp, KindRaw:
		return v.text, true
	}
	return "", false
}

func (v Value) Int() (int64, bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	return v.i, true
}

func (v Value) Float() (float64, bool) {
	if v.kind != KindDouble {
		return 0, false
	}
	return v.f, true
}

// Time parses a timestamp value. A malformed timestamp yields the zero time.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindTimestamp {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, v.text)
	if err != nil {
		return time.Time{}, true
	}
	return t.UTC(), true
}

func (v Value) Array() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// String renders the value the way a list view would show it.
func (v Value) String() string {
	switch v.kind {
	case KindString, KindTimestamp, KindRaw:
		return v.text
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindDouble:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, item := range v.arr {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return ""
}

type arrayWire struct {
	Values []Value `json:"values,omitempty"`
}

// MarshalJSON writes the tagged wire form. Integers are written as decimal strings,
// which is what the REST API expects for int64 values.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(map[string]string{"stringValue": v.text})
	case KindInteger:
		return json.Marshal(map[string]string{"integerValue": strconv.FormatInt(v.i, 10)})
	case KindDouble:
		return json.Marshal(map[string]float64{"doubleValue": v.f})
	case KindTimestamp:
		return json.Marshal(map[string]string{"timestampValue": v.text})
	case KindArray:
		return json.Marshal(map[string]arrayWire{"arrayValue": {Values: v.arr}})
	case KindRaw:
		if json.Valid([]byte(v.text)) {
			return []byte(v.text), nil
		}
		return json.Marshal(map[string]string{"stringValue": v.text})
	}
	return nil, fmt.Errorf("docstore: cannot marshal value of kind %s", v.kind)
}

// UnmarshalJSON reads the tagged wire form. Unknown tags and non-object input become
// raw values, and malformed integers become zero, so one odd field never fails a
// whole document.
func (v *Value) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil || tagged == nil {
		*v = RawValue(string(bytes.TrimSpace(data)))
		return nil
	}

	if raw, ok := tagged["stringValue"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			s = string(raw)
		}
		*v = StringValue(s)
		return nil
	}
	if raw, ok := tagged["integerValue"]; ok {
		*v = IntegerValue(parseWireInt(raw))
		return nil
	}
	if raw, ok := tagged["doubleValue"]; ok {
		*v = DoubleValue(parseWireFloat(raw))
		return nil
	}
	if raw, ok := tagged["timestampValue"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			s = ""
		}
		*v = TimestampText(s)
		return nil
	}
	if raw, ok := tagged["arrayValue"]; ok {
		var arr arrayWire
		if err := json.Unmarshal(raw, &arr); err != nil {
			*v = ArrayValue()
			return nil
		}
		*v = ArrayValue(arr.Values...)
		return nil
	}

	*v = RawValue(string(bytes.TrimSpace(data)))
	return nil
}

func parseWireInt(raw json.RawMessage) int64 {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	return 0
}

// parseWireFloat accepts numbers and the string forms the API uses for
// non-finite doubles ("NaN", "Infinity", "-Infinity").
func parseWireFloat(raw json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return parsed
		}
	}
	return 0
}
