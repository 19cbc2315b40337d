package scanner

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Kind identifies the shape of a JSON value.
type Kind uint8

const (
	Invalid Kind = iota
	Null
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	}
	return "invalid"
}

// Value is a decoded JSON value. Exactly the fields matching Kind are set:
// Str for strings and numbers (numbers keep their literal text), Bool for
// booleans, Elems for arrays and Members for objects.
type Value struct {
	Kind    Kind
	Str     string
	Bool    bool
	Elems   []Value
	Members []Member
}

// Member is a single key/value pair of an object, kept in document order.
type Member struct {
	Key   string
	Value Value
}

// Get returns the member named key. Duplicate keys resolve to the last one.
func (v Value) Get(key string) (Value, bool) {
	if v.Kind != Object {
		return Value{}, false
	}
	for i := len(v.Members) - 1; i >= 0; i-- {
		if v.Members[i].Key == key {
			return v.Members[i].Value, true
		}
	}
	return Value{}, false
}

// AsString returns the value of a JSON string.
func (v Value) AsString() (string, bool) {
	if v.Kind != String {
		return "", false
	}
	return v.Str, true
}

// AsInt64 returns the value of an integral JSON number.
func (v Value) AsInt64() (int64, bool) {
	if v.Kind != Number {
		return 0, false
	}
	n, err := strconv.ParseInt(v.Str, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(v.Str, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, false
		}
		return int64(f), true
	}
	return n, true
}

// AsFloat64 returns the value of a JSON number.
func (v Value) AsFloat64() (float64, bool) {
	if v.Kind != Number {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.Str, 64)
	return f, err == nil
}

// StringMap collects the string-valued members of an object. Members with
// other value kinds are dropped.
func (v Value) StringMap() map[string]string {
	if v.Kind != Object {
		return nil
	}
	out := make(map[string]string, len(v.Members))
	for _, m := range v.Members {
		if s, ok := m.Value.AsString(); ok {
			out[m.Key] = s
		}
	}
	return out
}

// Interface converts the value to the generic representation used by
// encoding/json: map[string]any, []any, string, float64, bool or nil.
func (v Value) Interface() any {
	switch v.Kind {
	case String:
		return v.Str
	case Number:
		f, _ := v.AsFloat64()
		return f
	case Bool:
		return v.Bool
	case Array:
		out := make([]any, len(v.Elems))
		for i, e := range v.Elems {
			out[i] = e.Interface()
		}
		return out
	case Object:
		out := make(map[string]any, len(v.Members))
		for _, m := range v.Members {
			out[m.Key] = m.Value.Interface()
		}
		return out
	}
	return nil
}

// MarshalJSON encodes the value preserving member order and number literals.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.Kind {
	case String:
		return writeString(buf, v.Str)
	case Number:
		buf.WriteString(v.Str)
	case Bool:
		buf.WriteString(strconv.FormatBool(v.Bool))
	case Array:
		buf.WriteByte('[')
		for i, e := range v.Elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, m := range v.Members {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, m.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		buf.WriteString("null")
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
