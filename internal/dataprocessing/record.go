package dataprocessing

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FieldKind describes how the normalizer types a column
type FieldKind int

const (
	// KindText keeps the raw cell string untouched
	KindText FieldKind = iota
	// KindNumber parses the cell as a float, defaulting to 0 on failure
	KindNumber
)

// Value is a single typed cell of a Record: either raw text or a number.
type Value struct {
	text    string
	number  float64
	numeric bool
}

// TextValue wraps a raw cell string
func TextValue(s string) Value {
	return Value{text: s}
}

// NumberValue wraps a numeric cell
func NumberValue(f float64) Value {
	return Value{number: f, numeric: true}
}

// IsNumber reports whether the value was typed as numeric
func (v Value) IsNumber() bool {
	return v.numeric
}

// String returns the text form of the value. Numbers use the shortest
// representation that round-trips.
func (v Value) String() string {
	if v.numeric {
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	}
	return v.text
}

// Float returns the numeric form of the value. Text values are parsed
// leniently; anything unparseable yields 0.
func (v Value) Float() float64 {
	if v.numeric {
		return v.number
	}
	return parseAmount(v.text)
}

// IsZero reports whether the value is empty text or numeric zero
func (v Value) IsZero() bool {
	if v.numeric {
		return v.number == 0
	}
	return v.text == ""
}

// MarshalJSON emits numbers as JSON numbers and text as JSON strings
func (v Value) MarshalJSON() ([]byte, error) {
	if v.numeric {
		return json.Marshal(v.number)
	}
	return json.Marshal(v.text)
}

// parseNumber converts a cell to a float, ignoring surrounding whitespace.
// Non-finite results are rejected.
func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseAmount is parseNumber with failures mapped to 0
func parseAmount(s string) float64 {
	f, _ := parseNumber(s)
	return f
}

// Record is one normalized data row: an ordered mapping from header name to
// typed value. Records are immutable once built by the Normalizer.
type Record struct {
	fields []string
	values map[string]Value
}

// NewRecord builds a record from parallel header and value slices. When a
// header name repeats, the later value wins and the field keeps its first
// position.
func NewRecord(headers []string, values []Value) Record {
	r := Record{
		fields: make([]string, 0, len(headers)),
		values: make(map[string]Value, len(headers)),
	}
	for i, h := range headers {
		var v Value
		if i < len(values) {
			v = values[i]
		}
		if _, seen := r.values[h]; !seen {
			r.fields = append(r.fields, h)
		}
		r.values[h] = v
	}
	return r
}

// Fields returns the record's field names in header order
func (r Record) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Len returns the number of fields in the record
func (r Record) Len() int {
	return len(r.fields)
}

// Get returns the value of a field and whether it is present
func (r Record) Get(field string) (Value, bool) {
	v, ok := r.values[field]
	return v, ok
}

// Text returns the string form of field, or def when the field is absent.
// A present but empty field returns "".
func (r Record) Text(field, def string) string {
	v, ok := r.values[field]
	if !ok {
		return def
	}
	return v.String()
}

// Number returns the numeric form of field, or 0 when absent or unparseable
func (r Record) Number(field string) float64 {
	v, ok := r.values[field]
	if !ok {
		return 0
	}
	return v.Float()
}

// MarshalJSON encodes the record as a JSON object in header order
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[f])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
