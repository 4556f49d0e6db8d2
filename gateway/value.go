// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gateway

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ValueKind tags the variant held by a Value
type ValueKind uint8

const (
	KindInvalid ValueKind = iota
	KindInteger
	KindUnsigned
	KindReal
	KindString
	KindBoolean
	KindEnumerated
	KindSequence
)

func (k ValueKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindUnsigned:
		return "unsigned"
	case KindReal:
		return "real"
	case KindString:
		return "string"
	case KindBoolean:
		return "boolean"
	case KindEnumerated:
		return "enumerated"
	case KindSequence:
		return "sequence"
	}
	return "invalid"
}

// Value is a property value detached from its protocol datatype. The zero
// Value is invalid
type Value struct {
	kind ValueKind
	i    int64
	u    uint64
	f    float64
	s    string
	b    bool
	seq  []Value
}

// Integer returns a signed integer value
func Integer(v int64) Value { return Value{kind: KindInteger, i: v} }

// Unsigned returns an unsigned integer value
func Unsigned(v uint64) Value { return Value{kind: KindUnsigned, u: v} }

// Real returns a floating point value
func Real(v float64) Value { return Value{kind: KindReal, f: v} }

// String returns a character string value
func String(v string) Value { return Value{kind: KindString, s: v} }

// Boolean returns a boolean value
func Boolean(v bool) Value { return Value{kind: KindBoolean, b: v} }

// Enumerated returns an enumeration label
func Enumerated(label string) Value { return Value{kind: KindEnumerated, s: label} }

// Sequence returns an ordered sequence of values
func Sequence(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindSequence, seq: items}
}

// Kind returns the variant held by v
func (v Value) Kind() ValueKind { return v.kind }

// Int returns the integer held by v
func (v Value) Int() int64 { return v.i }

// Uint returns the unsigned integer held by v
func (v Value) Uint() uint64 { return v.u }

// Float returns the real held by v
func (v Value) Float() float64 { return v.f }

// Str returns the string or enumeration label held by v
func (v Value) Str() string { return v.s }

// Bool returns the boolean held by v
func (v Value) Bool() bool { return v.b }

// Items returns the elements of a sequence
func (v Value) Items() []Value { return v.seq }

// Equal reports whether v and o hold the same variant and content
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInteger:
		return v.i == o.i
	case KindUnsigned:
		return v.u == o.u
	case KindReal:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindString, KindEnumerated:
		return v.s == o.s
	case KindBoolean:
		return v.b == o.b
	case KindSequence:
		if len(v.seq) != len(o.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(o.seq[i]) {
				return false
			}
		}
		return true
	}
	return true
}

// String renders v the way it appears in JSON output
func (v Value) String() string {
	var buf bytes.Buffer
	v.appendJSON(&buf)
	return buf.String()
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	v.appendJSON(&buf)
	return buf.Bytes(), nil
}

func (v Value) appendJSON(buf *bytes.Buffer) {
	switch v.kind {
	case KindInteger:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindUnsigned:
		buf.WriteString(strconv.FormatUint(v.u, 10))
	case KindReal:
		buf.WriteString(formatReal(v.f))
	case KindString, KindEnumerated:
		writeJSONString(buf, v.s)
	case KindBoolean:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindSequence:
		buf.WriteByte('[')
		for i, item := range v.seq {
			if i > 0 {
				buf.WriteString(", ")
			}
			item.appendJSON(buf)
		}
		buf.WriteByte(']')
	default:
		buf.WriteString("null")
	}
}

// formatReal always keeps a fractional part or an exponent so a real never
// reads back as an integer. Non-finite values become strings
func formatReal(f float64) string {
	switch {
	case math.IsNaN(f):
		return `"NaN"`
	case math.IsInf(f, 1):
		return `"Infinity"`
	case math.IsInf(f, -1):
		return `"-Infinity"`
	}

	exp := 0
	if f != 0 {
		exp = int(math.Floor(math.Log10(math.Abs(f))))
	}
	if exp < -4 || exp >= 16 {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

func writeJSONString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}
