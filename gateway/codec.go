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
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/edgeo-scada/bacnet-gateway/bacnet"
)

// BaseType is the primitive shape of a property datatype
type BaseType uint8

const (
	// TypeAny decodes whatever application data the device sends
	TypeAny BaseType = iota
	TypeBoolean
	TypeUnsigned
	TypeInteger
	TypeReal
	TypeDouble
	TypeOctetString
	TypeCharacterString
	TypeBitString
	TypeEnumerated
	TypeDate
	TypeTime
	TypeObjectIdentifier
)

var baseTypeTags = map[BaseType]bacnet.ApplicationTag{
	TypeBoolean:          bacnet.TagBoolean,
	TypeUnsigned:         bacnet.TagUnsignedInt,
	TypeInteger:          bacnet.TagSignedInt,
	TypeReal:             bacnet.TagReal,
	TypeDouble:           bacnet.TagDouble,
	TypeOctetString:      bacnet.TagOctetString,
	TypeCharacterString:  bacnet.TagCharacterString,
	TypeBitString:        bacnet.TagBitString,
	TypeEnumerated:       bacnet.TagEnumerated,
	TypeDate:             bacnet.TagDate,
	TypeTime:             bacnet.TagTime,
	TypeObjectIdentifier: bacnet.TagObjectID,
}

func (b BaseType) String() string {
	if b == TypeAny {
		return "Any"
	}
	return baseTypeTags[b].String()
}

// Datatype describes how a property value is laid out on the wire.
// Arrays and lists carry their element type in Element
type Datatype struct {
	Base    BaseType
	Enum    *Enumeration
	Element *Datatype
	Array   bool
	List    bool
}

// Scalar datatypes used by the schema tables
var (
	Any             = Datatype{Base: TypeAny}
	BooleanType     = Datatype{Base: TypeBoolean}
	UnsignedType    = Datatype{Base: TypeUnsigned}
	IntegerType     = Datatype{Base: TypeInteger}
	RealType        = Datatype{Base: TypeReal}
	DoubleType      = Datatype{Base: TypeDouble}
	OctetStringType = Datatype{Base: TypeOctetString}
	StringType      = Datatype{Base: TypeCharacterString}
	BitStringType   = Datatype{Base: TypeBitString}
	DateType        = Datatype{Base: TypeDate}
	TimeType        = Datatype{Base: TypeTime}
	ObjectIDType    = Datatype{Base: TypeObjectIdentifier}
)

// an index of 0 reads the array length
var lengthOfArray = UnsignedType

// EnumeratedType returns an enumerated datatype labelled by e
func EnumeratedType(e *Enumeration) Datatype {
	return Datatype{Base: TypeEnumerated, Enum: e}
}

// ArrayOf returns a BACnetARRAY of elem
func ArrayOf(elem Datatype) Datatype {
	return Datatype{Array: true, Element: &elem}
}

// ListOf returns a BACnetLIST of elem
func ListOf(elem Datatype) Datatype {
	return Datatype{List: true, Element: &elem}
}

// IsArray reports whether d supports array indexing
func (d Datatype) IsArray() bool { return d.Array }

// ForIndex returns the datatype of a read at the given array index. Index 0
// is the array length; any other index is one element. A nil index reads
// the whole property
func (d Datatype) ForIndex(index *uint32) Datatype {
	if index == nil || !d.Array {
		return d
	}
	if *index == 0 {
		return lengthOfArray
	}
	return *d.Element
}

func (d Datatype) String() string {
	switch {
	case d.Array:
		return "ArrayOf(" + d.Element.String() + ")"
	case d.List:
		return "ListOf(" + d.Element.String() + ")"
	case d.Base == TypeEnumerated && d.Enum != nil:
		return d.Enum.Name
	}
	return d.Base.String()
}

// UnrepresentableValueError reports a property value the generic value
// model cannot carry. Fallback is a readable rendering of the raw data
type UnrepresentableValueError struct {
	Datatype string
	Fallback string
}

func (e *UnrepresentableValueError) Error() string {
	return fmt.Sprintf("cannot represent %s as a generic value: %s", e.Datatype, e.Fallback)
}

// DecodeValue decodes the application data enclosed in a property value
// according to dt
func DecodeValue(dt Datatype, data []byte) (Value, error) {
	if dt.Array || dt.List {
		return decodeSequence(dt, data)
	}

	r := bacnet.NewTagReader(data)
	if r.Done() {
		return Value{}, unrepresentable(dt, data)
	}
	if dt.Base == TypeAny {
		return decodeSequenceOf(Any, data, true)
	}

	tag, content, err := r.Next()
	if err != nil {
		return Value{}, err
	}
	if !r.Done() {
		return Value{}, unrepresentable(dt, data)
	}
	return decodePrimitive(dt, tag, content, data)
}

func decodeSequence(dt Datatype, data []byte) (Value, error) {
	return decodeSequenceOf(*dt.Element, data, false)
}

// decodeSequenceOf decodes consecutive primitives. With unwrap set a single
// element is returned bare. Elements of a typed array or list that the value
// model cannot carry, such as Null slots, become their string rendering so
// the remaining elements keep their types
func decodeSequenceOf(elem Datatype, data []byte, unwrap bool) (Value, error) {
	r := bacnet.NewTagReader(data)
	var items []Value
	for !r.Done() {
		tag, content, err := r.Next()
		if err != nil {
			return Value{}, err
		}
		v, err := decodePrimitive(elem, tag, content, data)
		if err != nil {
			if unwrap || tag.Class != bacnet.TagClassApplication || !isUnrepresentable(err) {
				return Value{}, err
			}
			v = String(describeTag(tag, content))
		}
		items = append(items, v)
	}
	if unwrap && len(items) == 1 {
		return items[0], nil
	}
	return Sequence(items...), nil
}

func decodePrimitive(dt Datatype, tag bacnet.Tag, content, whole []byte) (Value, error) {
	if tag.Class != bacnet.TagClassApplication {
		return Value{}, unrepresentable(dt, whole)
	}
	if dt.Base != TypeAny && baseTypeTags[dt.Base] != bacnet.ApplicationTag(tag.Number) {
		return Value{}, unrepresentable(dt, whole)
	}

	switch bacnet.ApplicationTag(tag.Number) {
	case bacnet.TagBoolean:
		return Boolean(tag.Bool), nil
	case bacnet.TagUnsignedInt:
		if len(content) > 4 {
			return Value{}, unrepresentable(dt, whole)
		}
		return Unsigned(uint64(bacnet.DecodeUnsigned(content))), nil
	case bacnet.TagSignedInt:
		if len(content) > 4 {
			return Value{}, unrepresentable(dt, whole)
		}
		return Integer(int64(bacnet.DecodeSigned(content))), nil
	case bacnet.TagReal:
		if len(content) != 4 {
			return Value{}, fmt.Errorf("%w: real of %d bytes", bacnet.ErrInvalidTag, len(content))
		}
		return Real(float64(bacnet.DecodeReal(content))), nil
	case bacnet.TagDouble:
		if len(content) != 8 {
			return Value{}, fmt.Errorf("%w: double of %d bytes", bacnet.ErrInvalidTag, len(content))
		}
		return Real(bacnet.DecodeDouble(content)), nil
	case bacnet.TagCharacterString:
		s, err := bacnet.DecodeCharacterString(content)
		if err != nil {
			return Value{}, unrepresentable(dt, whole)
		}
		return String(s), nil
	case bacnet.TagBitString:
		bits, err := bacnet.DecodeBitString(content)
		if err != nil {
			return Value{}, err
		}
		items := make([]Value, len(bits))
		for i, b := range bits {
			items[i] = Integer(0)
			if b {
				items[i] = Integer(1)
			}
		}
		return Sequence(items...), nil
	case bacnet.TagEnumerated:
		if len(content) > 4 {
			return Value{}, unrepresentable(dt, whole)
		}
		n := bacnet.DecodeUnsigned(content)
		if label, ok := dt.Enum.Label(n); ok {
			return Enumerated(label), nil
		}
		return Unsigned(uint64(n)), nil
	case bacnet.TagDate, bacnet.TagTime:
		if len(content) != 4 {
			return Value{}, fmt.Errorf("%w: %s of %d bytes", bacnet.ErrInvalidTag, bacnet.ApplicationTag(tag.Number), len(content))
		}
		return Sequence(Integer(int64(content[0])), Integer(int64(content[1])), Integer(int64(content[2])), Integer(int64(content[3]))), nil
	case bacnet.TagObjectID:
		if len(content) != 4 {
			return Value{}, fmt.Errorf("%w: object identifier of %d bytes", bacnet.ErrInvalidTag, len(content))
		}
		return objectIdentifierValue(bacnet.DecodeObjectIdentifierFromBytes(content)), nil
	}

	return Value{}, unrepresentable(dt, whole)
}

func objectIdentifierValue(oid bacnet.ObjectIdentifier) Value {
	var typ Value
	if oid.Type.Known() {
		typ = Enumerated(oid.Type.String())
	} else {
		typ = Unsigned(uint64(oid.Type))
	}
	return Sequence(typ, Unsigned(uint64(oid.Instance)))
}

func unrepresentable(dt Datatype, data []byte) error {
	return &UnrepresentableValueError{Datatype: dt.String(), Fallback: describe(data)}
}

// describe renders raw application data as text, one element per tag
func describe(data []byte) string {
	var parts []string
	r := bacnet.NewTagReader(data)
	for !r.Done() {
		tag, content, err := r.Next()
		if err != nil {
			parts = append(parts, hex.EncodeToString(r.Remaining()))
			break
		}
		parts = append(parts, describeTag(tag, content))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func describeTag(tag bacnet.Tag, content []byte) string {
	switch {
	case tag.Opening:
		return fmt.Sprintf("{%d", tag.Number)
	case tag.Closing:
		return fmt.Sprintf("%d}", tag.Number)
	case tag.Class == bacnet.TagClassContext:
		return fmt.Sprintf("[%d]%s", tag.Number, hex.EncodeToString(content))
	}

	switch bacnet.ApplicationTag(tag.Number) {
	case bacnet.TagNull:
		return "Null"
	case bacnet.TagOctetString:
		return hex.EncodeToString(content)
	}
	v, err := decodePrimitive(Any, tag, content, nil)
	if err != nil {
		return hex.EncodeToString(content)
	}
	return v.String()
}

// EncodeValue encodes v as application data of type dt. Sequences encode
// as consecutive elements of the element type
func EncodeValue(dt Datatype, v Value) ([]byte, error) {
	if dt.Array || dt.List {
		if v.Kind() != KindSequence {
			return nil, fmt.Errorf("encode %s: %s is not a sequence", dt, v.Kind())
		}
		var out []byte
		for _, item := range v.Items() {
			b, err := EncodeValue(*dt.Element, item)
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
		}
		return out, nil
	}

	switch dt.Base {
	case TypeBoolean:
		if v.Kind() == KindBoolean {
			return bacnet.EncodeBooleanTag(v.Bool()), nil
		}
	case TypeUnsigned:
		if v.Kind() == KindUnsigned && v.Uint() <= 0xFFFFFFFF {
			return bacnet.EncodeUnsignedTag(uint32(v.Uint())), nil
		}
	case TypeInteger:
		if v.Kind() == KindInteger && v.Int() >= -1<<31 && v.Int() < 1<<31 {
			return bacnet.EncodeSignedTag(int32(v.Int())), nil
		}
	case TypeReal:
		if v.Kind() == KindReal {
			return bacnet.EncodeRealTag(float32(v.Float())), nil
		}
	case TypeDouble:
		if v.Kind() == KindReal {
			return bacnet.EncodeDoubleTag(v.Float()), nil
		}
	case TypeCharacterString:
		if v.Kind() == KindString {
			return bacnet.EncodeCharacterStringTag(v.Str()), nil
		}
	case TypeBitString:
		if v.Kind() == KindSequence {
			bits := make([]bool, len(v.Items()))
			for i, item := range v.Items() {
				bits[i] = item.Kind() == KindInteger && item.Int() != 0
			}
			return bacnet.EncodeBitStringTag(bits), nil
		}
	case TypeEnumerated:
		switch v.Kind() {
		case KindEnumerated:
			if n, ok := dt.Enum.Value(v.Str()); ok {
				return bacnet.EncodeEnumeratedTag(n), nil
			}
		case KindUnsigned:
			return bacnet.EncodeEnumeratedTag(uint32(v.Uint())), nil
		}
	case TypeObjectIdentifier:
		if oid, ok := objectIdentifierFromValue(v); ok {
			return bacnet.EncodeObjectIdentifierTag(oid), nil
		}
	case TypeDate, TypeTime:
		if v.Kind() == KindSequence && len(v.Items()) == 4 {
			var b [4]uint8
			for i, item := range v.Items() {
				b[i] = uint8(item.Int())
			}
			if dt.Base == TypeDate {
				return bacnet.EncodeDateTag(b[0], b[1], b[2], b[3]), nil
			}
			return bacnet.EncodeTimeTag(b[0], b[1], b[2], b[3]), nil
		}
	}

	return nil, fmt.Errorf("encode %s: incompatible %s value", dt, v.Kind())
}

func objectIdentifierFromValue(v Value) (bacnet.ObjectIdentifier, bool) {
	if v.Kind() != KindSequence || len(v.Items()) != 2 {
		return bacnet.ObjectIdentifier{}, false
	}
	typ, inst := v.Items()[0], v.Items()[1]
	var t bacnet.ObjectType
	switch typ.Kind() {
	case KindEnumerated:
		parsed, ok := bacnet.ParseObjectType(typ.Str())
		if !ok {
			return bacnet.ObjectIdentifier{}, false
		}
		t = parsed
	case KindUnsigned:
		t = bacnet.ObjectType(typ.Uint())
	default:
		return bacnet.ObjectIdentifier{}, false
	}
	return bacnet.NewObjectIdentifier(t, uint32(inst.Uint())), true
}
