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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeo-scada/bacnet-gateway/bacnet"
)

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestDecodeValue(t *testing.T) {
	tests := []struct {
		name string
		dt   Datatype
		data []byte
		want Value
	}{
		{"real", RealType, bacnet.EncodeRealTag(72.5), Real(72.5)},
		{"double", DoubleType, bacnet.EncodeDoubleTag(1.25), Real(1.25)},
		{"unsigned", UnsignedType, bacnet.EncodeUnsignedTag(300), Unsigned(300)},
		{"integer", IntegerType, bacnet.EncodeSignedTag(-7), Integer(-7)},
		{"boolean", BooleanType, bacnet.EncodeBooleanTag(true), Boolean(true)},
		{"string", StringType, bacnet.EncodeCharacterStringTag("Zone 1"), String("Zone 1")},
		{"enumerated label", binaryPV, bacnet.EncodeEnumeratedTag(1), Enumerated("active")},
		{"enumerated outside table", binaryPV, bacnet.EncodeEnumeratedTag(7), Unsigned(7)},
		{"units", units, bacnet.EncodeEnumeratedTag(62), Enumerated("degreesCelsius")},
		{"bit string", BitStringType, bacnet.EncodeBitStringTag([]bool{false, true, false, false}),
			Sequence(Integer(0), Integer(1), Integer(0), Integer(0))},
		{"date", DateType, bacnet.EncodeDateTag(125, 3, 4, 2),
			Sequence(Integer(125), Integer(3), Integer(4), Integer(2))},
		{"time", TimeType, bacnet.EncodeTimeTag(13, 5, 0, 0),
			Sequence(Integer(13), Integer(5), Integer(0), Integer(0))},
		{"object identifier", ObjectIDType, bacnet.EncodeObjectIdentifierTag(av(3)),
			Sequence(Enumerated("analogValue"), Unsigned(3))},
		{"proprietary object identifier", ObjectIDType,
			bacnet.EncodeObjectIdentifierTag(bacnet.NewObjectIdentifier(600, 2)),
			Sequence(Unsigned(600), Unsigned(2))},
		{"array", ArrayOf(StringType),
			concat(bacnet.EncodeCharacterStringTag("off"), bacnet.EncodeCharacterStringTag("on")),
			Sequence(String("off"), String("on"))},
		{"empty list", ListOf(UnsignedType), nil, Sequence()},
		{"priority array with nulls", priorityArray,
			concat(bacnet.EncodeNullTag(), bacnet.EncodeNullTag(), bacnet.EncodeRealTag(21.5)),
			Sequence(String("Null"), String("Null"), Real(21.5))},
		{"array element of wrong type", ArrayOf(StringType),
			concat(bacnet.EncodeCharacterStringTag("off"), bacnet.EncodeUnsignedTag(1)),
			Sequence(String("off"), String("1"))},
		{"any single", Any, bacnet.EncodeUnsignedTag(5), Unsigned(5)},
		{"any sequence", Any, concat(bacnet.EncodeDateTag(125, 1, 2, 4), bacnet.EncodeTimeTag(1, 2, 3, 4)),
			Sequence(Sequence(Integer(125), Integer(1), Integer(2), Integer(4)), Sequence(Integer(1), Integer(2), Integer(3), Integer(4)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeValue(tt.dt, tt.data)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestDecodeValueUnrepresentable(t *testing.T) {
	tests := []struct {
		name     string
		dt       Datatype
		data     []byte
		fallback string
	}{
		{"null", Any, bacnet.EncodeNullTag(), "Null"},
		{"octet string", Any, bacnet.EncodeOctetStringTag([]byte{0xde, 0xad}), "dead"},
		{"datatype mismatch", RealType, bacnet.EncodeCharacterStringTag("x"), `"x"`},
		{"array with constructed element", priorityArray,
			concat(bacnet.EncodeOpeningTag(0), bacnet.EncodeRealTag(1), bacnet.EncodeClosingTag(0)), "[{0, 1.0, 0}]"},
		{"constructed", Any,
			concat(bacnet.EncodeOpeningTag(0), bacnet.EncodeRealTag(1), bacnet.EncodeClosingTag(0)), "[{0, 1.0, 0}]"},
		{"empty", RealType, nil, "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeValue(tt.dt, tt.data)
			var unrep *UnrepresentableValueError
			require.ErrorAs(t, err, &unrep)
			assert.Equal(t, tt.fallback, unrep.Fallback)
		})
	}
}

func TestDatatypeForIndex(t *testing.T) {
	stateText := ArrayOf(StringType)

	assert.Equal(t, stateText, stateText.ForIndex(nil))
	assert.Equal(t, UnsignedType, stateText.ForIndex(index(0)))
	assert.Equal(t, StringType, stateText.ForIndex(index(2)))
	assert.Equal(t, RealType, RealType.ForIndex(index(2)))
}

func TestEncodeValueRoundTrip(t *testing.T) {
	tests := []struct {
		dt    Datatype
		value Value
	}{
		{RealType, Real(72.5)},
		{UnsignedType, Unsigned(42)},
		{IntegerType, Integer(-3)},
		{BooleanType, Boolean(false)},
		{StringType, String("lobby")},
		{binaryPV, Enumerated("inactive")},
		{BitStringType, Sequence(Integer(1), Integer(0), Integer(1))},
		{ObjectIDType, Sequence(Enumerated("device"), Unsigned(1234))},
		{ArrayOf(UnsignedType), Sequence(Unsigned(1), Unsigned(2))},
	}

	for _, tt := range tests {
		t.Run(tt.dt.String(), func(t *testing.T) {
			data, err := EncodeValue(tt.dt, tt.value)
			require.NoError(t, err)
			got, err := DecodeValue(tt.dt, data)
			require.NoError(t, err)
			assert.True(t, tt.value.Equal(got), "want %s, got %s", tt.value, got)
		})
	}

	_, err := EncodeValue(RealType, String("x"))
	assert.Error(t, err)
}
