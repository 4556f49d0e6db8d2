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

func newTestBuilder() *Builder {
	return NewBuilder(NewResolver(DefaultSchema()))
}

func TestBuildSingleRead(t *testing.T) {
	b := newTestBuilder()

	req, err := b.BuildSingleRead("10.0.0.5", "analogValue:1", "presentValue", nil)
	require.NoError(t, err)
	assert.Equal(t, bacnet.ServiceReadProperty, req.Service)
	assert.Equal(t, "10.0.0.5:47808", req.Address.String())
	require.Len(t, req.Specs, 1)
	assert.Equal(t, av(1), req.Specs[0].Object)
	assert.Equal(t, []PropertyReference{{Property: bacnet.PropertyPresentValue}}, req.Specs[0].Properties)
	assert.Equal(t, 1, req.Count())

	// analogValue:1 -> 0x00800001, presentValue -> 85
	assert.Equal(t, []byte{0x0C, 0x00, 0x80, 0x00, 0x01, 0x19, 0x55}, req.Encode())
}

func TestBuildSingleReadWithIndex(t *testing.T) {
	b := newTestBuilder()

	req, err := b.BuildSingleRead("10.0.0.5:47809", "multiStateValue:2", "stateText", index(3))
	require.NoError(t, err)
	assert.Equal(t, 47809, req.Address.Port)

	encoded := req.Encode()
	assert.Equal(t, []byte{0x29, 0x03}, encoded[len(encoded)-2:])
}

func TestBuildSingleReadErrors(t *testing.T) {
	b := newTestBuilder()

	tests := []struct {
		name     string
		address  string
		object   string
		property string
		kind     ValidationKind
	}{
		{"wildcard", "10.0.0.5", "analogValue:1", "all", WildcardNotAllowed},
		{"bad address", "not-an-address", "analogValue:1", "presentValue", InvalidAddress},
		{"bad port", "10.0.0.5:0", "analogValue:1", "presentValue", InvalidAddress},
		{"bad object", "10.0.0.5", "analogValue", "presentValue", InvalidObjectIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.BuildSingleRead(tt.address, tt.object, tt.property, nil)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.kind, verr.Kind)
		})
	}
}

func TestBuildBatchRead(t *testing.T) {
	b := newTestBuilder()

	req, err := b.BuildBatchRead("10.0.0.5", []ObjectProperty{
		{Object: "analogValue:1", Property: "presentValue"},
		{Object: "analogValue:1", Property: "units"},
		{Object: "analogValue:2", Property: "presentValue"},
		{Object: "analogValue:1", Property: "all"},
	})
	require.NoError(t, err)
	assert.Equal(t, bacnet.ServiceReadPropertyMultiple, req.Service)
	assert.Equal(t, 4, req.Count())

	require.Len(t, req.Specs, 3)
	assert.Equal(t, av(1), req.Specs[0].Object)
	assert.Equal(t, []PropertyReference{
		{Property: bacnet.PropertyPresentValue},
		{Property: bacnet.PropertyUnits},
	}, req.Specs[0].Properties)
	assert.Equal(t, av(2), req.Specs[1].Object)
	assert.Equal(t, av(1), req.Specs[2].Object)
	assert.Equal(t, []PropertyReference{{Property: bacnet.PropertyAll}}, req.Specs[2].Properties)
}

func TestBuildBatchReadEncode(t *testing.T) {
	b := newTestBuilder()

	req, err := b.BuildBatchRead("10.0.0.5", []ObjectProperty{
		{Object: "analogValue:1", Property: "presentValue"},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x0C, 0x00, 0x80, 0x00, 0x01, // object identifier
		0x1E,       // opening 1
		0x09, 0x55, // presentValue
		0x1F, // closing 1
	}, req.Encode())
}

func TestBuildBatchReadEmpty(t *testing.T) {
	b := newTestBuilder()

	_, err := b.BuildBatchRead("10.0.0.5", nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, EmptyBatchRequest, verr.Kind)
	assert.Contains(t, err.Error(), "no object specifiers were passed")

	// emptiness is reported before the address is looked at
	_, err = b.BuildBatchRead("bogus", []ObjectProperty{})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, EmptyBatchRequest, verr.Kind)
}

func TestBuildBatchReadFailsFast(t *testing.T) {
	b := newTestBuilder()

	_, err := b.BuildBatchRead("10.0.0.5", []ObjectProperty{
		{Object: "analogValue:1", Property: "presentValue"},
		{Object: "analogValue:2", Property: "numberOfStates"},
		{Object: "fooValue:3", Property: "presentValue"},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, IncompatiblePropertyForObject, verr.Kind)
	assert.Equal(t, "analogValue:2", verr.Object)
	assert.Equal(t, "numberOfStates", verr.Property)
}

func TestParseObjectProperty(t *testing.T) {
	op, err := ParseObjectProperty("analogValue:1=units")
	require.NoError(t, err)
	assert.Equal(t, ObjectProperty{Object: "analogValue:1", Property: "units"}, op)

	op, err = ParseObjectProperty(" analogValue:2 ")
	require.NoError(t, err)
	assert.Equal(t, ObjectProperty{Object: "analogValue:2", Property: "presentValue"}, op)

	for _, bad := range []string{"", "=presentValue", "analogValue:1="} {
		_, err := ParseObjectProperty(bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}
}
