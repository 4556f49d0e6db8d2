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
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeo-scada/bacnet-gateway/bacnet"
)

func newTestDecoder() *Decoder {
	return NewDecoder(NewResolver(DefaultSchema()))
}

func buildBatch(t *testing.T, pairs ...ObjectProperty) *ReadRequest {
	t.Helper()
	req, err := newTestBuilder().BuildBatchRead("10.0.0.5", pairs)
	require.NoError(t, err)
	return req
}

func TestDecodeReadProperty(t *testing.T) {
	d := newTestDecoder()
	req := testReadRequest(t)

	res, err := d.Decode(readPropertyAck(av(1), bacnet.PropertyPresentValue, nil, bacnet.EncodeRealTag(72.5)), req)
	require.NoError(t, err)
	require.NotNil(t, res.Single)
	assert.Equal(t, 1, res.Count())
	assert.True(t, Real(72.5).Equal(res.Single.Value))

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value": 72.5}`, string(b))

	b, err = res.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"value": 72.5}`, string(b))
}

func TestDecodeArrayIndex(t *testing.T) {
	d := newTestDecoder()
	msv := bacnet.NewObjectIdentifier(bacnet.ObjectTypeMultiStateValue, 2)

	req, err := newTestBuilder().BuildSingleRead("10.0.0.5", "multiStateValue:2", "stateText", index(0))
	require.NoError(t, err)
	res, err := d.Decode(readPropertyAck(msv, bacnet.PropertyStateText, index(0), bacnet.EncodeUnsignedTag(3)), req)
	require.NoError(t, err)
	assert.True(t, Unsigned(3).Equal(res.Single.Value))
	require.NotNil(t, res.Single.ArrayIndex)
	assert.Equal(t, uint32(0), *res.Single.ArrayIndex)

	req, err = newTestBuilder().BuildSingleRead("10.0.0.5", "multiStateValue:2", "stateText", index(2))
	require.NoError(t, err)
	res, err = d.Decode(readPropertyAck(msv, bacnet.PropertyStateText, index(2), bacnet.EncodeCharacterStringTag("Heat")), req)
	require.NoError(t, err)
	assert.True(t, String("Heat").Equal(res.Single.Value))

	req, err = newTestBuilder().BuildSingleRead("10.0.0.5", "multiStateValue:2", "stateText", nil)
	require.NoError(t, err)
	whole := concat(bacnet.EncodeCharacterStringTag("Off"), bacnet.EncodeCharacterStringTag("Heat"))
	res, err = d.Decode(readPropertyAck(msv, bacnet.PropertyStateText, nil, whole), req)
	require.NoError(t, err)
	assert.True(t, Sequence(String("Off"), String("Heat")).Equal(res.Single.Value))
}

func TestDecodeReadPropertyUnrepresentable(t *testing.T) {
	d := newTestDecoder()
	req := testReadRequest(t)

	res, err := d.Decode(readPropertyAck(av(1), bacnet.PropertyPresentValue, nil, bacnet.EncodeNullTag()), req)
	require.NoError(t, err)
	assert.Error(t, res.Single.Err)

	b, err := res.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"value": "Null"}`, string(b))
}

func TestDecodeReadPropertyMultiple(t *testing.T) {
	d := newTestDecoder()
	req := buildBatch(t,
		ObjectProperty{Object: "analogValue:1", Property: "presentValue"},
		ObjectProperty{Object: "analogValue:2", Property: "presentValue"},
	)

	ack := rpmAck(
		ackObject{oid: av(1), results: []ackResult{{prop: bacnet.PropertyPresentValue, value: bacnet.EncodeRealTag(1)}}},
		ackObject{oid: av(2), results: []ackResult{{prop: bacnet.PropertyPresentValue, value: bacnet.EncodeRealTag(4)}}},
	)
	res, err := d.Decode(ack, req)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count())

	b, err := res.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"('analogValue', 1)": {"presentValue": 1.0}, "('analogValue', 2)": {"presentValue": 4.0}}`, string(b))
}

func TestDecodeReadPropertyMultipleCount(t *testing.T) {
	d := newTestDecoder()

	for _, n := range []int{1, 5, 20} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			pairs := make([]ObjectProperty, n)
			objects := make([]ackObject, n)
			for i := 0; i < n; i++ {
				pairs[i] = ObjectProperty{Object: fmt.Sprintf("analogValue:%d", i), Property: "presentValue"}
				objects[i] = ackObject{oid: av(uint32(i)), results: []ackResult{
					{prop: bacnet.PropertyPresentValue, value: bacnet.EncodeRealTag(float32(i))},
				}}
			}

			res, err := d.Decode(rpmAck(objects...), buildBatch(t, pairs...))
			require.NoError(t, err)
			assert.Equal(t, n, res.Count())
			for i, obj := range res.Objects {
				assert.Equal(t, av(uint32(i)), obj.Object)
				assert.True(t, Real(float64(i)).Equal(obj.Properties[0].Value))
			}
		})
	}
}

func TestDecodeReadPropertyMultiplePartialFailure(t *testing.T) {
	d := newTestDecoder()
	req := buildBatch(t,
		ObjectProperty{Object: "analogValue:1", Property: "presentValue"},
		ObjectProperty{Object: "analogValue:2", Property: "presentValue"},
		ObjectProperty{Object: "analogValue:3", Property: "presentValue"},
	)

	ack := rpmAck(
		ackObject{oid: av(1), results: []ackResult{{prop: bacnet.PropertyPresentValue, value: bacnet.EncodeRealTag(1.5)}}},
		ackObject{oid: av(2), results: []ackResult{{
			prop: bacnet.PropertyPresentValue,
			err:  bacnet.NewBACnetError(bacnet.ErrorClassObject, bacnet.ErrorCodeUnknownObject),
		}}},
		ackObject{oid: av(3), results: []ackResult{{prop: bacnet.PropertyPresentValue, value: bacnet.EncodeRealTag(3)}}},
	)
	res, err := d.Decode(ack, req)
	require.NoError(t, err)
	require.Len(t, res.Objects, 3)

	assert.NoError(t, res.Objects[0].Properties[0].Err)
	var accessErr *PropertyAccessError
	require.ErrorAs(t, res.Objects[1].Properties[0].Err, &accessErr)
	assert.Equal(t, bacnet.ErrorCodeUnknownObject, accessErr.Err.Code)
	assert.NoError(t, res.Objects[2].Properties[0].Err)

	b, err := res.MarshalJSON()
	require.NoError(t, err)

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, 1.5, decoded["('analogValue', 1)"]["presentValue"])
	assert.Equal(t, 3.0, decoded["('analogValue', 3)"]["presentValue"])
	failed, ok := decoded["('analogValue', 2)"]["presentValue"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, failed["error"], "property access error")
}

func TestDecodeReadPropertyMultipleArrayIndex(t *testing.T) {
	d := newTestDecoder()
	msv := bacnet.NewObjectIdentifier(bacnet.ObjectTypeMultiStateValue, 1)
	req := buildBatch(t, ObjectProperty{Object: "multiStateValue:1", Property: "all"})

	ack := rpmAck(ackObject{oid: msv, results: []ackResult{
		{prop: bacnet.PropertyStateText, index: index(0), value: bacnet.EncodeUnsignedTag(2)},
		{prop: bacnet.PropertyNumberOfStates, value: bacnet.EncodeUnsignedTag(2)},
		{prop: bacnet.PropertyPriorityArray, value: concat(bacnet.EncodeNullTag(), bacnet.EncodeUnsignedTag(1))},
		{prop: bacnet.PropertyIdentifier(4000), value: bacnet.EncodeBooleanTag(true)},
	}})
	res, err := d.Decode(ack, req)
	require.NoError(t, err)

	props := res.Objects[0].Properties
	require.Len(t, props, 4)
	assert.True(t, Unsigned(2).Equal(props[0].Value))
	assert.True(t, Unsigned(2).Equal(props[1].Value))
	assert.True(t, Boolean(true).Equal(props[3].Value))

	b, err := res.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t,
		`{"('multiStateValue', 1)": {"stateText": 2, "numberOfStates": 2, "priorityArray": ["Null", 1], "4000": true}}`,
		string(b))
}

func TestDecodeMergesRepeatedObjects(t *testing.T) {
	d := newTestDecoder()
	req := buildBatch(t,
		ObjectProperty{Object: "analogValue:1", Property: "presentValue"},
		ObjectProperty{Object: "analogValue:2", Property: "presentValue"},
		ObjectProperty{Object: "analogValue:1", Property: "presentValue"},
	)

	ack := rpmAck(
		ackObject{oid: av(1), results: []ackResult{{prop: bacnet.PropertyPresentValue, value: bacnet.EncodeRealTag(1)}}},
		ackObject{oid: av(2), results: []ackResult{{prop: bacnet.PropertyPresentValue, value: bacnet.EncodeRealTag(2)}}},
		ackObject{oid: av(1), results: []ackResult{{prop: bacnet.PropertyPresentValue, value: bacnet.EncodeRealTag(3)}}},
	)
	res, err := d.Decode(ack, req)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count())

	b, err := res.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"('analogValue', 1)": {"presentValue": 3.0}, "('analogValue', 2)": {"presentValue": 2.0}}`, string(b))
}

func TestDecodeMalformed(t *testing.T) {
	d := newTestDecoder()

	_, err := d.Decode(complexAck(bacnet.ServiceReadProperty, []byte{0x0C, 0x00}), testReadRequest(t))
	assert.ErrorIs(t, err, bacnet.ErrInvalidResponse)

	req := buildBatch(t, ObjectProperty{Object: "analogValue:1", Property: "presentValue"})
	truncated := rpmAck(ackObject{oid: av(1), results: []ackResult{{prop: bacnet.PropertyPresentValue, value: bacnet.EncodeRealTag(1)}}})
	truncated.Data = truncated.Data[:len(truncated.Data)-1]
	_, err = d.Decode(truncated, req)
	assert.ErrorIs(t, err, bacnet.ErrInvalidResponse)

	_, err = d.Decode(complexAck(bacnet.ServiceReadProperty, nil), req)
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, MalformedAcknowledgement, remoteErr.Kind)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "('analogValue', 1)", ObjectKey(av(1)))
	assert.Equal(t, "('device', 4194303)", ObjectKey(bacnet.NewObjectIdentifier(bacnet.ObjectTypeDevice, 4194303)))
	assert.Equal(t, "(600, 1)", ObjectKey(bacnet.NewObjectIdentifier(600, 1)))
}
