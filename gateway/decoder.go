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
	"errors"
	"fmt"

	"github.com/edgeo-scada/bacnet-gateway/bacnet"
)

// PropertyResult is the outcome of reading one property. Err is set instead
// of Value when the device refused the property or the value could not be
// decoded
type PropertyResult struct {
	Property   bacnet.PropertyIdentifier
	ArrayIndex *uint32
	Value      Value
	Err        error
}

// ObjectResult groups the property results of one object
type ObjectResult struct {
	Object     bacnet.ObjectIdentifier
	Properties []PropertyResult
}

// DecodedResult is the decoded reply to a ReadRequest: Single for a
// ReadProperty, Objects for a ReadPropertyMultiple
type DecodedResult struct {
	Single  *PropertyResult
	Objects []ObjectResult
}

// Count returns the number of property results
func (r *DecodedResult) Count() int {
	if r.Single != nil {
		return 1
	}
	n := 0
	for _, obj := range r.Objects {
		n += len(obj.Properties)
	}
	return n
}

// ObjectKey renders an object identifier the way it keys batched results,
// e.g. "('analogValue', 1)"
func ObjectKey(oid bacnet.ObjectIdentifier) string {
	if oid.Type.Known() {
		return fmt.Sprintf("('%s', %d)", oid.Type, oid.Instance)
	}
	return fmt.Sprintf("(%d, %d)", uint16(oid.Type), oid.Instance)
}

// PropertyKey renders a property identifier as it keys batched results
func PropertyKey(p bacnet.PropertyIdentifier) string {
	return p.String()
}

// Decoder turns acknowledgements into DecodedResults
type Decoder struct {
	resolver *Resolver
}

// NewDecoder creates a decoder looking up datatypes through resolver
func NewDecoder(resolver *Resolver) *Decoder {
	return &Decoder{resolver: resolver}
}

// Decode decodes the acknowledgement apdu received for req. Per-property
// failures are recorded in the result; only a structurally broken reply is
// an error
func (d *Decoder) Decode(apdu *bacnet.APDU, req *ReadRequest) (*DecodedResult, error) {
	if err := checkAcknowledgement(req, apdu); err != nil {
		return nil, err
	}

	switch req.Service {
	case bacnet.ServiceReadProperty:
		res, err := d.decodeReadProperty(apdu.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: read property ack: %v", bacnet.ErrInvalidResponse, err)
		}
		return &DecodedResult{Single: res}, nil
	case bacnet.ServiceReadPropertyMultiple:
		objects, err := d.decodeReadPropertyMultiple(apdu.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: read property multiple ack: %v", bacnet.ErrInvalidResponse, err)
		}
		return &DecodedResult{Objects: objects}, nil
	}
	return nil, fmt.Errorf("%w: unsupported service %s", bacnet.ErrInvalidResponse, req.Service)
}

func (d *Decoder) decodeReadProperty(data []byte) (*PropertyResult, error) {
	r := bacnet.NewTagReader(data)

	oid, err := r.ReadContextObjectIdentifier(0)
	if err != nil {
		return nil, err
	}
	prop, err := r.ReadContextUnsigned(1)
	if err != nil {
		return nil, err
	}
	index, err := readOptionalIndex(r, 2)
	if err != nil {
		return nil, err
	}
	value, err := r.ReadEnclosed(3)
	if err != nil {
		return nil, err
	}

	res := d.decodeProperty(oid, bacnet.PropertyIdentifier(prop), index, value)
	return &res, nil
}

func (d *Decoder) decodeReadPropertyMultiple(data []byte) ([]ObjectResult, error) {
	r := bacnet.NewTagReader(data)
	var objects []ObjectResult

	for !r.Done() {
		oid, err := r.ReadContextObjectIdentifier(0)
		if err != nil {
			return nil, err
		}
		if err := r.ExpectOpening(1); err != nil {
			return nil, err
		}

		obj := ObjectResult{Object: oid}
		for !r.PeekClosing(1) {
			if r.Done() {
				return nil, fmt.Errorf("%w: unterminated results for %s", bacnet.ErrInvalidTag, oid)
			}
			res, err := d.decodeResultElement(r, oid)
			if err != nil {
				return nil, err
			}
			obj.Properties = append(obj.Properties, res)
		}
		if err := r.ExpectClosing(1); err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func (d *Decoder) decodeResultElement(r *bacnet.TagReader, oid bacnet.ObjectIdentifier) (PropertyResult, error) {
	prop, err := r.ReadContextUnsigned(2)
	if err != nil {
		return PropertyResult{}, err
	}
	index, err := readOptionalIndex(r, 3)
	if err != nil {
		return PropertyResult{}, err
	}

	switch {
	case r.PeekOpening(4):
		value, err := r.ReadEnclosed(4)
		if err != nil {
			return PropertyResult{}, err
		}
		return d.decodeProperty(oid, bacnet.PropertyIdentifier(prop), index, value), nil
	case r.PeekOpening(5):
		payload, err := r.ReadEnclosed(5)
		if err != nil {
			return PropertyResult{}, err
		}
		bacnetErr, _, err := bacnet.DecodeErrorPayload(payload)
		if err != nil {
			return PropertyResult{}, err
		}
		return PropertyResult{
			Property:   bacnet.PropertyIdentifier(prop),
			ArrayIndex: index,
			Err:        &PropertyAccessError{Err: bacnetErr},
		}, nil
	}
	return PropertyResult{}, fmt.Errorf("%w: result for %s has neither value nor error", bacnet.ErrInvalidTag, bacnet.PropertyIdentifier(prop))
}

// decodeProperty applies the datatype of (object type, property), narrowed
// by the array index, to the enclosed value
func (d *Decoder) decodeProperty(oid bacnet.ObjectIdentifier, prop bacnet.PropertyIdentifier, index *uint32, data []byte) PropertyResult {
	res := PropertyResult{Property: prop, ArrayIndex: index}
	dt := d.resolver.Datatype(oid.Type, prop).ForIndex(index)
	res.Value, res.Err = DecodeValue(dt, data)
	return res
}

func readOptionalIndex(r *bacnet.TagReader, n uint8) (*uint32, error) {
	if !r.PeekContext(n) {
		return nil, nil
	}
	v, err := r.ReadContextUnsigned(n)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// MarshalJSON renders {"value": v} for a single read and the
// object/property mapping for a batched read. Unrepresentable values
// render as their string fallback; other failures as {"error": "..."}
func (r *DecodedResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if r.Single != nil {
		if r.Single.Err != nil && !isUnrepresentable(r.Single.Err) {
			buf.WriteString(`{"error": `)
			writeJSONString(&buf, r.Single.Err.Error())
		} else {
			buf.WriteString(`{"value": `)
			writeResultValue(&buf, *r.Single)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}

	// Results for the same object merge under one key; a repeated property
	// keeps its last result
	type group struct {
		key   string
		order []string
		props map[string]PropertyResult
	}
	var groups []*group
	byKey := make(map[string]*group)
	for _, obj := range r.Objects {
		key := ObjectKey(obj.Object)
		g, ok := byKey[key]
		if !ok {
			g = &group{key: key, props: make(map[string]PropertyResult)}
			byKey[key] = g
			groups = append(groups, g)
		}
		for _, p := range obj.Properties {
			pk := PropertyKey(p.Property)
			if _, seen := g.props[pk]; !seen {
				g.order = append(g.order, pk)
			}
			g.props[pk] = p
		}
	}

	buf.WriteByte('{')
	for i, g := range groups {
		if i > 0 {
			buf.WriteString(", ")
		}
		writeJSONString(&buf, g.key)
		buf.WriteString(": {")
		for j, pk := range g.order {
			if j > 0 {
				buf.WriteString(", ")
			}
			writeJSONString(&buf, pk)
			buf.WriteString(": ")
			writeResultValue(&buf, g.props[pk])
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeResultValue(buf *bytes.Buffer, p PropertyResult) {
	var unrep *UnrepresentableValueError
	switch {
	case p.Err == nil:
		p.Value.appendJSON(buf)
	case errors.As(p.Err, &unrep):
		writeJSONString(buf, unrep.Fallback)
	default:
		buf.WriteString(`{"error": `)
		writeJSONString(buf, p.Err.Error())
		buf.WriteByte('}')
	}
}

func isUnrepresentable(err error) bool {
	var unrep *UnrepresentableValueError
	return errors.As(err, &unrep)
}
