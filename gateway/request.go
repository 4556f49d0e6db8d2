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
	"net"
	"strings"

	"github.com/edgeo-scada/bacnet-gateway/bacnet"
)

// PropertyReference names one property of an object, optionally a single
// element of an array property
type PropertyReference struct {
	Property   bacnet.PropertyIdentifier
	ArrayIndex *uint32
}

// ReadSpec lists the properties to read from one object
type ReadSpec struct {
	Object     bacnet.ObjectIdentifier
	Properties []PropertyReference
}

// ReadRequest is one outbound confirmed read. It is built once and consumed
// once by Tracker.Dispatch
type ReadRequest struct {
	Address *net.UDPAddr
	Service bacnet.ConfirmedServiceChoice
	Specs   []ReadSpec
}

// ObjectProperty is one entry of a batched read as supplied by a caller
type ObjectProperty struct {
	Object   string `json:"object"`
	Property string `json:"property"`
}

// Count returns the number of property references in the request
func (r *ReadRequest) Count() int {
	n := 0
	for _, spec := range r.Specs {
		n += len(spec.Properties)
	}
	return n
}

// Encode returns the service data of the request
func (r *ReadRequest) Encode() []byte {
	if r.Service == bacnet.ServiceReadProperty {
		spec := r.Specs[0]
		ref := spec.Properties[0]
		buf := bacnet.EncodeContextObjectIdentifier(0, spec.Object)
		buf = append(buf, bacnet.EncodeContextEnumerated(1, uint32(ref.Property))...)
		if ref.ArrayIndex != nil {
			buf = append(buf, bacnet.EncodeContextUnsigned(2, *ref.ArrayIndex)...)
		}
		return buf
	}

	var buf []byte
	for _, spec := range r.Specs {
		buf = append(buf, bacnet.EncodeContextObjectIdentifier(0, spec.Object)...)
		buf = append(buf, bacnet.EncodeOpeningTag(1)...)
		for _, ref := range spec.Properties {
			buf = append(buf, bacnet.EncodeContextEnumerated(0, uint32(ref.Property))...)
			if ref.ArrayIndex != nil {
				buf = append(buf, bacnet.EncodeContextUnsigned(1, *ref.ArrayIndex)...)
			}
		}
		buf = append(buf, bacnet.EncodeClosingTag(1)...)
	}
	return buf
}

// Builder turns validated caller input into read requests. It performs no
// network I/O
type Builder struct {
	resolver *Resolver
}

// NewBuilder creates a builder validating through resolver
func NewBuilder(resolver *Resolver) *Builder {
	return &Builder{resolver: resolver}
}

// BuildSingleRead builds a ReadProperty request
func (b *Builder) BuildSingleRead(address, object, property string, index *uint32) (*ReadRequest, error) {
	addr, err := parseAddress(address)
	if err != nil {
		return nil, err
	}
	res, err := b.resolver.Resolve(object, property)
	if err != nil {
		return nil, err
	}
	if res.Wildcard {
		return nil, &ValidationError{Kind: WildcardNotAllowed, Object: object, Property: property}
	}

	return &ReadRequest{
		Address: addr,
		Service: bacnet.ServiceReadProperty,
		Specs: []ReadSpec{{
			Object:     res.Object,
			Properties: []PropertyReference{{Property: res.Property, ArrayIndex: index}},
		}},
	}, nil
}

// BuildBatchRead builds a ReadPropertyMultiple request. The first invalid
// pair fails the whole batch. Consecutive pairs on the same object share one
// ReadSpec
func (b *Builder) BuildBatchRead(address string, pairs []ObjectProperty) (*ReadRequest, error) {
	if len(pairs) == 0 {
		return nil, &ValidationError{Kind: EmptyBatchRequest}
	}
	addr, err := parseAddress(address)
	if err != nil {
		return nil, err
	}

	req := &ReadRequest{Address: addr, Service: bacnet.ServiceReadPropertyMultiple}
	for _, pair := range pairs {
		res, err := b.resolver.Resolve(pair.Object, pair.Property)
		if err != nil {
			return nil, err
		}
		ref := PropertyReference{Property: res.Property}

		if n := len(req.Specs); n > 0 && req.Specs[n-1].Object == res.Object {
			req.Specs[n-1].Properties = append(req.Specs[n-1].Properties, ref)
			continue
		}
		req.Specs = append(req.Specs, ReadSpec{Object: res.Object, Properties: []PropertyReference{ref}})
	}
	return req, nil
}

func parseAddress(address string) (*net.UDPAddr, error) {
	addr, err := bacnet.ParseAddress(address)
	if err != nil {
		return nil, &ValidationError{Kind: InvalidAddress, Object: address, Err: err}
	}
	return addr, nil
}

// ParseObjectProperty parses the "object=property" shorthand used on the
// command line and in config files. A missing property reads presentValue
func ParseObjectProperty(s string) (ObjectProperty, error) {
	object, property, ok := strings.Cut(strings.TrimSpace(s), "=")
	if object == "" || (ok && property == "") {
		return ObjectProperty{}, &ValidationError{Kind: InvalidObjectIdentifier, Object: s}
	}
	if !ok {
		property = bacnet.PropertyPresentValue.String()
	}
	return ObjectProperty{Object: object, Property: property}, nil
}
