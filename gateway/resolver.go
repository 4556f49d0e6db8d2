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
	"errors"

	"github.com/edgeo-scada/bacnet-gateway/bacnet"
)

// firstProprietaryObjectType starts the vendor-defined object type range
const firstProprietaryObjectType bacnet.ObjectType = 128

// Resolution is a validated (object, property) pair
type Resolution struct {
	Object   bacnet.ObjectIdentifier
	Property bacnet.PropertyIdentifier
	Datatype Datatype
	// Wildcard is set for the "all" property, which carries no datatype
	Wildcard bool
}

// Resolver validates object and property names against a Schema
type Resolver struct {
	schema Schema
}

// NewResolver creates a resolver over schema
func NewResolver(schema Schema) *Resolver {
	return &Resolver{schema: schema}
}

// Schema returns the table the resolver validates against
func (r *Resolver) Schema() Schema {
	return r.schema
}

// Resolve validates object ("type:instance") and property and looks up the
// datatype of the pair
func (r *Resolver) Resolve(object, property string) (Resolution, error) {
	oid, err := r.ResolveObject(object)
	if err != nil {
		return Resolution{}, err
	}

	prop, ok := bacnet.ParsePropertyIdentifier(property)
	if !ok {
		return Resolution{}, &ValidationError{Kind: UnknownProperty, Object: object, Property: property}
	}
	if prop == bacnet.PropertyAll {
		return Resolution{Object: oid, Property: prop, Wildcard: true}, nil
	}

	dt, ok := r.schema.Datatype(oid.Type, prop)
	if !ok {
		return Resolution{}, &ValidationError{Kind: IncompatiblePropertyForObject, Object: oid.String(), Property: prop.String()}
	}
	return Resolution{Object: oid, Property: prop, Datatype: dt}, nil
}

// ResolveObject parses and validates an object identifier alone
func (r *Resolver) ResolveObject(object string) (bacnet.ObjectIdentifier, error) {
	oid, err := bacnet.ParseObjectIdentifier(object)
	switch {
	case errors.Is(err, bacnet.ErrUnknownObjectType):
		return oid, &ValidationError{Kind: UnknownObjectType, Object: object}
	case err != nil:
		return oid, &ValidationError{Kind: InvalidObjectIdentifier, Object: object}
	}

	if !oid.Type.Known() && oid.Type < firstProprietaryObjectType {
		return oid, &ValidationError{Kind: UnknownObjectType, Object: object}
	}
	if !r.schema.Supports(oid.Type) {
		return oid, &ValidationError{Kind: UnsupportedObjectType, Object: object}
	}
	return oid, nil
}

// Datatype returns the datatype of a property as decoded from a reply.
// Properties outside the schema, as returned for an "all" read, decode
// generically
func (r *Resolver) Datatype(objectType bacnet.ObjectType, property bacnet.PropertyIdentifier) Datatype {
	if dt, ok := r.schema.Datatype(objectType, property); ok {
		return dt
	}
	return Any
}
