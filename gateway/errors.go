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
	"fmt"

	"github.com/edgeo-scada/bacnet-gateway/bacnet"
)

// Sentinel errors
var (
	ErrTimeout        = errors.New("gateway: request timed out")
	ErrNotImplemented = errors.New("gateway: not implemented")
	ErrValidation     = errors.New("gateway: invalid request")
	ErrRemote         = errors.New("gateway: remote error")
)

// ValidationKind classifies a request rejected before any network I/O
type ValidationKind int

const (
	InvalidObjectIdentifier ValidationKind = iota + 1
	UnknownObjectType
	UnsupportedObjectType
	UnknownProperty
	IncompatiblePropertyForObject
	EmptyBatchRequest
	WildcardNotAllowed
	InvalidAddress
)

var validationKindNames = map[ValidationKind]string{
	InvalidObjectIdentifier:       "InvalidObjectIdentifier",
	UnknownObjectType:             "UnknownObjectType",
	UnsupportedObjectType:         "UnsupportedObjectType",
	UnknownProperty:               "UnknownProperty",
	IncompatiblePropertyForObject: "IncompatiblePropertyForObject",
	EmptyBatchRequest:             "EmptyBatchRequest",
	WildcardNotAllowed:            "WildcardNotAllowed",
	InvalidAddress:                "InvalidAddress",
}

func (k ValidationKind) String() string {
	if name, ok := validationKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ValidationKind(%d)", int(k))
}

// ValidationError reports an object, property or batch that cannot be turned
// into a request. Object and Property echo the offending input
type ValidationError struct {
	Kind     ValidationKind
	Object   string
	Property string
	Err      error
}

func (e *ValidationError) Error() string {
	var msg string
	switch e.Kind {
	case InvalidObjectIdentifier:
		msg = fmt.Sprintf("invalid object identifier %q, expected type:instance", e.Object)
	case UnknownObjectType:
		msg = fmt.Sprintf("unknown object type in %q", e.Object)
	case UnsupportedObjectType:
		msg = fmt.Sprintf("object type of %q is not supported", e.Object)
	case UnknownProperty:
		msg = fmt.Sprintf("invalid property %q", e.Property)
	case IncompatiblePropertyForObject:
		msg = fmt.Sprintf("invalid property for object type: %s, %s", e.Object, e.Property)
	case EmptyBatchRequest:
		msg = `no object specifiers were passed, include specifiers like {"object": "analogValue:1", "property": "presentValue"}`
	case WildcardNotAllowed:
		msg = fmt.Sprintf("property %q is only valid in a batched read", e.Property)
	case InvalidAddress:
		msg = fmt.Sprintf("invalid device address %q", e.Object)
	default:
		msg = e.Kind.String()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// RemoteKind classifies a reply that ended a request unsuccessfully
type RemoteKind int

const (
	RemoteErrorResponse RemoteKind = iota + 1
	RemoteReject
	RemoteAbort
	MalformedAcknowledgement
	RemoteFailure
)

// RemoteError carries the reason a device, or the network on its behalf,
// refused a request. It is never retried
type RemoteError struct {
	Kind RemoteKind
	Err  error
}

func (e *RemoteError) Error() string {
	if e.Err == nil {
		return "remote error"
	}
	return e.Err.Error()
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

// newRemoteError classifies err as returned by the network
func newRemoteError(err error) *RemoteError {
	var (
		bacnetErr *bacnet.BACnetError
		rejectErr *bacnet.RejectError
		abortErr  *bacnet.AbortError
	)
	switch {
	case errors.As(err, &bacnetErr):
		return &RemoteError{Kind: RemoteErrorResponse, Err: err}
	case errors.As(err, &rejectErr):
		return &RemoteError{Kind: RemoteReject, Err: err}
	case errors.As(err, &abortErr):
		return &RemoteError{Kind: RemoteAbort, Err: err}
	}
	return &RemoteError{Kind: RemoteFailure, Err: err}
}

// TimeoutError reports that no reply arrived before the deadline
type TimeoutError struct {
	Timeout string
}

func (e *TimeoutError) Error() string {
	return "no response within " + e.Timeout
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// PropertyAccessError is the per-property failure a device reports inside
// an otherwise successful batched read
type PropertyAccessError struct {
	Err *bacnet.BACnetError
}

func (e *PropertyAccessError) Error() string {
	return fmt.Sprintf("property access error: class=%s, code=%s", e.Err.Class, e.Err.Code)
}

func (e *PropertyAccessError) Unwrap() error { return e.Err }
