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

package bacnet

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrTimeout                  = errors.New("bacnet: request timeout")
	ErrConnectionClosed         = errors.New("bacnet: connection closed")
	ErrInvalidResponse          = errors.New("bacnet: invalid response")
	ErrInvalidAPDU              = errors.New("bacnet: invalid APDU")
	ErrInvalidNPDU              = errors.New("bacnet: invalid NPDU")
	ErrInvalidBVLC              = errors.New("bacnet: invalid BVLC header")
	ErrInvalidTag               = errors.New("bacnet: invalid tag")
	ErrSegmentationNotSupported = errors.New("bacnet: segmentation not supported")
	ErrNotConnected             = errors.New("bacnet: not connected")
	ErrAlreadyConnected         = errors.New("bacnet: already connected")
	ErrNoInvokeID               = errors.New("bacnet: no free invoke id")
	ErrInvalidAddress           = errors.New("bacnet: invalid address")
	ErrInvalidObjectIdentifier  = errors.New("bacnet: invalid object identifier")
	ErrUnknownObjectType        = errors.New("bacnet: unknown object type")
)

// ErrorClass represents BACnet error classes
type ErrorClass uint32

const (
	ErrorClassDevice        ErrorClass = 0
	ErrorClassObject        ErrorClass = 1
	ErrorClassProperty      ErrorClass = 2
	ErrorClassResources     ErrorClass = 3
	ErrorClassSecurity      ErrorClass = 4
	ErrorClassServices      ErrorClass = 5
	ErrorClassVT            ErrorClass = 6
	ErrorClassCommunication ErrorClass = 7
)

var errorClassNames = map[ErrorClass]string{
	ErrorClassDevice:        "device",
	ErrorClassObject:        "object",
	ErrorClassProperty:      "property",
	ErrorClassResources:     "resources",
	ErrorClassSecurity:      "security",
	ErrorClassServices:      "services",
	ErrorClassVT:            "vt",
	ErrorClassCommunication: "communication",
}

func (e ErrorClass) String() string {
	if name, ok := errorClassNames[e]; ok {
		return name
	}
	return fmt.Sprintf("error-class(%d)", e)
}

// ErrorCode represents BACnet error codes
type ErrorCode uint32

const (
	ErrorCodeOther                             ErrorCode = 0
	ErrorCodeAuthenticationFailed              ErrorCode = 1
	ErrorCodeConfigurationInProgress           ErrorCode = 2
	ErrorCodeDeviceBusy                        ErrorCode = 3
	ErrorCodeDynamicCreationNotSupported       ErrorCode = 4
	ErrorCodeFileAccessDenied                  ErrorCode = 5
	ErrorCodeIncompatibleSecurityLevels        ErrorCode = 6
	ErrorCodeInconsistentParameters            ErrorCode = 7
	ErrorCodeInconsistentSelectionCriterion    ErrorCode = 8
	ErrorCodeInvalidDataType                   ErrorCode = 9
	ErrorCodeInvalidFileAccessMethod           ErrorCode = 10
	ErrorCodeInvalidFileStartPosition          ErrorCode = 11
	ErrorCodeInvalidOperatorName               ErrorCode = 12
	ErrorCodeInvalidParameterDataType          ErrorCode = 13
	ErrorCodeInvalidTimeStamp                  ErrorCode = 14
	ErrorCodeKeyGenerationError                ErrorCode = 15
	ErrorCodeMissingRequiredParameter          ErrorCode = 16
	ErrorCodeNoObjectsOfSpecifiedType          ErrorCode = 17
	ErrorCodeNoSpaceForObject                  ErrorCode = 18
	ErrorCodeNoSpaceToAddListElement           ErrorCode = 19
	ErrorCodeNoSpaceToWriteProperty            ErrorCode = 20
	ErrorCodeNoVtSessionsAvailable             ErrorCode = 21
	ErrorCodePropertyIsNotAList                ErrorCode = 22
	ErrorCodeObjectDeletionNotPermitted        ErrorCode = 23
	ErrorCodeObjectIdentifierAlreadyExists     ErrorCode = 24
	ErrorCodeOperationalProblem                ErrorCode = 25
	ErrorCodePasswordFailure                   ErrorCode = 26
	ErrorCodeReadAccessDenied                  ErrorCode = 27
	ErrorCodeSecurityNotSupported              ErrorCode = 28
	ErrorCodeServiceRequestDenied              ErrorCode = 29
	ErrorCodeTimeout                           ErrorCode = 30
	ErrorCodeUnknownObject                     ErrorCode = 31
	ErrorCodeUnknownProperty                   ErrorCode = 32
	ErrorCodeUnknownVtClass                    ErrorCode = 34
	ErrorCodeUnknownVtSession                  ErrorCode = 35
	ErrorCodeUnsupportedObjectType             ErrorCode = 36
	ErrorCodeValueOutOfRange                   ErrorCode = 37
	ErrorCodeVtSessionAlreadyClosed            ErrorCode = 38
	ErrorCodeVtSessionTerminationFailure       ErrorCode = 39
	ErrorCodeWriteAccessDenied                 ErrorCode = 40
	ErrorCodeCharacterSetNotSupported          ErrorCode = 41
	ErrorCodeInvalidArrayIndex                 ErrorCode = 42
	ErrorCodeCovSubscriptionFailed             ErrorCode = 43
	ErrorCodeNotCovProperty                    ErrorCode = 44
	ErrorCodeOptionalFunctionalityNotSupported ErrorCode = 45
	ErrorCodeInvalidConfigurationData          ErrorCode = 46
	ErrorCodeDatatypeNotSupported              ErrorCode = 47
	ErrorCodeDuplicateName                     ErrorCode = 48
	ErrorCodeDuplicateObjectID                 ErrorCode = 49
	ErrorCodePropertyIsNotAnArray              ErrorCode = 50
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCodeOther:                             "other",
	ErrorCodeAuthenticationFailed:              "authentication-failed",
	ErrorCodeConfigurationInProgress:           "configuration-in-progress",
	ErrorCodeDeviceBusy:                        "device-busy",
	ErrorCodeDynamicCreationNotSupported:       "dynamic-creation-not-supported",
	ErrorCodeFileAccessDenied:                  "file-access-denied",
	ErrorCodeIncompatibleSecurityLevels:        "incompatible-security-levels",
	ErrorCodeInconsistentParameters:            "inconsistent-parameters",
	ErrorCodeInconsistentSelectionCriterion:    "inconsistent-selection-criterion",
	ErrorCodeInvalidDataType:                   "invalid-data-type",
	ErrorCodeInvalidFileAccessMethod:           "invalid-file-access-method",
	ErrorCodeInvalidFileStartPosition:          "invalid-file-start-position",
	ErrorCodeInvalidOperatorName:               "invalid-operator-name",
	ErrorCodeInvalidParameterDataType:          "invalid-parameter-data-type",
	ErrorCodeInvalidTimeStamp:                  "invalid-time-stamp",
	ErrorCodeKeyGenerationError:                "key-generation-error",
	ErrorCodeMissingRequiredParameter:          "missing-required-parameter",
	ErrorCodeNoObjectsOfSpecifiedType:          "no-objects-of-specified-type",
	ErrorCodeNoSpaceForObject:                  "no-space-for-object",
	ErrorCodeNoSpaceToAddListElement:           "no-space-to-add-list-element",
	ErrorCodeNoSpaceToWriteProperty:            "no-space-to-write-property",
	ErrorCodeNoVtSessionsAvailable:             "no-vt-sessions-available",
	ErrorCodePropertyIsNotAList:                "property-is-not-a-list",
	ErrorCodeObjectDeletionNotPermitted:        "object-deletion-not-permitted",
	ErrorCodeObjectIdentifierAlreadyExists:     "object-identifier-already-exists",
	ErrorCodeOperationalProblem:                "operational-problem",
	ErrorCodePasswordFailure:                   "password-failure",
	ErrorCodeReadAccessDenied:                  "read-access-denied",
	ErrorCodeSecurityNotSupported:              "security-not-supported",
	ErrorCodeServiceRequestDenied:              "service-request-denied",
	ErrorCodeTimeout:                           "timeout",
	ErrorCodeUnknownObject:                     "unknown-object",
	ErrorCodeUnknownProperty:                   "unknown-property",
	ErrorCodeUnknownVtClass:                    "unknown-vt-class",
	ErrorCodeUnknownVtSession:                  "unknown-vt-session",
	ErrorCodeUnsupportedObjectType:             "unsupported-object-type",
	ErrorCodeValueOutOfRange:                   "value-out-of-range",
	ErrorCodeVtSessionAlreadyClosed:            "vt-session-already-closed",
	ErrorCodeVtSessionTerminationFailure:       "vt-session-termination-failure",
	ErrorCodeWriteAccessDenied:                 "write-access-denied",
	ErrorCodeCharacterSetNotSupported:          "character-set-not-supported",
	ErrorCodeInvalidArrayIndex:                 "invalid-array-index",
	ErrorCodeCovSubscriptionFailed:             "cov-subscription-failed",
	ErrorCodeNotCovProperty:                    "not-cov-property",
	ErrorCodeOptionalFunctionalityNotSupported: "optional-functionality-not-supported",
	ErrorCodeInvalidConfigurationData:          "invalid-configuration-data",
	ErrorCodeDatatypeNotSupported:              "datatype-not-supported",
	ErrorCodeDuplicateName:                     "duplicate-name",
	ErrorCodeDuplicateObjectID:                 "duplicate-object-id",
	ErrorCodePropertyIsNotAnArray:              "property-is-not-an-array",
}

func (e ErrorCode) String() string {
	if name, ok := errorCodeNames[e]; ok {
		return name
	}
	return fmt.Sprintf("error-code(%d)", e)
}

// BACnetError represents a BACnet protocol error
type BACnetError struct {
	Class ErrorClass
	Code  ErrorCode
}

func (e *BACnetError) Error() string {
	return fmt.Sprintf("bacnet error: class=%s, code=%s", e.Class, e.Code)
}

func (e *BACnetError) Is(target error) bool {
	t, ok := target.(*BACnetError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewBACnetError creates a new BACnet error
func NewBACnetError(class ErrorClass, code ErrorCode) *BACnetError {
	return &BACnetError{
		Class: class,
		Code:  code,
	}
}

// RejectReason represents BACnet reject reasons
type RejectReason uint8

const (
	RejectReasonOther                    RejectReason = 0
	RejectReasonBufferOverflow           RejectReason = 1
	RejectReasonInconsistentParameters   RejectReason = 2
	RejectReasonInvalidParameterDataType RejectReason = 3
	RejectReasonInvalidTag               RejectReason = 4
	RejectReasonMissingRequiredParameter RejectReason = 5
	RejectReasonParameterOutOfRange      RejectReason = 6
	RejectReasonTooManyArguments         RejectReason = 7
	RejectReasonUndefinedEnumeration     RejectReason = 8
	RejectReasonUnrecognizedService      RejectReason = 9
)

var rejectReasonNames = map[RejectReason]string{
	RejectReasonOther:                    "other",
	RejectReasonBufferOverflow:           "buffer-overflow",
	RejectReasonInconsistentParameters:   "inconsistent-parameters",
	RejectReasonInvalidParameterDataType: "invalid-parameter-data-type",
	RejectReasonInvalidTag:               "invalid-tag",
	RejectReasonMissingRequiredParameter: "missing-required-parameter",
	RejectReasonParameterOutOfRange:      "parameter-out-of-range",
	RejectReasonTooManyArguments:         "too-many-arguments",
	RejectReasonUndefinedEnumeration:     "undefined-enumeration",
	RejectReasonUnrecognizedService:      "unrecognized-service",
}

func (r RejectReason) String() string {
	if name, ok := rejectReasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reject-reason(%d)", r)
}

// RejectError represents a BACnet reject response
type RejectError struct {
	InvokeID uint8
	Reason   RejectReason
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("bacnet reject: invoke-id=%d, reason=%s", e.InvokeID, e.Reason)
}

// AbortReason represents BACnet abort reasons
type AbortReason uint8

const (
	AbortReasonOther                         AbortReason = 0
	AbortReasonBufferOverflow                AbortReason = 1
	AbortReasonInvalidApduInThisState        AbortReason = 2
	AbortReasonPreemptedByHigherPriorityTask AbortReason = 3
	AbortReasonSegmentationNotSupported      AbortReason = 4
	AbortReasonSecurityError                 AbortReason = 5
	AbortReasonInsufficientSecurity          AbortReason = 6
	AbortReasonWindowSizeOutOfRange          AbortReason = 7
	AbortReasonApplicationExceededReplyTime  AbortReason = 8
	AbortReasonOutOfResources                AbortReason = 9
	AbortReasonTsmTimeout                    AbortReason = 10
	AbortReasonApduTooLong                   AbortReason = 11
)

var abortReasonNames = map[AbortReason]string{
	AbortReasonOther:                         "other",
	AbortReasonBufferOverflow:                "buffer-overflow",
	AbortReasonInvalidApduInThisState:        "invalid-apdu-in-this-state",
	AbortReasonPreemptedByHigherPriorityTask: "preempted-by-higher-priority-task",
	AbortReasonSegmentationNotSupported:      "segmentation-not-supported",
	AbortReasonSecurityError:                 "security-error",
	AbortReasonInsufficientSecurity:          "insufficient-security",
	AbortReasonWindowSizeOutOfRange:          "window-size-out-of-range",
	AbortReasonApplicationExceededReplyTime:  "application-exceeded-reply-time",
	AbortReasonOutOfResources:                "out-of-resources",
	AbortReasonTsmTimeout:                    "tsm-timeout",
	AbortReasonApduTooLong:                   "apdu-too-long",
}

func (a AbortReason) String() string {
	if name, ok := abortReasonNames[a]; ok {
		return name
	}
	return fmt.Sprintf("abort-reason(%d)", a)
}

// AbortError represents a BACnet abort response
type AbortError struct {
	InvokeID uint8
	Server   bool
	Reason   AbortReason
}

func (e *AbortError) Error() string {
	origin := "client"
	if e.Server {
		origin = "server"
	}
	return fmt.Sprintf("bacnet abort: invoke-id=%d, origin=%s, reason=%s", e.InvokeID, origin, e.Reason)
}

// IsTimeout returns true if the error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
