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

// Package bacnet provides the BACnet/IP client used by the gateway to reach
// devices: confirmed request dispatch, APDU framing and tag encoding
package bacnet

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultPort is the standard BACnet/IP UDP port
const DefaultPort = 47808

// MaxAPDULength is the maximum APDU length for BACnet/IP
const MaxAPDULength = 1476

// BVLC Types (BACnet Virtual Link Control)
type BVLCType uint8

const (
	BVLCTypeBACnetIP BVLCType = 0x81
)

// BVLC Functions
type BVLCFunction uint8

const (
	BVLCResult                BVLCFunction = 0x00
	BVLCForwardedNPDU         BVLCFunction = 0x04
	BVLCRegisterForeignDevice BVLCFunction = 0x05
	BVLCOriginalUnicastNPDU   BVLCFunction = 0x0A
	BVLCOriginalBroadcastNPDU BVLCFunction = 0x0B
)

// NPDU Network Layer Protocol Control Information
type NPDUControl uint8

const (
	NPDUControlNetworkLayerMessage NPDUControl = 0x80
	NPDUControlDestSpecifier       NPDUControl = 0x20
	NPDUControlSourceSpecifier     NPDUControl = 0x08
	NPDUControlExpectingReply      NPDUControl = 0x04
	NPDUControlPriorityNormal      NPDUControl = 0x00
)

// PDU Types (Application Layer)
type PDUType uint8

const (
	PDUTypeConfirmedRequest   PDUType = 0x00
	PDUTypeUnconfirmedRequest PDUType = 0x10
	PDUTypeSimpleAck          PDUType = 0x20
	PDUTypeComplexAck         PDUType = 0x30
	PDUTypeSegmentAck         PDUType = 0x40
	PDUTypeError              PDUType = 0x50
	PDUTypeReject             PDUType = 0x60
	PDUTypeAbort              PDUType = 0x70
)

func (t PDUType) String() string {
	switch t {
	case PDUTypeConfirmedRequest:
		return "confirmed-request"
	case PDUTypeUnconfirmedRequest:
		return "unconfirmed-request"
	case PDUTypeSimpleAck:
		return "simple-ack"
	case PDUTypeComplexAck:
		return "complex-ack"
	case PDUTypeSegmentAck:
		return "segment-ack"
	case PDUTypeError:
		return "error"
	case PDUTypeReject:
		return "reject"
	case PDUTypeAbort:
		return "abort"
	}
	return fmt.Sprintf("pdu-type(%#02x)", uint8(t))
}

// ConfirmedServiceChoice identifies a confirmed service
type ConfirmedServiceChoice uint8

const (
	ServiceReadProperty         ConfirmedServiceChoice = 12
	ServiceReadPropertyMultiple ConfirmedServiceChoice = 14
)

func (s ConfirmedServiceChoice) String() string {
	switch s {
	case ServiceReadProperty:
		return "ReadProperty"
	case ServiceReadPropertyMultiple:
		return "ReadPropertyMultiple"
	}
	return fmt.Sprintf("Unknown(%d)", s)
}

// ObjectType represents BACnet object types
type ObjectType uint16

// MaxObjectType is the largest value the 10-bit object type field can carry
const MaxObjectType ObjectType = 0x3FF

// MaxInstance is the largest object instance number
const MaxInstance uint32 = 0x3FFFFF

const (
	ObjectTypeAnalogInput           ObjectType = 0
	ObjectTypeAnalogOutput          ObjectType = 1
	ObjectTypeAnalogValue           ObjectType = 2
	ObjectTypeBinaryInput           ObjectType = 3
	ObjectTypeBinaryOutput          ObjectType = 4
	ObjectTypeBinaryValue           ObjectType = 5
	ObjectTypeCalendar              ObjectType = 6
	ObjectTypeCommand               ObjectType = 7
	ObjectTypeDevice                ObjectType = 8
	ObjectTypeEventEnrollment       ObjectType = 9
	ObjectTypeFile                  ObjectType = 10
	ObjectTypeGroup                 ObjectType = 11
	ObjectTypeLoop                  ObjectType = 12
	ObjectTypeMultiStateInput       ObjectType = 13
	ObjectTypeMultiStateOutput      ObjectType = 14
	ObjectTypeNotificationClass     ObjectType = 15
	ObjectTypeProgram               ObjectType = 16
	ObjectTypeSchedule              ObjectType = 17
	ObjectTypeAveraging             ObjectType = 18
	ObjectTypeMultiStateValue       ObjectType = 19
	ObjectTypeTrendLog              ObjectType = 20
	ObjectTypeLifeSafetyPoint       ObjectType = 21
	ObjectTypeLifeSafetyZone        ObjectType = 22
	ObjectTypeAccumulator           ObjectType = 23
	ObjectTypePulseConverter        ObjectType = 24
	ObjectTypeEventLog              ObjectType = 25
	ObjectTypeGlobalGroup           ObjectType = 26
	ObjectTypeTrendLogMultiple      ObjectType = 27
	ObjectTypeLoadControl           ObjectType = 28
	ObjectTypeStructuredView        ObjectType = 29
	ObjectTypeAccessDoor            ObjectType = 30
	ObjectTypeTimer                 ObjectType = 31
	ObjectTypeAccessCredential      ObjectType = 32
	ObjectTypeAccessPoint           ObjectType = 33
	ObjectTypeAccessRights          ObjectType = 34
	ObjectTypeAccessUser            ObjectType = 35
	ObjectTypeAccessZone            ObjectType = 36
	ObjectTypeCredentialDataInput   ObjectType = 37
	ObjectTypeNetworkSecurity       ObjectType = 38
	ObjectTypeBitStringValue        ObjectType = 39
	ObjectTypeCharacterStringValue  ObjectType = 40
	ObjectTypeDatePatternValue      ObjectType = 41
	ObjectTypeDateValue             ObjectType = 42
	ObjectTypeDateTimePatternValue  ObjectType = 43
	ObjectTypeDateTimeValue         ObjectType = 44
	ObjectTypeIntegerValue          ObjectType = 45
	ObjectTypeLargeAnalogValue      ObjectType = 46
	ObjectTypeOctetStringValue      ObjectType = 47
	ObjectTypePositiveIntegerValue  ObjectType = 48
	ObjectTypeTimePatternValue      ObjectType = 49
	ObjectTypeTimeValue             ObjectType = 50
	ObjectTypeNotificationForwarder ObjectType = 51
	ObjectTypeAlertEnrollment       ObjectType = 52
	ObjectTypeChannel               ObjectType = 53
	ObjectTypeLightingOutput        ObjectType = 54
	ObjectTypeBinaryLightingOutput  ObjectType = 55
	ObjectTypeNetworkPort           ObjectType = 56
	ObjectTypeElevatorGroup         ObjectType = 57
	ObjectTypeEscalator             ObjectType = 58
	ObjectTypeLift                  ObjectType = 59
)

var objectTypeNames = map[ObjectType]string{
	ObjectTypeAnalogInput:           "analogInput",
	ObjectTypeAnalogOutput:          "analogOutput",
	ObjectTypeAnalogValue:           "analogValue",
	ObjectTypeBinaryInput:           "binaryInput",
	ObjectTypeBinaryOutput:          "binaryOutput",
	ObjectTypeBinaryValue:           "binaryValue",
	ObjectTypeCalendar:              "calendar",
	ObjectTypeCommand:               "command",
	ObjectTypeDevice:                "device",
	ObjectTypeEventEnrollment:       "eventEnrollment",
	ObjectTypeFile:                  "file",
	ObjectTypeGroup:                 "group",
	ObjectTypeLoop:                  "loop",
	ObjectTypeMultiStateInput:       "multiStateInput",
	ObjectTypeMultiStateOutput:      "multiStateOutput",
	ObjectTypeNotificationClass:     "notificationClass",
	ObjectTypeProgram:               "program",
	ObjectTypeSchedule:              "schedule",
	ObjectTypeAveraging:             "averaging",
	ObjectTypeMultiStateValue:       "multiStateValue",
	ObjectTypeTrendLog:              "trendLog",
	ObjectTypeLifeSafetyPoint:       "lifeSafetyPoint",
	ObjectTypeLifeSafetyZone:        "lifeSafetyZone",
	ObjectTypeAccumulator:           "accumulator",
	ObjectTypePulseConverter:        "pulseConverter",
	ObjectTypeEventLog:              "eventLog",
	ObjectTypeGlobalGroup:           "globalGroup",
	ObjectTypeTrendLogMultiple:      "trendLogMultiple",
	ObjectTypeLoadControl:           "loadControl",
	ObjectTypeStructuredView:        "structuredView",
	ObjectTypeAccessDoor:            "accessDoor",
	ObjectTypeTimer:                 "timer",
	ObjectTypeAccessCredential:      "accessCredential",
	ObjectTypeAccessPoint:           "accessPoint",
	ObjectTypeAccessRights:          "accessRights",
	ObjectTypeAccessUser:            "accessUser",
	ObjectTypeAccessZone:            "accessZone",
	ObjectTypeCredentialDataInput:   "credentialDataInput",
	ObjectTypeNetworkSecurity:       "networkSecurity",
	ObjectTypeBitStringValue:        "bitstringValue",
	ObjectTypeCharacterStringValue:  "characterstringValue",
	ObjectTypeDatePatternValue:      "datePatternValue",
	ObjectTypeDateValue:             "dateValue",
	ObjectTypeDateTimePatternValue:  "datetimePatternValue",
	ObjectTypeDateTimeValue:         "datetimeValue",
	ObjectTypeIntegerValue:          "integerValue",
	ObjectTypeLargeAnalogValue:      "largeAnalogValue",
	ObjectTypeOctetStringValue:      "octetstringValue",
	ObjectTypePositiveIntegerValue:  "positiveIntegerValue",
	ObjectTypeTimePatternValue:      "timePatternValue",
	ObjectTypeTimeValue:             "timeValue",
	ObjectTypeNotificationForwarder: "notificationForwarder",
	ObjectTypeAlertEnrollment:       "alertEnrollment",
	ObjectTypeChannel:               "channel",
	ObjectTypeLightingOutput:        "lightingOutput",
	ObjectTypeBinaryLightingOutput:  "binaryLightingOutput",
	ObjectTypeNetworkPort:           "networkPort",
	ObjectTypeElevatorGroup:         "elevatorGroup",
	ObjectTypeEscalator:             "escalator",
	ObjectTypeLift:                  "lift",
}

// short names accepted on input, as the CLI tools in the field use them
var objectTypeAliases = map[string]ObjectType{
	"ai":  ObjectTypeAnalogInput,
	"ao":  ObjectTypeAnalogOutput,
	"av":  ObjectTypeAnalogValue,
	"bi":  ObjectTypeBinaryInput,
	"bo":  ObjectTypeBinaryOutput,
	"bv":  ObjectTypeBinaryValue,
	"dev": ObjectTypeDevice,
	"msi": ObjectTypeMultiStateInput,
	"mso": ObjectTypeMultiStateOutput,
	"msv": ObjectTypeMultiStateValue,
	"sch": ObjectTypeSchedule,
	"tl":  ObjectTypeTrendLog,
	"cal": ObjectTypeCalendar,
	"nc":  ObjectTypeNotificationClass,
	"prg": ObjectTypeProgram,
}

var objectTypesByName = indexNames(objectTypeNames, objectTypeAliases)

func (o ObjectType) String() string {
	if name, ok := objectTypeNames[o]; ok {
		return name
	}
	return strconv.Itoa(int(o))
}

// Known reports whether o is a standard object type
func (o ObjectType) Known() bool {
	_, ok := objectTypeNames[o]
	return ok
}

// ParseObjectType parses a string to ObjectType. The camelCase name, the
// hyphenated form, a short alias or a number in the proprietary range are
// accepted
func ParseObjectType(s string) (ObjectType, bool) {
	if t, ok := objectTypesByName[normalizeName(s)]; ok {
		return t, true
	}
	if n, err := strconv.ParseUint(s, 10, 16); err == nil && ObjectType(n) <= MaxObjectType {
		return ObjectType(n), true
	}
	return 0, false
}

// PropertyIdentifier represents BACnet property identifiers
type PropertyIdentifier uint32

const (
	PropertyAckedTransitions                 PropertyIdentifier = 0
	PropertyAckRequired                      PropertyIdentifier = 1
	PropertyAction                           PropertyIdentifier = 2
	PropertyActionText                       PropertyIdentifier = 3
	PropertyActiveText                       PropertyIdentifier = 4
	PropertyActiveVtSessions                 PropertyIdentifier = 5
	PropertyAlarmValue                       PropertyIdentifier = 6
	PropertyAlarmValues                      PropertyIdentifier = 7
	PropertyAll                              PropertyIdentifier = 8
	PropertyAllWritesSuccessful              PropertyIdentifier = 9
	PropertyApduSegmentTimeout               PropertyIdentifier = 10
	PropertyApduTimeout                      PropertyIdentifier = 11
	PropertyApplicationSoftwareVersion       PropertyIdentifier = 12
	PropertyArchive                          PropertyIdentifier = 13
	PropertyBias                             PropertyIdentifier = 14
	PropertyChangeOfStateCount               PropertyIdentifier = 15
	PropertyChangeOfStateTime                PropertyIdentifier = 16
	PropertyNotificationClass                PropertyIdentifier = 17
	PropertyControlledVariableReference      PropertyIdentifier = 19
	PropertyControlledVariableUnits          PropertyIdentifier = 20
	PropertyControlledVariableValue          PropertyIdentifier = 21
	PropertyCOVIncrement                     PropertyIdentifier = 22
	PropertyDateList                         PropertyIdentifier = 23
	PropertyDaylightSavingsStatus            PropertyIdentifier = 24
	PropertyDeadband                         PropertyIdentifier = 25
	PropertyDerivativeConstant               PropertyIdentifier = 26
	PropertyDerivativeConstantUnits          PropertyIdentifier = 27
	PropertyDescription                      PropertyIdentifier = 28
	PropertyDescriptionOfHalt                PropertyIdentifier = 29
	PropertyDeviceAddressBinding             PropertyIdentifier = 30
	PropertyDeviceType                       PropertyIdentifier = 31
	PropertyEffectivePeriod                  PropertyIdentifier = 32
	PropertyElapsedActiveTime                PropertyIdentifier = 33
	PropertyErrorLimit                       PropertyIdentifier = 34
	PropertyEventEnable                      PropertyIdentifier = 35
	PropertyEventState                       PropertyIdentifier = 36
	PropertyEventType                        PropertyIdentifier = 37
	PropertyExceptionSchedule                PropertyIdentifier = 38
	PropertyFaultValues                      PropertyIdentifier = 39
	PropertyFeedbackValue                    PropertyIdentifier = 40
	PropertyFileAccessMethod                 PropertyIdentifier = 41
	PropertyFileSize                         PropertyIdentifier = 42
	PropertyFileType                         PropertyIdentifier = 43
	PropertyFirmwareRevision                 PropertyIdentifier = 44
	PropertyHighLimit                        PropertyIdentifier = 45
	PropertyInactiveText                     PropertyIdentifier = 46
	PropertyInProcess                        PropertyIdentifier = 47
	PropertyInstanceOf                       PropertyIdentifier = 48
	PropertyIntegralConstant                 PropertyIdentifier = 49
	PropertyIntegralConstantUnits            PropertyIdentifier = 50
	PropertyLimitEnable                      PropertyIdentifier = 52
	PropertyListOfGroupMembers               PropertyIdentifier = 53
	PropertyListOfObjectPropertyReferences   PropertyIdentifier = 54
	PropertyLocalDate                        PropertyIdentifier = 56
	PropertyLocalTime                        PropertyIdentifier = 57
	PropertyLocation                         PropertyIdentifier = 58
	PropertyLowLimit                         PropertyIdentifier = 59
	PropertyManipulatedVariableReference     PropertyIdentifier = 60
	PropertyMaximumOutput                    PropertyIdentifier = 61
	PropertyMaxApduLengthAccepted            PropertyIdentifier = 62
	PropertyMaxInfoFrames                    PropertyIdentifier = 63
	PropertyMaxMaster                        PropertyIdentifier = 64
	PropertyMaxPresValue                     PropertyIdentifier = 65
	PropertyMinimumOffTime                   PropertyIdentifier = 66
	PropertyMinimumOnTime                    PropertyIdentifier = 67
	PropertyMinimumOutput                    PropertyIdentifier = 68
	PropertyMinPresValue                     PropertyIdentifier = 69
	PropertyModelName                        PropertyIdentifier = 70
	PropertyModificationDate                 PropertyIdentifier = 71
	PropertyNotifyType                       PropertyIdentifier = 72
	PropertyNumberOfApduRetries              PropertyIdentifier = 73
	PropertyNumberOfStates                   PropertyIdentifier = 74
	PropertyObjectIdentifier                 PropertyIdentifier = 75
	PropertyObjectList                       PropertyIdentifier = 76
	PropertyObjectName                       PropertyIdentifier = 77
	PropertyObjectPropertyReference          PropertyIdentifier = 78
	PropertyObjectType                       PropertyIdentifier = 79
	PropertyOptional                         PropertyIdentifier = 80
	PropertyOutOfService                     PropertyIdentifier = 81
	PropertyOutputUnits                      PropertyIdentifier = 82
	PropertyEventParameters                  PropertyIdentifier = 83
	PropertyPolarity                         PropertyIdentifier = 84
	PropertyPresentValue                     PropertyIdentifier = 85
	PropertyPriority                         PropertyIdentifier = 86
	PropertyPriorityArray                    PropertyIdentifier = 87
	PropertyPriorityForWriting               PropertyIdentifier = 88
	PropertyProcessIdentifier                PropertyIdentifier = 89
	PropertyProgramChange                    PropertyIdentifier = 90
	PropertyProgramLocation                  PropertyIdentifier = 91
	PropertyProgramState                     PropertyIdentifier = 92
	PropertyProportionalConstant             PropertyIdentifier = 93
	PropertyProportionalConstantUnits        PropertyIdentifier = 94
	PropertyProtocolObjectTypesSupported     PropertyIdentifier = 96
	PropertyProtocolServicesSupported        PropertyIdentifier = 97
	PropertyProtocolVersion                  PropertyIdentifier = 98
	PropertyReadOnly                         PropertyIdentifier = 99
	PropertyReasonForHalt                    PropertyIdentifier = 100
	PropertyRecipientList                    PropertyIdentifier = 102
	PropertyReliability                      PropertyIdentifier = 103
	PropertyRelinquishDefault                PropertyIdentifier = 104
	PropertyRequired                         PropertyIdentifier = 105
	PropertyResolution                       PropertyIdentifier = 106
	PropertySegmentationSupported            PropertyIdentifier = 107
	PropertySetpoint                         PropertyIdentifier = 108
	PropertySetpointReference                PropertyIdentifier = 109
	PropertyStateText                        PropertyIdentifier = 110
	PropertyStatusFlags                      PropertyIdentifier = 111
	PropertySystemStatus                     PropertyIdentifier = 112
	PropertyTimeDelay                        PropertyIdentifier = 113
	PropertyTimeOfActiveTimeReset            PropertyIdentifier = 114
	PropertyTimeOfStateCountReset            PropertyIdentifier = 115
	PropertyTimeSynchronizationRecipients    PropertyIdentifier = 116
	PropertyUnits                            PropertyIdentifier = 117
	PropertyUpdateInterval                   PropertyIdentifier = 118
	PropertyUtcOffset                        PropertyIdentifier = 119
	PropertyVendorIdentifier                 PropertyIdentifier = 120
	PropertyVendorName                       PropertyIdentifier = 121
	PropertyVtClassesSupported               PropertyIdentifier = 122
	PropertyWeeklySchedule                   PropertyIdentifier = 123
	PropertyAttemptedSamples                 PropertyIdentifier = 124
	PropertyAverageValue                     PropertyIdentifier = 125
	PropertyBufferSize                       PropertyIdentifier = 126
	PropertyClientCovIncrement               PropertyIdentifier = 127
	PropertyCOVResubscriptionInterval        PropertyIdentifier = 128
	PropertyEventTimeStamps                  PropertyIdentifier = 130
	PropertyLogBuffer                        PropertyIdentifier = 131
	PropertyLogDeviceObjectProperty          PropertyIdentifier = 132
	PropertyLogEnable                        PropertyIdentifier = 133
	PropertyLogInterval                      PropertyIdentifier = 134
	PropertyMaximumValue                     PropertyIdentifier = 135
	PropertyMinimumValue                     PropertyIdentifier = 136
	PropertyNotificationThreshold            PropertyIdentifier = 137
	PropertyPreviousNotifyRecord             PropertyIdentifier = 138
	PropertyProtocolRevision                 PropertyIdentifier = 139
	PropertyRecordsSinceNotification         PropertyIdentifier = 140
	PropertyRecordCount                      PropertyIdentifier = 141
	PropertyStartTime                        PropertyIdentifier = 142
	PropertyStopTime                         PropertyIdentifier = 143
	PropertyStopWhenFull                     PropertyIdentifier = 144
	PropertyTotalRecordCount                 PropertyIdentifier = 145
	PropertyValidSamples                     PropertyIdentifier = 146
	PropertyWindowInterval                   PropertyIdentifier = 147
	PropertyWindowSamples                    PropertyIdentifier = 148
	PropertyMaximumValueTimestamp            PropertyIdentifier = 149
	PropertyMinimumValueTimestamp            PropertyIdentifier = 150
	PropertyVarianceValue                    PropertyIdentifier = 151
	PropertyActiveCOVSubscriptions           PropertyIdentifier = 152
	PropertyBackupFailureTimeout             PropertyIdentifier = 153
	PropertyConfigurationFiles               PropertyIdentifier = 154
	PropertyDatabaseRevision                 PropertyIdentifier = 155
	PropertyDirectReading                    PropertyIdentifier = 156
	PropertyLastRestoreTime                  PropertyIdentifier = 157
	PropertyMaintenanceRequired              PropertyIdentifier = 158
	PropertyMemberOf                         PropertyIdentifier = 159
	PropertyMode                             PropertyIdentifier = 160
	PropertyOperationExpected                PropertyIdentifier = 161
	PropertySetting                          PropertyIdentifier = 162
	PropertySilenced                         PropertyIdentifier = 163
	PropertyTrackingValue                    PropertyIdentifier = 164
	PropertyZoneMembers                      PropertyIdentifier = 165
	PropertyLifeSafetyAlarmValues            PropertyIdentifier = 166
	PropertyMaxSegmentsAccepted              PropertyIdentifier = 167
	PropertyProfileName                      PropertyIdentifier = 168
	PropertyAutoSlaveDiscovery               PropertyIdentifier = 169
	PropertyManualSlaveAddressBinding        PropertyIdentifier = 170
	PropertySlaveAddressBinding              PropertyIdentifier = 171
	PropertySlaveProxyEnable                 PropertyIdentifier = 172
	PropertyLastNotifyRecord                 PropertyIdentifier = 173
	PropertyScheduleDefault                  PropertyIdentifier = 174
	PropertyAcceptedModes                    PropertyIdentifier = 175
	PropertyAdjustValue                      PropertyIdentifier = 176
	PropertyCount                            PropertyIdentifier = 177
	PropertyCountBeforeChange                PropertyIdentifier = 178
	PropertyCountChangeTime                  PropertyIdentifier = 179
	PropertyCOVPeriod                        PropertyIdentifier = 180
	PropertyInputReference                   PropertyIdentifier = 181
	PropertyLimitMonitoringInterval          PropertyIdentifier = 182
	PropertyLoggingObject                    PropertyIdentifier = 183
	PropertyLoggingRecord                    PropertyIdentifier = 184
	PropertyPrescale                         PropertyIdentifier = 185
	PropertyPulseRate                        PropertyIdentifier = 186
	PropertyScale                            PropertyIdentifier = 187
	PropertyScaleFactor                      PropertyIdentifier = 188
	PropertyUpdateTime                       PropertyIdentifier = 189
	PropertyValueBeforeChange                PropertyIdentifier = 190
	PropertyValueSet                         PropertyIdentifier = 191
	PropertyValueChangeTime                  PropertyIdentifier = 192
	PropertyStructuredObjectList             PropertyIdentifier = 209
	PropertyEventMessageTexts                PropertyIdentifier = 351
	PropertyPropertyList                     PropertyIdentifier = 371
)

var propertyNames = map[PropertyIdentifier]string{
	PropertyAckedTransitions:               "ackedTransitions",
	PropertyAckRequired:                    "ackRequired",
	PropertyAction:                         "action",
	PropertyActionText:                     "actionText",
	PropertyActiveText:                     "activeText",
	PropertyActiveVtSessions:               "activeVtSessions",
	PropertyAlarmValue:                     "alarmValue",
	PropertyAlarmValues:                    "alarmValues",
	PropertyAll:                            "all",
	PropertyAllWritesSuccessful:            "allWritesSuccessful",
	PropertyApduSegmentTimeout:             "apduSegmentTimeout",
	PropertyApduTimeout:                    "apduTimeout",
	PropertyApplicationSoftwareVersion:     "applicationSoftwareVersion",
	PropertyArchive:                        "archive",
	PropertyBias:                           "bias",
	PropertyChangeOfStateCount:             "changeOfStateCount",
	PropertyChangeOfStateTime:              "changeOfStateTime",
	PropertyNotificationClass:              "notificationClass",
	PropertyControlledVariableReference:    "controlledVariableReference",
	PropertyControlledVariableUnits:        "controlledVariableUnits",
	PropertyControlledVariableValue:        "controlledVariableValue",
	PropertyCOVIncrement:                   "covIncrement",
	PropertyDateList:                       "dateList",
	PropertyDaylightSavingsStatus:          "daylightSavingsStatus",
	PropertyDeadband:                       "deadband",
	PropertyDerivativeConstant:             "derivativeConstant",
	PropertyDerivativeConstantUnits:        "derivativeConstantUnits",
	PropertyDescription:                    "description",
	PropertyDescriptionOfHalt:              "descriptionOfHalt",
	PropertyDeviceAddressBinding:           "deviceAddressBinding",
	PropertyDeviceType:                     "deviceType",
	PropertyEffectivePeriod:                "effectivePeriod",
	PropertyElapsedActiveTime:              "elapsedActiveTime",
	PropertyErrorLimit:                     "errorLimit",
	PropertyEventEnable:                    "eventEnable",
	PropertyEventState:                     "eventState",
	PropertyEventType:                      "eventType",
	PropertyExceptionSchedule:              "exceptionSchedule",
	PropertyFaultValues:                    "faultValues",
	PropertyFeedbackValue:                  "feedbackValue",
	PropertyFileAccessMethod:               "fileAccessMethod",
	PropertyFileSize:                       "fileSize",
	PropertyFileType:                       "fileType",
	PropertyFirmwareRevision:               "firmwareRevision",
	PropertyHighLimit:                      "highLimit",
	PropertyInactiveText:                   "inactiveText",
	PropertyInProcess:                      "inProcess",
	PropertyInstanceOf:                     "instanceOf",
	PropertyIntegralConstant:               "integralConstant",
	PropertyIntegralConstantUnits:          "integralConstantUnits",
	PropertyLimitEnable:                    "limitEnable",
	PropertyListOfGroupMembers:             "listOfGroupMembers",
	PropertyListOfObjectPropertyReferences: "listOfObjectPropertyReferences",
	PropertyLocalDate:                      "localDate",
	PropertyLocalTime:                      "localTime",
	PropertyLocation:                       "location",
	PropertyLowLimit:                       "lowLimit",
	PropertyManipulatedVariableReference:   "manipulatedVariableReference",
	PropertyMaximumOutput:                  "maximumOutput",
	PropertyMaxApduLengthAccepted:          "maxApduLengthAccepted",
	PropertyMaxInfoFrames:                  "maxInfoFrames",
	PropertyMaxMaster:                      "maxMaster",
	PropertyMaxPresValue:                   "maxPresValue",
	PropertyMinimumOffTime:                 "minimumOffTime",
	PropertyMinimumOnTime:                  "minimumOnTime",
	PropertyMinimumOutput:                  "minimumOutput",
	PropertyMinPresValue:                   "minPresValue",
	PropertyModelName:                      "modelName",
	PropertyModificationDate:               "modificationDate",
	PropertyNotifyType:                     "notifyType",
	PropertyNumberOfApduRetries:            "numberOfApduRetries",
	PropertyNumberOfStates:                 "numberOfStates",
	PropertyObjectIdentifier:               "objectIdentifier",
	PropertyObjectList:                     "objectList",
	PropertyObjectName:                     "objectName",
	PropertyObjectPropertyReference:        "objectPropertyReference",
	PropertyObjectType:                     "objectType",
	PropertyOptional:                       "optional",
	PropertyOutOfService:                   "outOfService",
	PropertyOutputUnits:                    "outputUnits",
	PropertyEventParameters:                "eventParameters",
	PropertyPolarity:                       "polarity",
	PropertyPresentValue:                   "presentValue",
	PropertyPriority:                       "priority",
	PropertyPriorityArray:                  "priorityArray",
	PropertyPriorityForWriting:             "priorityForWriting",
	PropertyProcessIdentifier:              "processIdentifier",
	PropertyProgramChange:                  "programChange",
	PropertyProgramLocation:                "programLocation",
	PropertyProgramState:                   "programState",
	PropertyProportionalConstant:           "proportionalConstant",
	PropertyProportionalConstantUnits:      "proportionalConstantUnits",
	PropertyProtocolObjectTypesSupported:   "protocolObjectTypesSupported",
	PropertyProtocolServicesSupported:      "protocolServicesSupported",
	PropertyProtocolVersion:                "protocolVersion",
	PropertyReadOnly:                       "readOnly",
	PropertyReasonForHalt:                  "reasonForHalt",
	PropertyRecipientList:                  "recipientList",
	PropertyReliability:                    "reliability",
	PropertyRelinquishDefault:              "relinquishDefault",
	PropertyRequired:                       "required",
	PropertyResolution:                     "resolution",
	PropertySegmentationSupported:          "segmentationSupported",
	PropertySetpoint:                       "setpoint",
	PropertySetpointReference:              "setpointReference",
	PropertyStateText:                      "stateText",
	PropertyStatusFlags:                    "statusFlags",
	PropertySystemStatus:                   "systemStatus",
	PropertyTimeDelay:                      "timeDelay",
	PropertyTimeOfActiveTimeReset:          "timeOfActiveTimeReset",
	PropertyTimeOfStateCountReset:          "timeOfStateCountReset",
	PropertyTimeSynchronizationRecipients:  "timeSynchronizationRecipients",
	PropertyUnits:                          "units",
	PropertyUpdateInterval:                 "updateInterval",
	PropertyUtcOffset:                      "utcOffset",
	PropertyVendorIdentifier:               "vendorIdentifier",
	PropertyVendorName:                     "vendorName",
	PropertyVtClassesSupported:             "vtClassesSupported",
	PropertyWeeklySchedule:                 "weeklySchedule",
	PropertyAttemptedSamples:               "attemptedSamples",
	PropertyAverageValue:                   "averageValue",
	PropertyBufferSize:                     "bufferSize",
	PropertyClientCovIncrement:             "clientCovIncrement",
	PropertyCOVResubscriptionInterval:      "covResubscriptionInterval",
	PropertyEventTimeStamps:                "eventTimeStamps",
	PropertyLogBuffer:                      "logBuffer",
	PropertyLogDeviceObjectProperty:        "logDeviceObjectProperty",
	PropertyLogEnable:                      "logEnable",
	PropertyLogInterval:                    "logInterval",
	PropertyMaximumValue:                   "maximumValue",
	PropertyMinimumValue:                   "minimumValue",
	PropertyNotificationThreshold:          "notificationThreshold",
	PropertyPreviousNotifyRecord:           "previousNotifyRecord",
	PropertyProtocolRevision:               "protocolRevision",
	PropertyRecordsSinceNotification:       "recordsSinceNotification",
	PropertyRecordCount:                    "recordCount",
	PropertyStartTime:                      "startTime",
	PropertyStopTime:                       "stopTime",
	PropertyStopWhenFull:                   "stopWhenFull",
	PropertyTotalRecordCount:               "totalRecordCount",
	PropertyValidSamples:                   "validSamples",
	PropertyWindowInterval:                 "windowInterval",
	PropertyWindowSamples:                  "windowSamples",
	PropertyMaximumValueTimestamp:          "maximumValueTimestamp",
	PropertyMinimumValueTimestamp:          "minimumValueTimestamp",
	PropertyVarianceValue:                  "varianceValue",
	PropertyActiveCOVSubscriptions:         "activeCovSubscriptions",
	PropertyBackupFailureTimeout:           "backupFailureTimeout",
	PropertyConfigurationFiles:             "configurationFiles",
	PropertyDatabaseRevision:               "databaseRevision",
	PropertyDirectReading:                  "directReading",
	PropertyLastRestoreTime:                "lastRestoreTime",
	PropertyMaintenanceRequired:            "maintenanceRequired",
	PropertyMemberOf:                       "memberOf",
	PropertyMode:                           "mode",
	PropertyOperationExpected:              "operationExpected",
	PropertySetting:                        "setting",
	PropertySilenced:                       "silenced",
	PropertyTrackingValue:                  "trackingValue",
	PropertyZoneMembers:                    "zoneMembers",
	PropertyLifeSafetyAlarmValues:          "lifeSafetyAlarmValues",
	PropertyMaxSegmentsAccepted:            "maxSegmentsAccepted",
	PropertyProfileName:                    "profileName",
	PropertyAutoSlaveDiscovery:             "autoSlaveDiscovery",
	PropertyManualSlaveAddressBinding:      "manualSlaveAddressBinding",
	PropertySlaveAddressBinding:            "slaveAddressBinding",
	PropertySlaveProxyEnable:               "slaveProxyEnable",
	PropertyLastNotifyRecord:               "lastNotifyRecord",
	PropertyScheduleDefault:                "scheduleDefault",
	PropertyAcceptedModes:                  "acceptedModes",
	PropertyAdjustValue:                    "adjustValue",
	PropertyCount:                          "count",
	PropertyCountBeforeChange:              "countBeforeChange",
	PropertyCountChangeTime:                "countChangeTime",
	PropertyCOVPeriod:                      "covPeriod",
	PropertyInputReference:                 "inputReference",
	PropertyLimitMonitoringInterval:        "limitMonitoringInterval",
	PropertyLoggingObject:                  "loggingObject",
	PropertyLoggingRecord:                  "loggingRecord",
	PropertyPrescale:                       "prescale",
	PropertyPulseRate:                      "pulseRate",
	PropertyScale:                          "scale",
	PropertyScaleFactor:                    "scaleFactor",
	PropertyUpdateTime:                     "updateTime",
	PropertyValueBeforeChange:              "valueBeforeChange",
	PropertyValueSet:                       "valueSet",
	PropertyValueChangeTime:                "valueChangeTime",
	PropertyStructuredObjectList:           "structuredObjectList",
	PropertyEventMessageTexts:              "eventMessageTexts",
	PropertyPropertyList:                   "propertyList",
}

var propertyAliases = map[string]PropertyIdentifier{
	"oid":  PropertyObjectIdentifier,
	"name": PropertyObjectName,
	"type": PropertyObjectType,
	"pv":   PropertyPresentValue,
	"desc": PropertyDescription,
	"sf":   PropertyStatusFlags,
	"oos":  PropertyOutOfService,
	"pa":   PropertyPriorityArray,
	"rd":   PropertyRelinquishDefault,
}

var propertiesByName = indexNames(propertyNames, propertyAliases)

func (p PropertyIdentifier) String() string {
	if name, ok := propertyNames[p]; ok {
		return name
	}
	return strconv.FormatUint(uint64(p), 10)
}

// Known reports whether p is part of the property enumeration
func (p PropertyIdentifier) Known() bool {
	_, ok := propertyNames[p]
	return ok
}

// ParsePropertyIdentifier parses a string to PropertyIdentifier. Numbers are
// only accepted for known identifiers or the proprietary range (512 and up)
func ParsePropertyIdentifier(s string) (PropertyIdentifier, bool) {
	if p, ok := propertiesByName[normalizeName(s)]; ok {
		return p, true
	}
	if n, err := strconv.ParseUint(s, 10, 22); err == nil {
		p := PropertyIdentifier(n)
		if p.Known() || p >= 512 {
			return p, true
		}
	}
	return 0, false
}

// ObjectIdentifier represents a BACnet object identifier (type + instance)
type ObjectIdentifier struct {
	Type     ObjectType
	Instance uint32
}

// NewObjectIdentifier creates a new ObjectIdentifier
func NewObjectIdentifier(objectType ObjectType, instance uint32) ObjectIdentifier {
	return ObjectIdentifier{
		Type:     objectType,
		Instance: instance,
	}
}

// ParseObjectIdentifier parses the "type:instance" form
func ParseObjectIdentifier(s string) (ObjectIdentifier, error) {
	typ, inst, ok := strings.Cut(s, ":")
	if !ok || typ == "" || inst == "" {
		return ObjectIdentifier{}, fmt.Errorf("%w: expected type:instance, got %q", ErrInvalidObjectIdentifier, s)
	}
	instance, err := strconv.ParseUint(inst, 10, 32)
	if err != nil || uint32(instance) > MaxInstance {
		return ObjectIdentifier{}, fmt.Errorf("%w: invalid instance number %q", ErrInvalidObjectIdentifier, inst)
	}
	objType, ok := ParseObjectType(typ)
	if !ok {
		return ObjectIdentifier{}, fmt.Errorf("%w: %q", ErrUnknownObjectType, typ)
	}
	return NewObjectIdentifier(objType, uint32(instance)), nil
}

// Encode encodes the object identifier to a 4-byte value
func (o ObjectIdentifier) Encode() uint32 {
	return (uint32(o.Type) << 22) | (o.Instance & MaxInstance)
}

// DecodeObjectIdentifier decodes a 4-byte value to an ObjectIdentifier
func DecodeObjectIdentifier(value uint32) ObjectIdentifier {
	return ObjectIdentifier{
		Type:     ObjectType((value >> 22) & 0x3FF),
		Instance: value & MaxInstance,
	}
}

func (o ObjectIdentifier) String() string {
	return fmt.Sprintf("%s:%d", o.Type, o.Instance)
}

// Tag types for BACnet encoding
type TagClass uint8

const (
	TagClassApplication TagClass = 0
	TagClassContext     TagClass = 1
)

type ApplicationTag uint8

const (
	TagNull            ApplicationTag = 0
	TagBoolean         ApplicationTag = 1
	TagUnsignedInt     ApplicationTag = 2
	TagSignedInt       ApplicationTag = 3
	TagReal            ApplicationTag = 4
	TagDouble          ApplicationTag = 5
	TagOctetString     ApplicationTag = 6
	TagCharacterString ApplicationTag = 7
	TagBitString       ApplicationTag = 8
	TagEnumerated      ApplicationTag = 9
	TagDate            ApplicationTag = 10
	TagTime            ApplicationTag = 11
	TagObjectID        ApplicationTag = 12
)

func (t ApplicationTag) String() string {
	names := [...]string{
		"Null", "Boolean", "Unsigned", "Integer", "Real", "Double", "OctetString",
		"CharacterString", "BitString", "Enumerated", "Date", "Time", "ObjectIdentifier",
	}
	if int(t) < len(names) {
		return names[t]
	}
	return fmt.Sprintf("application-tag(%d)", uint8(t))
}

// normalizeName folds the camelCase and hyphenated spellings of a name onto
// one lookup key
func normalizeName(s string) string {
	return strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(s))
}

func indexNames[K comparable](names map[K]string, aliases map[string]K) map[string]K {
	idx := make(map[string]K, len(names)+len(aliases))
	for k, name := range names {
		idx[normalizeName(name)] = k
	}
	for alias, k := range aliases {
		idx[alias] = k
	}
	return idx
}
