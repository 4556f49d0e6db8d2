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
	"maps"

	"github.com/edgeo-scada/bacnet-gateway/bacnet"
)

// Properties maps the properties of one object type to their datatypes
type Properties map[bacnet.PropertyIdentifier]Datatype

// Schema maps object types to the properties they support
type Schema map[bacnet.ObjectType]Properties

// Datatype returns the datatype of (objectType, property)
func (s Schema) Datatype(objectType bacnet.ObjectType, property bacnet.PropertyIdentifier) (Datatype, bool) {
	props, ok := s[objectType]
	if !ok {
		return Datatype{}, false
	}
	dt, ok := props[property]
	return dt, ok
}

// Supports reports whether objectType has an entry in s
func (s Schema) Supports(objectType bacnet.ObjectType) bool {
	_, ok := s[objectType]
	return ok
}

func merge(groups ...Properties) Properties {
	out := make(Properties)
	for _, g := range groups {
		maps.Copy(out, g)
	}
	return out
}

var (
	bits           = BitStringType
	eventState     = EnumeratedType(eventStateEnum)
	reliability    = EnumeratedType(reliabilityEnum)
	units          = EnumeratedType(unitsEnum)
	notifyType     = EnumeratedType(notifyTypeEnum)
	binaryPV       = EnumeratedType(binaryPVEnum)
	priorityArray  = ArrayOf(Any)
	timeStamps     = ArrayOf(Any)
	messageTexts   = ArrayOf(StringType)
	propertyIDList = ArrayOf(EnumeratedType(propertyIdentifierEnum))
)

var commonProperties = Properties{
	bacnet.PropertyObjectIdentifier: ObjectIDType,
	bacnet.PropertyObjectName:       StringType,
	bacnet.PropertyObjectType:       EnumeratedType(objectTypeEnum),
	bacnet.PropertyDescription:      StringType,
	bacnet.PropertyProfileName:      StringType,
	bacnet.PropertyPropertyList:     propertyIDList,
}

var statusProperties = Properties{
	bacnet.PropertyStatusFlags:  bits,
	bacnet.PropertyEventState:   eventState,
	bacnet.PropertyReliability:  reliability,
	bacnet.PropertyOutOfService: BooleanType,
}

var intrinsicReporting = Properties{
	bacnet.PropertyTimeDelay:         UnsignedType,
	bacnet.PropertyNotificationClass: UnsignedType,
	bacnet.PropertyEventEnable:       bits,
	bacnet.PropertyAckedTransitions:  bits,
	bacnet.PropertyNotifyType:        notifyType,
	bacnet.PropertyEventTimeStamps:   timeStamps,
	bacnet.PropertyEventMessageTexts: messageTexts,
}

func analogProperties(pv Datatype) Properties {
	return Properties{
		bacnet.PropertyPresentValue:   pv,
		bacnet.PropertyUnits:          units,
		bacnet.PropertyMinPresValue:   pv,
		bacnet.PropertyMaxPresValue:   pv,
		bacnet.PropertyResolution:     pv,
		bacnet.PropertyCOVIncrement:   pv,
		bacnet.PropertyHighLimit:      pv,
		bacnet.PropertyLowLimit:       pv,
		bacnet.PropertyDeadband:       pv,
		bacnet.PropertyLimitEnable:    bits,
		bacnet.PropertyUpdateInterval: UnsignedType,
	}
}

func commandable(pv Datatype) Properties {
	return Properties{
		bacnet.PropertyPriorityArray:     priorityArray,
		bacnet.PropertyRelinquishDefault: pv,
	}
}

var binaryProperties = Properties{
	bacnet.PropertyPresentValue:          binaryPV,
	bacnet.PropertyInactiveText:          StringType,
	bacnet.PropertyActiveText:            StringType,
	bacnet.PropertyChangeOfStateTime:     Any,
	bacnet.PropertyChangeOfStateCount:    UnsignedType,
	bacnet.PropertyTimeOfStateCountReset: Any,
	bacnet.PropertyElapsedActiveTime:     UnsignedType,
	bacnet.PropertyTimeOfActiveTimeReset: Any,
}

var multiStateProperties = Properties{
	bacnet.PropertyPresentValue:   UnsignedType,
	bacnet.PropertyNumberOfStates: UnsignedType,
	bacnet.PropertyStateText:      ArrayOf(StringType),
}

var deviceProperties = Properties{
	bacnet.PropertySystemStatus:                  EnumeratedType(deviceStatusEnum),
	bacnet.PropertyVendorName:                    StringType,
	bacnet.PropertyVendorIdentifier:              UnsignedType,
	bacnet.PropertyModelName:                     StringType,
	bacnet.PropertyFirmwareRevision:              StringType,
	bacnet.PropertyApplicationSoftwareVersion:    StringType,
	bacnet.PropertyLocation:                      StringType,
	bacnet.PropertyProtocolVersion:               UnsignedType,
	bacnet.PropertyProtocolRevision:              UnsignedType,
	bacnet.PropertyProtocolServicesSupported:     bits,
	bacnet.PropertyProtocolObjectTypesSupported:  bits,
	bacnet.PropertyObjectList:                    ArrayOf(ObjectIDType),
	bacnet.PropertyStructuredObjectList:          ArrayOf(ObjectIDType),
	bacnet.PropertyMaxApduLengthAccepted:         UnsignedType,
	bacnet.PropertySegmentationSupported:         EnumeratedType(segmentationEnum),
	bacnet.PropertyMaxSegmentsAccepted:           UnsignedType,
	bacnet.PropertyLocalTime:                     TimeType,
	bacnet.PropertyLocalDate:                     DateType,
	bacnet.PropertyUtcOffset:                     IntegerType,
	bacnet.PropertyDaylightSavingsStatus:         BooleanType,
	bacnet.PropertyApduSegmentTimeout:            UnsignedType,
	bacnet.PropertyApduTimeout:                   UnsignedType,
	bacnet.PropertyNumberOfApduRetries:           UnsignedType,
	bacnet.PropertyDeviceAddressBinding:          ListOf(Any),
	bacnet.PropertyDatabaseRevision:              UnsignedType,
	bacnet.PropertyActiveCOVSubscriptions:        ListOf(Any),
	bacnet.PropertyTimeSynchronizationRecipients: ListOf(Any),
	bacnet.PropertyConfigurationFiles:            ArrayOf(ObjectIDType),
	bacnet.PropertyLastRestoreTime:               Any,
	bacnet.PropertyBackupFailureTimeout:          UnsignedType,
	bacnet.PropertyMaxMaster:                     UnsignedType,
	bacnet.PropertyMaxInfoFrames:                 UnsignedType,
}

var loopProperties = Properties{
	bacnet.PropertyPresentValue:                 RealType,
	bacnet.PropertyUpdateInterval:               UnsignedType,
	bacnet.PropertyOutputUnits:                  units,
	bacnet.PropertyManipulatedVariableReference: Any,
	bacnet.PropertyControlledVariableReference:  Any,
	bacnet.PropertyControlledVariableValue:      RealType,
	bacnet.PropertyControlledVariableUnits:      units,
	bacnet.PropertySetpointReference:            Any,
	bacnet.PropertySetpoint:                     RealType,
	bacnet.PropertyAction:                       EnumeratedType(actionEnum),
	bacnet.PropertyProportionalConstant:         RealType,
	bacnet.PropertyProportionalConstantUnits:    units,
	bacnet.PropertyIntegralConstant:             RealType,
	bacnet.PropertyIntegralConstantUnits:        units,
	bacnet.PropertyDerivativeConstant:           RealType,
	bacnet.PropertyDerivativeConstantUnits:      units,
	bacnet.PropertyBias:                         RealType,
	bacnet.PropertyMaximumOutput:                RealType,
	bacnet.PropertyMinimumOutput:                RealType,
	bacnet.PropertyPriorityForWriting:           UnsignedType,
	bacnet.PropertyCOVIncrement:                 RealType,
	bacnet.PropertyErrorLimit:                   RealType,
	bacnet.PropertyDeadband:                     RealType,
}

var accumulatorProperties = Properties{
	bacnet.PropertyPresentValue:            UnsignedType,
	bacnet.PropertyDeviceType:              StringType,
	bacnet.PropertyScale:                   Any,
	bacnet.PropertyUnits:                   units,
	bacnet.PropertyPrescale:                Any,
	bacnet.PropertyMaxPresValue:            UnsignedType,
	bacnet.PropertyValueChangeTime:         Any,
	bacnet.PropertyValueBeforeChange:       UnsignedType,
	bacnet.PropertyValueSet:                UnsignedType,
	bacnet.PropertyLoggingRecord:           Any,
	bacnet.PropertyLoggingObject:           ObjectIDType,
	bacnet.PropertyPulseRate:               UnsignedType,
	bacnet.PropertyHighLimit:               UnsignedType,
	bacnet.PropertyLowLimit:                UnsignedType,
	bacnet.PropertyLimitMonitoringInterval: UnsignedType,
	bacnet.PropertyLimitEnable:             bits,
}

var scheduleProperties = Properties{
	bacnet.PropertyPresentValue:                   Any,
	bacnet.PropertyEffectivePeriod:                Any,
	bacnet.PropertyWeeklySchedule:                 ArrayOf(Any),
	bacnet.PropertyExceptionSchedule:              ArrayOf(Any),
	bacnet.PropertyScheduleDefault:                Any,
	bacnet.PropertyListOfObjectPropertyReferences: ListOf(Any),
	bacnet.PropertyPriorityForWriting:             UnsignedType,
}

var calendarProperties = Properties{
	bacnet.PropertyPresentValue: BooleanType,
	bacnet.PropertyDateList:     ListOf(Any),
}

var notificationClassProperties = Properties{
	bacnet.PropertyNotificationClass: UnsignedType,
	bacnet.PropertyPriority:          ArrayOf(UnsignedType),
	bacnet.PropertyAckRequired:       bits,
	bacnet.PropertyRecipientList:     ListOf(Any),
}

var trendLogProperties = Properties{
	bacnet.PropertyLogEnable:                 BooleanType,
	bacnet.PropertyStartTime:                 Any,
	bacnet.PropertyStopTime:                  Any,
	bacnet.PropertyLogDeviceObjectProperty:   Any,
	bacnet.PropertyLogInterval:               UnsignedType,
	bacnet.PropertyCOVResubscriptionInterval: UnsignedType,
	bacnet.PropertyClientCovIncrement:        Any,
	bacnet.PropertyStopWhenFull:              BooleanType,
	bacnet.PropertyBufferSize:                UnsignedType,
	bacnet.PropertyLogBuffer:                 ListOf(Any),
	bacnet.PropertyRecordCount:               UnsignedType,
	bacnet.PropertyTotalRecordCount:          UnsignedType,
	bacnet.PropertyNotificationThreshold:     UnsignedType,
	bacnet.PropertyRecordsSinceNotification:  UnsignedType,
	bacnet.PropertyLastNotifyRecord:          UnsignedType,
}

var programProperties = Properties{
	bacnet.PropertyProgramState:      EnumeratedType(programStateEnum),
	bacnet.PropertyProgramChange:     Any,
	bacnet.PropertyReasonForHalt:     EnumeratedType(programErrorEnum),
	bacnet.PropertyDescriptionOfHalt: StringType,
	bacnet.PropertyProgramLocation:   StringType,
	bacnet.PropertyInstanceOf:        StringType,
}

var fileProperties = Properties{
	bacnet.PropertyFileType:         StringType,
	bacnet.PropertyFileSize:         UnsignedType,
	bacnet.PropertyModificationDate: Any,
	bacnet.PropertyArchive:          BooleanType,
	bacnet.PropertyReadOnly:         BooleanType,
	bacnet.PropertyFileAccessMethod: EnumeratedType(fileAccessMethodEnum),
}

var trendLogMultipleProperties = Properties{
	bacnet.PropertyLogEnable:   BooleanType,
	bacnet.PropertyLogInterval: UnsignedType,
	bacnet.PropertyBufferSize:  UnsignedType,
	bacnet.PropertyLogBuffer:   ListOf(Any),
	bacnet.PropertyRecordCount: UnsignedType,
}

func valueObject(pv Datatype) Properties {
	return merge(Properties{bacnet.PropertyPresentValue: pv}, statusProperties, commandable(pv))
}

// DefaultSchema returns the object/property table for the standard object
// types. Types without a detailed table expose the common properties
func DefaultSchema() Schema {
	s := make(Schema)
	for t := bacnet.ObjectType(0); t <= bacnet.MaxObjectType; t++ {
		if t.Known() {
			s[t] = merge(commonProperties)
		}
	}

	analog := analogProperties(RealType)
	s[bacnet.ObjectTypeAnalogInput] = merge(commonProperties, statusProperties, intrinsicReporting, analog,
		Properties{bacnet.PropertyDeviceType: StringType})
	s[bacnet.ObjectTypeAnalogOutput] = merge(commonProperties, statusProperties, intrinsicReporting, analog,
		commandable(RealType), Properties{bacnet.PropertyDeviceType: StringType})
	s[bacnet.ObjectTypeAnalogValue] = merge(commonProperties, statusProperties, intrinsicReporting, analog,
		commandable(RealType))

	s[bacnet.ObjectTypeBinaryInput] = merge(commonProperties, statusProperties, intrinsicReporting, binaryProperties,
		Properties{
			bacnet.PropertyPolarity:   EnumeratedType(polarityEnum),
			bacnet.PropertyAlarmValue: binaryPV,
			bacnet.PropertyDeviceType: StringType,
		})
	s[bacnet.ObjectTypeBinaryOutput] = merge(commonProperties, statusProperties, intrinsicReporting, binaryProperties,
		commandable(binaryPV), Properties{
			bacnet.PropertyPolarity:       EnumeratedType(polarityEnum),
			bacnet.PropertyFeedbackValue:  binaryPV,
			bacnet.PropertyMinimumOffTime: UnsignedType,
			bacnet.PropertyMinimumOnTime:  UnsignedType,
			bacnet.PropertyDeviceType:     StringType,
		})
	s[bacnet.ObjectTypeBinaryValue] = merge(commonProperties, statusProperties, intrinsicReporting, binaryProperties,
		commandable(binaryPV), Properties{
			bacnet.PropertyAlarmValue:     binaryPV,
			bacnet.PropertyMinimumOffTime: UnsignedType,
			bacnet.PropertyMinimumOnTime:  UnsignedType,
		})

	s[bacnet.ObjectTypeMultiStateInput] = merge(commonProperties, statusProperties, intrinsicReporting, multiStateProperties,
		Properties{
			bacnet.PropertyAlarmValues: ListOf(UnsignedType),
			bacnet.PropertyFaultValues: ListOf(UnsignedType),
			bacnet.PropertyDeviceType:  StringType,
		})
	s[bacnet.ObjectTypeMultiStateOutput] = merge(commonProperties, statusProperties, intrinsicReporting, multiStateProperties,
		commandable(UnsignedType), Properties{
			bacnet.PropertyFeedbackValue: UnsignedType,
			bacnet.PropertyDeviceType:    StringType,
		})
	s[bacnet.ObjectTypeMultiStateValue] = merge(commonProperties, statusProperties, intrinsicReporting, multiStateProperties,
		commandable(UnsignedType), Properties{
			bacnet.PropertyAlarmValues: ListOf(UnsignedType),
			bacnet.PropertyFaultValues: ListOf(UnsignedType),
		})

	s[bacnet.ObjectTypeIntegerValue] = merge(commonProperties, intrinsicReporting, valueObject(IntegerType),
		analogProperties(IntegerType), Properties{
			bacnet.PropertyCOVIncrement: UnsignedType,
			bacnet.PropertyDeadband:     UnsignedType,
		})
	s[bacnet.ObjectTypePositiveIntegerValue] = merge(commonProperties, intrinsicReporting, valueObject(UnsignedType),
		analogProperties(UnsignedType))
	s[bacnet.ObjectTypeLargeAnalogValue] = merge(commonProperties, intrinsicReporting, valueObject(DoubleType),
		analogProperties(DoubleType))
	s[bacnet.ObjectTypeCharacterStringValue] = merge(commonProperties, intrinsicReporting, valueObject(StringType),
		Properties{
			bacnet.PropertyAlarmValues: ListOf(Any),
			bacnet.PropertyFaultValues: ListOf(Any),
		})

	s[bacnet.ObjectTypeAccumulator] = merge(commonProperties, statusProperties, intrinsicReporting, accumulatorProperties)
	s[bacnet.ObjectTypeLoop] = merge(commonProperties, statusProperties, intrinsicReporting, loopProperties)
	s[bacnet.ObjectTypeSchedule] = merge(commonProperties, statusProperties, scheduleProperties)
	s[bacnet.ObjectTypeCalendar] = merge(commonProperties, calendarProperties)
	s[bacnet.ObjectTypeNotificationClass] = merge(commonProperties, notificationClassProperties)
	s[bacnet.ObjectTypeTrendLog] = merge(commonProperties, statusProperties, intrinsicReporting, trendLogProperties)
	s[bacnet.ObjectTypeTrendLogMultiple] = merge(commonProperties, statusProperties, trendLogMultipleProperties)
	s[bacnet.ObjectTypeProgram] = merge(commonProperties, statusProperties, programProperties)
	s[bacnet.ObjectTypeFile] = merge(commonProperties, fileProperties)
	s[bacnet.ObjectTypeDevice] = merge(commonProperties, deviceProperties)

	return s
}
