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

import "github.com/edgeo-scada/bacnet-gateway/bacnet"

// Enumeration maps the values of an enumerated datatype to their labels
type Enumeration struct {
	Name   string
	labels map[uint32]string
	values map[string]uint32
}

// NewEnumeration builds an enumeration from value labels
func NewEnumeration(name string, labels map[uint32]string) *Enumeration {
	e := &Enumeration{Name: name, labels: labels, values: make(map[string]uint32, len(labels))}
	for n, label := range labels {
		e.values[label] = n
	}
	return e
}

// Label returns the label of n. A nil Enumeration has no labels
func (e *Enumeration) Label(n uint32) (string, bool) {
	if e == nil {
		return "", false
	}
	label, ok := e.labels[n]
	return label, ok
}

// Value returns the number behind label
func (e *Enumeration) Value(label string) (uint32, bool) {
	if e == nil {
		return 0, false
	}
	n, ok := e.values[label]
	return n, ok
}

func enumFromSequence(name string, labels ...string) *Enumeration {
	m := make(map[uint32]string, len(labels))
	for i, label := range labels {
		m[uint32(i)] = label
	}
	return NewEnumeration(name, m)
}

var (
	binaryPVEnum = enumFromSequence("BinaryPV", "inactive", "active")

	polarityEnum = enumFromSequence("Polarity", "normal", "reverse")

	actionEnum = enumFromSequence("Action", "direct", "reverse")

	notifyTypeEnum = enumFromSequence("NotifyType", "alarm", "event", "ackNotification")

	eventStateEnum = enumFromSequence("EventState",
		"normal", "fault", "offnormal", "highLimit", "lowLimit", "lifeSafetyAlarm")

	segmentationEnum = enumFromSequence("Segmentation",
		"segmentedBoth", "segmentedTransmit", "segmentedReceive", "noSegmentation")

	deviceStatusEnum = enumFromSequence("DeviceStatus",
		"operational", "operationalReadOnly", "downloadRequired",
		"downloadInProgress", "nonOperational", "backupInProgress")

	programStateEnum = enumFromSequence("ProgramState",
		"idle", "loading", "running", "waiting", "halted", "unloading")

	programErrorEnum = enumFromSequence("ProgramError",
		"normal", "loadFailed", "internal", "program", "other")

	fileAccessMethodEnum = enumFromSequence("FileAccessMethod", "recordAccess", "streamAccess")

	reliabilityEnum = NewEnumeration("Reliability", map[uint32]string{
		0:  "noFaultDetected",
		1:  "noSensor",
		2:  "overRange",
		3:  "underRange",
		4:  "openLoop",
		5:  "shortedLoop",
		6:  "noOutput",
		7:  "unreliableOther",
		8:  "processError",
		9:  "multiStateFault",
		10: "configurationError",
		12: "communicationFailure",
		13: "memberFault",
	})

	unitsEnum = enumFromSequence("EngineeringUnits",
		"squareMeters", "squareFeet", "milliamperes", "amperes", "ohms",
		"volts", "kilovolts", "megavolts", "voltAmperes", "kilovoltAmperes",
		"megavoltAmperes", "voltAmperesReactive", "kilovoltAmperesReactive",
		"megavoltAmperesReactive", "degreesPhase", "powerFactor", "joules",
		"kilojoules", "wattHours", "kilowattHours", "btus", "therms",
		"tonHours", "joulesPerKilogramDryAir", "btusPerPoundDryAir",
		"cyclesPerHour", "cyclesPerMinute", "hertz",
		"gramsOfWaterPerKilogramDryAir", "percentRelativeHumidity",
		"millimeters", "meters", "inches", "feet", "wattsPerSquareFoot",
		"wattsPerSquareMeter", "lumens", "luxes", "footCandles", "kilograms",
		"poundsMass", "tons", "kilogramsPerSecond", "kilogramsPerMinute",
		"kilogramsPerHour", "poundsMassPerMinute", "poundsMassPerHour",
		"watts", "kilowatts", "megawatts", "btusPerHour", "horsepower",
		"tonsRefrigeration", "pascals", "kilopascals", "bars",
		"poundsForcePerSquareInch", "centimetersOfWater", "inchesOfWater",
		"millimetersOfMercury", "centimetersOfMercury", "inchesOfMercury",
		"degreesCelsius", "degreesKelvin", "degreesFahrenheit",
		"degreeDaysCelsius", "degreeDaysFahrenheit", "years", "months",
		"weeks", "days", "hours", "minutes", "seconds", "metersPerSecond",
		"kilometersPerHour", "feetPerSecond", "feetPerMinute", "milesPerHour",
		"cubicFeet", "cubicMeters", "imperialGallons", "liters", "usGallons",
		"cubicFeetPerMinute", "cubicMetersPerSecond",
		"imperialGallonsPerMinute", "litersPerSecond", "litersPerMinute",
		"usGallonsPerMinute", "degreesAngular", "degreesCelsiusPerHour",
		"degreesCelsiusPerMinute", "degreesFahrenheitPerHour",
		"degreesFahrenheitPerMinute", "noUnits", "partsPerMillion",
		"partsPerBillion", "percent", "percentPerSecond", "perMinute",
		"perSecond", "psiPerDegreeFahrenheit", "radians",
		"revolutionsPerMinute")

	objectTypeEnum = func() *Enumeration {
		m := make(map[uint32]string)
		for t := bacnet.ObjectType(0); t <= bacnet.MaxObjectType; t++ {
			if t.Known() {
				m[uint32(t)] = t.String()
			}
		}
		return NewEnumeration("ObjectType", m)
	}()

	propertyIdentifierEnum = func() *Enumeration {
		m := make(map[uint32]string)
		for p := bacnet.PropertyIdentifier(0); p < 512; p++ {
			if p.Known() {
				m[uint32(p)] = p.String()
			}
		}
		return NewEnumeration("PropertyIdentifier", m)
	}()
)
