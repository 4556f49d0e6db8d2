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

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeo-scada/bacnet-gateway/bacnet"
	"github.com/edgeo-scada/bacnet-gateway/gateway"
)

func TestNewFormatterRejectsUnknownFormat(t *testing.T) {
	_, err := NewFormatter("csv")
	assert.EqualError(t, err, `unknown output format "csv"`)
}

func TestPrintResultJSON(t *testing.T) {
	f, err := NewFormatter("json")
	require.NoError(t, err)
	var buf bytes.Buffer
	f.writer = &buf

	res := &gateway.DecodedResult{Single: &gateway.PropertyResult{
		Property: bacnet.PropertyPresentValue,
		Value:    gateway.Real(72.5),
	}}
	require.NoError(t, f.PrintResult("analogValue:1", res))
	assert.Equal(t, "{\"value\": 72.5}\n", buf.String())
}

func TestPrintResultTable(t *testing.T) {
	f, err := NewFormatter("table")
	require.NoError(t, err)
	var buf bytes.Buffer
	f.writer = &buf

	index := uint32(0)
	res := &gateway.DecodedResult{Objects: []gateway.ObjectResult{{
		Object: bacnet.NewObjectIdentifier(bacnet.ObjectTypeAnalogValue, 1),
		Properties: []gateway.PropertyResult{
			{Property: bacnet.PropertyPresentValue, Value: gateway.Real(21)},
			{Property: bacnet.PropertyPriorityArray, ArrayIndex: &index, Value: gateway.Unsigned(16)},
		},
	}}}
	require.NoError(t, f.PrintResult("", res))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 4)
	assert.Contains(t, string(lines[0]), "OBJECT")
	assert.Contains(t, string(lines[2]), "('analogValue', 1)")
	assert.Contains(t, string(lines[2]), "21.0")
	assert.Contains(t, string(lines[3]), "priorityArray")
	assert.Contains(t, string(lines[3]), "16")
}
