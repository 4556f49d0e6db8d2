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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueJSON(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"real with fraction", Real(72.5), "72.5"},
		{"whole real keeps fraction", Real(1), "1.0"},
		{"negative real", Real(-4), "-4.0"},
		{"zero real", Real(0), "0.0"},
		{"large real", Real(1e20), "1e+20"},
		{"small real", Real(0.00001), "1e-05"},
		{"nan", Real(math.NaN()), `"NaN"`},
		{"infinity", Real(math.Inf(-1)), `"-Infinity"`},
		{"integer", Integer(-12), "-12"},
		{"unsigned", Unsigned(4000000000), "4000000000"},
		{"string", String(`say "hi"`), `"say \"hi\""`},
		{"boolean", Boolean(true), "true"},
		{"enumerated", Enumerated("active"), `"active"`},
		{"sequence", Sequence(Integer(1), Integer(0), Real(2)), "[1, 0, 2.0]"},
		{"empty sequence", Sequence(), "[]"},
		{"invalid", Value{}, "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.value)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))
			assert.Equal(t, tt.want, tt.value.String())
		})
	}
}

func TestValueEqual(t *testing.T) {
	assert.True(t, Sequence(Enumerated("analogValue"), Unsigned(1)).Equal(Sequence(Enumerated("analogValue"), Unsigned(1))))
	assert.False(t, Integer(1).Equal(Unsigned(1)))
	assert.False(t, Sequence(Integer(1)).Equal(Sequence(Integer(1), Integer(2))))
	assert.True(t, Real(math.NaN()).Equal(Real(math.NaN())))
}
