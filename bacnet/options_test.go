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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithBBMDClampsTTL(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
		want time.Duration
	}{
		{"default on zero", 0, 15 * time.Minute},
		{"default on negative", -time.Second, 15 * time.Minute},
		{"below minimum", time.Nanosecond, 2 * time.Second},
		{"in range", 10 * time.Minute, 10 * time.Minute},
		{"above field width", 24 * time.Hour, 65535 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			WithBBMD("192.168.1.1", 0, tt.ttl)(o)
			assert.Equal(t, tt.want, o.foreignDeviceTTL)
			assert.Equal(t, DefaultPort, o.bbmdPort)
			assert.Positive(t, o.foreignDeviceTTL/2)
		})
	}
}

func TestMaxAPDUCode(t *testing.T) {
	tests := []struct {
		length uint16
		want   uint8
	}{
		{1476, 5},
		{1024, 4},
		{480, 3},
		{206, 2},
		{128, 1},
		{50, 0},
	}

	for _, tt := range tests {
		o := defaultOptions()
		WithMaxAPDULength(tt.length)(o)
		assert.Equal(t, tt.want, o.maxAPDUCode(), "length %d", tt.length)
	}
}
