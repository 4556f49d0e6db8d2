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

package uplink

import (
	"context"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestMQTTPublisherNotConnected(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	p := NewMQTTPublisher(MQTTConfig{Broker: "tcp://127.0.0.1:1", ClientID: "bacnet-gateway-test"}, logger)
	assert.Equal(t, 10*time.Second, p.cfg.ConnectTimeout)

	err := p.Publish(context.Background(), "site/bacnet", []byte("{}"))
	assert.ErrorIs(t, err, mqtt.ErrNotConnected)
	assert.NoError(t, p.Close())
}
