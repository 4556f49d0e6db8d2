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
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// ErrConnectTimeout is returned when the broker does not accept the
// connection in time
var ErrConnectTimeout = errors.New("uplink: broker connect timed out")

// MQTTConfig configures the MQTT publisher
type MQTTConfig struct {
	Broker         string // e.g. tcp://127.0.0.1:1883
	ClientID       string
	Username       string
	Password       string
	QoS            byte
	Retain         bool
	ConnectTimeout time.Duration
}

// MQTTPublisher publishes payloads to an MQTT broker
type MQTTPublisher struct {
	client mqtt.Client
	cfg    MQTTConfig
	log    logrus.FieldLogger
}

// NewMQTTPublisher creates a publisher. Call Connect before Publish
func NewMQTTPublisher(cfg MQTTConfig, log logrus.FieldLogger) *MQTTPublisher {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("broker", cfg.Broker)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetOrderMatters(false)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.WithError(err).Warn("mqtt connection lost")
	})
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info("mqtt connected")
	})

	return &MQTTPublisher{client: mqtt.NewClient(opts), cfg: cfg, log: log}
}

// Connect connects to the broker
func (p *MQTTPublisher) Connect() error {
	token := p.client.Connect()
	if !token.WaitTimeout(p.cfg.ConnectTimeout) {
		return ErrConnectTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("uplink: connect %s: %w", p.cfg.Broker, err)
	}
	return nil
}

// Publish implements Publisher
func (p *MQTTPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	token := p.client.Publish(topic, p.cfg.QoS, p.cfg.Retain, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects from the broker
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
