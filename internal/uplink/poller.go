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

// Package uplink periodically reads a fixed set of properties from one
// device and forwards the readings to a message broker
package uplink

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/edgeo-scada/bacnet-gateway/bacnet"
	"github.com/edgeo-scada/bacnet-gateway/gateway"
)

// DefaultInterval is the polling period when none is configured
const DefaultInterval = time.Minute

// Reader issues batched reads
type Reader interface {
	ReadMultiple(ctx context.Context, p gateway.BatchParams) (*gateway.DecodedResult, error)
}

// Publisher delivers a payload to a topic
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Config describes what to poll and where to send it
type Config struct {
	Address  string
	Objects  []gateway.ObjectProperty
	Topic    string
	Interval time.Duration
	Timeout  time.Duration
}

// Reading is the message published for each successful poll
type Reading struct {
	Address   string          `json:"address"`
	Timestamp time.Time       `json:"timestamp"`
	Values    json.RawMessage `json:"values"`
}

// Stats counts poll outcomes
type Stats struct {
	Polls         bacnet.Counter
	ReadFailures  bacnet.Counter
	Published     bacnet.Counter
	PublishErrors bacnet.Counter
}

// Poller reads Config.Objects every Config.Interval and publishes the
// decoded result. A failed poll is logged and retried on the next tick
type Poller struct {
	reader    Reader
	publisher Publisher
	cfg       Config
	log       logrus.FieldLogger
	stats     Stats
	now       func() time.Time
}

// NewPoller creates a poller
func NewPoller(reader Reader, publisher Publisher, cfg Config, log logrus.FieldLogger) (*Poller, error) {
	if len(cfg.Objects) == 0 {
		return nil, &gateway.ValidationError{Kind: gateway.EmptyBatchRequest}
	}
	if cfg.Topic == "" {
		return nil, errors.New("uplink: no topic configured")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Poller{
		reader:    reader,
		publisher: publisher,
		cfg:       cfg,
		log:       log.WithFields(logrus.Fields{"address": cfg.Address, "topic": cfg.Topic}),
		now:       time.Now,
	}, nil
}

// Stats returns the poll counters
func (p *Poller) Stats() *Stats {
	return &p.stats
}

// Run polls immediately and then on every tick until ctx is done
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.log.WithField("interval", p.cfg.Interval).Info("uplink poller started")
	for {
		if err := p.Poll(ctx); err != nil && ctx.Err() == nil {
			p.log.WithError(err).Warn("poll failed")
		}

		select {
		case <-ctx.Done():
			p.log.Info("uplink poller stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Poll performs one read and publishes the result
func (p *Poller) Poll(ctx context.Context) error {
	p.stats.Polls.Inc()

	res, err := p.reader.ReadMultiple(ctx, gateway.BatchParams{
		Address: p.cfg.Address,
		Objects: p.cfg.Objects,
		Timeout: p.cfg.Timeout,
	})
	if err != nil {
		p.stats.ReadFailures.Inc()
		return err
	}

	values, err := res.MarshalJSON()
	if err != nil {
		p.stats.ReadFailures.Inc()
		return err
	}
	payload, err := json.Marshal(Reading{
		Address:   p.cfg.Address,
		Timestamp: p.now().UTC(),
		Values:    values,
	})
	if err != nil {
		return err
	}

	if err := p.publisher.Publish(ctx, p.cfg.Topic, payload); err != nil {
		p.stats.PublishErrors.Inc()
		return err
	}
	p.stats.Published.Inc()
	p.log.WithField("properties", res.Count()).Debug("published reading")
	return nil
}
