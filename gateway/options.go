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
	"log/slog"
	"time"
)

// DefaultMaxTimeout caps per-request timeout overrides
const DefaultMaxTimeout = 60 * time.Second

type gatewayOptions struct {
	timeout    time.Duration
	maxTimeout time.Duration
	schema     Schema
	logger     *slog.Logger
}

func defaultOptions() *gatewayOptions {
	return &gatewayOptions{
		timeout:    DefaultTimeout,
		maxTimeout: DefaultMaxTimeout,
		logger:     slog.Default(),
	}
}

// Option is a functional option for configuring the gateway
type Option func(*gatewayOptions)

// WithTimeout sets the dispatch timeout used when a request has none
func WithTimeout(d time.Duration) Option {
	return func(o *gatewayOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMaxTimeout caps per-request timeouts
func WithMaxTimeout(d time.Duration) Option {
	return func(o *gatewayOptions) {
		if d > 0 {
			o.maxTimeout = d
		}
	}
}

// WithSchema replaces the default object/property table
func WithSchema(s Schema) Option {
	return func(o *gatewayOptions) {
		o.schema = s
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *gatewayOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
