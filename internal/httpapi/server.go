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

// Package httpapi exposes the gateway over HTTP
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/edgeo-scada/bacnet-gateway/bacnet"
	"github.com/edgeo-scada/bacnet-gateway/gateway"
)

// Gateway is the part of gateway.Gateway the server calls
type Gateway interface {
	Read(ctx context.Context, p gateway.ReadParams) (*gateway.DecodedResult, error)
	ReadMultiple(ctx context.Context, p gateway.BatchParams) (*gateway.DecodedResult, error)
	WhoIs(ctx context.Context, args ...string) error
	Metrics() *gateway.TrackerMetrics
}

type serverOptions struct {
	logger            logrus.FieldLogger
	clientMetrics     *bacnet.Metrics
	readHeaderTimeout time.Duration
	maxBodyBytes      int64
}

// Option configures a Server
type Option func(*serverOptions)

// WithLogger sets the access and lifecycle logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *serverOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClientMetrics adds the BACnet client counters to /metrics
func WithClientMetrics(m *bacnet.Metrics) Option {
	return func(o *serverOptions) {
		o.clientMetrics = m
	}
}

// WithReadHeaderTimeout bounds how long a client may take to send headers
func WithReadHeaderTimeout(d time.Duration) Option {
	return func(o *serverOptions) {
		if d > 0 {
			o.readHeaderTimeout = d
		}
	}
}

// Server routes HTTP requests to a Gateway
type Server struct {
	gw     Gateway
	opts   serverOptions
	log    logrus.FieldLogger
	router *mux.Router
}

// New creates a server in front of gw
func New(gw Gateway, opts ...Option) *Server {
	o := serverOptions{
		logger:            logrus.StandardLogger(),
		readHeaderTimeout: 10 * time.Second,
		maxBodyBytes:      1 << 20,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{gw: gw, opts: o, log: o.logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestID, s.accessLog)

	r.HandleFunc("/", s.handleProbe).Methods(http.MethodHead)
	r.HandleFunc("/favicon.ico", s.handleFavicon)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	r.HandleFunc("/read/{address}/{object}", s.handleRead).Methods(http.MethodGet)
	r.HandleFunc("/read/{address}/{object}/{property}", s.handleRead).Methods(http.MethodGet)
	r.HandleFunc("/read/{address}/{object}/{property}/{index}", s.handleRead).Methods(http.MethodGet)

	r.HandleFunc("/readpropertymultiple", s.handleReadMultiple)
	r.PathPrefix("/readpropertymultiple/").HandlerFunc(s.handleReadMultiple)

	r.HandleFunc("/whois", s.handleWhoIs)
	r.PathPrefix("/whois/").HandlerFunc(s.handleWhoIs)

	// last, so that unknown paths and wrong methods still pass the middleware
	r.PathPrefix("/").HandlerFunc(s.handleUnknown)
	return r
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on l until ctx is done, then shuts down
// gracefully
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.opts.readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", l.Addr().String()).Info("http server listening")
		errCh <- srv.Serve(l)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("http server stopped")
	return nil
}

// ListenAndServe listens on addr and calls Serve
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}
