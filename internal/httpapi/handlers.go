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

package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/edgeo-scada/bacnet-gateway/bacnet"
	"github.com/edgeo-scada/bacnet-gateway/gateway"
)

// TimeoutHeader overrides the dispatch timeout of one request, in seconds
const TimeoutHeader = "X-bacnet-timeout"

const (
	msgUnknownRequest = "'read' (GET) or 'readpropertymultiple' (POST) expected"
	msgMustBePost     = "'readpropertymultiple' API request must be POST request"
	msgWhoIs          = "WhoIs not implemented"
)

// batchBody is the JSON body of a batched read
type batchBody struct {
	Address *string                   `json:"address"`
	Objects *[]gateway.ObjectProperty `json:"bacnet_objects"`
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	params := gateway.ReadParams{
		Address:  vars["address"],
		Object:   vars["object"],
		Property: vars["property"],
		Timeout:  requestTimeout(r),
	}

	if raw, ok := vars["index"]; ok {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			writeResult(w, nil, fmt.Errorf("invalid array index %q", raw))
			return
		}
		index := uint32(n)
		params.ArrayIndex = &index
	}

	res, err := s.gw.Read(r.Context(), params)
	if err != nil {
		s.logFailure(r, err)
	}
	writeResult(w, res, err)
}

func (s *Server) handleReadMultiple(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeText(w, http.StatusMethodNotAllowed, msgMustBePost)
		return
	}

	var body batchBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeText(w, http.StatusBadRequest, "bad request format: "+err.Error())
		return
	}
	switch {
	case body.Objects == nil:
		writeText(w, http.StatusBadRequest, `bad request format, "bacnet_objects" must be a key in the request body JSON object`)
		return
	case body.Address == nil:
		writeText(w, http.StatusBadRequest, `bad request format, "address" must be a key in the request body JSON object`)
		return
	}

	res, err := s.gw.ReadMultiple(r.Context(), gateway.BatchParams{
		Address: *body.Address,
		Objects: *body.Objects,
		Timeout: requestTimeout(r),
	})
	if errors.Is(err, gateway.ErrValidation) {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logFailure(r, err)
	}
	writeResult(w, res, err)
}

func (s *Server) handleWhoIs(w http.ResponseWriter, r *http.Request) {
	args := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/whois"), "/"), "/")
	if err := s.gw.WhoIs(r.Context(), args...); errors.Is(err, gateway.ErrNotImplemented) {
		writeText(w, http.StatusNotImplemented, msgWhoIs)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleFavicon(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnknown(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusBadRequest, msgUnknownRequest)
}

// metricsBody is the /metrics document
type metricsBody struct {
	Gateway gateway.TrackerSnapshot `json:"gateway"`
	Client  *bacnet.MetricsSnapshot `json:"client,omitempty"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	body := metricsBody{Gateway: s.gw.Metrics().Snapshot()}
	if s.opts.clientMetrics != nil {
		snap := s.opts.clientMetrics.Snapshot()
		body.Client = &snap
	}

	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	e := json.NewEncoder(w)
	e.SetIndent("", "    ")
	if err := e.Encode(body); err != nil {
		s.log.WithError(err).Warn("encode metrics")
	}
}

func (s *Server) logFailure(r *http.Request, err error) {
	s.log.WithFields(logrus.Fields{
		"path":       r.URL.Path,
		"request_id": RequestID(r.Context()),
	}).WithError(err).Debug("read failed")
}

// requestTimeout reads the timeout header. Missing or unusable values select
// the gateway default
func requestTimeout(r *http.Request) time.Duration {
	raw := r.Header.Get(TimeoutHeader)
	if raw == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || secs <= 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return 0
	}
	if secs > math.MaxInt64/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(secs * float64(time.Second))
}

// writeResult answers a read with 202 and the result body, or the error as
// {"error": "..."}
func writeResult(w http.ResponseWriter, res *gateway.DecodedResult, err error) {
	var body []byte
	if err == nil {
		body, err = res.MarshalJSON()
	}
	if err != nil {
		body = errorBody(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	w.Write(body)
}

func errorBody(err error) []byte {
	msg, _ := json.Marshal(err.Error())
	return []byte(`{"error": ` + string(msg) + `}`)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	w.Write([]byte(msg))
}
