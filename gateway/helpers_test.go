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
	"context"
	"sync"

	"github.com/edgeo-scada/bacnet-gateway/bacnet"
)

// fakeNetwork answers requests with reply. A nil reply never completes
type fakeNetwork struct {
	mu      sync.Mutex
	sent    []*ReadRequest
	reply   func(req *ReadRequest) (*bacnet.APDU, error)
	sendErr error
}

func (n *fakeNetwork) Send(ctx context.Context, req *ReadRequest, complete func(*bacnet.APDU, error)) error {
	n.mu.Lock()
	n.sent = append(n.sent, req)
	n.mu.Unlock()

	if n.sendErr != nil {
		return n.sendErr
	}
	if n.reply != nil {
		go func() { complete(n.reply(req)) }()
	}
	return nil
}

func (n *fakeNetwork) requests() []*ReadRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*ReadRequest(nil), n.sent...)
}

func complexAck(service bacnet.ConfirmedServiceChoice, data []byte) *bacnet.APDU {
	return &bacnet.APDU{Type: bacnet.PDUTypeComplexAck, Service: uint8(service), Data: data}
}

// readPropertyAck builds the ack for a single read of value
func readPropertyAck(oid bacnet.ObjectIdentifier, prop bacnet.PropertyIdentifier, index *uint32, value []byte) *bacnet.APDU {
	data := bacnet.EncodeContextObjectIdentifier(0, oid)
	data = append(data, bacnet.EncodeContextEnumerated(1, uint32(prop))...)
	if index != nil {
		data = append(data, bacnet.EncodeContextUnsigned(2, *index)...)
	}
	data = append(data, bacnet.EncodeOpeningTag(3)...)
	data = append(data, value...)
	data = append(data, bacnet.EncodeClosingTag(3)...)
	return complexAck(bacnet.ServiceReadProperty, data)
}

// ackResult is one property result of a ReadPropertyMultiple ack. Either
// value or err is set
type ackResult struct {
	prop  bacnet.PropertyIdentifier
	index *uint32
	value []byte
	err   *bacnet.BACnetError
}

type ackObject struct {
	oid     bacnet.ObjectIdentifier
	results []ackResult
}

func rpmAck(objects ...ackObject) *bacnet.APDU {
	var data []byte
	for _, obj := range objects {
		data = append(data, bacnet.EncodeContextObjectIdentifier(0, obj.oid)...)
		data = append(data, bacnet.EncodeOpeningTag(1)...)
		for _, res := range obj.results {
			data = append(data, bacnet.EncodeContextEnumerated(2, uint32(res.prop))...)
			if res.index != nil {
				data = append(data, bacnet.EncodeContextUnsigned(3, *res.index)...)
			}
			if res.err != nil {
				data = append(data, bacnet.EncodeOpeningTag(5)...)
				data = append(data, bacnet.EncodeEnumeratedTag(uint32(res.err.Class))...)
				data = append(data, bacnet.EncodeEnumeratedTag(uint32(res.err.Code))...)
				data = append(data, bacnet.EncodeClosingTag(5)...)
				continue
			}
			data = append(data, bacnet.EncodeOpeningTag(4)...)
			data = append(data, res.value...)
			data = append(data, bacnet.EncodeClosingTag(4)...)
		}
		data = append(data, bacnet.EncodeClosingTag(1)...)
	}
	return complexAck(bacnet.ServiceReadPropertyMultiple, data)
}

func av(instance uint32) bacnet.ObjectIdentifier {
	return bacnet.NewObjectIdentifier(bacnet.ObjectTypeAnalogValue, instance)
}

func index(n uint32) *uint32 { return &n }
