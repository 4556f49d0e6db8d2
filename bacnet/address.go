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
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ParseAddress parses a BACnet/IP station address. Accepted forms are
// "a.b.c.d", "a.b.c.d:port" and "a.b.c.d/prefix[:port]"; the port defaults
// to 47808. Host names are not resolved
func ParseAddress(s string) (*net.UDPAddr, error) {
	host, port := s, DefaultPort

	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		p, err := strconv.ParseUint(s[i+1:], 10, 16)
		if err != nil || p == 0 {
			return nil, fmt.Errorf("%w: bad port in %q", ErrInvalidAddress, s)
		}
		host, port = s[:i], int(p)
	}

	if i := strings.IndexByte(host, '/'); i >= 0 {
		bits, err := strconv.Atoi(host[i+1:])
		if err != nil || bits < 0 || bits > 32 {
			return nil, fmt.Errorf("%w: bad network prefix in %q", ErrInvalidAddress, s)
		}
		host = host[:i]
	}

	ip := net.ParseIP(host).To4()
	if ip == nil {
		return nil, fmt.Errorf("%w: %q is not an IPv4 address", ErrInvalidAddress, s)
	}

	return &net.UDPAddr{IP: ip, Port: port}, nil
}
