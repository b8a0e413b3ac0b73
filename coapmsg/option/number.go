// Copyright 2024 tobyzxj
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package option implements the CoAP option value layer and the
// fifteen-entry RFC 7252 baseline option catalogue: delta+length
// header encoding, the typed value wrapper, and per-option validation.
package option

import "strconv"

// Number identifies an option within a message. The low bit
// distinguishes critical (odd) from elective (even) options per
// RFC 7252 §5.4.6.
type Number uint16

const (
	IfMatch       Number = 1
	URIHost       Number = 3
	ETag          Number = 4
	IfNoneMatch   Number = 5
	URIPort       Number = 7
	LocationPath  Number = 8
	URIPath       Number = 11
	ContentFormat Number = 12
	MaxAge        Number = 14
	URIQuery      Number = 15
	Accept        Number = 17
	LocationQuery Number = 20
	ProxyURI      Number = 35
	ProxyScheme   Number = 39
	Size1         Number = 60
)

var numberToString = map[Number]string{
	IfMatch:       "If-Match",
	URIHost:       "Uri-Host",
	ETag:          "ETag",
	IfNoneMatch:   "If-None-Match",
	URIPort:       "Uri-Port",
	LocationPath:  "Location-Path",
	URIPath:       "Uri-Path",
	ContentFormat: "Content-Format",
	MaxAge:        "Max-Age",
	URIQuery:      "Uri-Query",
	Accept:        "Accept",
	LocationQuery: "Location-Query",
	ProxyURI:      "Proxy-Uri",
	ProxyScheme:   "Proxy-Scheme",
	Size1:         "Size1",
}

func (n Number) String() string {
	if name, ok := numberToString[n]; ok {
		return name
	}
	return "Option(" + strconv.FormatUint(uint64(n), 10) + ")"
}

// IsCritical reports whether an unrecognized occurrence of n must
// fail decoding (RFC 7252 §5.4.6: bit 0 of the option number).
func (n Number) IsCritical() bool {
	return n&1 == 1
}
