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

package option

// Format is the wire value format of an option (RFC 7252 §3.2).
type Format uint8

const (
	FormatEmpty Format = iota
	FormatOpaque
	FormatUint
	FormatString
)

// Def is one row of the option catalogue: length bounds and value
// format. Repeatable and Critical are derived separately (Repeatable
// is catalogue metadata; Critical follows from Number.IsCritical()).
type Def struct {
	Format     Format
	MinLen     int
	MaxLen     int
	Repeatable bool
}

// Catalogue is the single source of truth for option decoding and
// validation: the fifteen RFC 7252 baseline options, their value
// format, and their length bounds (RFC 7252 §5.10).
var Catalogue = map[Number]Def{
	IfMatch:       {Format: FormatOpaque, MinLen: 0, MaxLen: 8, Repeatable: true},
	URIHost:       {Format: FormatString, MinLen: 1, MaxLen: 255, Repeatable: false},
	ETag:          {Format: FormatOpaque, MinLen: 1, MaxLen: 8, Repeatable: true},
	IfNoneMatch:   {Format: FormatEmpty, MinLen: 0, MaxLen: 0, Repeatable: false},
	URIPort:       {Format: FormatUint, MinLen: 0, MaxLen: 2, Repeatable: false},
	LocationPath:  {Format: FormatString, MinLen: 0, MaxLen: 255, Repeatable: true},
	URIPath:       {Format: FormatString, MinLen: 0, MaxLen: 255, Repeatable: true},
	ContentFormat: {Format: FormatUint, MinLen: 0, MaxLen: 2, Repeatable: false},
	MaxAge:        {Format: FormatUint, MinLen: 0, MaxLen: 4, Repeatable: false},
	URIQuery:      {Format: FormatString, MinLen: 0, MaxLen: 255, Repeatable: true},
	Accept:        {Format: FormatUint, MinLen: 0, MaxLen: 2, Repeatable: false},
	LocationQuery: {Format: FormatString, MinLen: 0, MaxLen: 255, Repeatable: true},
	ProxyURI:      {Format: FormatString, MinLen: 1, MaxLen: 1034, Repeatable: false},
	ProxyScheme:   {Format: FormatString, MinLen: 1, MaxLen: 255, Repeatable: false},
	Size1:         {Format: FormatUint, MinLen: 0, MaxLen: 4, Repeatable: false},
}

// DefaultMaxAge is the value assumed for an absent Max-Age option
// (RFC 7252 §5.10.5).
const DefaultMaxAge = 60

// VerifyLen reports whether valueLen is within the catalogue's bounds
// for number. Unknown numbers report false.
func VerifyLen(number Number, valueLen int) bool {
	def, ok := Catalogue[number]
	if !ok {
		return false
	}
	return valueLen >= def.MinLen && valueLen <= def.MaxLen
}

// allowList is the set of critical options each request method may
// carry; an option not in a method's list and not elective fails
// construction.
var allowList = map[string]map[Number]bool{
	"GET": {
		URIHost: true, IfNoneMatch: true, URIPort: true,
		URIPath: true, URIQuery: true, Accept: true, ProxyURI: true, ProxyScheme: true,
	},
	"POST": {
		URIHost: true, URIPort: true, URIPath: true, URIQuery: true,
		ContentFormat: true, ProxyURI: true, ProxyScheme: true, Accept: true,
	},
	"PUT": {
		IfMatch: true, URIHost: true, IfNoneMatch: true, URIPort: true,
		URIPath: true, URIQuery: true, ContentFormat: true, ProxyURI: true, ProxyScheme: true,
	},
	"DELETE": {
		URIHost: true, URIPort: true, URIPath: true, URIQuery: true,
		ProxyURI: true, ProxyScheme: true,
	},
}

// AllowedForMethod reports whether a critical option number may
// appear on a request of the given method. Elective options are
// always allowed regardless of method.
func AllowedForMethod(method string, number Number) bool {
	if !number.IsCritical() {
		return true
	}
	m, ok := allowList[method]
	if !ok {
		return false
	}
	return m[number]
}
