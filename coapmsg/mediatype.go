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

package coapmsg

import (
	"errors"
	"strconv"
)

// MediaType is the Content-Format/Accept option value, an IANA
// Content-Format identifier: the RFC 7252 baseline six (TextPlain,
// AppLinkFormat, AppXML, AppOctets, AppExi, AppJSON) plus additional
// IANA-registered entries that cost nothing extra to carry.
type MediaType uint16

const (
	TextPlain         MediaType = 0     // text/plain; charset=utf-8
	AppCoseEncrypt0   MediaType = 16    // application/cose; cose-type="cose-encrypt0"
	AppCoseMac0       MediaType = 17    // application/cose; cose-type="cose-mac0"
	AppCoseSign1      MediaType = 18    // application/cose; cose-type="cose-sign1"
	AppLinkFormat     MediaType = 40    // application/link-format
	AppXML            MediaType = 41    // application/xml
	AppOctets         MediaType = 42    // application/octet-stream
	AppExi            MediaType = 47    // application/exi
	AppJSON           MediaType = 50    // application/json
	AppJSONPatch      MediaType = 51    // application/json-patch+json
	AppJSONMergePatch MediaType = 52    // application/merge-patch+json
	AppCBOR           MediaType = 60    // application/cbor
	AppCWT            MediaType = 61    // application/cwt
	AppCoseEncrypt    MediaType = 96    // application/cose; cose-type="cose-encrypt"
	AppCoseMac        MediaType = 97    // application/cose; cose-type="cose-mac"
	AppCoseSign       MediaType = 98    // application/cose; cose-type="cose-sign"
	AppCoseKey        MediaType = 101   // application/cose-key
	AppCoseKeySet     MediaType = 102   // application/cose-key-set
	AppSenmlJSON      MediaType = 110   // application/senml+json
	AppSenmlCbor      MediaType = 112   // application/senml+cbor
	AppCoapGroup      MediaType = 256   // coap-group+json
	AppSenmlEtchJSON  MediaType = 320   // application/senml-etch+json
	AppSenmlEtchCbor  MediaType = 322   // application/senml-etch+cbor
	AppOcfCbor        MediaType = 10000 // application/vnd.ocf+cbor
	AppLwm2mTLV       MediaType = 11542 // application/vnd.oma.lwm2m+tlv
	AppLwm2mJSON      MediaType = 11543 // application/vnd.oma.lwm2m+json
	AppLwm2mCbor      MediaType = 11544 // application/vnd.oma.lwm2m+cbor
)

var mediaTypeToString = map[MediaType]string{
	TextPlain:         "text/plain; charset=utf-8",
	AppCoseEncrypt0:   `application/cose; cose-type="cose-encrypt0"`,
	AppCoseMac0:       `application/cose; cose-type="cose-mac0"`,
	AppCoseSign1:      `application/cose; cose-type="cose-sign1"`,
	AppLinkFormat:     "application/link-format",
	AppXML:            "application/xml",
	AppOctets:         "application/octet-stream",
	AppExi:            "application/exi",
	AppJSON:           "application/json",
	AppJSONPatch:      "application/json-patch+json",
	AppJSONMergePatch: "application/merge-patch+json",
	AppCBOR:           "application/cbor",
	AppCWT:            "application/cwt",
	AppCoseEncrypt:    `application/cose; cose-type="cose-encrypt"`,
	AppCoseMac:        `application/cose; cose-type="cose-mac"`,
	AppCoseSign:       `application/cose; cose-type="cose-sign"`,
	AppCoseKey:        "application/cose-key",
	AppCoseKeySet:     "application/cose-key-set",
	AppSenmlJSON:      "application/senml+json",
	AppSenmlCbor:      "application/senml+cbor",
	AppCoapGroup:      "coap-group+json",
	AppSenmlEtchJSON:  "application/senml-etch+json",
	AppSenmlEtchCbor:  "application/senml-etch+cbor",
	AppOcfCbor:        "application/vnd.ocf+cbor",
	AppLwm2mTLV:       "application/vnd.oma.lwm2m+tlv",
	AppLwm2mJSON:      "application/vnd.oma.lwm2m+json",
	AppLwm2mCbor:      "application/vnd.oma.lwm2m+cbor",
}

// ErrMediaTypeNotFound is returned by ParseMediaType for an unknown name.
var ErrMediaTypeNotFound = errors.New("coapmsg: media type not found")

func (m MediaType) String() string {
	if name, ok := mediaTypeToString[m]; ok {
		return name
	}
	return "MediaType(" + strconv.FormatUint(uint64(m), 10) + ")"
}

// ParseMediaType looks up a MediaType by its registered name.
func ParseMediaType(name string) (MediaType, error) {
	for id, n := range mediaTypeToString {
		if n == name {
			return id, nil
		}
	}
	return 0, ErrMediaTypeNotFound
}

// Band classifies where a Content-Format identifier falls in the
// IANA Content-Format registry (RFC 7252 §12.3).
type Band int

const (
	BandExpertReview Band = iota
	BandIETFReview
	BandFirstComeFirstServe
	BandExperimental
)

// RegistrationBand reports which IANA allocation policy covers m.
func (m MediaType) RegistrationBand() Band {
	switch {
	case m < 256:
		return BandExpertReview
	case m < 10000:
		return BandIETFReview
	case m < 65000:
		return BandFirstComeFirstServe
	default:
		return BandExperimental
	}
}
