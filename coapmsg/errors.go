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

// Package coapmsg implements the RFC 7252 CoAP message model: the
// fixed header, token, code and the typed option value layer.
package coapmsg

import "errors"

var (
	ErrMessageTruncated      = errors.New("coapmsg: message truncated")
	ErrMessageInvalidVersion = errors.New("coapmsg: unsupported version")
	ErrInvalidTokenLen       = errors.New("coapmsg: token length out of range")
	ErrInvalidType           = errors.New("coapmsg: invalid message type")
	ErrExcessiveMarker       = errors.New("coapmsg: payload marker with no following byte")
	ErrInvalidTypeAndCode    = errors.New("coapmsg: message type and code combination not allowed")
	ErrTooSmall              = errors.New("coapmsg: buffer too small")
	ErrShortRead             = errors.New("coapmsg: short read")
)
