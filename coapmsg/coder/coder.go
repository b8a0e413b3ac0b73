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

// Package coder implements the RFC 7252 CoAP message codec: header +
// token + options + payload assembly and the inverse parse.
package coder

import (
	"encoding/binary"
	"errors"

	"github.com/coapium/coapclient/coapmsg"
	"github.com/coapium/coapclient/coapmsg/option"
)

// DefaultCoder is the package-level, stateless Coder instance.
var DefaultCoder = new(Coder)

// Coder encodes and decodes coapmsg.Message values to/from RFC 7252
// wire bytes. It carries no state.
type Coder struct{}

// Size reports the number of bytes Encode would need to write m, by
// probing Options.Marshal with a nil buffer (which always reports
// ErrTooSmall carrying the required size).
func (c *Coder) Size(m *coapmsg.Message) (int, error) {
	if len(m.Token) > coapmsg.MaxTokenSize {
		return -1, coapmsg.ErrInvalidTokenLen
	}
	size := 4 + len(m.Token)

	optionsLen, err := m.Options.Marshal(nil)
	if err != nil && !errors.Is(err, option.ErrTooSmall) {
		return -1, err
	}

	payloadLen := len(m.Payload)
	if payloadLen > 0 {
		payloadLen++ // 0xFF marker
	}
	size += payloadLen + optionsLen
	return size, nil
}

// Encode writes m into buf, RFC 7252 §3 layout:
//
//	 0                   1                   2                   3
//	 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|0 1| T |  TKL  |      Code     |          Message ID           |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|   Token (if any, TKL bytes) ...
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|   Options (if any) ...
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|1 1 1 1 1 1 1 1|    Payload (if any) ...
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
func (c *Coder) Encode(m *coapmsg.Message, buf []byte) (int, error) {
	if !coapmsg.ValidateType(m.Type) {
		return -1, coapmsg.ErrInvalidType
	}
	if len(m.Token) > coapmsg.MaxTokenSize {
		return -1, coapmsg.ErrInvalidTokenLen
	}

	size, err := c.Size(m)
	if err != nil {
		return -1, err
	}
	if len(buf) < size {
		return size, coapmsg.ErrTooSmall
	}

	buf[0] = 1<<6 | byte(m.Type)<<4 | byte(len(m.Token)&0xf)
	buf[1] = byte(m.Code)
	binary.BigEndian.PutUint16(buf[2:4], uint16(m.MessageID))
	rest := buf[4:]

	copy(rest, m.Token)
	rest = rest[len(m.Token):]

	m.Options.SortByNumber()
	optionsLen, err := m.Options.Marshal(rest)
	if err != nil {
		return -1, err
	}
	rest = rest[optionsLen:]

	if len(m.Payload) > 0 {
		rest[0] = 0xff
		rest = rest[1:]
	}
	copy(rest, m.Payload)

	return size, nil
}

// Decode parses data into m, returning bytes consumed (always
// len(data) on success, as CoAP messages are not self-delimiting
// within a larger stream — a UDP datagram is the unit of framing).
func (c *Coder) Decode(data []byte, m *coapmsg.Message) (int, error) {
	size := len(data)
	if size < 4 {
		return -1, coapmsg.ErrMessageTruncated
	}
	if data[0]>>6 != coapmsg.Version {
		return -1, coapmsg.ErrMessageInvalidVersion
	}

	typ := coapmsg.Type((data[0] >> 4) & 0x3)
	tokenLen := int(data[0] & 0xf)
	if tokenLen > coapmsg.MaxTokenSize {
		return -1, coapmsg.ErrInvalidTokenLen
	}

	code := coapmsg.Code(data[1])
	messageID := coapmsg.MessageID(binary.BigEndian.Uint16(data[2:4]))
	data = data[4:]

	if len(data) < tokenLen {
		return -1, coapmsg.ErrMessageTruncated
	}
	var token coapmsg.Token
	if tokenLen > 0 {
		token = coapmsg.Token(append([]byte(nil), data[:tokenLen]...))
	}
	data = data[tokenLen:]

	var opts option.Options
	n, err := opts.Unmarshal(data)
	if err != nil {
		return -1, err
	}
	data = data[n:]

	var payload []byte
	if len(data) > 0 {
		if data[0] != 0xff {
			return -1, errUnexpectedOptionTail
		}
		data = data[1:]
		if len(data) == 0 {
			return -1, coapmsg.ErrExcessiveMarker
		}
		payload = append([]byte(nil), data...)
	}

	m.Type = typ
	m.Code = code
	m.MessageID = messageID
	m.Token = token
	m.Options = opts
	m.Payload = payload

	return size, nil
}

var errUnexpectedOptionTail = errors.New("coder: trailing byte after options is not the payload marker")
