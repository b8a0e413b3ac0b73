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

package coder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coapium/coapclient/coapmsg"
	"github.com/coapium/coapclient/coapmsg/option"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	msg := &coapmsg.Message{
		Type:      coapmsg.Confirmable,
		Code:      coapmsg.GET,
		MessageID: 0x1234,
		Token:     coapmsg.Token{0xaa, 0xbb, 0xcc},
		Options: option.Options{
			{Number: option.URIPath, Value: option.NewString("a")},
			{Number: option.URIPath, Value: option.NewString("b")},
		},
		Payload: []byte("hello"),
	}

	size, err := DefaultCoder.Size(msg)
	require.NoError(t, err)

	buf := make([]byte, size)
	n, err := DefaultCoder.Encode(msg, buf)
	require.NoError(t, err)
	require.Equal(t, size, n)

	var decoded coapmsg.Message
	consumed, err := DefaultCoder.Decode(buf, &decoded)
	require.NoError(t, err)
	require.Equal(t, size, consumed)

	require.Equal(t, msg.Type, decoded.Type)
	require.Equal(t, msg.Code, decoded.Code)
	require.Equal(t, msg.MessageID, decoded.MessageID)
	require.Equal(t, []byte(msg.Token), []byte(decoded.Token))
	require.Equal(t, msg.Payload, decoded.Payload)
	require.Len(t, decoded.Options, 2)
}

func TestEncodeNoPayloadOmitsMarker(t *testing.T) {
	msg := &coapmsg.Message{Type: coapmsg.NonConfirmable, Code: coapmsg.Empty, MessageID: 1}
	buf := make([]byte, 4)
	n, err := DefaultCoder.Encode(msg, buf)
	require.NoError(t, err)
	require.Equal(t, 4, n)
}

func TestDecodeTruncatedHeaderFails(t *testing.T) {
	var m coapmsg.Message
	_, err := DefaultCoder.Decode([]byte{0x40, 0x01}, &m)
	require.ErrorIs(t, err, coapmsg.ErrMessageTruncated)
}

func TestDecodeExcessiveMarkerFails(t *testing.T) {
	data := []byte{0x40, 0x01, 0x00, 0x01, 0xff} // header only, marker with no payload after
	var m coapmsg.Message
	_, err := DefaultCoder.Decode(data, &m)
	require.ErrorIs(t, err, coapmsg.ErrExcessiveMarker)
}

func TestDecodeInvalidVersionFails(t *testing.T) {
	data := []byte{0x00, 0x01, 0x00, 0x01} // version bits == 0
	var m coapmsg.Message
	_, err := DefaultCoder.Decode(data, &m)
	require.ErrorIs(t, err, coapmsg.ErrMessageInvalidVersion)
}

func TestEncodeRejectsOversizedToken(t *testing.T) {
	msg := &coapmsg.Message{Type: coapmsg.Confirmable, Code: coapmsg.GET, Token: make(coapmsg.Token, 9)}
	_, err := DefaultCoder.Encode(msg, make([]byte, 64))
	require.ErrorIs(t, err, coapmsg.ErrInvalidTokenLen)
}

func TestEncodeTooSmallBufferReportsRequiredSize(t *testing.T) {
	msg := &coapmsg.Message{Type: coapmsg.Confirmable, Code: coapmsg.GET, Payload: []byte("payload")}
	size, err := DefaultCoder.Size(msg)
	require.NoError(t, err)

	n, err := DefaultCoder.Encode(msg, make([]byte, size-1))
	require.ErrorIs(t, err, coapmsg.ErrTooSmall)
	require.Equal(t, size, n)
}
