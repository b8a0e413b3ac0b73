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
	"fmt"

	"github.com/coapium/coapclient/coapmsg/option"
)

// Message is one CoAP datagram, version 1 always.
type Message struct {
	Type      Type
	Code      Code
	MessageID MessageID
	Token     Token
	Options   option.Options
	Payload   []byte
}

// TokenLength returns the wire token-length field (0-8).
func (m *Message) TokenLength() int { return len(m.Token) }

// IsConfirmable reports whether m is a Confirmable message.
func (m *Message) IsConfirmable() bool { return m.Type == Confirmable }

func (m *Message) String() string {
	return fmt.Sprintf("Message(type=%s code=%s mid=%d token=%s options=%d payload=%dB)",
		m.Type, m.Code, m.MessageID, m.Token, len(m.Options), len(m.Payload))
}
