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

package coaptransport

import (
	"time"

	"github.com/coapium/coapclient/coapmsg"
	"github.com/coapium/coapclient/coaptransport/params"
)

// TimeoutKind distinguishes the five timer variants the processor can
// arm.
type TimeoutKind int

const (
	KindRetransmission TimeoutKind = iota
	KindExchangeLifetime
	KindNonLifetime
	KindNonRetransmission
	KindMaxTransmitWait
)

func (k TimeoutKind) String() string {
	switch k {
	case KindRetransmission:
		return "Retransmission"
	case KindExchangeLifetime:
		return "ExchangeLifetime"
	case KindNonLifetime:
		return "NonLifetime"
	case KindNonRetransmission:
		return "NonRetransmission"
	case KindMaxTransmitWait:
		return "MaxTransmitWait"
	default:
		return "Unknown"
	}
}

// Timeout is a scheduled timer, correlated to the transaction it
// belongs to by MessageID. The driver is responsible for firing
// Event{Kind: EventTimeoutReached} after Duration elapses.
type Timeout struct {
	Kind      TimeoutKind
	Duration  time.Duration
	MessageID coapmsg.MessageID
}

func newRetransmissionTimeout(mid coapmsg.MessageID, c params.Confirmable) Timeout {
	return Timeout{Kind: KindRetransmission, Duration: c.InitialRetransmissionTimeout(), MessageID: mid}
}

// next doubles a Retransmission timeout's duration, the binary
// exponential backoff required by RFC 7252 §4.8.2.
func (t Timeout) next() Timeout {
	return Timeout{Kind: t.Kind, Duration: t.Duration * 2, MessageID: t.MessageID}
}

func newExchangeLifetimeTimeout(mid coapmsg.MessageID, c params.Confirmable) Timeout {
	return Timeout{Kind: KindExchangeLifetime, Duration: c.ExchangeLifetime(), MessageID: mid}
}

func newMaxTransmitWaitTimeout(mid coapmsg.MessageID, c params.Confirmable) Timeout {
	return Timeout{Kind: KindMaxTransmitWait, Duration: c.MaxTransmitWait(), MessageID: mid}
}

func newNonLifetimeTimeout(mid coapmsg.MessageID, n params.NonConfirmable) Timeout {
	return Timeout{Kind: KindNonLifetime, Duration: n.NonLifetime(), MessageID: mid}
}

func newNonRetransmissionTimeout(mid coapmsg.MessageID, dataLen int, rate params.ProbingRate) Timeout {
	d := time.Duration(float64(dataLen) / rate.PerSecond() * float64(time.Second))
	return Timeout{Kind: KindNonRetransmission, Duration: d, MessageID: mid}
}
