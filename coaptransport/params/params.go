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

// Package params implements the RFC 7252 §4.8 transmission parameters
// and their derived timing formulas.
package params

import (
	"errors"
	"time"
)

// MaxLatency is the assumed worst-case time a datagram may take to
// reach its destination (RFC 7252 §4.8).
const MaxLatency = 100 * time.Second

// PathMTU bounds the size of any single CoAP datagram this library
// sends or accepts.
const PathMTU = 1152

// NSTART is the default number of simultaneous outstanding
// Confirmable exchanges permitted to a single peer.
const NSTART = 1

var (
	ErrAckTimeoutTooSmall      = errors.New("params: ack timeout must be at least 1s")
	ErrAckRandomFactorTooSmall = errors.New("params: ack random factor must be at least 1.0")
	ErrFactorOutOfRange        = errors.New("params: jitter factor must be within [0,1]")
)

// AckTimeout is the minimum spacing between a Confirmable message and
// its first retransmission.
type AckTimeout struct{ value time.Duration }

// NewAckTimeout validates and wraps an ACK_TIMEOUT value.
func NewAckTimeout(d time.Duration) (AckTimeout, error) {
	if d < time.Second {
		return AckTimeout{}, ErrAckTimeoutTooSmall
	}
	return AckTimeout{value: d}, nil
}

// DefaultAckTimeout is RFC 7252's ACK_TIMEOUT default, 2s.
func DefaultAckTimeout() AckTimeout { return AckTimeout{value: 2 * time.Second} }

// AckRandomFactor widens the retransmission timeout window.
type AckRandomFactor struct{ value float64 }

// NewAckRandomFactor validates and wraps an ACK_RANDOM_FACTOR value.
func NewAckRandomFactor(f float64) (AckRandomFactor, error) {
	if f < 1.0 {
		return AckRandomFactor{}, ErrAckRandomFactorTooSmall
	}
	return AckRandomFactor{value: f}, nil
}

// DefaultAckRandomFactor is RFC 7252's ACK_RANDOM_FACTOR default, 1.5.
func DefaultAckRandomFactor() AckRandomFactor { return AckRandomFactor{value: 1.5} }

// MaxRetransmit bounds the number of retransmissions attempted for a
// Confirmable exchange before it times out.
type MaxRetransmit struct{ value uint8 }

// NewMaxRetransmit wraps a MAX_RETRANSMIT value.
func NewMaxRetransmit(v uint8) MaxRetransmit { return MaxRetransmit{value: v} }

// DefaultMaxRetransmit is RFC 7252's MAX_RETRANSMIT default, 4.
func DefaultMaxRetransmit() MaxRetransmit { return MaxRetransmit{value: 4} }

// Value returns the configured MAX_RETRANSMIT count.
func (m MaxRetransmit) Value() uint8 { return m.value }

// JitterFactor is the per-transaction random value in [0,1] used once
// at transaction creation to pick the initial retransmission timeout;
// it is chosen once and not re-rolled on subsequent retransmissions.
type JitterFactor struct{ value float64 }

// NewJitterFactor validates and wraps a jitter factor.
func NewJitterFactor(f float64) (JitterFactor, error) {
	if f < 0 || f > 1 {
		return JitterFactor{}, ErrFactorOutOfRange
	}
	return JitterFactor{value: f}, nil
}

// ProbingRate bounds non-confirmable retransmission when the
// application opts into probing (RFC 7252 §4.2, optional).
type ProbingRate struct{ perSecond float64 }

// NewProbingRate wraps a probing rate in bytes/second.
func NewProbingRate(perSecond float64) ProbingRate { return ProbingRate{perSecond: perSecond} }

// DefaultProbingRate is RFC 7252's suggested default of 1 byte/second.
func DefaultProbingRate() ProbingRate { return ProbingRate{perSecond: 1.0} }

// PerSecond returns the configured probing rate in bytes/second.
func (p ProbingRate) PerSecond() float64 { return p.perSecond }

// Confirmable bundles the parameters governing a Confirmable
// exchange's retransmission schedule and lifetime.
type Confirmable struct {
	AckTimeout          AckTimeout
	AckRandomFactor     AckRandomFactor
	InitialJitterFactor JitterFactor
	MaxRetransmit       MaxRetransmit
}

// DefaultConfirmable returns RFC 7252 §4.8's defaults with the given
// per-transaction jitter factor.
func DefaultConfirmable(jitter JitterFactor) Confirmable {
	return Confirmable{
		AckTimeout:          DefaultAckTimeout(),
		AckRandomFactor:     DefaultAckRandomFactor(),
		InitialJitterFactor: jitter,
		MaxRetransmit:       DefaultMaxRetransmit(),
	}
}

// MinAckTimeout is the lower bound of the initial retransmission
// timeout window.
func (c Confirmable) MinAckTimeout() time.Duration { return c.AckTimeout.value }

// MaxAckTimeout is the upper bound of the initial retransmission
// timeout window.
func (c Confirmable) MaxAckTimeout() time.Duration {
	return scale(c.AckTimeout.value, c.AckRandomFactor.value)
}

// InitialRetransmissionTimeout is the timeout before the first
// retransmission, chosen once using InitialJitterFactor.
func (c Confirmable) InitialRetransmissionTimeout() time.Duration {
	variable := c.MaxAckTimeout() - c.MinAckTimeout()
	return c.MinAckTimeout() + scale(variable, c.InitialJitterFactor.value)
}

// MaxTransmitSpan is the time between the first transmission and the
// last allowed retransmission of a Confirmable message.
func (c Confirmable) MaxTransmitSpan() time.Duration {
	return scale(scale(c.AckTimeout.value, c.AckRandomFactor.value), pow2(c.MaxRetransmit.value)-1)
}

// MaxTransmitWait is the maximum time to wait for an acknowledgement
// or reset after the first transmission of a Confirmable message
// assuming no acknowledgement is ever received.
func (c Confirmable) MaxTransmitWait() time.Duration {
	return scale(scale(c.AckTimeout.value, c.AckRandomFactor.value), pow2(c.MaxRetransmit.value+1)-1)
}

// ProcessingDelay is the time a node takes to turn a Confirmable
// message around into its acknowledgement, assumed equal to
// ACK_TIMEOUT.
func (c Confirmable) ProcessingDelay() time.Duration { return c.AckTimeout.value }

// ExchangeLifetime is the maximum time a sender must keep message-id
// state after the first transmission of a Confirmable message.
func (c Confirmable) ExchangeLifetime() time.Duration {
	return c.MaxTransmitSpan() + 2*MaxLatency + c.ProcessingDelay()
}

// NonConfirmable bundles the parameters governing a Non-confirmable
// exchange's (optional) probing retransmission and lifetime.
type NonConfirmable struct {
	AckTimeout      AckTimeout
	AckRandomFactor AckRandomFactor
	MaxRetransmit   MaxRetransmit
	ProbingRate     *ProbingRate // nil disables probing-rate retransmission
}

// DefaultNonConfirmable returns RFC 7252 §4.8's defaults with probing
// disabled.
func DefaultNonConfirmable() NonConfirmable {
	return NonConfirmable{
		AckTimeout:      DefaultAckTimeout(),
		AckRandomFactor: DefaultAckRandomFactor(),
		MaxRetransmit:   DefaultMaxRetransmit(),
	}
}

// MaxTransmitSpan mirrors Confirmable.MaxTransmitSpan for the
// non-confirmable parameter set.
func (n NonConfirmable) MaxTransmitSpan() time.Duration {
	return scale(scale(n.AckTimeout.value, n.AckRandomFactor.value), pow2(n.MaxRetransmit.value)-1)
}

// NonLifetime is the maximum time a sender must keep message-id state
// for a Non-confirmable message.
func (n NonConfirmable) NonLifetime() time.Duration {
	return n.MaxTransmitSpan() + MaxLatency
}

func scale(d time.Duration, factor float64) time.Duration {
	return time.Duration(float64(d) * factor)
}

// pow2 computes 2^n for the small non-negative retransmission counts
// RFC 7252 §4.8.2's MAX_TRANSMIT_SPAN/MAX_TRANSMIT_WAIT formulas raise
// ACK_RANDOM_FACTOR's multiplier by (exponential, not quadratic, in
// MAX_RETRANSMIT).
func pow2(n uint8) float64 {
	return float64(uint32(1) << n)
}
