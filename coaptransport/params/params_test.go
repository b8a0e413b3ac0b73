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

package params

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewAckTimeoutRejectsSubSecond(t *testing.T) {
	_, err := NewAckTimeout(500 * time.Millisecond)
	require.ErrorIs(t, err, ErrAckTimeoutTooSmall)
}

func TestNewAckRandomFactorRejectsBelowOne(t *testing.T) {
	_, err := NewAckRandomFactor(0.9)
	require.ErrorIs(t, err, ErrAckRandomFactorTooSmall)
}

func TestNewJitterFactorRejectsOutOfRange(t *testing.T) {
	_, err := NewJitterFactor(1.1)
	require.ErrorIs(t, err, ErrFactorOutOfRange)
	_, err = NewJitterFactor(-0.1)
	require.ErrorIs(t, err, ErrFactorOutOfRange)
}

func TestConfirmableInitialRetransmissionTimeoutWindow(t *testing.T) {
	low, err := NewJitterFactor(0)
	require.NoError(t, err)
	high, err := NewJitterFactor(1)
	require.NoError(t, err)

	cLow := DefaultConfirmable(low)
	cHigh := DefaultConfirmable(high)

	require.Equal(t, cLow.MinAckTimeout(), cLow.InitialRetransmissionTimeout())
	require.Equal(t, cHigh.MaxAckTimeout(), cHigh.InitialRetransmissionTimeout())
	require.Equal(t, 2*time.Second, cLow.MinAckTimeout())
	require.Equal(t, 3*time.Second, cLow.MaxAckTimeout())
}

func TestConfirmableMaxTransmitSpanAndWaitWithDefaults(t *testing.T) {
	jitter, err := NewJitterFactor(0)
	require.NoError(t, err)
	c := DefaultConfirmable(jitter)

	// RFC 7252 §4.8.2 worked example: MAX_TRANSMIT_SPAN ~ 45s,
	// MAX_TRANSMIT_WAIT ~ 93s, for the default parameter set.
	require.InDelta(t, 45*time.Second, c.MaxTransmitSpan(), float64(time.Second))
	require.InDelta(t, 93*time.Second, c.MaxTransmitWait(), float64(time.Second))
}

func TestConfirmableExchangeLifetimeIncludesMaxLatencyTwice(t *testing.T) {
	jitter, err := NewJitterFactor(0)
	require.NoError(t, err)
	c := DefaultConfirmable(jitter)

	expected := c.MaxTransmitSpan() + 2*MaxLatency + c.ProcessingDelay()
	require.Equal(t, expected, c.ExchangeLifetime())
}

func TestNonConfirmableLifetimeDefault(t *testing.T) {
	n := DefaultNonConfirmable()
	require.Equal(t, n.MaxTransmitSpan()+MaxLatency, n.NonLifetime())
}

func TestMaxRetransmitDefaultValue(t *testing.T) {
	require.Equal(t, uint8(4), DefaultMaxRetransmit().Value())
}
