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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coapium/coapclient/coapmsg"
	"github.com/coapium/coapclient/coaptransport/params"
)

func TestConfirmableInitialEffectsOrder(t *testing.T) {
	txn := newTestConfirmable(t, 42).(*ConfirmableTransaction)
	effects := txn.InitialEffects()

	require.Len(t, effects, 3)
	require.Equal(t, EffectCreateTimeout, effects[0].Kind)
	require.Equal(t, KindExchangeLifetime, effects[0].Timeout.Kind)
	require.Equal(t, EffectCreateTimeout, effects[1].Kind)
	require.Equal(t, KindRetransmission, effects[1].Timeout.Kind)
	require.Equal(t, EffectTransmit, effects[2].Kind)
}

func TestConfirmableRetransmitsUntilMaxThenTimesOut(t *testing.T) {
	txn := newTestConfirmable(t, 1).(*ConfirmableTransaction)
	maxRetransmit := int(txn.params.MaxRetransmit.Value())

	timeout := newRetransmissionTimeout(1, txn.params)
	for i := 0; i < maxRetransmit; i++ {
		effects, err := txn.OnRetransmissionTimeout(timeout)
		require.NoError(t, err)
		require.Len(t, effects, 2)
		require.Equal(t, EffectTransmit, effects[1].Kind)
		timeout = effects[0].Timeout
	}

	effects, err := txn.OnRetransmissionTimeout(timeout)
	require.NoError(t, err)
	require.Len(t, effects, 1)
	require.Equal(t, EffectTransactionResolved, effects[0].Kind)
	rerr, ok := effects[0].Err.(*ResponseError)
	require.True(t, ok)
	require.Equal(t, ResponseErrorTimeout, rerr.Kind)
}

func TestConfirmableAcknowledgedIgnoresRetransmission(t *testing.T) {
	txn := newTestConfirmable(t, 1).(*ConfirmableTransaction)
	txn.Acknowledge()

	effects, err := txn.OnRetransmissionTimeout(newRetransmissionTimeout(1, txn.params))
	require.NoError(t, err)
	require.Nil(t, effects)
}

func TestRetransmissionTimeoutDoublesEachAttempt(t *testing.T) {
	jitter, err := params.NewJitterFactor(0)
	require.NoError(t, err)
	c := params.DefaultConfirmable(jitter)

	first := newRetransmissionTimeout(1, c)
	second := first.next()
	third := second.next()

	require.Equal(t, first.Duration*2, second.Duration)
	require.Equal(t, second.Duration*2, third.Duration)
}

func TestNonConfirmableInitialEffectsWithoutProbing(t *testing.T) {
	txn, err := NewNonConfirmableTransaction(5, coapmsg.Token{9}, &NewRequest{
		Method:               MethodGet,
		Reliability:          ReliabilityNonConfirmable,
		NonConfirmableParams: params.DefaultNonConfirmable(),
	})
	require.NoError(t, err)

	effects := txn.InitialEffects()
	require.Len(t, effects, 2)
	require.Equal(t, KindNonLifetime, effects[0].Timeout.Kind)
	require.Equal(t, EffectTransmit, effects[1].Kind)
}

func TestNonConfirmableInitialEffectsWithProbing(t *testing.T) {
	rate := params.NewProbingRate(2.0)
	txn, err := NewNonConfirmableTransaction(5, coapmsg.Token{9}, &NewRequest{
		Method:      MethodGet,
		Reliability: ReliabilityNonConfirmable,
		NonConfirmableParams: params.NonConfirmable{
			AckTimeout:      params.DefaultAckTimeout(),
			AckRandomFactor: params.DefaultAckRandomFactor(),
			MaxRetransmit:   params.DefaultMaxRetransmit(),
			ProbingRate:     &rate,
		},
	})
	require.NoError(t, err)

	effects := txn.InitialEffects()
	require.Len(t, effects, 3)
	require.Equal(t, KindNonLifetime, effects[0].Timeout.Kind)
	require.Equal(t, KindNonRetransmission, effects[1].Timeout.Kind)
	require.Equal(t, EffectTransmit, effects[2].Kind)
}
