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
	"github.com/coapium/coapclient/coapmsg"
	"github.com/coapium/coapclient/coapmsg/coder"
	"github.com/coapium/coapclient/coaptransport/params"
)

// Transaction is the common surface the stores and processor use
// regardless of reliability kind, implemented by ConfirmableTransaction
// and NonConfirmableTransaction.
type Transaction interface {
	MessageID() coapmsg.MessageID
	Token() coapmsg.Token
	IsNonConfirmable() bool
	IsAcknowledged() bool
	RequestBytes() []byte
	InitialEffects() Effects
}

// ConfirmableTransaction tracks a reliable exchange: retransmission
// counter, acknowledged flag, and the frozen transmission parameters
// chosen at creation.
type ConfirmableTransaction struct {
	messageID     coapmsg.MessageID
	token         coapmsg.Token
	requestBytes  []byte
	acknowledged  bool
	retransmitted uint8
	params        params.Confirmable
}

// NewConfirmableTransaction builds a transaction and eagerly encodes
// the request bytes, retained for the lifetime of the transaction so
// a retransmission never re-encodes.
func NewConfirmableTransaction(mid coapmsg.MessageID, token coapmsg.Token, req *NewRequest) (*ConfirmableTransaction, error) {
	msg := req.Encode(mid, token)
	buf := make([]byte, params.PathMTU)
	n, err := coder.DefaultCoder.Encode(msg, buf)
	if err != nil {
		return nil, err
	}
	return &ConfirmableTransaction{
		messageID:    mid,
		token:        token,
		requestBytes: append([]byte(nil), buf[:n]...),
		params:       req.ConfirmableParams,
	}, nil
}

func (t *ConfirmableTransaction) MessageID() coapmsg.MessageID { return t.messageID }
func (t *ConfirmableTransaction) Token() coapmsg.Token         { return t.token }
func (t *ConfirmableTransaction) IsNonConfirmable() bool       { return false }
func (t *ConfirmableTransaction) IsAcknowledged() bool         { return t.acknowledged }
func (t *ConfirmableTransaction) RequestBytes() []byte         { return t.requestBytes }

// Acknowledge marks the transaction as having received its ACK; it no
// longer blocks NSTART admission (TransactionStore.CurrentNSTART).
func (t *ConfirmableTransaction) Acknowledge() { t.acknowledged = true }

// canRetransmit reports whether another retransmission attempt is
// permitted. retransmitted < MaxRetransmit yields a total of
// MaxRetransmit+1 Transmit effects: the initial transmission plus
// MAX_RETRANSMIT retransmissions.
func (t *ConfirmableTransaction) canRetransmit() bool {
	return t.retransmitted < t.params.MaxRetransmit.Value()
}

// InitialEffects emits [ExchangeLifetime, Retransmission, Transmit],
// in that order. MaxTransmitWait is not armed as a separate timer
// here: exhausting the retransmission schedule
// (OnRetransmissionTimeout's canRetransmit guard) already resolves the
// transaction as a timeout after 2^(MAX_RETRANSMIT+1)-1 times the
// initial retransmission timeout, which is at most MAX_TRANSMIT_WAIT.
func (t *ConfirmableTransaction) InitialEffects() Effects {
	return Effects{
		createTimeout(newExchangeLifetimeTimeout(t.messageID, t.params)),
		createTimeout(newRetransmissionTimeout(t.messageID, t.params)),
		transmit(t.requestBytes),
	}
}

// OnRetransmissionTimeout advances the retransmission counter and
// either retransmits or resolves as a timeout.
func (t *ConfirmableTransaction) OnRetransmissionTimeout(fired Timeout) (Effects, error) {
	if t.acknowledged {
		return nil, nil
	}
	if !t.canRetransmit() {
		return Effects{resolvedErr(t.token, &ResponseError{Kind: ResponseErrorTimeout})}, nil
	}
	t.retransmitted++
	return Effects{
		createTimeout(fired.next()),
		transmit(t.requestBytes),
	}, nil
}

// OnMaxTransmitWaitTimeout resolves the transaction as a timeout if
// it is still unacknowledged; an acknowledged transaction ignores it.
func (t *ConfirmableTransaction) OnMaxTransmitWaitTimeout() Effects {
	if t.acknowledged {
		return nil
	}
	return Effects{resolvedErr(t.token, &ResponseError{Kind: ResponseErrorAcknowledgementTimeout})}
}

// OnExchangeLifetimeTimeout always resolves (if not already resolved
// by the caller's removal of the transaction, this is never called
// again for the same message-id).
func (t *ConfirmableTransaction) OnExchangeLifetimeTimeout() Effects {
	return Effects{resolvedErr(t.token, &ResponseError{Kind: ResponseErrorTimeout})}
}

// NonConfirmableTransaction tracks a best-effort exchange: no
// acknowledgement is expected, only an optional probing-rate
// retransmission and a lifetime bound.
type NonConfirmableTransaction struct {
	messageID    coapmsg.MessageID
	token        coapmsg.Token
	requestBytes []byte
	params       params.NonConfirmable
}

// NewNonConfirmableTransaction builds a transaction and eagerly
// encodes the request bytes (mirrors ConfirmableTransaction).
func NewNonConfirmableTransaction(mid coapmsg.MessageID, token coapmsg.Token, req *NewRequest) (*NonConfirmableTransaction, error) {
	msg := req.Encode(mid, token)
	buf := make([]byte, params.PathMTU)
	n, err := coder.DefaultCoder.Encode(msg, buf)
	if err != nil {
		return nil, err
	}
	return &NonConfirmableTransaction{
		messageID:    mid,
		token:        token,
		requestBytes: append([]byte(nil), buf[:n]...),
		params:       req.NonConfirmableParams,
	}, nil
}

func (t *NonConfirmableTransaction) MessageID() coapmsg.MessageID { return t.messageID }
func (t *NonConfirmableTransaction) Token() coapmsg.Token         { return t.token }
func (t *NonConfirmableTransaction) IsNonConfirmable() bool       { return true }
func (t *NonConfirmableTransaction) IsAcknowledged() bool         { return false }
func (t *NonConfirmableTransaction) RequestBytes() []byte         { return t.requestBytes }

// InitialEffects emits [NonLifetime, (NonRetransmission?), Transmit];
// the probing-rate retransmission timer is only armed when the caller
// opted into a ProbingRate.
func (t *NonConfirmableTransaction) InitialEffects() Effects {
	effects := Effects{createTimeout(newNonLifetimeTimeout(t.messageID, t.params))}
	if t.params.ProbingRate != nil {
		effects = append(effects, createTimeout(newNonRetransmissionTimeout(t.messageID, len(t.requestBytes), *t.params.ProbingRate)))
	}
	effects = append(effects, transmit(t.requestBytes))
	return effects
}

// OnNonLifetimeTimeout always resolves the transaction as a timeout.
func (t *NonConfirmableTransaction) OnNonLifetimeTimeout() Effects {
	return Effects{resolvedErr(t.token, &ResponseError{Kind: ResponseErrorTimeout})}
}

// OnNonRetransmissionTimeout retransmits the same bytes without
// altering the lifetime bound. The timer that triggers it is only
// armed when a ProbingRate is set.
func (t *NonConfirmableTransaction) OnNonRetransmissionTimeout() Effects {
	return Effects{transmit(t.requestBytes)}
}
