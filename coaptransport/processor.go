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
)

type queuedRequest struct {
	req   *NewRequest
	token coapmsg.Token
}

// Processor is the single-threaded, event-driven CoAP exchange state
// machine: Tick consumes one Event and produces the Effects the
// driver must carry out. Processor never blocks and owns no socket.
type Processor struct {
	ids          *MessageIdStore
	transactions *TransactionStore
	pending      []queuedRequest
}

// NewProcessor builds a Processor over the given stores.
func NewProcessor(ids *MessageIdStore, transactions *TransactionStore) *Processor {
	return &Processor{ids: ids, transactions: transactions}
}

// Tick dispatches a single Event and returns the Effects it produces.
func (p *Processor) Tick(ev Event) (Effects, error) {
	switch ev.Kind {
	case EventTransactionRequested:
		return p.onTransactionRequested(ev.Request, ev.Token)
	case EventTransactionCanceled:
		return p.onTransactionCanceled(ev.Token), nil
	case EventTimeoutReached:
		return p.onTimeoutReached(ev.Timeout), nil
	case EventDataReceived:
		return p.onDataReceived(ev.Data), nil
	default:
		return nil, ErrUnknownEvent
	}
}

func (p *Processor) onTransactionRequested(req *NewRequest, token coapmsg.Token) (Effects, error) {
	if p.transactions.ExistsByToken(token) || p.isQueued(token) {
		return nil, ErrDuplicateToken
	}
	if p.atCapacity(req) {
		// Admission control: hold the request until a slot frees, whether
		// the reason is NSTART or message-id exhaustion. Never surfaced to
		// the caller as an error.
		p.pending = append(p.pending, queuedRequest{req: req, token: token})
		return nil, nil
	}
	return p.start(req, token)
}

// atCapacity reports whether req must wait before starting: either
// NSTART is exhausted or the 16-bit message-id space is exhausted.
// Both conditions apply to every request regardless of reliability
// mode.
func (p *Processor) atCapacity(req *NewRequest) bool {
	if p.ids.AtCapacity() {
		return true
	}
	return p.transactions.AtMaxInflightCapacity()
}

func (p *Processor) isQueued(token coapmsg.Token) bool {
	for _, q := range p.pending {
		if q.token.Equal(token) {
			return true
		}
	}
	return false
}

func (p *Processor) start(req *NewRequest, token coapmsg.Token) (Effects, error) {
	mid, ok := p.ids.Claim()
	if !ok {
		// Message-id space exhausted despite the admission check (e.g. a
		// concurrent queued request claimed the last id); queue instead of
		// surfacing an error to the caller.
		p.pending = append(p.pending, queuedRequest{req: req, token: token})
		return nil, nil
	}
	var txn Transaction
	var err error
	if req.Reliability == ReliabilityConfirmable {
		txn, err = NewConfirmableTransaction(mid, token, req)
	} else {
		txn, err = NewNonConfirmableTransaction(mid, token, req)
	}
	if err != nil {
		p.ids.Release(mid)
		return nil, err
	}
	p.transactions.Add(txn)
	return txn.InitialEffects(), nil
}

// onTransactionCanceled removes the transaction (or queued request)
// matching token and frees its resources immediately, rather than
// leaving the message-id claimed until ExchangeLifetime expires.
func (p *Processor) onTransactionCanceled(token coapmsg.Token) Effects {
	for i, q := range p.pending {
		if q.token.Equal(token) {
			p.pending = append(p.pending[:i], p.pending[i+1:]...)
			return nil
		}
	}
	txn := p.transactions.RemoveByToken(token)
	if txn == nil {
		return nil
	}
	p.ids.Release(txn.MessageID())
	return p.admitNext()
}

// admitNext promotes the oldest queued request into a live
// transaction if capacity allows, called whenever a transaction is
// removed or a message-id is released.
func (p *Processor) admitNext() Effects {
	if len(p.pending) == 0 || p.atCapacity(p.pending[0].req) {
		return nil
	}
	next := p.pending[0]
	p.pending = p.pending[1:]
	effects, err := p.start(next.req, next.token)
	if err != nil {
		return Effects{resolvedErr(next.token, err)}
	}
	return effects
}

func (p *Processor) onTimeoutReached(t Timeout) Effects {
	txn := p.transactions.FindByMessageID(t.MessageID)
	if txn == nil {
		return nil
	}

	var effects Effects
	remove := false

	switch t.Kind {
	case KindRetransmission:
		ct, ok := txn.(*ConfirmableTransaction)
		if !ok {
			return nil
		}
		fired, err := ct.OnRetransmissionTimeout(t)
		if err != nil {
			return nil
		}
		effects = fired
		remove = len(effects) == 1 && effects[0].Kind == EffectTransactionResolved
	case KindMaxTransmitWait:
		ct, ok := txn.(*ConfirmableTransaction)
		if !ok {
			return nil
		}
		effects = ct.OnMaxTransmitWaitTimeout()
		remove = len(effects) > 0
	case KindExchangeLifetime:
		ct, ok := txn.(*ConfirmableTransaction)
		if !ok {
			return nil
		}
		effects = ct.OnExchangeLifetimeTimeout()
		remove = true
	case KindNonLifetime:
		nt, ok := txn.(*NonConfirmableTransaction)
		if !ok {
			return nil
		}
		effects = nt.OnNonLifetimeTimeout()
		remove = true
	case KindNonRetransmission:
		nt, ok := txn.(*NonConfirmableTransaction)
		if !ok {
			return nil
		}
		effects = nt.OnNonRetransmissionTimeout()
	}

	if remove {
		p.transactions.RemoveByMessageID(t.MessageID)
		p.ids.Release(t.MessageID)
		effects = append(effects, p.admitNext()...)
	}
	return effects
}

func (p *Processor) onDataReceived(data []byte) Effects {
	var msg coapmsg.Message
	if _, err := coder.DefaultCoder.Decode(data, &msg); err != nil {
		// Malformed datagrams cannot be correlated to a transaction; drop
		// silently rather than panicking.
		return nil
	}

	switch msg.Type {
	case coapmsg.Reset:
		return p.onReset(msg)
	case coapmsg.Acknowledgement:
		return p.onAcknowledgement(msg)
	case coapmsg.Confirmable, coapmsg.NonConfirmable:
		return p.onSeparateResponse(msg)
	default:
		return nil
	}
}

func (p *Processor) onReset(msg coapmsg.Message) Effects {
	txn := p.transactions.FindByMessageID(msg.MessageID)
	if txn == nil {
		return nil
	}
	p.transactions.RemoveByMessageID(msg.MessageID)
	p.ids.Release(msg.MessageID)
	effects := Effects{resolvedErr(txn.Token(), &ResponseError{Kind: ResponseErrorReset})}
	return append(effects, p.admitNext()...)
}

func (p *Processor) onAcknowledgement(msg coapmsg.Message) Effects {
	txn := p.transactions.FindByMessageID(msg.MessageID)
	if txn == nil {
		return nil
	}
	ct, ok := txn.(*ConfirmableTransaction)
	if !ok {
		return nil
	}

	if msg.Code.IsEmpty() {
		// Empty ACK: acknowledges receipt only, a separate response is
		// still to come matched by token. Acknowledging frees this
		// transaction's NSTART slot without removing it.
		ct.Acknowledge()
		return p.admitNext()
	}

	// Piggyback ACK: the response travels with the acknowledgement.
	p.transactions.RemoveByMessageID(msg.MessageID)
	p.ids.Release(msg.MessageID)
	resp := &Response{
		Code:      msg.Code,
		Options:   msg.Options,
		Payload:   msg.Payload,
		MessageID: msg.MessageID,
	}
	effects := Effects{resolvedOK(ct.Token(), resp)}
	return append(effects, p.admitNext()...)
}

// onSeparateResponse handles a response arriving as its own CON/NON
// message (matched by token, not message-id), acknowledging it when
// Confirmable.
func (p *Processor) onSeparateResponse(msg coapmsg.Message) Effects {
	if !msg.Code.IsResponse() {
		// A Request- or Reserved-class code arriving on a CON/NON datagram
		// is not a response to any pending exchange; drop it rather than
		// resolving the caller's transaction with a bogus result.
		return nil
	}
	txn := p.transactions.FindByToken(msg.Token)
	if txn == nil {
		return nil
	}
	p.transactions.RemoveByToken(msg.Token)
	p.ids.Release(txn.MessageID())

	resp := &Response{
		Code:        msg.Code,
		Options:     msg.Options,
		Payload:     msg.Payload,
		MessageID:   msg.MessageID,
		Confirmable: msg.Type == coapmsg.Confirmable,
	}
	effects := Effects{}
	if msg.Type == coapmsg.Confirmable {
		if ack, err := encodeEmptyAck(msg.MessageID); err == nil {
			effects = append(effects, transmit(ack))
		}
	}
	effects = append(effects, resolvedOK(txn.Token(), resp))
	return append(effects, p.admitNext()...)
}

func encodeEmptyAck(mid coapmsg.MessageID) ([]byte, error) {
	ack := &coapmsg.Message{
		Type:      coapmsg.Acknowledgement,
		Code:      coapmsg.Empty,
		MessageID: mid,
	}
	buf := make([]byte, 4)
	n, err := coder.DefaultCoder.Encode(ack, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
