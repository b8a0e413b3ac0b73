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
	"github.com/coapium/coapclient/coapmsg/option"
	"github.com/coapium/coapclient/coaptransport/params"
)

// Reliability selects whether an exchange is Confirmable (reliable,
// retransmitted until acknowledged) or Non-confirmable (best effort).
type Reliability int

const (
	ReliabilityConfirmable Reliability = iota
	ReliabilityNonConfirmable
)

// Method identifies the CoAP method (or Ping) a NewRequest carries.
type Method int

const (
	MethodGet Method = iota
	MethodPost
	MethodPut
	MethodDelete
	MethodPing
)

func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPost:
		return "POST"
	case MethodPut:
		return "PUT"
	case MethodDelete:
		return "DELETE"
	case MethodPing:
		return "PING"
	default:
		return "?"
	}
}

// code returns the RFC 7252 request code for m, or Empty for Ping (an
// empty Confirmable message used as a keepalive).
func (m Method) code() coapmsg.Code {
	switch m {
	case MethodGet:
		return coapmsg.GET
	case MethodPost:
		return coapmsg.POST
	case MethodPut:
		return coapmsg.PUT
	case MethodDelete:
		return coapmsg.DELETE
	default:
		return coapmsg.Empty
	}
}

// NewRequest is a tagged union over {Get, Post, Put, Delete, Ping},
// each carrying its method-specific option set and reliability
// policy. The processor never needs to pattern-match on the method
// except for encoding; all downstream logic uses Reliability.
type NewRequest struct {
	Method      Method
	Options     option.Options
	Payload     []byte
	Reliability Reliability

	ConfirmableParams    params.Confirmable
	NonConfirmableParams params.NonConfirmable
}

// Encode renders the request as a coapmsg.Message ready for the
// codec, given an allocated message-id and token.
func (r *NewRequest) Encode(mid coapmsg.MessageID, token coapmsg.Token) *coapmsg.Message {
	typ := coapmsg.Confirmable
	if r.Reliability == ReliabilityNonConfirmable {
		typ = coapmsg.NonConfirmable
	}
	opts := append(option.Options(nil), r.Options...)
	opts.SortByNumber()
	return &coapmsg.Message{
		Type:      typ,
		Code:      r.Method.code(),
		MessageID: mid,
		Token:     token,
		Options:   opts,
		Payload:   r.Payload,
	}
}

// Response is a completed exchange's result delivered to the
// application: the decoded response code, options and payload.
type Response struct {
	Code      coapmsg.Code
	Options   option.Options
	Payload   []byte
	MessageID coapmsg.MessageID

	// Confirmable records whether the peer's response itself demands
	// an acknowledgement (a separate CON response, as opposed to a
	// Piggyback ACK which already serves as the acknowledgement).
	Confirmable bool
}

// EventKind enumerates the four inputs the processor accepts.
type EventKind int

const (
	EventTransactionRequested EventKind = iota
	EventTransactionCanceled
	EventTimeoutReached
	EventDataReceived
)

// Event is one input to Processor.Tick. Exactly one field group is
// populated, selected by Kind.
type Event struct {
	Kind EventKind

	Request *NewRequest    // EventTransactionRequested
	Token   coapmsg.Token  // EventTransactionRequested, EventTransactionCanceled
	Timeout Timeout        // EventTimeoutReached
	Data    []byte         // EventDataReceived
}

// NewTransactionRequested builds the event the driver emits when the
// application asks to start a new exchange.
func NewTransactionRequested(req *NewRequest, token coapmsg.Token) Event {
	return Event{Kind: EventTransactionRequested, Request: req, Token: token}
}

// NewTransactionCanceled builds the event for cooperative cancellation.
func NewTransactionCanceled(token coapmsg.Token) Event {
	return Event{Kind: EventTransactionCanceled, Token: token}
}

// NewTimeoutReached builds the event a fired timer delivers.
func NewTimeoutReached(t Timeout) Event {
	return Event{Kind: EventTimeoutReached, Timeout: t}
}

// NewDataReceived builds the event an inbound datagram delivers.
func NewDataReceived(data []byte) Event {
	return Event{Kind: EventDataReceived, Data: data}
}

// EffectKind enumerates the three outputs the processor can emit.
type EffectKind int

const (
	EffectCreateTimeout EffectKind = iota
	EffectTransmit
	EffectTransactionResolved
)

// Effect is one processor output. Exactly one field group is
// populated, selected by Kind.
type Effect struct {
	Kind EffectKind

	Timeout Timeout       // EffectCreateTimeout
	Bytes   []byte        // EffectTransmit
	Token   coapmsg.Token // EffectTransactionResolved
	Result  *Response     // EffectTransactionResolved, nil on error
	Err     error         // EffectTransactionResolved, nil on success
}

// Effects is an ordered sequence of Effect, emitted in a fixed order:
// lifetime timer before retransmission timer before Transmit;
// Transmit(ACK) before TransactionResolved.
type Effects []Effect

func createTimeout(t Timeout) Effect      { return Effect{Kind: EffectCreateTimeout, Timeout: t} }
func transmit(b []byte) Effect            { return Effect{Kind: EffectTransmit, Bytes: b} }
func resolvedOK(tok coapmsg.Token, r *Response) Effect {
	return Effect{Kind: EffectTransactionResolved, Token: tok, Result: r}
}
func resolvedErr(tok coapmsg.Token, err error) Effect {
	return Effect{Kind: EffectTransactionResolved, Token: tok, Err: err}
}
