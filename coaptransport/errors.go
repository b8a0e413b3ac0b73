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

// Package coaptransport implements the CoAP reliability state
// machine: transmission parameters, per-exchange transactions,
// message-id/transaction stores, and a pure event-driven processor
// that never blocks and owns no socket.
package coaptransport

import "errors"

var (
	// ErrDuplicateToken is returned by Processor.Tick when
	// TransactionRequested names a token already in flight. This is a
	// caller bug, surfaced directly rather than folded into the wire
	// protocol.
	ErrDuplicateToken = errors.New("coaptransport: token already has an outstanding transaction")

	// ErrUnknownEvent is returned for a malformed or unrecognized Event.
	ErrUnknownEvent = errors.New("coaptransport: unrecognized event")
)

// ResponseError is the taxonomy of failures a completed exchange can
// resolve with.
type ResponseError struct {
	Kind ResponseErrorKind
	Err  error // wrapped codec failure, only set when Kind == ResponseErrorCodec
}

// ResponseErrorKind enumerates ResponseError's variants.
type ResponseErrorKind int

const (
	ResponseErrorAcknowledgementTimeout ResponseErrorKind = iota
	ResponseErrorTimeout
	ResponseErrorReset
	ResponseErrorCodec
)

func (e *ResponseError) Error() string {
	switch e.Kind {
	case ResponseErrorAcknowledgementTimeout:
		return "coaptransport: no acknowledgement received within MAX_TRANSMIT_WAIT"
	case ResponseErrorTimeout:
		return "coaptransport: exchange timed out"
	case ResponseErrorReset:
		return "coaptransport: peer sent a reset"
	case ResponseErrorCodec:
		return "coaptransport: inbound datagram failed to decode: " + e.Err.Error()
	default:
		return "coaptransport: response error"
	}
}

func (e *ResponseError) Unwrap() error { return e.Err }

// PingError is the taxonomy of failures a Ping exchange can resolve
// with. A ping's only legitimate reply is a Reset; an actual Response
// is itself unexpected.
type PingError struct {
	Kind     PingErrorKind
	Response *Response // set only when Kind == PingErrorUnexpectedResponse
	Err      error      // set only when Kind == PingErrorCodec
}

// PingErrorKind enumerates PingError's variants.
type PingErrorKind int

const (
	PingErrorUnexpectedResponse PingErrorKind = iota
	PingErrorAcknowledgementTimeout
	PingErrorCodec
	PingErrorTimeout
)

func (e *PingError) Error() string {
	switch e.Kind {
	case PingErrorUnexpectedResponse:
		return "coaptransport: ping received a response instead of a reset"
	case PingErrorAcknowledgementTimeout:
		return "coaptransport: ping received no acknowledgement within MAX_TRANSMIT_WAIT"
	case PingErrorCodec:
		return "coaptransport: ping response failed to decode: " + e.Err.Error()
	case PingErrorTimeout:
		return "coaptransport: ping timed out"
	default:
		return "coaptransport: ping error"
	}
}

func (e *PingError) Unwrap() error { return e.Err }

// IntoPingResult maps a completed exchange's result into ping
// semantics: nil only for a Reset; any Response, even a successful
// one, becomes PingErrorUnexpectedResponse.
func IntoPingResult(resp *Response, err error) *PingError {
	if err == nil {
		return &PingError{Kind: PingErrorUnexpectedResponse, Response: resp}
	}
	var rerr *ResponseError
	if errAs(err, &rerr) {
		switch rerr.Kind {
		case ResponseErrorReset:
			return nil
		case ResponseErrorAcknowledgementTimeout:
			return &PingError{Kind: PingErrorAcknowledgementTimeout}
		case ResponseErrorTimeout:
			return &PingError{Kind: PingErrorTimeout}
		case ResponseErrorCodec:
			return &PingError{Kind: PingErrorCodec, Err: rerr.Err}
		}
	}
	return &PingError{Kind: PingErrorCodec, Err: err}
}

// errAs reports whether err itself is a *ResponseError and, if so,
// stores it in target. Unlike errors.As it does not look through
// wrapped errors.
func errAs(err error, target **ResponseError) bool {
	re, ok := err.(*ResponseError)
	if !ok {
		return false
	}
	*target = re
	return true
}
