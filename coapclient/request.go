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

package coapclient

import (
	"context"
	"fmt"
	"net/url"

	"github.com/coapium/coapclient/coapmsg"
	"github.com/coapium/coapclient/coapmsg/option"
	"github.com/coapium/coapclient/coaptransport"
	"github.com/coapium/coapclient/coaptransport/params"
)

// RequestBuilder is the fluent surface shared by every method-specific
// builder below (Get/Post/Put/Delete all return the same type, built
// up with the method fixed at construction).
type RequestBuilder struct {
	method  coaptransport.Method
	host    string
	path    []string
	port    uint16
	query   []string
	payload []byte

	hasContentFormat bool
	contentFormat    coapmsg.MediaType

	ifMatch        [][]byte
	hasIfNoneMatch bool

	reliability       coaptransport.Reliability
	confirmableParams params.Confirmable
	nonConfirmable    params.NonConfirmable
}

func newBuilder(method coaptransport.Method) *RequestBuilder {
	jitter, _ := params.NewJitterFactor(0.5)
	return &RequestBuilder{
		method:            method,
		reliability:       coaptransport.ReliabilityConfirmable,
		confirmableParams: params.DefaultConfirmable(jitter),
		nonConfirmable:    params.DefaultNonConfirmable(),
	}
}

// Get starts a GET request builder.
func Get() *RequestBuilder { return newBuilder(coaptransport.MethodGet) }

// Post starts a POST request builder.
func Post() *RequestBuilder { return newBuilder(coaptransport.MethodPost) }

// Put starts a PUT request builder.
func Put() *RequestBuilder { return newBuilder(coaptransport.MethodPut) }

// Delete starts a DELETE request builder.
func Delete() *RequestBuilder { return newBuilder(coaptransport.MethodDelete) }

// Host sets the Uri-Host option.
func (b *RequestBuilder) Host(host string) *RequestBuilder {
	b.host = host
	return b
}

// Path appends one Uri-Path segment (call repeatedly for "/a/b/c").
func (b *RequestBuilder) Path(segment string) *RequestBuilder {
	b.path = append(b.path, segment)
	return b
}

// Port sets the Uri-Port option.
func (b *RequestBuilder) Port(port uint16) *RequestBuilder {
	b.port = port
	return b
}

// QueryParameter appends one Uri-Query option verbatim, for a caller
// that already holds a pre-encoded query segment (such as one split
// off an incoming URL's raw query string via FromURL) and must not
// double-encode it. Callers building a query value from scratch
// should use AddQueryValue or AddQueryKeyValue instead.
func (b *RequestBuilder) QueryParameter(q string) *RequestBuilder {
	b.query = append(b.query, q)
	return b
}

// AddQueryValue percent-encodes v and appends it as one Uri-Query
// option value.
func (b *RequestBuilder) AddQueryValue(v string) *RequestBuilder {
	b.query = append(b.query, url.QueryEscape(v))
	return b
}

// AddQueryKeyValue percent-encodes k and v independently and appends
// "k=v" as one Uri-Query option value.
func (b *RequestBuilder) AddQueryKeyValue(k, v string) *RequestBuilder {
	b.query = append(b.query, url.QueryEscape(k)+"="+url.QueryEscape(v))
	return b
}

// Payload sets the request body.
func (b *RequestBuilder) Payload(p []byte) *RequestBuilder {
	b.payload = p
	return b
}

// ContentFormat sets the Content-Format option describing Payload's media type.
func (b *RequestBuilder) ContentFormat(mt coapmsg.MediaType) *RequestBuilder {
	b.contentFormat = mt
	b.hasContentFormat = true
	return b
}

// IfMatch appends an If-Match option carrying etag, making the
// request conditional on the resource's current ETag matching one of
// the accumulated values (RFC 7252 §5.10.8.1). Critical and PUT-only
// per the option catalogue; Build rejects it on any other method.
func (b *RequestBuilder) IfMatch(etag []byte) *RequestBuilder {
	b.ifMatch = append(b.ifMatch, etag)
	return b
}

// IfNoneMatch sets the empty If-None-Match option, making the request
// conditional on the resource not already existing (RFC 7252
// §5.10.8.2).
func (b *RequestBuilder) IfNoneMatch() *RequestBuilder {
	b.hasIfNoneMatch = true
	return b
}

// Confirmable makes the exchange reliable with the given retransmission parameters.
func (b *RequestBuilder) Confirmable(p params.Confirmable) *RequestBuilder {
	b.reliability = coaptransport.ReliabilityConfirmable
	b.confirmableParams = p
	return b
}

// NonConfirmable makes the exchange best-effort with the given parameters.
func (b *RequestBuilder) NonConfirmable(p params.NonConfirmable) *RequestBuilder {
	b.reliability = coaptransport.ReliabilityNonConfirmable
	b.nonConfirmable = p
	return b
}

// FromURL populates Host/Port/Path/QueryParameter from a parsed URL
// (see url.go), the idiomatic alternative to chaining each component
// by hand.
func (b *RequestBuilder) FromURL(u *URL) *RequestBuilder {
	b.host = u.Host
	b.port = u.Port
	b.path = append([]string(nil), u.Path...)
	b.query = append([]string(nil), u.Query...)
	return b
}

// ErrOptionNotAllowed is returned by Build when a critical option is
// not in the request method's allow-list (option.AllowedForMethod).
var ErrOptionNotAllowed = fmt.Errorf("coapclient: critical option not allowed for method")

// Build renders the accumulated builder state into a
// coaptransport.NewRequest, validating the host and rejecting any
// critical option the method's allow-list excludes.
func (b *RequestBuilder) Build() (*coaptransport.NewRequest, error) {
	var opts option.Options
	if b.host != "" {
		host, err := validateHost(b.host)
		if err != nil {
			return nil, err
		}
		opts.Add(option.URIHost, option.NewString(host))
	}
	if b.port != 0 {
		opts.Add(option.URIPort, option.NewUint32(uint32(b.port)))
	}
	for _, seg := range b.path {
		opts.Add(option.URIPath, option.NewString(seg))
	}
	for _, q := range b.query {
		opts.Add(option.URIQuery, option.NewString(q))
	}
	for _, etag := range b.ifMatch {
		opts.Add(option.IfMatch, option.NewOpaque(etag))
	}
	if b.hasIfNoneMatch {
		opts.Add(option.IfNoneMatch, option.Empty)
	}
	if b.hasContentFormat {
		opts.Add(option.ContentFormat, option.NewUint32(uint32(b.contentFormat)))
	}
	opts.SortByNumber()

	method := b.method.String()
	for _, opt := range opts {
		if !option.AllowedForMethod(method, opt.Number) {
			return nil, fmt.Errorf("%w: option %d on a %s request", ErrOptionNotAllowed, opt.Number, method)
		}
	}

	return &coaptransport.NewRequest{
		Method:               b.method,
		Options:              opts,
		Payload:              b.payload,
		Reliability:          b.reliability,
		ConfirmableParams:    b.confirmableParams,
		NonConfirmableParams: b.nonConfirmable,
	}, nil
}

// Do builds and submits the request through d, blocking for the result.
func (b *RequestBuilder) Do(ctx context.Context, d *Driver) (*coaptransport.Response, error) {
	req, err := b.Build()
	if err != nil {
		return nil, err
	}
	return d.Do(ctx, req)
}

// Ping builds the empty-Confirmable ping request (RFC 7252 §4.2: an
// empty Confirmable message elicits a Reset, used as a keepalive);
// only a Reset is a successful outcome, via coaptransport.IntoPingResult.
func Ping() *coaptransport.NewRequest {
	jitter, _ := params.NewJitterFactor(0.5)
	return &coaptransport.NewRequest{
		Method:               coaptransport.MethodPing,
		Reliability:          coaptransport.ReliabilityConfirmable,
		ConfirmableParams:    params.DefaultConfirmable(jitter),
		NonConfirmableParams: params.DefaultNonConfirmable(),
	}
}
