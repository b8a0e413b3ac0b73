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

// Package coapclient is the driver shell: it owns the UDP socket and
// the timers, translates them into coaptransport.Event values for the
// single-threaded Processor, and carries out the Effects the
// Processor returns, using Go channels and goroutines (one per armed
// timer, waiting on time.After) in place of an async runtime's
// task/select loop.
package coapclient

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/coapium/coapclient/coapmsg"
	"github.com/coapium/coapclient/coaplog"
	"github.com/coapium/coapclient/coaptransport"
	"github.com/coapium/coapclient/coaptransport/params"
)

// result is what a pending request's goroutine blocks on.
type result struct {
	response *coaptransport.Response
	err      error
}

type pendingRequest struct {
	token  coapmsg.Token
	result chan result
}

type requestCommand struct {
	req    *coaptransport.NewRequest
	token  coapmsg.Token
	result chan result
}

type cancelCommand struct {
	token coapmsg.Token
}

// Driver is a live CoAP client session bound to one peer over one UDP
// socket. All protocol state lives on a single goroutine (run); the
// exported methods are safe to call concurrently from any number of
// goroutines and communicate with run purely over channels.
type Driver struct {
	conn *net.UDPConn
	log  coaplog.Logger

	processor *coaptransport.Processor

	commands chan interface{}
	timeouts chan coaptransport.Timeout
	incoming chan []byte

	requests []pendingRequest

	done   chan struct{}
	closed chan struct{}
}

// Dial opens a UDP socket connected to addr and starts the driver's
// background goroutines. The caller must call Close when finished.
func Dial(addr string, log coaplog.Logger) (*Driver, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("coapclient: resolve %q: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("coapclient: dial %q: %w", addr, err)
	}
	if log == nil {
		log = coaplog.NopLogger{}
	}

	d := &Driver{
		conn:      conn,
		log:       log,
		processor: coaptransport.NewProcessor(coaptransport.NewMessageIdStore(0), coaptransport.NewTransactionStore(params.NSTART)),
		commands:  make(chan interface{}),
		timeouts:  make(chan coaptransport.Timeout, 16),
		incoming:  make(chan []byte, 16),
		done:      make(chan struct{}),
		closed:    make(chan struct{}),
	}

	go d.readLoop()
	go d.run()
	return d, nil
}

// Close shuts the driver down: stops the read loop, resolves every
// still-pending request with an error, and closes the socket. The
// socket-close error, if any, is returned through a multierror.
func (d *Driver) Close() error {
	close(d.done)
	<-d.closed

	var errs *multierror.Error
	if err := d.conn.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

func (d *Driver) readLoop() {
	buf := make([]byte, params.PathMTU)
	for {
		select {
		case <-d.done:
			return
		default:
		}
		n, err := d.conn.Read(buf)
		if err != nil {
			select {
			case <-d.done:
			default:
				d.log.Errorf("coapclient: socket read failed: %v", err)
			}
			return
		}
		data := append([]byte(nil), buf[:n]...)
		select {
		case d.incoming <- data:
		case <-d.done:
			return
		}
	}
}

// run is the driver's single-threaded event loop: it is the only
// goroutine that ever touches d.processor or d.requests.
func (d *Driver) run() {
	defer close(d.closed)
	for {
		select {
		case <-d.done:
			d.drain(errors.New("coapclient: driver closed"))
			return
		case cmd := <-d.commands:
			d.handleCommand(cmd)
		case t := <-d.timeouts:
			d.tick(coaptransport.NewTimeoutReached(t))
		case data := <-d.incoming:
			d.tick(coaptransport.NewDataReceived(data))
		}
	}
}

func (d *Driver) drain(err error) {
	for _, p := range d.requests {
		p.result <- result{err: err}
	}
	d.requests = nil
}

func (d *Driver) handleCommand(cmd interface{}) {
	switch c := cmd.(type) {
	case *requestCommand:
		// Registering the pending entry before ticking the event keeps
		// request start and bookkeeping atomic on the run goroutine: no
		// response for this token can arrive and be dispatched before
		// d.requests knows about it.
		d.requests = append(d.requests, pendingRequest{token: c.token, result: c.result})
		d.tick(coaptransport.NewTransactionRequested(c.req, c.token))
	case *cancelCommand:
		d.removeRequest(c.token)
		d.tick(coaptransport.NewTransactionCanceled(c.token))
	}
}

// removeRequest drops the pending-request entry for token, keeping
// every other entry.
func (d *Driver) removeRequest(token coapmsg.Token) {
	kept := d.requests[:0]
	for _, p := range d.requests {
		if !p.token.Equal(token) {
			kept = append(kept, p)
		}
	}
	d.requests = kept
}

func (d *Driver) tick(ev coaptransport.Event) {
	effects, err := d.processor.Tick(ev)
	if err != nil {
		d.log.Errorf("coapclient: processor rejected event: %v", err)
		return
	}
	d.dispatch(effects)
}

func (d *Driver) dispatch(effects coaptransport.Effects) {
	for _, e := range effects {
		switch e.Kind {
		case coaptransport.EffectCreateTimeout:
			d.armTimeout(e.Timeout)
		case coaptransport.EffectTransmit:
			if _, err := d.conn.Write(e.Bytes); err != nil {
				d.log.Errorf("coapclient: socket write failed: %v", err)
			}
		case coaptransport.EffectTransactionResolved:
			d.resolve(e.Token, e.Result, e.Err)
		}
	}
}

func (d *Driver) armTimeout(t coaptransport.Timeout) {
	timer := t
	go func() {
		select {
		case <-time.After(t.Duration):
		case <-d.done:
			return
		}
		select {
		case d.timeouts <- timer:
		case <-d.done:
		}
	}()
}

func (d *Driver) resolve(token coapmsg.Token, resp *coaptransport.Response, err error) {
	for i, p := range d.requests {
		if p.token.Equal(token) {
			d.requests = append(d.requests[:i], d.requests[i+1:]...)
			p.result <- result{response: resp, err: err}
			return
		}
	}
}

// Do submits req and blocks until the exchange resolves, an error
// occurs, or ctx is canceled (in which case the transaction is
// canceled cooperatively and ctx.Err() is returned).
func (d *Driver) Do(ctx context.Context, req *coaptransport.NewRequest) (*coaptransport.Response, error) {
	token, err := coapmsg.NewToken()
	if err != nil {
		return nil, fmt.Errorf("coapclient: generate token: %w", err)
	}

	resultCh := make(chan result, 1)
	cmd := &requestCommand{req: req, token: token, result: resultCh}

	select {
	case d.commands <- cmd:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.closed:
		return nil, errDriverClosed
	}

	select {
	case r := <-resultCh:
		return r.response, r.err
	case <-ctx.Done():
		d.cancel(token)
		return nil, ctx.Err()
	case <-d.closed:
		return nil, errDriverClosed
	}
}

func (d *Driver) cancel(token coapmsg.Token) {
	select {
	case d.commands <- &cancelCommand{token: token}:
	case <-d.closed:
	}
}

var errDriverClosed = errors.New("coapclient: driver is closed")

// newRandomToken is exposed for tests that need deterministic-looking
// but still unique tokens without depending on coapmsg internals.
func newRandomToken(n int) (coapmsg.Token, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return coapmsg.Token(b), nil
}
