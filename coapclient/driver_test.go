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
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coapium/coapclient/coapmsg"
	"github.com/coapium/coapclient/coapmsg/coder"
)

// fakeServer is a bare UDP listener that lets a test script how to
// respond to each datagram it receives, standing in for a peer.
type fakeServer struct {
	conn *net.UDPConn
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	return &fakeServer{conn: conn}
}

func (s *fakeServer) addr() string { return s.conn.LocalAddr().String() }

func (s *fakeServer) close() { s.conn.Close() }

// recvRequest blocks until a datagram arrives and decodes it.
func (s *fakeServer) recvRequest(t *testing.T) (coapmsg.Message, *net.UDPAddr) {
	t.Helper()
	buf := make([]byte, 1152)
	s.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	n, from, err := s.conn.ReadFromUDP(buf)
	require.NoError(t, err)
	var msg coapmsg.Message
	_, err = coder.DefaultCoder.Decode(buf[:n], &msg)
	require.NoError(t, err)
	return msg, from
}

func (s *fakeServer) send(t *testing.T, msg *coapmsg.Message, to *net.UDPAddr) {
	t.Helper()
	buf := make([]byte, 1152)
	n, err := coder.DefaultCoder.Encode(msg, buf)
	require.NoError(t, err)
	_, err = s.conn.WriteToUDP(buf[:n], to)
	require.NoError(t, err)
}

func TestDriverPiggybackAckRoundTrip(t *testing.T) {
	server := newFakeServer(t)
	defer server.close()

	d, err := Dial(server.addr(), nil)
	require.NoError(t, err)
	defer d.Close()

	done := make(chan struct{})
	go func() {
		req, from := server.recvRequest(t)
		server.send(t, &coapmsg.Message{
			Type:      coapmsg.Acknowledgement,
			Code:      coapmsg.Content,
			MessageID: req.MessageID,
			Token:     req.Token,
			Payload:   []byte("pong"),
		}, from)
		close(done)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r, err := Get().Path("ping").Do(ctx, d)
	require.NoError(t, err)
	require.Equal(t, []byte("pong"), r.Payload)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("server goroutine never completed")
	}
}

func TestDriverContextCancelReturnsContextError(t *testing.T) {
	server := newFakeServer(t)
	defer server.close()

	d, err := Dial(server.addr(), nil)
	require.NoError(t, err)
	defer d.Close()

	// Never reply; the request should observe ctx cancellation, not
	// hang or race against a later spurious resolution.
	go func() { server.recvRequest(t) }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = Get().Path("slow").Do(ctx, d)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDriverCloseDrainsPendingRequests(t *testing.T) {
	server := newFakeServer(t)
	defer server.close()

	d, err := Dial(server.addr(), nil)
	require.NoError(t, err)

	resultCh := make(chan error, 1)
	go func() {
		_, err := Get().Path("never").Do(context.Background(), d)
		resultCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, d.Close())

	select {
	case err := <-resultCh:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("pending request was never drained on close")
	}
}
