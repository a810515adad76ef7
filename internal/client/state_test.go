package client

import (
	"net"
	"testing"
	"time"

	"tanknet/internal/protocol"
	"tanknet/internal/transport/tcp"
)

func localEndPair(t *testing.T) (*tcp.End, *tcp.End) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, _ := ln.Accept()
		accepted <- c
	}()
	clientConn, err := net.DialTimeout("tcp", ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	serverConn := <-accepted

	ce, err := tcp.NewEnd(clientConn.(*net.TCPConn))
	if err != nil {
		t.Fatalf("new client end: %v", err)
	}
	se, err := tcp.NewEnd(serverConn.(*net.TCPConn))
	if err != nil {
		t.Fatalf("new server end: %v", err)
	}
	return ce, se
}

func fakeDialer(end *tcp.End) func(string, time.Duration) (*tcp.End, error) {
	return func(string, time.Duration) (*tcp.End, error) { return end, nil }
}

func TestClientConnectLifecycle(t *testing.T) {
	ce, se := localEndPair(t)
	defer se.Close()

	c := NewClient(9000, "pw", true)
	c.connectDialer = fakeDialer(ce)

	if err := c.Connect("ignored"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, ok := c.State().(Connecting); !ok {
		t.Fatalf("expected Connecting, got %T", c.State())
	}

	if err := c.PollConnecting(time.Now(), net.IPv4(127, 0, 0, 1)); err != nil {
		t.Fatalf("poll connecting: %v", err)
	}
	if _, ok := c.State().(Connected); !ok {
		t.Fatalf("expected Connected, got %T", c.State())
	}

	resp := protocol.SessionPositiveResponse{AssignedID: 1, MaxClients: 4, StartTime: 0}
	if err := c.OnSessionPositiveResponse(resp); err != nil {
		t.Fatalf("session positive response: %v", err)
	}
	ready, ok := c.State().(ReadyToUse)
	if !ok {
		t.Fatalf("expected ReadyToUse, got %T", c.State())
	}
	if ready.OwnID != 1 {
		t.Fatalf("expected ownID 1, got %d", ready.OwnID)
	}

	if err := c.RequestDisconnect(); err != nil {
		t.Fatalf("request disconnect: %v", err)
	}
	if _, ok := c.State().(Disconnecting); !ok {
		t.Fatalf("expected Disconnecting, got %T", c.State())
	}
}

func TestClientConnectTimeoutReturnsToDisconnected(t *testing.T) {
	ce, se := localEndPair(t)
	defer se.Close()

	c := NewClient(9000, "pw", false)
	c.connectDialer = fakeDialer(ce)
	c.Connect("ignored")

	past := time.Now().Add(-time.Hour)
	c.state = Connecting{End: ce, Deadline: past}
	if err := c.PollConnecting(time.Now(), net.IPv4(127, 0, 0, 1)); err != errTimeout {
		t.Fatalf("expected errTimeout, got %v", err)
	}
	if _, ok := c.State().(Disconnected); !ok {
		t.Fatalf("expected Disconnected after timeout, got %T", c.State())
	}
}

func TestOnSessionRejectedTransitionsToDisconnecting(t *testing.T) {
	ce, se := localEndPair(t)
	defer se.Close()

	c := NewClient(9000, "pw", false)
	c.state = Connected{End: ce}

	if err := c.OnSessionRejected(); err != nil {
		t.Fatalf("on session rejected: %v", err)
	}
	if _, ok := c.State().(Disconnecting); !ok {
		t.Fatalf("expected Disconnecting, got %T", c.State())
	}
}

func TestOnTCPClosedAlwaysLandsOnDisconnected(t *testing.T) {
	ce, se := localEndPair(t)
	defer se.Close()

	c := NewClient(9000, "pw", false)
	c.state = ReadyToUse{End: ce}
	c.OnTCPClosed()
	if _, ok := c.State().(Disconnected); !ok {
		t.Fatalf("expected Disconnected, got %T", c.State())
	}
}

func TestOperationInvalidInWrongStateReturnsError(t *testing.T) {
	c := NewClient(9000, "pw", false)
	if err := c.RequestDisconnect(); err == nil {
		t.Fatal("expected error requesting disconnect while Disconnected")
	}
}
