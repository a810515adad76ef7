// Package client implements the client-side connection state machine
// described in the spec: a tagged-variant state type, rather than the
// raw-pointer state-object cycles the original C++ source used, so each
// variant owns its resources exclusively and transitions simply replace
// the Client's current state.
package client

import (
	"net"
	"time"

	"tanknet/internal/protocol"
	"tanknet/internal/session"
	"tanknet/internal/transport/tcp"
)

// DefaultConnectTimeout is how long Connecting waits for the TCP
// handshake to complete before giving up.
const DefaultConnectTimeout = 1 * time.Second

// State is the tagged variant of connection states. Each concrete type
// below is one variant; Client holds exactly one at a time.
type State interface {
	state()
}

// Disconnected is the initial state and every terminal close's landing
// state.
type Disconnected struct{}

func (Disconnected) state() {}

// Connecting holds the in-flight dial and its deadline.
type Connecting struct {
	End      *tcp.End
	Deadline time.Time
}

func (Connecting) state() {}

// Connected means the TCP handshake completed and session-request has
// been sent; it's waiting for the server's session response.
type Connected struct {
	End *tcp.End
}

func (Connected) state() {}

// ReadyToUse is the fully joined state: a session-positive-response has
// been received and the roster is live.
type ReadyToUse struct {
	End     *tcp.End
	OwnID   uint16
	Roster  *session.Roster
}

func (ReadyToUse) state() {}

// Disconnecting means the local side has half-closed and is waiting for
// the peer's FIN before fully tearing down.
type Disconnecting struct {
	End *tcp.End
}

func (Disconnecting) state() {}

// Client drives the state machine described in §4.9. It is not
// goroutine-safe; callers drive it from a single event loop.
type Client struct {
	state         State
	localUDPPort  uint16
	password      string
	multicast     bool
	connectDialer func(addr string, timeout time.Duration) (*tcp.End, error)
}

// NewClient creates a client in the Disconnected state. dialer defaults
// to tcp.Dial; tests substitute a fake to avoid real sockets.
func NewClient(localUDPPort uint16, password string, multicast bool) *Client {
	return &Client{
		state:         Disconnected{},
		localUDPPort:  localUDPPort,
		password:      password,
		multicast:     multicast,
		connectDialer: tcp.Dial,
	}
}

// State returns the current state variant for inspection/tests.
func (c *Client) State() State { return c.state }

// Connect transitions Disconnected -> Connecting by dialing addr.
func (c *Client) Connect(addr string) error {
	if _, ok := c.state.(Disconnected); !ok {
		return errNotIn("Disconnected")
	}
	end, err := c.connectDialer(addr, DefaultConnectTimeout)
	if err != nil {
		c.state = Disconnected{}
		return err
	}
	c.state = Connecting{End: end, Deadline: time.Now().Add(DefaultConnectTimeout)}
	return nil
}

// PollConnecting checks the connect timeout and, on success, sends the
// session-request and transitions to Connected. now is injected so
// tests don't depend on wall-clock timing.
func (c *Client) PollConnecting(now time.Time, localIP net.IP) error {
	conn, ok := c.state.(Connecting)
	if !ok {
		return errNotIn("Connecting")
	}
	if now.After(conn.Deadline) {
		conn.End.Close()
		c.state = Disconnected{}
		return errTimeout
	}
	req := protocol.SessionRequest{
		IP:        protocol.IPv4ToUint32(localIP),
		UDPPort:   c.localUDPPort,
		Password:  c.password,
		Multicast: c.multicast,
	}
	if err := sendMessage(conn.End, req.Encode, req.WireSize()); err != nil {
		return err
	}
	c.state = Connected{End: conn.End}
	return nil
}

// OnSessionPositiveResponse transitions Connected -> ReadyToUse.
func (c *Client) OnSessionPositiveResponse(resp protocol.SessionPositiveResponse) error {
	conn, ok := c.state.(Connected)
	if !ok {
		return errNotIn("Connected")
	}
	roster := session.NewRoster(resp.AssignedID, resp.MaxClients, resp.Password, resp.StartTime)
	for _, mi := range resp.Members {
		roster.Add(session.MemberFromInfo(mi))
	}
	c.state = ReadyToUse{End: conn.End, OwnID: resp.AssignedID, Roster: roster}
	return nil
}

// OnSessionRejected transitions Connected -> Disconnecting on
// session-is-full or session-wrong-password.
func (c *Client) OnSessionRejected() error {
	conn, ok := c.state.(Connected)
	if !ok {
		return errNotIn("Connected")
	}
	conn.End.StopSending()
	c.state = Disconnecting{End: conn.End}
	return nil
}

// RequestDisconnect transitions ReadyToUse -> Disconnecting.
func (c *Client) RequestDisconnect() error {
	ready, ok := c.state.(ReadyToUse)
	if !ok {
		return errNotIn("ReadyToUse")
	}
	ready.End.StopSending()
	c.state = Disconnecting{End: ready.End}
	return nil
}

// OnRemoveMemberSelf handles a server-initiated remove-member for our
// own id: ReadyToUse -> Disconnecting.
func (c *Client) OnRemoveMemberSelf() error {
	return c.RequestDisconnect()
}

// OnTCPClosed handles an unexpected TCP close from Connecting, Connected
// or ReadyToUse, or the expected one from Disconnecting: always lands on
// Disconnected.
func (c *Client) OnTCPClosed() {
	switch s := c.state.(type) {
	case Connecting:
		s.End.Close()
	case Connected:
		s.End.Close()
	case ReadyToUse:
		s.End.Close()
	case Disconnecting:
		s.End.Close()
	}
	c.state = Disconnected{}
}

// OnPeerFIN completes the Disconnecting -> Disconnected transition once
// the peer's own FIN arrives (a zero-byte read after StopSending).
func (c *Client) OnPeerFIN() error {
	d, ok := c.state.(Disconnecting)
	if !ok {
		return errNotIn("Disconnecting")
	}
	d.End.Close()
	c.state = Disconnected{}
	return nil
}
