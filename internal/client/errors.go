package client

import (
	"errors"
	"fmt"

	"tanknet/internal/transport/tcp"
	"tanknet/pkg/wire"
)

// ErrTimeout is returned by PollConnecting when the connect deadline
// passes before the TCP handshake completes.
var ErrTimeout = errors.New("client: connect timeout")

var errTimeout = ErrTimeout

func errNotIn(want string) error {
	return fmt.Errorf("client: operation invalid in current state, expected %s", want)
}

// sendMessage encodes one message via encode into a right-sized buffer
// and hands it to end.Send.
func sendMessage(end *tcp.End, encode func(*wire.Writer), bodySize int) error {
	w := wire.NewWriter(bodySize + 1)
	encode(w)
	return end.Send(w.Bytes())
}
