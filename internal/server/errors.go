package server

import (
	"errors"

	"tanknet/internal/transport/tcp"
	"tanknet/pkg/wire"
)

var errNotPending = errors.New("server: session-request from a non-pending peer")

func sendMessage(end *tcp.End, encode func(*wire.Writer), bodySize int) error {
	w := wire.NewWriter(bodySize + 1)
	encode(w)
	return end.Send(w.Bytes())
}
