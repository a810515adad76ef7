package server

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"tanknet/internal/protocol"
)

// TestFullJoinAndDisconnectFlow drives the server through accept, session
// request, established-connection bookkeeping, and disconnect end to end,
// the way a real tanknetd event loop would.
func TestFullJoinAndDisconnectFlow(t *testing.T) {
	_, peerEnd := localEnd(t)
	defer peerEnd.Close()

	s := NewServer(4, "", 0, net.IPv4(10, 0, 0, 1), 7777)
	s.OnAccept(peerEnd)
	require.Equal(t, 1, s.PendingCount())

	req := protocol.SessionRequest{IP: 0x0A000002, UDPPort: 9000}
	require.NoError(t, s.OnSessionRequest(peerEnd, req))
	require.Equal(t, 0, s.PendingCount())
	require.Equal(t, 2, s.Roster.Len())

	end, ok := s.EndByID(1)
	require.True(t, ok)
	require.Same(t, peerEnd, end)
	require.ElementsMatch(t, []uint16{1}, s.EstablishedIDs())

	s.OnDisconnect(1)
	_, ok = s.EndByID(1)
	require.False(t, ok, "expected established endpoint removed after disconnect")
	require.Empty(t, s.EstablishedIDs())
}
