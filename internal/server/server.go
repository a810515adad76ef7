// Package server implements the server-side session-management logic:
// accepting pending TCP peers, validating their session-request, and
// broadcasting roster changes.
package server

import (
	"net"

	"tanknet/internal/protocol"
	"tanknet/internal/session"
	"tanknet/internal/transport/tcp"
	"tanknet/pkg/logger"
	"tanknet/pkg/wire"
)

// PendingPeer is a newly accepted TCP connection that hasn't yet sent
// its session-request. It holds id 0, like the spec's pending peer.
type PendingPeer struct {
	End *tcp.End
}

// Server owns the roster, the fan-out queue, and every pending peer
// awaiting a session-request.
type Server struct {
	Roster     *session.Roster
	Fanout     *tcp.FanoutQueue
	pending    map[*tcp.End]*PendingPeer
	tcpEndByID map[uint16]*tcp.End
}

// NewServer creates a server whose own roster entry is the server
// itself (id 0).
func NewServer(maxClients uint16, password string, startTime float32, selfAddr net.IP, selfPort uint16) *Server {
	roster := session.NewRoster(session.ServerID, maxClients, password, startTime)
	roster.Add(session.Member{ID: session.ServerID, IP: selfAddr, Port: selfPort})
	return &Server{
		Roster:     roster,
		Fanout:     tcp.NewFanoutQueue(),
		pending:    make(map[*tcp.End]*PendingPeer),
		tcpEndByID: make(map[uint16]*tcp.End),
	}
}

// OnAccept registers a freshly accepted TCP connection as pending.
func (s *Server) OnAccept(end *tcp.End) {
	s.pending[end] = &PendingPeer{End: end}
}

// OnSessionRequest processes a session-request from a pending peer,
// sending the appropriate reply and, on acceptance, broadcasting
// session-new-member to the rest of the roster.
func (s *Server) OnSessionRequest(end *tcp.End, req protocol.SessionRequest) error {
	peer, ok := s.pending[end]
	if !ok {
		return errNotPending
	}

	full := s.Roster.MaxClients() != 0 && uint16(s.Roster.Len()) == s.Roster.MaxClients()+1
	if full {
		logger.Warn("session request rejected: session full")
		return s.reject(peer, protocol.TagSessionIsFull)
	}
	if s.Roster.Password() != "" && s.Roster.Password() != req.Password {
		logger.Warn("session request rejected: wrong password")
		return s.reject(peer, protocol.TagSessionWrongPassword)
	}

	id := s.Roster.NextFreeID()
	member := session.Member{
		ID:        id,
		IP:        protocol.Uint32ToIPv4(req.IP),
		Port:      req.UDPPort,
		Multicast: req.Multicast,
	}

	delete(s.pending, end)
	s.tcpEndByID[id] = end
	s.Fanout.Register(id, end)
	s.Roster.Add(member)

	resp := protocol.SessionPositiveResponse{
		AssignedID: id,
		MaxClients: s.Roster.MaxClients(),
		Password:   s.Roster.Password(),
		StartTime:  s.Roster.StartTime(),
	}
	for _, m := range s.Roster.Members() {
		resp.Members = append(resp.Members, m.Info())
	}
	if err := sendMessage(end, resp.Encode, resp.WireSize()); err != nil {
		return err
	}

	newMember := protocol.SessionNewMember{Member: member.Info()}
	s.broadcastExcept(newMember.Encode, newMember.WireSize(), id)
	return nil
}

func (s *Server) reject(peer *PendingPeer, tag protocol.Tag) error {
	w := wire.NewWriter(1)
	protocol.EncodeEmptyTCP(w, tag)
	if err := peer.End.Send(w.Bytes()); err != nil {
		return err
	}
	delete(s.pending, peer.End)
	return peer.End.StopSending()
}

// OnDisconnect handles a peer disconnect: removes it from the roster (a
// no-op for the server's own id) and broadcasts session-remove-member.
func (s *Server) OnDisconnect(id uint16) {
	if id == session.ServerID {
		return
	}
	s.Roster.Remove(id)
	delete(s.tcpEndByID, id)
	s.Fanout.Unregister(id)

	msg := protocol.SessionRemoveMember{ID: id}
	s.broadcastExcept(msg.Encode, msg.WireSize(), 0)
}

func (s *Server) broadcastExcept(encode func(*wire.Writer), bodySize int, exceptID uint16) {
	w := wire.NewWriter(bodySize + 1)
	encode(w)
	var receivers []uint16
	for _, m := range s.Roster.Members() {
		if m.ID == session.ServerID || m.ID == exceptID {
			continue
		}
		receivers = append(receivers, m.ID)
	}
	if len(receivers) > 0 {
		s.Fanout.Enqueue(w.Bytes(), receivers)
	}
}

// PendingCount exposes how many peers haven't yet sent session-request,
// for tests and metrics.
func (s *Server) PendingCount() int { return len(s.pending) }

// EndByID returns the TCP endpoint for an established member, for
// callers polling connections after session-request has been accepted.
func (s *Server) EndByID(id uint16) (*tcp.End, bool) {
	end, ok := s.tcpEndByID[id]
	return end, ok
}

// EstablishedIDs returns every non-pending member id with a live TCP
// endpoint.
func (s *Server) EstablishedIDs() []uint16 {
	ids := make([]uint16, 0, len(s.tcpEndByID))
	for id := range s.tcpEndByID {
		ids = append(ids, id)
	}
	return ids
}
