// Command tanknetd is the dedicated server: it accepts TCP session
// connections, answers LAN discovery probes, drives clock-sync and the
// per-member UDP peer senders, and serves Prometheus metrics.
package main

import (
	"flag"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"tanknet/internal/config"
	"tanknet/internal/discovery"
	"tanknet/internal/metrics"
	"tanknet/internal/netstat"
	"tanknet/internal/protocol"
	"tanknet/internal/server"
	"tanknet/internal/session"
	"tanknet/internal/timesync"
	"tanknet/internal/transport/tcp"
	"tanknet/internal/transport/udp"
	"tanknet/pkg/clock"
	"tanknet/pkg/logger"
	"tanknet/pkg/wire"
)

const version = "1.0.0"

func main() {
	logger.Banner("tanknet server", version)

	cfg := config.DefaultServer()
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	clk := clock.New()
	selfIP := net.ParseIP(cfg.Host)
	srv := server.NewServer(uint16(cfg.MaxClients), cfg.Password, float32(clk.Seconds()), selfIP, uint16(cfg.UDPPort))

	reg := metrics.NewRegistry()

	tracker := timesync.NewServerTracker()
	tracker.AttachMetrics(reg)
	srv.Roster.Register(tracker)

	peers := newPeerSenderSet(cfg, tracker, reg)
	srv.Roster.Register(peers)

	go func() {
		if err := reg.Serve(cfg.MetricsPort); err != nil {
			logger.Error("metrics server stopped: %v", err)
		}
	}()

	ln, err := net.Listen("tcp", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.TCPPort)))
	if err != nil {
		logger.Fatal("failed to bind TCP listener: %v", err)
	}
	tcpLn := ln.(*net.TCPListener)
	defer tcpLn.Close()

	udpSock, err := udp.ListenServer(&net.UDPAddr{IP: selfIP, Port: cfg.UDPPort})
	if err != nil {
		logger.Fatal("failed to bind UDP socket: %v", err)
	}
	defer udpSock.Close()

	advertiser := discovery.NewAdvertiser(selfIP, uint16(cfg.TCPPort))

	logger.Success("listening: tcp=%d udp=%d metrics=%d", cfg.TCPPort, cfg.UDPPort, cfg.MetricsPort)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var pending []*tcp.End
	sendPeriod := clock.NewPeriod(udp.SendPeriod)
	diagPeriod := clock.NewPeriod(5 * time.Second)

loop:
	for {
		select {
		case sig := <-sigChan:
			logger.Warn("received signal: %v, shutting down", sig)
			break loop
		default:
		}

		acceptPending(tcpLn, srv, &pending)
		pollPending(srv, &pending)
		pollEstablished(srv)
		pollUDP(udpSock, srv, tracker, peers, advertiser, clk)

		now := clk.Now()
		if sendPeriod.Due(now) {
			sendPeriod.Reset(now)
			peers.tick(udpSock, clk)
		}
		if diagPeriod.Due(now) {
			diagPeriod.Reset(now)
			logTCPDiagnostics(srv)
		}

		time.Sleep(time.Millisecond)
	}

	logger.Success("server stopped")
}

// acceptPending polls the listener once without blocking and registers
// any freshly accepted connection as pending.
func acceptPending(ln *net.TCPListener, srv *server.Server, pending *[]*tcp.End) {
	if err := ln.SetDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return
	}
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	end, err := tcp.NewEnd(conn.(*net.TCPConn))
	if err != nil {
		logger.Warn("failed to wrap accepted connection: %v", err)
		return
	}
	cid := logger.NewCorrelationID()
	logger.With(logger.Fields{"conn": cid, "remote": end.RemoteAddr()}).Info("accepted connection")
	srv.OnAccept(end)
	*pending = append(*pending, end)
}

// pollPending polls every not-yet-joined connection for its
// session-request (or an early close) and removes it from pending once
// either happens.
func pollPending(srv *server.Server, pending *[]*tcp.End) {
	kept := (*pending)[:0]
	for _, end := range *pending {
		packets, closed, _ := end.Poll()
		if closed {
			end.Close()
			continue
		}
		joined := false
		for _, pkt := range packets {
			ms := protocol.NewMessageStream(pkt)
			tag, ok := ms.NextTag()
			if !ok || tag != protocol.TagSessionRequest {
				continue
			}
			req, err := protocol.DecodeSessionRequest(ms.R)
			if err != nil {
				logger.Warn("malformed session-request: %v", err)
				continue
			}
			if err := srv.OnSessionRequest(end, req); err != nil {
				logger.Warn("session-request handling failed: %v", err)
				continue
			}
			joined = true
		}
		if !joined {
			kept = append(kept, end)
		}
	}
	*pending = kept
}

// pollEstablished polls every joined member's TCP connection for a
// disconnect and drains the fan-out queue.
func pollEstablished(srv *server.Server) {
	for _, id := range srv.EstablishedIDs() {
		end, ok := srv.EndByID(id)
		if !ok {
			continue
		}
		_, closed, _ := end.Poll()
		if closed {
			end.Close()
			srv.OnDisconnect(id)
		}
	}
	srv.Fanout.Pump()
}

// pollUDP performs one nonblocking UDP read: LAN discovery probes,
// ack handshakes, and clock-sync exchanges are handled inline; anything
// else is opaque gameplay payload left for a higher layer to consume.
func pollUDP(sock *udp.Socket, srv *server.Server, tracker *timesync.ServerTracker, peers *peerSenderSet, advertiser *discovery.Advertiser, clk *clock.Clock) {
	buf := make([]byte, 2048)
	n, addr, err := sock.ReadFrom(buf)
	if err != nil {
		return
	}
	datagram := buf[:n]

	if len(datagram) == 1 && protocol.Tag(datagram[0]) == protocol.TagLanServerDiscovery {
		localNets, err := discovery.LocalSubnets()
		if err != nil {
			return
		}
		if resp, ok := advertiser.HandleDiscovery(protocol.Tag(datagram[0]), addr.IP, localNets); ok {
			_ = sock.WriteTo(resp, addr)
		}
		return
	}

	_, body, err := protocol.DecodeUDPHeader(datagram)
	if err != nil {
		return
	}
	memberID, ok := peers.addrToID(addr)
	if !ok {
		return
	}

	ms := protocol.NewMessageStream(body)
	for {
		tag, ok := ms.NextTag()
		if !ok {
			return
		}
		switch tag {
		case protocol.TagAckRequest:
			ack, err := protocol.DecodeAckMessage(ms.R)
			if err != nil {
				return
			}
			now := float32(clk.Seconds())
			resp := protocol.AckMessage{AckNumber: ack.AckNumber}
			w := wire.NewWriter(resp.WireSize() + 1)
			resp.Encode(w, protocol.TagAckResponse)
			_ = sock.WriteTo(append(protocol.EncodeUDPHeader(now), w.Bytes()...), addr)
		case protocol.TagAckResponse:
			ack, err := protocol.DecodeAckMessage(ms.R)
			if err != nil {
				return
			}
			if sender, ok := peers.senders[memberID]; ok {
				sender.OnAckResponse(ack.AckNumber)
			}
			peers.multi.OnAckResponse(memberID, ack.AckNumber)
		case protocol.TagTimeInitialRequest, protocol.TagTimeUpdateRequest:
			exch, err := protocol.DecodeTimeExchange(ms.R)
			if err != nil {
				return
			}
			now := float32(clk.Seconds())
			if tag == protocol.TagTimeUpdateRequest {
				tracker.RecordUpdateRTT(memberID, now, exch.ClientTime)
			}
			resp := protocol.TimeResponse{ClientTime: exch.ClientTime, ServerTime: now}
			w := wire.NewWriter(resp.WireSize() + 1)
			resp.Encode(w)
			_ = sock.WriteTo(append(protocol.EncodeUDPHeader(now), w.Bytes()...), addr)
		default:
			return // opaque application payload: left for a game-layer handler to consume
		}
	}
}

// logTCPDiagnostics logs best-effort kernel TCP_INFO for every established
// session connection (Linux only; a no-op elsewhere).
func logTCPDiagnostics(srv *server.Server) {
	if !netstat.Supported() {
		return
	}
	for _, id := range srv.EstablishedIDs() {
		end, ok := srv.EndByID(id)
		if !ok {
			continue
		}
		info, err := netstat.Read(end)
		if err != nil {
			continue
		}
		logger.With(logger.Fields{
			"member":      id,
			"rttMicros":   info.RTTMicros,
			"retransmits": info.Retransmits,
			"cwnd":        info.SendCongestWnd,
		}).Debug("tcp diagnostics")
	}
}

// peerSenderSet owns the per-member UDP PeerSender and the shared
// MulticastSender, kept in sync with roster membership via
// session.Observer.
type peerSenderSet struct {
	cfg     config.Server
	tracker *timesync.ServerTracker
	metrics *metrics.Registry
	senders map[uint16]*udp.PeerSender
	multi   *udp.MulticastSender
	addrs   map[uint16]*net.UDPAddr
}

func newPeerSenderSet(cfg config.Server, tracker *timesync.ServerTracker, reg *metrics.Registry) *peerSenderSet {
	s := &peerSenderSet{
		cfg:     cfg,
		tracker: tracker,
		metrics: reg,
		senders: make(map[uint16]*udp.PeerSender),
		addrs:   make(map[uint16]*net.UDPAddr),
	}
	s.multi = udp.NewMulticastSender(cfg.BytesPerPeriodToCli, udp.DefaultMTUSafePayload, tracker.MeanBadRTT, s.resolveUnicast)
	s.multi.AttachMetrics(reg)
	return s
}

func (s *peerSenderSet) resolveUnicast(id uint16) *udp.PeerSender { return s.senders[id] }

func (s *peerSenderSet) addrToID(addr *net.UDPAddr) (uint16, bool) {
	for id, known := range s.addrs {
		if known.IP.Equal(addr.IP) && known.Port == addr.Port {
			return id, true
		}
	}
	return 0, false
}

// MemberAdded implements session.Observer.
func (s *peerSenderSet) MemberAdded(m session.Member) {
	if m.ID == session.ServerID {
		return
	}
	id := m.ID
	sender := udp.NewPeerSender(s.cfg.BytesPerPeriodToCli, udp.DefaultMTUSafePayload, func() float32 { return s.tracker.BadRTT(id) })
	sender.AttachMetrics(s.metrics, strconv.Itoa(int(id)))
	s.senders[id] = sender
	s.addrs[id] = &net.UDPAddr{IP: m.IP, Port: int(m.Port)}
}

// MemberRemoved implements session.Observer.
func (s *peerSenderSet) MemberRemoved(id uint16) {
	delete(s.senders, id)
	delete(s.addrs, id)
}

// tick flushes every peer sender's assembled datagram, and the multicast
// sender's when cfg.Multicast is set, once per SendPeriod.
func (s *peerSenderSet) tick(sock *udp.Socket, clk *clock.Clock) {
	now := float32(clk.Seconds())
	for id, sender := range s.senders {
		sender.PeriodTick(float32(udp.SendPeriod.Seconds()))
		if body, ok := sender.PrepareSend(); ok {
			datagram := append(protocol.EncodeUDPHeader(now), body...)
			if err := sock.WriteTo(datagram, s.addrs[id]); err == nil {
				sender.Flush()
			}
		}
		sender.ResetPeriod()
	}

	if !s.cfg.Multicast {
		return
	}
	s.multi.PeriodTick(float32(udp.SendPeriod.Seconds()))
	if body, ok := s.multi.PrepareSend(); ok {
		group := &net.UDPAddr{IP: net.ParseIP(udp.MulticastGroup), Port: udp.MulticastPort}
		datagram := append(protocol.EncodeUDPHeader(now), body...)
		if err := sock.WriteTo(datagram, group); err == nil {
			s.multi.Flush()
		}
	}
	s.multi.ResetPeriod()
}
