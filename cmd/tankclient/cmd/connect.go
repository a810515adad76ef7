package cmd

import (
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tanknet/internal/client"
	"tanknet/internal/config"
	"tanknet/internal/protocol"
	"tanknet/internal/session"
	"tanknet/internal/timesync"
	"tanknet/internal/transport/udp"
	"tanknet/pkg/clock"
	"tanknet/pkg/logger"
	"tanknet/pkg/wire"
)

var (
	connectAddr      string
	connectPassword  string
	connectMulticast bool
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect to a tanknet server and stay joined until interrupted",
	Run:   runConnect,
}

func init() {
	RootCmd.AddCommand(connectCmd)
	defaults := config.DefaultClient()
	flags := connectCmd.Flags()
	flags.StringVarP(&connectAddr, "addr", "a", "127.0.0.1:7777", "server TCP address")
	flags.StringVarP(&connectPassword, "password", "p", defaults.Password, "session password")
	flags.BoolVarP(&connectMulticast, "multicast", "m", defaults.Multicast, "request multicast-capable delivery")
}

func runConnect(_ *cobra.Command, _ []string) {
	configureVerbosity()

	udpSock, err := udp.ListenClient()
	if err != nil {
		logger.Fatal("failed to open local UDP socket: %v", err)
	}
	defer udpSock.Close()
	localPort := uint16(udpSock.LocalAddr().Port)

	c := client.NewClient(localPort, connectPassword, connectMulticast)
	if err := c.Connect(connectAddr); err != nil {
		logger.Fatal("connect failed: %v", err)
	}
	logger.Info("dialing %s", connectAddr)

	clk := clock.New()
	clockSync := timesync.NewClientClock(clk)
	timeReqPeriod := clock.NewPeriod(2 * time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sigChan:
			logger.Warn("interrupted, disconnecting")
			gracefulDisconnect(c)
			return
		default:
		}

		switch st := c.State().(type) {
		case client.Connecting:
			if err := c.PollConnecting(time.Now(), localOutboundIP()); err != nil {
				if err == client.ErrTimeout {
					logger.Fatal("connect timed out")
				}
			}
		case client.Connected:
			pollConnectedTCP(c, st)
		case client.ReadyToUse:
			pollReadyToUseTCP(c, st)
			now := clk.Now()
			if timeReqPeriod.Due(now) {
				timeReqPeriod.Reset(now)
				sendTimeRequest(udpSock, st, clockSync)
			}
			pollGameplayUDP(udpSock, clockSync)
		case client.Disconnecting:
			if pollDisconnectingTCP(c, st) {
				logger.Success("disconnected")
				return
			}
		case client.Disconnected:
			logger.Warn("connection lost")
			return
		}

		time.Sleep(time.Millisecond)
	}
}

func localOutboundIP() net.IP {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return net.IPv4(127, 0, 0, 1)
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP
}

func pollConnectedTCP(c *client.Client, st client.Connected) {
	packets, closed, _ := st.End.Poll()
	if closed {
		c.OnTCPClosed()
		return
	}
	for _, pkt := range packets {
		ms := protocol.NewMessageStream(pkt)
		tag, ok := ms.NextTag()
		if !ok {
			continue
		}
		switch tag {
		case protocol.TagSessionPositiveResponse:
			resp, err := protocol.DecodeSessionPositiveResponse(ms.R)
			if err != nil {
				continue
			}
			if err := c.OnSessionPositiveResponse(resp); err != nil {
				logger.Warn("%v", err)
			}
			logger.Success("joined session as member %d", resp.AssignedID)
		case protocol.TagSessionIsFull, protocol.TagSessionWrongPassword:
			logger.Error("session rejected: %s", tag)
			c.OnSessionRejected()
		}
	}
}

func pollReadyToUseTCP(c *client.Client, st client.ReadyToUse) {
	packets, closed, _ := st.End.Poll()
	if closed {
		c.OnTCPClosed()
		return
	}
	for _, pkt := range packets {
		ms := protocol.NewMessageStream(pkt)
		tag, ok := ms.NextTag()
		if !ok {
			continue
		}
		switch tag {
		case protocol.TagSessionNewMember:
			msg, err := protocol.DecodeSessionNewMember(ms.R)
			if err == nil {
				logger.Info("member %d joined", msg.Member.ID)
			}
		case protocol.TagSessionRemoveMember:
			msg, err := protocol.DecodeSessionRemoveMember(ms.R)
			if err != nil {
				continue
			}
			logger.Info("member %d left", msg.ID)
			if msg.ID == st.OwnID {
				c.OnRemoveMemberSelf()
			}
		}
	}
}

func pollDisconnectingTCP(c *client.Client, st client.Disconnecting) bool {
	_, closed, _ := st.End.Poll()
	if closed {
		return c.OnPeerFIN() == nil
	}
	return false
}

func gracefulDisconnect(c *client.Client) {
	switch c.State().(type) {
	case client.ReadyToUse:
		c.RequestDisconnect()
	case client.Connected:
		c.OnSessionRejected()
	}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if st, ok := c.State().(client.Disconnecting); ok {
			if pollDisconnectingTCP(c, st) {
				return
			}
		}
		time.Sleep(time.Millisecond)
	}
}

func sendTimeRequest(sock *udp.Socket, st client.ReadyToUse, cc *timesync.ClientClock) {
	server, ok := st.Roster.Find(session.ServerID)
	if !ok {
		return
	}
	tag := protocol.TagTimeUpdateRequest
	if !cc.Ready() {
		tag = protocol.TagTimeInitialRequest
	}
	exch := protocol.TimeExchange{ClientTime: cc.NetworkNow()}
	w := wire.NewWriter(exch.WireSize() + 1)
	exch.Encode(w, tag)
	datagram := append(protocol.EncodeUDPHeader(cc.NetworkNow()), w.Bytes()...)

	addr := &net.UDPAddr{IP: server.IP, Port: int(server.Port)}
	_ = sock.WriteTo(datagram, addr)
}

func pollGameplayUDP(sock *udp.Socket, cc *timesync.ClientClock) {
	buf := make([]byte, 2048)
	n, addr, err := sock.ReadFrom(buf)
	if err != nil {
		return
	}
	_, body, err := protocol.DecodeUDPHeader(buf[:n])
	if err != nil {
		return
	}
	ms := protocol.NewMessageStream(body)
	for {
		tag, ok := ms.NextTag()
		if !ok {
			return
		}
		switch tag {
		case protocol.TagTimeResponse:
			resp, err := protocol.DecodeTimeResponse(ms.R)
			if err != nil {
				return
			}
			cc.OnResponse(resp.ClientTime, resp.ServerTime, 2.0)
		case protocol.TagAckRequest:
			ack, err := protocol.DecodeAckMessage(ms.R)
			if err != nil {
				return
			}
			resp := protocol.AckMessage{AckNumber: ack.AckNumber}
			w := wire.NewWriter(resp.WireSize() + 1)
			resp.Encode(w, protocol.TagAckResponse)
			datagram := append(protocol.EncodeUDPHeader(cc.NetworkNow()), w.Bytes()...)
			_ = sock.WriteTo(datagram, addr)
		default:
			return // opaque application payload
		}
	}
}
