package cmd

import (
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"tanknet/internal/config"
	"tanknet/internal/discovery"
	"tanknet/internal/protocol"
	"tanknet/pkg/logger"
	"tanknet/pkg/wire"
)

var discoverTimeout time.Duration

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Broadcast a LAN discovery probe and list responding servers",
	Run:   runDiscover,
}

func init() {
	RootCmd.AddCommand(discoverCmd)
	discoverCmd.Flags().DurationVarP(&discoverTimeout, "timeout", "t", 2*time.Second, "how long to wait for responses")
}

func runDiscover(_ *cobra.Command, _ []string) {
	configureVerbosity()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0})
	if err != nil {
		logger.Fatal("failed to open discovery socket: %v", err)
	}
	defer conn.Close()

	bcasts, err := discovery.BroadcastAddrs()
	if err != nil {
		logger.Fatal("failed to enumerate broadcast addresses: %v", err)
	}

	finder := discovery.NewFinder()
	probe := discovery.EncodeProbe()
	serverUDPPort := config.DefaultServer().UDPPort
	for _, ip := range bcasts {
		addr := &net.UDPAddr{IP: ip, Port: serverUDPPort}
		_, _ = conn.WriteToUDP(probe, addr)
	}

	deadline := time.Now().Add(discoverTimeout)
	buf := make([]byte, 64)
	for time.Now().Before(deadline) {
		if err := conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond)); err != nil {
			break
		}
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			continue
		}
		r := buf[:n]
		if len(r) < 1 || protocol.Tag(r[0]) != protocol.TagLanServerResponse {
			continue
		}
		resp, err := protocol.DecodeLanServerResponse(wire.NewReader(r[1:]))
		if err != nil {
			continue
		}
		finder.OnResponse(resp)
	}

	results := finder.Results()
	if len(results) == 0 {
		fmt.Println("no servers found")
		return
	}
	for _, s := range results {
		fmt.Printf("%s:%d\n", s.IP, s.Port)
	}
}
