// Package config holds the server and client startup configuration,
// loaded from command-line flags with hardcoded defaults the way the
// teacher's core/main.go loadConfig did, generalized to flag.FlagSet so
// both cmd/tanknetd and cmd/tankclient can parse their own flag sets
// against the same default values.
package config

import (
	"flag"
	"fmt"
)

// Server holds every tunable the dedicated server needs at startup.
type Server struct {
	Host                string
	TCPPort             int
	UDPPort             int
	MaxClients          int
	Password            string
	Multicast           bool
	MetricsPort         int
	LogLevel            string
	BytesPerPeriodToSrv int
	BytesPerPeriodToCli int
}

// DefaultServer mirrors the teacher's hardcoded loadConfig defaults,
// adapted to this module's fields.
func DefaultServer() Server {
	return Server{
		Host:                "0.0.0.0",
		TCPPort:             7777,
		UDPPort:             7778,
		MaxClients:          16,
		Password:            "",
		Multicast:           false,
		MetricsPort:         9100,
		LogLevel:            "info",
		BytesPerPeriodToSrv: 500,
		BytesPerPeriodToCli: 3000,
	}
}

// RegisterFlags binds every field of s to fs, using s's current values
// (normally DefaultServer()) as the flag defaults.
func (s *Server) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&s.Host, "host", s.Host, "address to bind the TCP/UDP listeners on")
	fs.IntVar(&s.TCPPort, "tcp-port", s.TCPPort, "TCP session-management port")
	fs.IntVar(&s.UDPPort, "udp-port", s.UDPPort, "UDP gameplay port")
	fs.IntVar(&s.MaxClients, "max-clients", s.MaxClients, "maximum connected clients (0 = unlimited)")
	fs.StringVar(&s.Password, "password", s.Password, "session password, empty disables the check")
	fs.BoolVar(&s.Multicast, "multicast", s.Multicast, "enable multicast fan-out for replicated snapshots")
	fs.IntVar(&s.MetricsPort, "metrics-port", s.MetricsPort, "port to serve /metrics on")
	fs.StringVar(&s.LogLevel, "log-level", s.LogLevel, "debug, info, warn, or error")
	fs.IntVar(&s.BytesPerPeriodToSrv, "bytes-per-period-to-server", s.BytesPerPeriodToSrv, "per-client send budget, server-bound direction")
	fs.IntVar(&s.BytesPerPeriodToCli, "bytes-per-period-to-client", s.BytesPerPeriodToCli, "per-client send budget, client-bound direction")
}

// Validate reports a descriptive error for any setting that would make
// the server unable to start.
func (s Server) Validate() error {
	if s.TCPPort <= 0 || s.TCPPort > 65535 {
		return fmt.Errorf("config: tcp-port %d out of range", s.TCPPort)
	}
	if s.UDPPort <= 0 || s.UDPPort > 65535 {
		return fmt.Errorf("config: udp-port %d out of range", s.UDPPort)
	}
	if s.TCPPort == s.UDPPort {
		return fmt.Errorf("config: tcp-port and udp-port must differ")
	}
	if s.MaxClients < 0 {
		return fmt.Errorf("config: max-clients cannot be negative")
	}
	return nil
}

// Client holds the tunables the headless client CLI needs.
type Client struct {
	LocalUDPPort int
	Password     string
	Multicast    bool
	LogLevel     string
}

// DefaultClient returns the client's hardcoded defaults.
func DefaultClient() Client {
	return Client{
		LocalUDPPort: 0, // ephemeral
		Password:     "",
		Multicast:    false,
		LogLevel:     "info",
	}
}
