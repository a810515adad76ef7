package config

import (
	"flag"
	"testing"
)

func TestRegisterFlagsOverridesDefaults(t *testing.T) {
	s := DefaultServer()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	s.RegisterFlags(fs)

	if err := fs.Parse([]string{"-tcp-port=1234", "-max-clients=4"}); err != nil {
		t.Fatal(err)
	}
	if s.TCPPort != 1234 {
		t.Fatalf("expected tcp-port override, got %d", s.TCPPort)
	}
	if s.MaxClients != 4 {
		t.Fatalf("expected max-clients override, got %d", s.MaxClients)
	}
	if s.UDPPort != DefaultServer().UDPPort {
		t.Fatalf("expected untouched flags to keep their default")
	}
}

func TestValidateRejectsSamePortForBothTransports(t *testing.T) {
	s := DefaultServer()
	s.UDPPort = s.TCPPort
	if err := s.Validate(); err == nil {
		t.Fatal("expected error when tcp-port == udp-port")
	}
}

func TestValidateRejectsOutOfRangePort(t *testing.T) {
	s := DefaultServer()
	s.TCPPort = 70000
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for out-of-range tcp-port")
	}
}
